// Command zonectl administers the zone reservation service: schema
// migration, manual purge, table dump, gateway token issuance and zone
// resolution.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
