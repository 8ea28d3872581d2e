package config

import (
    "errors"
    "fmt"
    "os"

    "gopkg.in/yaml.v3"
)

// ErrNoZones is returned when neither the zones file nor ZONES yields a
// single zone name.
var ErrNoZones = errors.New("no zones configured")

// zoneFile mirrors zone.json: {"zonelist": ["Zone A", ...]}.  JSON is a
// subset of YAML, so one decoder reads both formats.
type zoneFile struct {
    ZoneList []string `yaml:"zonelist"`
}

// ParseZones decodes a zones document.
func ParseZones(data []byte) ([]string, error) {
    var zf zoneFile
    if err := yaml.Unmarshal(data, &zf); err != nil {
        return nil, fmt.Errorf("parse zones: %w", err)
    }
    return zf.ZoneList, nil
}

// LoadZones returns the zone catalog.  The file at path is used when it
// exists; otherwise fallback (the ZONES variable) is.
func LoadZones(path string, fallback []string) ([]string, error) {
    if path != "" {
        data, err := os.ReadFile(path)
        switch {
        case err == nil:
            zones, err := ParseZones(data)
            if err != nil {
                return nil, err
            }
            if len(zones) > 0 {
                return zones, nil
            }
        case !errors.Is(err, os.ErrNotExist):
            return nil, fmt.Errorf("read zones file: %w", err)
        }
    }
    if len(fallback) == 0 {
        return nil, ErrNoZones
    }
    return fallback, nil
}

// ZonesFromEnv loads the catalog from ZONES_FILE or ZONES without
// reading the rest of the configuration.
func ZonesFromEnv() ([]string, error) {
    return LoadZones(envStr("ZONES_FILE", "zone.json"), splitList(envStr("ZONES", "")))
}
