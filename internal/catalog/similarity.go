package catalog

// Ratio returns the normalized Indel similarity of a and b on a 0–100
// scale: 100 * (1 - distance / (len(a) + len(b))), where distance is the
// minimum number of single-rune insertions and deletions turning a into
// b.  The comparison is case-sensitive and operates on runes.  Two empty
// strings are considered identical.
func Ratio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 100
	}
	// Indel distance = total - 2*LCS, so the ratio reduces to 2*LCS/total.
	return 100 * float64(2*lcsLength(ra, rb)) / float64(total)
}

// lcsLength computes the length of the longest common subsequence using
// a single rolling row.
func lcsLength(a, b []rune) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	if len(b) > len(a) {
		a, b = b, a
	}
	row := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		diag := 0
		for j := 1; j <= len(b); j++ {
			up := row[j]
			if a[i-1] == b[j-1] {
				row[j] = diag + 1
			} else if row[j-1] > row[j] {
				row[j] = row[j-1]
			}
			diag = up
		}
	}
	return row[len(b)]
}
