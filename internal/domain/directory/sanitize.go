package directory

import "strings"

// SanitizeEmpID strips every character that could act as a path segment
// separator before the id is embedded in a storage key. Employee ids are
// human-assigned and may contain slashes ("HR/2024/001"); without this an
// id could traverse or nest storage paths.
func SanitizeEmpID(empID string) string {
	var b strings.Builder
	b.Grow(len(empID))
	for _, r := range empID {
		switch r {
		case '/', '\\', '.', ' ':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
