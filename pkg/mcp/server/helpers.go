package server

import "strconv"

// atoi converts a wire value, mapping absent or malformed fields to zero.
func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

// boolFlag renders a boolean as the 0/1 the wire protocol expects.
func boolFlag(b bool) int {
	if b {
		return 1
	}
	return 0
}
