package query

import (
	"fmt"
	"strconv"
	"strings"
)

// statusPrefix starts the terminating line of every ServerQuery response.
const statusPrefix = "error "

// Error is a non-zero ServerQuery status line (a protocol-level failure
// reported by the server, e.g. insufficient permissions). It never indicates
// a transport problem.
type Error struct {
	// ID is the ServerQuery error id (0 means ok and is never an Error).
	ID int
	// Msg is the unescaped server message.
	Msg string
	// ExtraMsg carries the optional extra_msg detail, when present.
	ExtraMsg string
}

// Error returns the error message.
func (e *Error) Error() string {
	if e.ExtraMsg != "" {
		return fmt.Sprintf("server error %d: %s (%s)", e.ID, e.Msg, e.ExtraMsg)
	}
	return fmt.Sprintf("server error %d: %s", e.ID, e.Msg)
}

// Well-known ServerQuery error ids.
const (
	errIDInvalidLogin          = 520
	errIDPermissions           = 2568
	errIDTokenInvalid          = 2569
	errIDClientInvalidPassword = 1538
)

// IsPermissionDenied reports whether the error is the "insufficient client
// permissions" status.
func (e *Error) IsPermissionDenied() bool {
	return e.ID == errIDPermissions
}

// IsAuthFailure reports whether the error indicates rejected credentials or
// an unusable privilege token.
func (e *Error) IsAuthFailure() bool {
	switch e.ID {
	case errIDInvalidLogin, errIDTokenInvalid, errIDClientInvalidPassword:
		return true
	}
	return false
}

// Response is a parsed ServerQuery response body.
type Response struct {
	// Entries holds the data lines split on "|", each entry a map of
	// unescaped key=value pairs. Empty for commands without a body.
	Entries []map[string]string
}

// First returns the first entry, or an empty map if the response had no body.
func (r *Response) First() map[string]string {
	if len(r.Entries) == 0 {
		return map[string]string{}
	}
	return r.Entries[0]
}

// isStatusLine reports whether a raw line is the terminating status line.
func isStatusLine(line string) bool {
	return strings.HasPrefix(line, statusPrefix)
}

// parseStatusLine parses the "error id=N msg=..." line. Both results are
// nil when id was 0.
func parseStatusLine(line string) (*Error, error) {
	if !isStatusLine(line) {
		return nil, fmt.Errorf("malformed status line %q", line)
	}

	fields := parsePairs(strings.TrimPrefix(line, statusPrefix))

	id, err := strconv.Atoi(fields["id"])
	if err != nil {
		return nil, fmt.Errorf("malformed status id in %q", line)
	}

	if id == 0 {
		return nil, nil
	}

	return &Error{
		ID:       id,
		Msg:      fields["msg"],
		ExtraMsg: fields["extra_msg"],
	}, nil
}

// parseBody parses the data lines preceding the status line.
func parseBody(lines []string) []map[string]string {
	var entries []map[string]string
	for _, line := range lines {
		for _, part := range strings.Split(line, "|") {
			entries = append(entries, parsePairs(part))
		}
	}
	return entries
}

// parsePairs parses space-separated key=value tokens, unescaping values.
// Tokens without '=' (bare flags) map to the empty string.
func parsePairs(s string) map[string]string {
	pairs := make(map[string]string)
	for _, tok := range strings.Fields(s) {
		key, value, found := strings.Cut(tok, "=")
		if !found {
			pairs[tok] = ""
			continue
		}
		pairs[key] = Unescape(value)
	}
	return pairs
}
