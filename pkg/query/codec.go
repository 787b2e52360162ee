package query

import "strings"

// escaper applies the ServerQuery escape table to parameter values.
// Backslash must be listed first so it is not re-escaped.
var escaper = strings.NewReplacer(
	`\`, `\\`,
	`/`, `\/`,
	` `, `\s`,
	`|`, `\p`,
	"\a", `\a`,
	"\b", `\b`,
	"\f", `\f`,
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
	"\v", `\v`,
)

// unescaper reverses the ServerQuery escape table. Every pattern is a
// two-character backslash sequence, so a single left-to-right pass is safe.
var unescaper = strings.NewReplacer(
	`\\`, `\`,
	`\/`, `/`,
	`\s`, ` `,
	`\p`, `|`,
	`\a`, "\a",
	`\b`, "\b",
	`\f`, "\f",
	`\n`, "\n",
	`\r`, "\r",
	`\t`, "\t",
	`\v`, "\v",
)

// Escape encodes a raw string for use as a ServerQuery parameter value.
func Escape(s string) string {
	return escaper.Replace(s)
}

// Unescape decodes a ServerQuery-escaped value back to its raw form.
func Unescape(s string) string {
	return unescaper.Replace(s)
}
