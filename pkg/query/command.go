package query

import (
	"strconv"
	"strings"
)

// Command builds a single ServerQuery command line.
type Command struct {
	name   string
	params []param
	flags  []string
}

type param struct {
	key   string
	value string
}

// NewCommand creates a command with the given name (e.g. "clientlist").
func NewCommand(name string) *Command {
	return &Command{name: name}
}

// Param adds a key=value parameter. The value is escaped on render.
func (c *Command) Param(key, value string) *Command {
	c.params = append(c.params, param{key: key, value: value})
	return c
}

// ParamInt adds an integer parameter.
func (c *Command) ParamInt(key string, value int) *Command {
	return c.Param(key, strconv.Itoa(value))
}

// Flag adds an option flag (rendered as "-name").
func (c *Command) Flag(name string) *Command {
	c.flags = append(c.flags, name)
	return c
}

// Name returns the command name.
func (c *Command) Name() string {
	return c.name
}

// String renders the command as a wire line without the trailing newline.
func (c *Command) String() string {
	var sb strings.Builder
	sb.WriteString(c.name)

	for _, p := range c.params {
		sb.WriteByte(' ')
		sb.WriteString(p.key)
		sb.WriteByte('=')
		sb.WriteString(Escape(p.value))
	}

	for _, f := range c.flags {
		sb.WriteString(" -")
		sb.WriteString(f)
	}

	return sb.String()
}
