// Package query implements the TeamSpeak 3 ServerQuery wire protocol: a
// line-oriented, strictly request/response control protocol over TCP.
//
// A command is a single line of the form
//
//	name key1=value1 key2=value2 -flag
//
// with parameter values escaped using the ServerQuery escape table. The
// server answers with zero or more data lines (pipe-separated entries of
// space-separated key=value pairs) followed by a status line
//
//	error id=0 msg=ok
//
// Any status with a non-zero id is returned as *Error.
//
// Conn is a thin transport handle and performs no locking: callers must
// serialize exchanges themselves. The session manager owns a Conn
// exclusively and holds its mutex for the duration of each exchange.
package query
