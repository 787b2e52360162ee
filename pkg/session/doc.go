// Package session owns the single long-lived ServerQuery control session:
// it establishes and authenticates the connection, keeps it alive across
// network interruptions, and serializes access to it for any number of
// concurrent callers.
//
// The Manager is the only owner of the transport handle. Callers get at it
// exclusively through WithSession (or the Exec convenience wrapper), which
// holds the manager mutex for the duration of one wire exchange: the
// protocol is strictly request/response and cannot tolerate overlapping
// commands. A background health monitor probes liveness on a fixed interval
// and drives bounded reconnection bursts with exponential backoff; a failed
// caller command never triggers reconnection by itself.
package session
