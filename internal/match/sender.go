package match

// Sender is the narrow interface a Match uses to push data back out to
// a connected socket. transport.Connection implements this; match
// never imports transport, keeping Connection -> Match a one-way
// dependency (spec.md §9 cyclic-reference note).
type Sender interface {
	SendJSON(v any)
	SendBinary(b []byte)
	Close()
}
