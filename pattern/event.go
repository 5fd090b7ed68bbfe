package pattern

// Kind discriminates locally observed sends from inbound deliveries.
type Kind string

const (
	// KindSent marks events triggered synchronously by the local send path.
	KindSent Kind = "sent"
	// KindReceived marks events produced by the receive pump.
	KindReceived Kind = "received"
)

// Event is an immutable record of something a process observed. For received
// events the timestamp is the sender's logical clock at send time; for sent
// events it is the local clock after the send advanced it.
type Event struct {
	Kind        Kind
	Payload     interface{}
	Timestamp   uint64
	Source      string
	Destination string
}

// Tuple returns the canonical form recorded into pattern histories:
// (kind, payload, timestamp, source, destination).
func (e *Event) Tuple() []interface{} {
	return []interface{}{string(e.Kind), e.Payload, e.Timestamp, e.Source, e.Destination}
}
