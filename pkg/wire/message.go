// Package wire defines the framed-JSON message envelope shared by the
// Agent, Client, and Service endpoints.
package wire

import (
	"encoding/json"
	"time"
)

// Message is a single framed JSON object exchanged over a duplex
// connection. Every message carries a unique id; a reply sets
// RequestID to the id of the message it answers.
type Message struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Timestamp string          `json:"timestamp,omitempty"`
	Content   json.RawMessage `json:"content,omitempty"`
	RequestID string          `json:"requestId,omitempty"`
}

// NewMessage builds a Message with the given type and content, stamping
// the current time. id must be unique per sender (UUIDv4 recommended).
func NewMessage(id, typ string, content any) (Message, error) {
	raw, err := json.Marshal(content)
	if err != nil {
		return Message{}, err
	}
	return Message{
		ID:        id,
		Type:      typ,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Content:   raw,
	}, nil
}

// Reply builds a Message whose RequestID points back at this message.
func (m Message) Reply(id, typ string, content any) (Message, error) {
	reply, err := NewMessage(id, typ, content)
	if err != nil {
		return Message{}, err
	}
	reply.RequestID = m.ID
	return reply, nil
}

// DecodeContent unmarshals the message content into v.
func (m Message) DecodeContent(v any) error {
	if len(m.Content) == 0 {
		return nil
	}
	return json.Unmarshal(m.Content, v)
}
