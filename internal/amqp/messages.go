package amqp

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"wallet/internal/core"
)

// InboundMessage carries one notification forwarded from a phone or mailbox.
type InboundMessage struct {
	ID          string    `json:"id"`
	Subject     string    `json:"subject"`
	Snippet     string    `json:"snippet"`
	ReceivedAt  string    `json:"receivedAt"`
	ForwardedAt time.Time `json:"forwardedAt"`
}

func NewInboundMessage(msg core.Message) *InboundMessage {
	return &InboundMessage{
		ID:          msg.ID,
		Subject:     msg.Subject,
		Snippet:     msg.Snippet,
		ReceivedAt:  msg.ReceivedAt,
		ForwardedAt: time.Now().UTC(),
	}
}

// Message converts back to the form message parsers consume.
func (m *InboundMessage) Message() core.Message {
	return core.Message{ID: m.ID, Subject: m.Subject, Snippet: m.Snippet, ReceivedAt: m.ReceivedAt}
}

func (m *InboundMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// InboundMessageFromJSON decodes a delivery body. Bodies without a subject or
// snippet carry nothing to parse and are rejected.
func InboundMessageFromJSON(data []byte) (*InboundMessage, error) {
	var msg InboundMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if strings.TrimSpace(msg.Subject) == "" && strings.TrimSpace(msg.Snippet) == "" {
		return nil, errors.New("inbound message has no subject or snippet")
	}
	return &msg, nil
}
