package realtime

import (
	"encoding/json"
	"time"
)

// MessageType ...
type MessageType string

const (
	TypeTransaction MessageType = "transaction"
	TypeDeposit     MessageType = "deposit"
	TypeBalance     MessageType = "balance"
	TypeError       MessageType = "error"
	TypePing        MessageType = "ping"
	TypePong        MessageType = "pong"

	// AnyType subscribes a handler to every message type.
	AnyType MessageType = "*"
)

// Message is the envelope of everything exchanged over the channel. The
// timestamp is expressed in unix milliseconds.
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// NewMessage returns a message of the given type with data encoded as JSON.
func NewMessage(
	msgType MessageType, data interface{}, ts time.Time,
) (Message, error) {
	msg := Message{Type: msgType, Timestamp: ts.UnixMilli()}
	if data == nil {
		return msg, nil
	}

	buf, err := json.Marshal(data)
	if err != nil {
		return Message{}, err
	}
	msg.Data = buf
	return msg, nil
}

// Decode unmarshals the message data into v.
func (m Message) Decode(v interface{}) error {
	return json.Unmarshal(m.Data, v)
}

func (m Message) Time() time.Time {
	return time.UnixMilli(m.Timestamp)
}
