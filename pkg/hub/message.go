// Package hub provides a thread-safe websocket broadcast hub for the
// dashboard status and preview streams, using a channel-based fan-out loop.
package hub

import "github.com/gofiber/websocket/v2"

// Kind is the websocket frame kind a message is written as.
type Kind int

const (
	// Text frames carry JSON (status, logs).
	Text Kind = iota
	// Binary frames carry encoded preview images.
	Binary
)

// Message is one broadcast payload.
type Message struct {
	Kind Kind
	Data []byte
}

// TextMessage wraps pre-encoded JSON.
func TextMessage(data []byte) Message {
	return Message{Kind: Text, Data: data}
}

// BinaryMessage wraps an encoded frame.
func BinaryMessage(data []byte) Message {
	return Message{Kind: Binary, Data: data}
}

func (m Message) frameType() int {
	if m.Kind == Binary {
		return websocket.BinaryMessage
	}
	return websocket.TextMessage
}
