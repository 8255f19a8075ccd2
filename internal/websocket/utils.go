package websocket

import (
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeDeadline = 10 * time.Second

	// An attempt can sit on an intro screen for a while, so reads are
	// given a generous window before the connection is considered dead.
	readDeadline = 5 * time.Minute
)

// WriteTyped sends a typed event payload over the connection.
func WriteTyped(conn *websocket.Conn, v interface{}) error {
	conn.SetWriteDeadline(time.Now().Add(writeDeadline))
	return conn.WriteJSON(v)
}

// ReadRaw returns the next client message as raw bytes so the caller
// can peek at the action envelope before full parsing.
func ReadRaw(conn *websocket.Conn) ([]byte, error) {
	conn.SetReadDeadline(time.Now().Add(readDeadline))
	_, raw, err := conn.ReadMessage()
	return raw, err
}
