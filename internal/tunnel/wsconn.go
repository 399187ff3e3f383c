package tunnel

import (
	"io"
	"sync"

	"github.com/gorilla/websocket"
)

// WSConn turns a websocket.Conn into an io.ReadWriteCloser carrying binary
// messages, which is what yamux runs over.
type WSConn struct {
	conn *websocket.Conn

	writeMu sync.Mutex
	pending []byte // unread tail of the last message
}

func NewWSConn(conn *websocket.Conn) *WSConn {
	return &WSConn{conn: conn}
}

func (w *WSConn) Read(p []byte) (int, error) {
	for len(w.pending) == 0 {
		_, msg, err := w.conn.ReadMessage()
		if err != nil {
			return 0, err
		}
		w.pending = msg
	}
	n := copy(p, w.pending)
	w.pending = w.pending[n:]
	return n, nil
}

func (w *WSConn) Write(p []byte) (int, error) {
	w.writeMu.Lock()
	defer w.writeMu.Unlock()
	if err := w.conn.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (w *WSConn) Close() error {
	return w.conn.Close()
}

var _ io.ReadWriteCloser = (*WSConn)(nil)
