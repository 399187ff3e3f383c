package gnuplot

import (
	"bytes"
	"errors"
	"strings"
	"sync"
)

// ErrHandleClosed is returned by a MemoryHandle after Close.
var ErrHandleClosed = errors.New("gnuplot: handle closed")

// MemoryHandle records commands instead of running gnuplot.
type MemoryHandle struct {
	term string
	pid  int
	done chan struct{}

	mu         sync.Mutex
	buf        bytes.Buffer
	closed     bool
	rows, cols uint16
}

func NewMemoryHandle(term string) *MemoryHandle {
	if term == "" {
		term = DefaultTerm
	}
	return &MemoryHandle{term: term, done: make(chan struct{})}
}

func (h *MemoryHandle) Send(command string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrHandleClosed
	}
	return writeLine(&h.buf, command)
}

func (h *MemoryHandle) Terminal() string      { return h.term }
func (h *MemoryHandle) PID() int              { return h.pid }
func (h *MemoryHandle) Done() <-chan struct{} { return h.done }

// Bytes returns everything written so far.
func (h *MemoryHandle) Bytes() []byte {
	h.mu.Lock()
	defer h.mu.Unlock()
	return bytes.Clone(h.buf.Bytes())
}

// Commands returns the recorded command lines in order.
func (h *MemoryHandle) Commands() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	s := strings.TrimSuffix(h.buf.String(), "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

// Resize records the requested window size.
func (h *MemoryHandle) Resize(rows, cols uint16) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.rows, h.cols = rows, cols
	return nil
}

// Size returns the last size passed to Resize.
func (h *MemoryHandle) Size() (rows, cols uint16) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.rows, h.cols
}

// Close simulates the process exiting; later sends fail.
func (h *MemoryHandle) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	close(h.done)
}

// MemoryLauncher hands out MemoryHandles and keeps every one it launched.
// Setting Err makes the next launches fail. Setting Exited hands out handles
// whose process has already gone, so every send fails.
type MemoryLauncher struct {
	Err    error
	Exited bool

	mu      sync.Mutex
	handles []*MemoryHandle
}

func (l *MemoryLauncher) Launch(term string) (Handle, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.Err != nil {
		return nil, l.Err
	}
	h := NewMemoryHandle(term)
	if l.Exited {
		h.Close()
	}
	l.handles = append(l.handles, h)
	return h, nil
}

// Launched returns the handles started so far, oldest first.
func (l *MemoryLauncher) Launched() []*MemoryHandle {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]*MemoryHandle, len(l.handles))
	copy(out, l.handles)
	return out
}
