package gnuplot

import (
	"fmt"
	"os"
	"os/exec"
	"sync"

	"github.com/creack/pty"
)

const replayBufSize = 100 * 1024 // 100KB replay buffer

// Console is a gnuplot instance attached to a pseudo-terminal, so its
// prompt, replies and errors can be replayed and streamed to viewers.
type Console struct {
	Cmd *exec.Cmd
	PTY *os.File

	term string
	done chan struct{}

	writeMu sync.Mutex

	// Replay buffer for late viewers
	replayMu  sync.Mutex
	replayBuf []byte

	// Subscribers for fan-out of gnuplot output
	subMu       sync.Mutex
	subscribers map[chan []byte]struct{}
}

// Send writes command followed by a newline to the pseudo-terminal.
func (c *Console) Send(command string) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return writeLine(c.PTY, command)
}

func (c *Console) Terminal() string { return c.term }

func (c *Console) PID() int {
	if c.Cmd.Process == nil {
		return 0
	}
	return c.Cmd.Process.Pid
}

// Done returns a channel that is closed when the gnuplot process exits.
func (c *Console) Done() <-chan struct{} {
	return c.done
}

func (c *Console) appendReplay(data []byte) {
	c.replayMu.Lock()
	defer c.replayMu.Unlock()
	c.replayBuf = append(c.replayBuf, data...)
	if len(c.replayBuf) > replayBufSize {
		c.replayBuf = c.replayBuf[len(c.replayBuf)-replayBufSize:]
	}
}

// Replay returns a copy of the most recent gnuplot output.
func (c *Console) Replay() []byte {
	c.replayMu.Lock()
	defer c.replayMu.Unlock()
	cp := make([]byte, len(c.replayBuf))
	copy(cp, c.replayBuf)
	return cp
}

func (c *Console) broadcast(data []byte) {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	for ch := range c.subscribers {
		select {
		case ch <- data:
		default:
			// Slow subscriber, drop data
		}
	}
}

// Subscribe returns a channel of gnuplot output and an unsubscribe function.
// The channel is closed once the pseudo-terminal reaches EOF.
func (c *Console) Subscribe() (<-chan []byte, func()) {
	ch := make(chan []byte, 256)
	c.subMu.Lock()
	if c.subscribers == nil {
		c.subMu.Unlock()
		close(ch)
		return ch, func() {}
	}
	c.subscribers[ch] = struct{}{}
	c.subMu.Unlock()

	unsub := func() {
		c.subMu.Lock()
		delete(c.subscribers, ch)
		c.subMu.Unlock()
	}
	return ch, unsub
}

func (c *Console) readLoop() {
	buf := make([]byte, 32*1024)
	for {
		n, err := c.PTY.Read(buf)
		if n > 0 {
			data := make([]byte, n)
			copy(data, buf[:n])
			c.appendReplay(data)
			c.broadcast(data)
		}
		if err != nil {
			break
		}
	}
	// Close all subscriber channels; later subscribers get a closed channel
	c.subMu.Lock()
	for ch := range c.subscribers {
		close(ch)
	}
	c.subscribers = nil
	c.subMu.Unlock()
}

// PTYLauncher starts gnuplot under a pseudo-terminal of the given size.
type PTYLauncher struct {
	Path string
	Args []string
	Rows uint16
	Cols uint16
}

func NewPTYLauncher(path string, args ...string) *PTYLauncher {
	if path == "" {
		path = DefaultPath
	}
	if args == nil {
		args = DefaultArgs
	}
	return &PTYLauncher{Path: path, Args: args, Rows: 40, Cols: 120}
}

func (l *PTYLauncher) Launch(term string) (Handle, error) {
	if term == "" {
		term = DefaultTerm
	}
	cmd := exec.Command(l.Path, l.Args...)
	cmd.Env = os.Environ()

	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{Rows: l.Rows, Cols: l.Cols})
	if err != nil {
		return nil, fmt.Errorf("start pty %s: %w", l.Path, err)
	}

	c := &Console{
		Cmd:         cmd,
		PTY:         ptmx,
		term:        term,
		done:        make(chan struct{}),
		subscribers: make(map[chan []byte]struct{}),
	}

	go c.readLoop()

	// Monitor process exit
	go func() {
		cmd.Wait()
		close(c.done)
	}()

	return c, nil
}

// Resize changes the pseudo-terminal window size.
func (c *Console) Resize(rows, cols uint16) error {
	return pty.Setsize(c.PTY, &pty.Winsize{Rows: rows, Cols: cols})
}

var _ Resizer = (*Console)(nil)
