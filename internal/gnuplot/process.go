package gnuplot

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
)

const (
	// DefaultTerm is the terminal a figure targets unless told otherwise.
	DefaultTerm = "x11"
	// DefaultPath is the gnuplot executable looked up on PATH.
	DefaultPath = "gnuplot"
)

// DefaultArgs keeps plot windows open after gnuplot's stdin closes.
var DefaultArgs = []string{"-p"}

// Process is a gnuplot instance driven through its stdin pipe.
type Process struct {
	Cmd *exec.Cmd

	term  string
	stdin io.WriteCloser
	done  chan struct{}

	mu sync.Mutex
}

// Send writes command followed by a newline to gnuplot's stdin.
func (p *Process) Send(command string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return writeLine(p.stdin, command)
}

func (p *Process) Terminal() string { return p.term }

func (p *Process) PID() int {
	if p.Cmd.Process == nil {
		return 0
	}
	return p.Cmd.Process.Pid
}

// Done returns a channel that is closed when the gnuplot process exits.
func (p *Process) Done() <-chan struct{} {
	return p.done
}

// ExecLauncher starts gnuplot with a plain stdin pipe. Output and errors
// go straight to the host's stdout and stderr.
type ExecLauncher struct {
	Path string
	Args []string
}

func NewExecLauncher(path string, args ...string) *ExecLauncher {
	if path == "" {
		path = DefaultPath
	}
	if args == nil {
		args = DefaultArgs
	}
	return &ExecLauncher{Path: path, Args: args}
}

func (l *ExecLauncher) Launch(term string) (Handle, error) {
	if term == "" {
		term = DefaultTerm
	}
	cmd := exec.Command(l.Path, l.Args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", l.Path, err)
	}

	proc := &Process{
		Cmd:   cmd,
		term:  term,
		stdin: stdin,
		done:  make(chan struct{}),
	}

	// Monitor process exit
	go func() {
		cmd.Wait()
		close(proc.done)
	}()

	return proc, nil
}

func writeLine(w io.Writer, command string) error {
	if _, err := io.WriteString(w, command+"\n"); err != nil {
		return fmt.Errorf("send %q: %w", command, err)
	}
	return nil
}
