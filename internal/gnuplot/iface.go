package gnuplot

// Sender delivers one command line to gnuplot.
type Sender interface {
	Send(command string) error
}

// Handle represents one running gnuplot instance backing a figure.
type Handle interface {
	Sender
	Terminal() string
	PID() int
	Done() <-chan struct{}
}

// OutputHandle is implemented by handles that capture gnuplot's output.
type OutputHandle interface {
	Handle
	Replay() []byte
	Subscribe() (<-chan []byte, func())
}

// Launcher starts gnuplot instances.
type Launcher interface {
	Launch(term string) (Handle, error)
}

// Resizer is implemented by handles attached to a resizable terminal.
type Resizer interface {
	Resize(rows, cols uint16) error
}
