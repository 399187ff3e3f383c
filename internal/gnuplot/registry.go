package gnuplot

import (
	"errors"
	"fmt"
	"slices"
	"sync"
)

// ErrUnknownFigure is returned when a lookup names a figure that was never
// created.
var ErrUnknownFigure = errors.New("gnuplot: unknown figure")

// Registry maps figure ids to gnuplot instances and routes commands to the
// current figure. A program is expected to build one Registry at startup
// and hand it to everything that plots.
type Registry struct {
	launcher Launcher
	term     string

	mu        sync.Mutex
	instances map[int]Handle
	currentID int
	current   Handle
}

// NewRegistry starts figure 0 and makes it current. term is the terminal
// given to figures created later; empty means DefaultTerm.
func NewRegistry(l Launcher, term string) (*Registry, error) {
	if term == "" {
		term = DefaultTerm
	}
	h, err := l.Launch(term)
	if err != nil {
		return nil, err
	}
	return &Registry{
		launcher:  l,
		term:      term,
		instances: map[int]Handle{0: h},
		currentID: 0,
		current:   h,
	}, nil
}

// SelectOrCreate makes a figure current and returns its id.
//
// A nil id creates a new figure numbered one past the highest existing id.
// An existing id is reused as is. An unknown id gets a fresh gnuplot
// instance. If launching fails, the current figure is left unchanged.
func (r *Registry) SelectOrCreate(id *int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.selectLocked(id)
}

func (r *Registry) selectLocked(id *int) (int, error) {
	var idx int
	if id == nil {
		idx = r.maxIDLocked() + 1
	} else {
		idx = *id
	}

	h, ok := r.instances[idx]
	if !ok {
		var err error
		h, err = r.launcher.Launch(r.term)
		if err != nil {
			return 0, fmt.Errorf("figure %d: %w", idx, err)
		}
		r.instances[idx] = h
	}
	r.currentID = idx
	r.current = h
	return idx, nil
}

func (r *Registry) maxIDLocked() int {
	first := true
	var hi int
	for k := range r.instances {
		if first || k > hi {
			hi = k
			first = false
		}
	}
	return hi
}

// Select makes figure id current, creating it if needed.
func (r *Registry) Select(id int) (int, error) {
	return r.SelectOrCreate(&id)
}

// New creates a figure with the next free id and makes it current.
func (r *Registry) New() (int, error) {
	return r.SelectOrCreate(nil)
}

// Figure selects or creates a figure like SelectOrCreate, then points the
// figure's gnuplot at its own terminal window ("set term <term> <id>").
func (r *Registry) Figure(id *int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx, err := r.selectLocked(id)
	if err != nil {
		return 0, err
	}
	if err := r.current.Send(fmt.Sprintf("set term %s %d", r.current.Terminal(), idx)); err != nil {
		return idx, err
	}
	return idx, nil
}

// Send dispatches command to the current figure.
func (r *Registry) Send(command string) error {
	_, err := r.Dispatch(command)
	return err
}

// Dispatch sends command to the current figure and reports which figure
// that was. The cursor cannot move between picking the figure and writing.
func (r *Registry) Dispatch(command string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.currentID, r.current.Send(command)
}

// SendTo makes figure id current and dispatches command to it without
// letting another caller move the cursor in between.
func (r *Registry) SendTo(id int, command string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := r.selectLocked(&id); err != nil {
		return err
	}
	return r.current.Send(command)
}

// Current returns the current figure id and its handle.
func (r *Registry) Current() (int, Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.currentID, r.current
}

// Get returns the handle of figure id without changing the current figure.
func (r *Registry) Get(id int) (Handle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.instances[id]
	if !ok {
		return nil, fmt.Errorf("figure %d: %w", id, ErrUnknownFigure)
	}
	return h, nil
}

// IDs returns every figure id in ascending order.
func (r *Registry) IDs() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]int, 0, len(r.instances))
	for id := range r.instances {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Term returns the terminal given to newly created figures.
func (r *Registry) Term() string {
	return r.term
}
