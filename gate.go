package horizonredux

import "sync"

type gateState uint8

const (
	notReady gateState = iota
	replaying
	ready
)

func (s gateState) String() string {
	switch s {
	case notReady:
		return "not ready"
	case replaying:
		return "replaying"
	case ready:
		return "ready"
	}

	return "unknown"
}

// gate buffers actions until the data source is ready, then replays them in order.
type gate struct {
	mux     sync.Mutex
	state   gateState
	pending []Action
	// epoch tells a replay apart from the ones started after a later close.
	epoch uint64
}

func newGate(initial gateState) *gate {
	return &gate{
		state:   initial,
		pending: make([]Action, 0),
	}
}

func (g *gate) current() gateState {
	g.mux.Lock()
	defer g.mux.Unlock()

	return g.state
}

// admit reports whether the action can be handled now, otherwise it is queued.
// Actions arriving during a replay are queued behind it to keep FIFO order.
func (g *gate) admit(action Action) bool {
	g.mux.Lock()
	defer g.mux.Unlock()

	if g.state == ready {
		return true
	}

	g.pending = append(g.pending, action)

	return false
}

// open replays the pending actions through handle, then marks the gate ready.
// It reports false if the gate was not closed. A close during the replay
// stops it and keeps the remaining actions queued.
func (g *gate) open(handle func(Action)) bool {
	g.mux.Lock()
	if g.state != notReady {
		g.mux.Unlock()
		return false
	}
	g.state = replaying
	g.epoch++
	epoch := g.epoch
	g.mux.Unlock()

	// A panicking handler must not leave the gate replaying forever.
	defer func() {
		if err := recover(); err != nil {
			g.mux.Lock()
			if g.state == replaying && g.epoch == epoch {
				g.state = notReady
			}
			g.mux.Unlock()

			panic(err)
		}
	}()

	for {
		g.mux.Lock()
		if g.state != replaying || g.epoch != epoch {
			g.mux.Unlock()
			return true
		}

		if len(g.pending) == 0 {
			g.state = ready
			g.mux.Unlock()
			return true
		}

		action := g.pending[0]
		g.pending = g.pending[1:]
		g.mux.Unlock()

		handle(action)
	}
}

// close marks the gate not ready. It reports whether the state changed.
func (g *gate) close() bool {
	g.mux.Lock()
	defer g.mux.Unlock()

	if g.state == notReady {
		return false
	}
	g.state = notReady

	return true
}

func (g *gate) length() int {
	g.mux.Lock()
	defer g.mux.Unlock()

	return len(g.pending)
}
