package resilience

import (
	"fmt"
	"sync"
)

// SingleFlight collapses concurrent calls sharing a key into one execution.
// The zero value is ready to use.
type SingleFlight struct {
	mu    sync.Mutex
	calls map[string]*flightCall
}

type flightCall struct {
	done  chan struct{}
	val   any
	err   error
	joins int
}

// Do runs fn once per key at a time. Callers arriving while it runs wait and
// share its result; shared reports whether this caller joined another's call.
// A panic in fn is re-raised for the leader and returned as an error to
// everyone who joined.
func (g *SingleFlight) Do(key string, fn func() (any, error)) (val any, err error, shared bool) {
	g.mu.Lock()
	if g.calls == nil {
		g.calls = make(map[string]*flightCall)
	}
	if c, ok := g.calls[key]; ok {
		c.joins++
		g.mu.Unlock()
		<-c.done
		return c.val, c.err, true
	}

	c := &flightCall{done: make(chan struct{})}
	g.calls[key] = c
	g.mu.Unlock()

	g.execute(key, c, fn)
	return c.val, c.err, c.joins > 0
}

func (g *SingleFlight) execute(key string, c *flightCall, fn func() (any, error)) {
	finished := false
	defer func() {
		if !finished {
			if r := recover(); r != nil {
				c.err = fmt.Errorf("singleflight %q panicked: %v", key, r)
				g.finish(key, c)
				panic(r)
			}
		}
		g.finish(key, c)
	}()

	c.val, c.err = fn()
	finished = true
}

func (g *SingleFlight) finish(key string, c *flightCall) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.calls[key] == c {
		delete(g.calls, key)
		close(c.done)
	}
}

// InFlight reports whether a call for key is currently running.
func (g *SingleFlight) InFlight(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.calls[key]
	return ok
}
