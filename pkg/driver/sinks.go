package driver

import (
	"sync"

	"github.com/aerysproject/aerys/pkg/codec"
	"github.com/aerysproject/aerys/pkg/response"
)

// ticket carries the FIFO ordering spec.md §4.2 requires: "the driver
// must not begin writing response N+1 until response N has reached
// ENDED". myTurn closes once the previous response's writer goroutine
// has finished draining; doneTurn is closed by this response's own
// writer goroutine to release whichever response comes next.
type ticket struct {
	sink     *codec.ChanSink
	myTurn   <-chan struct{}
	doneTurn chan struct{}
}

// sinkRegistry remembers which codec.ChanSink (and write ticket) backs
// a given in-flight Response, so Driver.Writer can find what
// Driver.NewResponse created without widening pkg/response's public
// surface.
type sinkRegistry struct {
	mu sync.Mutex
	m  map[*response.Response]*ticket
}

func newSinkRegistry() *sinkRegistry {
	return &sinkRegistry{m: make(map[*response.Response]*ticket)}
}

func (r *sinkRegistry) put(resp *response.Response, t *ticket) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.m[resp] = t
}

func (r *sinkRegistry) take(resp *response.Response) (*ticket, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.m[resp]
	if ok {
		delete(r.m, resp)
	}
	return t, ok
}
