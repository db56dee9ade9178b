// Package driver implements the per-connection Driver (§4.2): a parser
// goroutine that feeds bytes to an incremental request parser and
// dispatches completed requests to an application callback, and a
// writer goroutine per response that drains a codec pipeline's tail
// and drives the matching pkg/writer variant.
//
// Grounded on elliota43-go-php-app-server's server/worker.go: the
// goroutine-plus-buffered-channel-plus-done-channel shape in
// streamInternal (one goroutine produces framed events, another
// consumes them and signals completion over a channel) is the closest
// pack example of this driver/writer split.
package driver

import (
	"fmt"
	"io"
	"log"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/aerysproject/aerys/pkg/aeryserr"
	"github.com/aerysproject/aerys/pkg/codec"
	"github.com/aerysproject/aerys/pkg/request"
	"github.com/aerysproject/aerys/pkg/response"
)

// OnMessage is invoked once per fully parsed request. The returned
// channel is the completion handle: when it fires, the request's
// admission slot is released. The parser goroutine does not wait on it
// directly; it blocks only when no admission slot is free. A well-behaved
// implementation closes it once the request's response has reached
// ENDED, not merely once it has been scheduled.
type OnMessage func(req *request.Request) <-chan struct{}

// WriteFunc adapts a plain write function to io.Writer, matching the
// driver contract's write: bytes -> completion-handle shape from
// spec.md §6 (errors stand in for the completion handle here; Go I/O is
// synchronous at this layer, backpressure is expressed by blocking).
type WriteFunc func(p []byte) (int, error)

func (f WriteFunc) Write(p []byte) (int, error) { return f(p) }

// ParserTask and WriterTask are handles onto a driver-owned goroutine.
// Wait blocks until the goroutine finishes and returns its error, if
// any.
type ParserTask interface {
	Wait() error
}

type WriterTask interface {
	Wait() error
}

type task struct {
	done chan struct{}
	err  error
}

func (t *task) Wait() error {
	<-t.done
	return t.err
}

// Driver is the per-connection coordinator described in spec.md §4.2.
// One Driver serves exactly one connection; it must not be shared
// across connections.
type Driver struct {
	dst    io.Writer
	logger *log.Logger
	id     string

	sem     chan struct{}
	pending int64

	writeMu  sync.Mutex
	lastTurn <-chan struct{}

	sinks      *sinkRegistry
	bytesOut   uint64
	reqsServed uint64

	respOpts []response.Option
}

// Option configures a Driver at construction.
type Option func(*Driver)

// WithMaxPending bounds the number of requests the parser goroutine may
// admit ahead of their writers completing (§4.2's concurrency
// contract). The default is 32.
func WithMaxPending(n int) Option {
	return func(d *Driver) {
		if n > 0 {
			d.sem = make(chan struct{}, n)
		}
	}
}

// WithLogger overrides the default *log.Logger used for ConfigWarning-
// style notices (ambient stack: a logger injected at construction,
// never a global, matching elliota43-go-php-app-server's server/
// worker.go use of the standard log package).
func WithLogger(l *log.Logger) Option {
	return func(d *Driver) { d.logger = l }
}

// WithResponseValidators passes response.WithValidators(...) through to
// every Response this Driver builds via NewResponse, so a deployment can
// opt into pkg/validate's Strict* RFC 7230 checks connection-wide instead
// of per handler.
func WithResponseValidators(opts ...response.Option) Option {
	return func(d *Driver) { d.respOpts = append(d.respOpts, opts...) }
}

// New returns a Driver that writes response bytes to dst (typically the
// connection's net.Conn).
func New(dst io.Writer, opts ...Option) *Driver {
	firstTurn := make(chan struct{})
	close(firstTurn) // no predecessor: the first response may write immediately

	d := &Driver{
		dst:      dst,
		logger:   log.Default(),
		id:       uuid.NewString(),
		sem:      make(chan struct{}, 32),
		sinks:    newSinkRegistry(),
		lastTurn: firstTurn,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// ID returns the driver's per-connection identifier, for log
// correlation across the parser and writer goroutines it owns.
func (d *Driver) ID() string { return d.id }

// PendingRequestCount returns the number of requests admitted but not
// yet ENDED.
func (d *Driver) PendingRequestCount() int {
	return int(atomic.LoadInt64(&d.pending))
}

// Stats is a point-in-time snapshot of connection-level counters,
// supplementing §4.2's pendingRequestCount with the byte/request totals
// a caller needs for access logging or connection-level metrics.
type Stats struct {
	Pending        int
	BytesWritten   uint64
	RequestsServed uint64
}

// Stats returns a snapshot of the driver's counters.
func (d *Driver) Stats() Stats {
	return Stats{
		Pending:        d.PendingRequestCount(),
		BytesWritten:   atomic.LoadUint64(&d.bytesOut),
		RequestsServed: atomic.LoadUint64(&d.reqsServed),
	}
}

// Setup starts a parser goroutine reading from client. Each complete
// request is handed to onMessage; the goroutine blocks acquiring an
// admission slot (bounded by WithMaxPending) before calling onMessage,
// and releases that slot asynchronously once onMessage's handle fires —
// this is the §4.2 backpressure suspension point, and the asynchronous
// release is what lets parsing "run ahead and queue requests" up to the
// bound instead of serializing one request at a time.
func (d *Driver) Setup(client io.Reader, onMessage OnMessage) (ParserTask, error) {
	if client == nil {
		return nil, fmt.Errorf("driver: nil client reader")
	}
	if onMessage == nil {
		return nil, fmt.Errorf("driver: nil onMessage")
	}

	t := &task{done: make(chan struct{})}
	go d.runParser(client, onMessage, t)
	return t, nil
}

func (d *Driver) runParser(client io.Reader, onMessage OnMessage, t *task) {
	defer close(t.done)

	parser := request.NewIncrementalParser()
	buf := make([]byte, 64*1024)

	for {
		n, readErr := client.Read(buf)
		if n > 0 {
			chunk := buf[:n]
			for {
				req, needMore, err := parser.Feed(chunk)
				chunk = nil // only the first Feed call in this inner loop carries new bytes
				if err != nil {
					t.err = err
					return
				}
				if needMore {
					break
				}
				d.admit()
				done := onMessage(req)
				go d.awaitRelease(done)
			}
		}
		if readErr != nil {
			if readErr == io.EOF {
				return
			}
			t.err = aeryserr.NewClientGone("read", readErr)
			return
		}
	}
}

func (d *Driver) admit() {
	d.sem <- struct{}{}
	atomic.AddInt64(&d.pending, 1)
}

func (d *Driver) awaitRelease(done <-chan struct{}) {
	<-done
	<-d.sem
	atomic.AddInt64(&d.pending, -1)
}

// NewResponse builds a Response wired to a fresh codec pipeline for
// req, remembering the pipeline's tail channel so a later Writer call
// can drain it. It also claims this response's place in the
// connection's write order — callers must call NewResponse for each
// request in parse order (the natural place is synchronously inside
// onMessage, before any per-request goroutine is spawned) so that
// spec.md §4.2's "must not begin writing response N+1 until response N
// has reached ENDED" holds regardless of how application handlers are
// scheduled afterward.
func (d *Driver) NewResponse(req *request.Request) *response.Response {
	sink := codec.NewChanSink(1)
	pipeline := codec.NewPipeline(sink, codec.Config{
		AcceptEncoding: req.AcceptEncoding(),
		ProtoVersion:   req.Version,
	})
	resp := response.New(pipeline, d.respOpts...)

	d.writeMu.Lock()
	myTurn := d.lastTurn
	doneTurn := make(chan struct{})
	d.lastTurn = doneTurn
	d.writeMu.Unlock()

	d.sinks.put(resp, &ticket{sink: sink, myTurn: myTurn, doneTurn: doneTurn})
	return resp
}

// Writer starts a writer goroutine draining resp's codec tail and
// driving the matching pkg/writer variant against the connection. resp
// must have been created by this Driver's NewResponse. Callers must
// start the writer before (or concurrently with) the handler's
// Send/Stream/End calls on resp: the codec tail's ChanSink has depth 1,
// so pushing a response's second event with nothing yet draining the
// first one blocks forever. This is the Go rendering of spec.md §5's
// coroutine pair — writer runs as the producer's events arrive, not
// after the producer has finished.
func (d *Driver) Writer(resp *response.Response, req *request.Request) (WriterTask, error) {
	t, ok := d.sinks.take(resp)
	if !ok {
		return nil, fmt.Errorf("driver: response was not created via this driver's NewResponse")
	}

	wtask := &task{done: make(chan struct{})}
	go d.runWriter(t, req, wtask)
	return wtask, nil
}

func (d *Driver) runWriter(t *ticket, req *request.Request, out *task) {
	defer close(out.done)
	defer atomic.AddUint64(&d.reqsServed, 1)

	<-t.myTurn
	defer close(t.doneTurn)

	if err := drainToSocket(d, t.sink, req.Version); err != nil {
		out.err = err
	}
}
