// Command aerysd is a runnable origin server wiring together pkg/host,
// pkg/driver, pkg/request, and pkg/response: one Driver per accepted
// connection, one Host registry shared read-only across all of them.
package main

import (
	"context"
	"log"
	"net"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/aerysproject/aerys/pkg/driver"
	"github.com/aerysproject/aerys/pkg/host"
	"github.com/aerysproject/aerys/pkg/request"
	"github.com/aerysproject/aerys/pkg/response"
	"github.com/aerysproject/aerys/pkg/validate"
	"github.com/aerysproject/aerys/pkg/version"
)

func main() {
	addr := os.Getenv("AERYSD_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	logger := log.New(os.Stdout, "aerysd ", log.LstdFlags)

	reg, err := defaultRegistry(addr)
	if err != nil {
		logger.Fatalf("host registry: %v", err)
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		logger.Fatalf("listen: %v", err)
	}
	logger.Printf("aerysd %s listening on %s", version.GetVersion(), ln.Addr())

	var wg sync.WaitGroup
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-shutdownCh
		logger.Println("shutdown signal received, closing listener")
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-shutdownCh:
			default:
				logger.Printf("accept: %v", err)
			}
			break
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			serveConn(conn, reg, logger)
		}()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	waitOrDeadline(ctx, &wg)
	logger.Println("shut down cleanly")
}

func waitOrDeadline(ctx context.Context, wg *sync.WaitGroup) {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}
}

// defaultRegistry builds the single wildcard plaintext Host this binary
// serves until a real configuration loader is wired on top of
// host.New and host.TLSConfig (see SPEC_FULL.md's AMBIENT STACK note on
// configuration).
func defaultRegistry(addr string) (*host.Registry, error) {
	port := portOf(addr)
	h, err := host.New("*", port, "", echoHandler, nil)
	if err != nil {
		return nil, err
	}
	reg := host.NewRegistry()
	reg.Add(h)
	return reg, nil
}

func portOf(addr string) int {
	_, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return 80
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return 80
	}
	return port
}

// serveConn drives one connection's Driver to completion: a parser
// goroutine dispatching to handleRequest per parsed request, and a
// writer goroutine per response started from within handleRequest
// before the matched handler touches the Response (pkg/driver.Writer's
// doc comment explains why that ordering matters).
func serveConn(conn net.Conn, reg *host.Registry, logger *log.Logger) {
	defer conn.Close()

	port := portOf(conn.LocalAddr().String())
	dr := driver.New(conn,
		driver.WithLogger(logger),
		driver.WithResponseValidators(response.WithValidators(validate.StrictReasonPhrase, validate.StrictHeaderField)),
	)

	onMessage := func(req *request.Request) <-chan struct{} {
		// NewResponse must run here, synchronously and in parse order,
		// so its write ticket (driver.go's lastTurn chaining) reflects
		// request order even though the handler below runs concurrently
		// with other requests' handlers.
		resp := dr.NewResponse(req)

		done := make(chan struct{})
		go func() {
			defer close(done)
			handleRequest(dr, req, resp, reg, port, logger)
		}()
		return done
	}

	task, err := dr.Setup(conn, onMessage)
	if err != nil {
		logger.Printf("driver setup: %v", err)
		return
	}
	if err := task.Wait(); err != nil {
		logger.Printf("connection %s: %v", dr.ID(), err)
	}
}

func handleRequest(dr *driver.Driver, req *request.Request, resp *response.Response, reg *host.Registry, port int, logger *log.Logger) {
	wtask, err := dr.Writer(resp, req)
	if err != nil {
		logger.Printf("writer setup: %v", err)
		return
	}

	dispatch(resp, req, reg, port, logger)

	if err := wtask.Wait(); err != nil {
		logger.Printf("write %s %s: %v", req.Method, req.Target, err)
	}
}

// dispatch looks up the matched Host by identity and runs its handler,
// recovering a handler panic into a synthetic 500 when the response
// hasn't reached STARTED yet — past that point the status line is
// already on the wire and a 500 substitution would corrupt it, so the
// connection is simply allowed to close short instead (§4.3/§7's
// InternalFilter recovery rule, generalized to handler panics).
func dispatch(resp *response.Response, req *request.Request, reg *host.Registry, port int, logger *log.Logger) {
	defer func() {
		rec := recover()
		if rec == nil {
			return
		}
		logger.Printf("handler panic for %s %s: %v", req.Method, req.Target, rec)
		if !resp.State().Has(response.Started) {
			resp.SetStatus(500)
			resp.End([]byte("internal server error"))
		}
	}()

	matched := reg.Lookup(identityFor(req, port))
	if matched == nil {
		resp.SetStatus(404)
		resp.End([]byte("no host configured for " + req.Host()))
		return
	}
	matched.Handler()(req, resp)
}

// identityFor derives the "<name>:<port>" lookup key §4.1's Registry
// expects from the request's Host header and the connection's local
// port, falling back to the wildcard when Host is absent.
func identityFor(req *request.Request, port int) string {
	name := req.Host()
	if idx := strings.IndexByte(name, ':'); idx >= 0 {
		name = name[:idx]
	}
	if name == "" {
		name = "*"
	}
	return name + ":" + strconv.Itoa(port)
}

// echoHandler is the default demo application: it reports the request
// line it received. A real deployment replaces this with its own
// host.Handler.
func echoHandler(reqAny, respAny any) {
	req := reqAny.(*request.Request)
	resp := respAny.(*response.Response)

	resp.SetHeader("content-type", "text/plain; charset=utf-8")
	resp.SetStatus(200)
	resp.End([]byte(req.Method + " " + req.Target + " " + req.Version + "\n"))
}
