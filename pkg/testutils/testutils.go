// Package testutils holds helpers shared by provider, orchestrator and HTTP
// tests.
package testutils

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/amirasaad/africapayments/pkg/provider/payment"
	"github.com/gofiber/fiber/v2"
)

// DiscardLogger returns a logger that drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// MakeRequest is a helper for making HTTP requests against a fiber app.
func MakeRequest(app *fiber.App, method, path, body string, headers map[string]string) *http.Response {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		panic(err)
	}
	return resp
}

// EventRecorder is a payment.EventSink that keeps every event it receives.
// Err, when set, is returned from Emit after recording.
type EventRecorder struct {
	mu     sync.Mutex
	events []payment.Event
	Err    error
}

// Emit records event.
func (r *EventRecorder) Emit(_ context.Context, event payment.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return r.Err
}

// Events returns a copy of the recorded events.
func (r *EventRecorder) Events() []payment.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]payment.Event, len(r.events))
	copy(out, r.events)
	return out
}

// OfType returns the recorded events of type t.
func (r *EventRecorder) OfType(t payment.EventType) []payment.Event {
	var out []payment.Event
	for _, e := range r.Events() {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// Request is a request captured by a Gateway.
type Request struct {
	Method string
	Path   string
	Header http.Header
	Body   map[string]any
}

// Reply is a canned gateway response.
type Reply struct {
	Status int
	Body   string
}

// Gateway is a fake upstream API. It records every request and answers from
// a route table keyed by "METHOD /path".
type Gateway struct {
	Server *httptest.Server

	mu       sync.Mutex
	routes   map[string][]Reply
	requests []Request
}

// NewGateway starts a Gateway that is closed when t ends.
func NewGateway(t testing.TB) *Gateway {
	t.Helper()
	g := &Gateway{routes: map[string][]Reply{}}
	g.Server = httptest.NewServer(http.HandlerFunc(g.serve))
	t.Cleanup(g.Server.Close)
	return g
}

// URL returns the gateway base URL.
func (g *Gateway) URL() string {
	return g.Server.URL
}

// On queues replies for method and path. Replies are consumed in order; the
// last one repeats.
func (g *Gateway) On(method, path string, replies ...Reply) *Gateway {
	g.mu.Lock()
	defer g.mu.Unlock()
	key := method + " /" + strings.TrimLeft(path, "/")
	g.routes[key] = append(g.routes[key], replies...)
	return g
}

// JSON is shorthand for a 200 reply.
func JSON(body string) Reply {
	return Reply{Status: http.StatusOK, Body: body}
}

// Requests returns a copy of the recorded requests.
func (g *Gateway) Requests() []Request {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]Request, len(g.requests))
	copy(out, g.requests)
	return out
}

// RequestsTo returns the recorded requests whose path has the given prefix.
func (g *Gateway) RequestsTo(method, pathPrefix string) []Request {
	prefix := "/" + strings.TrimLeft(pathPrefix, "/")
	var out []Request
	for _, r := range g.Requests() {
		if r.Method == method && strings.HasPrefix(r.Path, prefix) {
			out = append(out, r)
		}
	}
	return out
}

func (g *Gateway) serve(w http.ResponseWriter, r *http.Request) {
	raw, _ := io.ReadAll(r.Body)
	var body map[string]any
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &body)
	}

	g.mu.Lock()
	g.requests = append(g.requests, Request{
		Method: r.Method,
		Path:   r.URL.Path,
		Header: r.Header.Clone(),
		Body:   body,
	})
	key := r.Method + " " + r.URL.Path
	replies := g.routes[key]
	var reply Reply
	switch len(replies) {
	case 0:
		reply = Reply{Status: http.StatusNotFound, Body: `{"message":"no route for ` + key + `"}`}
	case 1:
		reply = replies[0]
	default:
		reply = replies[0]
		g.routes[key] = replies[1:]
	}
	g.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(reply.Status)
	_, _ = w.Write([]byte(reply.Body))
}
