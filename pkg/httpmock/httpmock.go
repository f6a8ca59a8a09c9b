// Package httpmock is a fixture which fakes out outbound HTTP for a test case.
//
// While the fixture is set up, http.DefaultTransport is substituted,
// so http.Get, http.DefaultClient and every client without an explicit Transport go through it.
// Only the requests with a prepared response are permitted,
// anything else fails with an UnexpectedRequestError.
//
//	var (
//		suite = fixture.NewSet("weather")
//		HTTP  = httpmock.Declare(suite)
//	)
//
//	func TestForecast(t *testing.T) {
//		fixture.Run(t, suite, func(c *fixture.Case) {
//			_ = HTTP.Get(c).AddResponse("GET", "http://api.example.com/forecast",
//				httpmock.Body(`{"sky":"clear"}`),
//				httpmock.Header("Content-Type", "application/json"))
//			...
//		})
//	}
//
// Prepared responses which are not consumed by the end of the test make the fixture's Teardown fail.
package httpmock

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"slices"
	"sort"
	"strings"
	"sync"

	"go.llib.dev/fixturekit/internal/config"
	"go.llib.dev/fixturekit/pkg/fixture"
	"go.llib.dev/frameless/pkg/errorkit"
	"go.llib.dev/frameless/pkg/logging"
)

const (
	ErrEntityNotAllowed     errorkit.Error = "response entity not allowed"
	ErrInvalidHeader        errorkit.Error = "invalid response header"
	ErrUnexpectedRequest    errorkit.Error = "unexpected request"
	ErrResponsesNotConsumed errorkit.Error = "configured responses not consumed"
	ErrInvalidCassette      errorkit.Error = "invalid cassette"
)

// Key identifies the prepared entries of a request: the upper-cased method and the exact URL.
type Key struct {
	Method string
	URL    string
}

func newKey(method, url string) Key {
	if method == "" {
		method = http.MethodGet
	}
	return Key{Method: strings.ToUpper(method), URL: url}
}

func (k Key) String() string { return k.Method + " " + k.URL }

// FilterFunc decides whether a prepared entry may answer the request.
// The request body can be read, every filter receives its own copy.
type FilterFunc func(*http.Request) bool

// Prepared is a queued outcome: either a Response or an error.
type Prepared struct {
	Filter   FilterFunc
	Response *Response
	Err      error

	seq uint64
}

func (p Prepared) accepts(req *http.Request, body []byte) bool {
	if p.Filter == nil {
		return true
	}
	return p.Filter(withBody(req, body))
}

// Transport is the mock HTTP transport fixture.
type Transport struct {
	Case *fixture.Case

	// DefaultBody and DefaultContentType are used when a response is prepared without a body.
	DefaultBody        string
	DefaultContentType string

	mutex    sync.Mutex
	requests []RequestInfo
	pending  map[Key][]Prepared
	seq      uint64
}

// New is the fixture factory.
// The default body is the first positional or the "body" keyword argument,
// the default content type is the second positional or the "content_type" keyword argument.
func New(c *fixture.Case, args fixture.Args) *Transport {
	cfg, err := config.Current()
	if err != nil {
		c.Logger().Warn(c.Context(), "httpmock is using the default configuration", logging.ErrField(err))
	}
	return &Transport{
		Case:               c,
		DefaultBody:        fixture.ArgOr(args, 0, "body", cfg.HTTPMock.DefaultBody),
		DefaultContentType: fixture.ArgOr(args, 1, "content_type", cfg.HTTPMock.DefaultContentType),
		pending:            make(map[Key][]Prepared),
	}
}

// Declare adds a Transport to the Set.
//
//	HTTP = httpmock.Declare(suite, fixture.Kw("content_type", "application/json"))
func Declare(set *fixture.Set, args ...fixture.Arg) fixture.Ref[*Transport] {
	return fixture.DeclareArgs(set, New, args...)
}

// Setup installs the transport as http.DefaultTransport.
// The original transport is restored by the cleanup chain of the Case, after Teardown ran.
func (t *Transport) Setup() error {
	t.mutex.Lock()
	t.requests = nil
	t.pending = make(map[Key][]Prepared)
	t.mutex.Unlock()

	original := http.DefaultTransport
	http.DefaultTransport = t
	t.Case.Defer(func() error {
		http.DefaultTransport = original
		return nil
	})
	return nil
}

// Teardown fails when prepared entries were left unconsumed.
func (t *Transport) Teardown() error {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	if len(t.pending) == 0 {
		return nil
	}
	var keys []string
	for k, ps := range t.pending {
		keys = append(keys, fmt.Sprintf("%s (%d)", k, len(ps)))
	}
	sort.Strings(keys)
	return ErrResponsesNotConsumed.F("%s", strings.Join(keys, ", "))
}

// Client returns a client which uses the Transport directly.
func (t *Transport) Client() *http.Client {
	return &http.Client{Transport: t}
}

// Requests returns the intercepted requests in the order they were made.
func (t *Transport) Requests() []RequestInfo {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return slices.Clone(t.requests)
}

// Pending returns the prepared entries which weren't consumed yet.
func (t *Transport) Pending() map[Key][]Prepared {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	out := make(map[Key][]Prepared, len(t.pending))
	for k, ps := range t.pending {
		out[k] = slices.Clone(ps)
	}
	return out
}

func (t *Transport) enqueue(method, url string, p Prepared) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	if t.pending == nil {
		t.pending = make(map[Key][]Prepared)
	}
	t.seq++
	p.seq = t.seq
	key := newKey(method, url)
	t.pending[key] = append(t.pending[key], p)
}

// RoundTrip answers the request with the first prepared entry of its Key whose filter accepts it.
// The entry is consumed.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	key := newKey(req.Method, req.URL.String())
	body, err := readBody(req)
	if err != nil {
		t.record(RequestInfo{
			Method:  strings.ToLower(key.Method),
			URL:     key.URL,
			Request: req,
			Err:     err,
		})
		return nil, err
	}

	prepared, filtered, ok := t.take(key, req, body)
	info := RequestInfo{
		Method:  strings.ToLower(key.Method),
		URL:     key.URL,
		Request: withBody(req, body),
		Body:    body,
	}
	if !ok {
		uerr := newUnexpectedRequestError(key, filtered, req.Header, body)
		info.Err = uerr
		t.record(info)
		t.logger().Warn(t.ctx(req), "unexpected http request",
			logging.Field("method", key.Method),
			logging.Field("url", key.URL),
			logging.Field("filtered", filtered))
		return nil, uerr
	}

	info.Response, info.Err = prepared.Response, prepared.Err
	t.record(info)
	if prepared.Err != nil {
		return nil, prepared.Err
	}
	t.logger().Debug(t.ctx(req), "prepared http response served",
		logging.Field("method", key.Method),
		logging.Field("url", key.URL),
		logging.Field("status", prepared.Response.StatusCode))
	return prepared.Response.HTTP(req), nil
}

// take runs the filters without holding the lock, so a filter may inspect the Transport.
// When a concurrent request consumed the accepted entry in the meantime, the queue is scanned again.
func (t *Transport) take(key Key, req *http.Request, body []byte) (Prepared, int, bool) {
scan:
	for {
		t.mutex.Lock()
		queued := slices.Clone(t.pending[key])
		t.mutex.Unlock()

		var filtered int
		for _, p := range queued {
			if !p.accepts(req, body) {
				filtered++
				continue
			}
			if !t.remove(key, p.seq) {
				continue scan
			}
			return p, filtered, true
		}
		return Prepared{}, filtered, false
	}
}

func (t *Transport) remove(key Key, seq uint64) bool {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	i := slices.IndexFunc(t.pending[key], func(p Prepared) bool { return p.seq == seq })
	if i < 0 {
		return false
	}
	t.pending[key] = slices.Delete(t.pending[key], i, i+1)
	if len(t.pending[key]) == 0 {
		delete(t.pending, key)
	}
	return true
}

func (t *Transport) record(info RequestInfo) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.requests = append(t.requests, info)
}

func (t *Transport) logger() *logging.Logger {
	if t.Case == nil {
		return &logging.Logger{Out: io.Discard}
	}
	return t.Case.Logger()
}

func (t *Transport) ctx(req *http.Request) context.Context {
	if t.Case == nil {
		return req.Context()
	}
	return logging.ContextWith(req.Context(), logging.Field("case_id", t.Case.ID()))
}

func readBody(req *http.Request) ([]byte, error) {
	if req.Body == nil || req.Body == http.NoBody {
		return nil, nil
	}
	defer req.Body.Close()
	return io.ReadAll(req.Body)
}

func withBody(req *http.Request, body []byte) *http.Request {
	r := req.Clone(req.Context())
	r.Body = io.NopCloser(bytes.NewReader(body))
	r.ContentLength = int64(len(body))
	return r
}
