package httpmock

import (
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"syscall"
)

type responseConfig struct {
	status int
	body   *string
	header http.Header
	filter FilterFunc
}

type ResponseOption func(*responseConfig)

// Status sets the response status code, the default is 200.
func Status(code int) ResponseOption {
	return func(c *responseConfig) { c.status = code }
}

// Body sets the response text.
// Without it the Transport's default body and content type are used.
func Body(text string) ResponseOption {
	return func(c *responseConfig) { c.body = &text }
}

func Header(key, value string) ResponseOption {
	return func(c *responseConfig) { c.header.Add(key, value) }
}

func Headers(h http.Header) ResponseOption {
	return func(c *responseConfig) {
		for k, vs := range h {
			for _, v := range vs {
				c.header.Add(k, v)
			}
		}
	}
}

func Filter(fn FilterFunc) ResponseOption {
	return func(c *responseConfig) { c.filter = fn }
}

// AddResponse prepares a response for the method and URL.
// Prepared entries of the same method and URL answer requests in the order they were added.
func (t *Transport) AddResponse(method, url string, opts ...ResponseOption) error {
	c := responseConfig{status: http.StatusOK, header: make(http.Header)}
	for _, opt := range opts {
		opt(&c)
	}
	var text string
	switch {
	case EntityNotAllowed(c.status):
		if c.body != nil && *c.body != "" {
			return &EntityNotAllowedError{StatusCode: c.status}
		}
	case c.body == nil:
		text = t.DefaultBody
		c.header.Set("Content-Type", t.DefaultContentType)
	default:
		text = *c.body
	}
	resp, err := NewResponse(c.status, text, c.header)
	if err != nil {
		return err
	}
	t.enqueue(method, url, Prepared{Filter: c.filter, Response: resp})
	return nil
}

// AddError prepares an error as the outcome of the method and URL.
func (t *Transport) AddError(method, url string, err error, filter ...FilterFunc) error {
	if err == nil {
		return fmt.Errorf("httpmock: nil error prepared for %s", newKey(method, url))
	}
	p := Prepared{Err: err}
	if 0 < len(filter) {
		p.Filter = filter[0]
	}
	t.enqueue(method, url, p)
	return nil
}

// AddConnectTimeout prepares a dial timeout.
func (t *Transport) AddConnectTimeout(method, rawURL string, filter ...FilterFunc) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return err
	}
	return t.AddError(method, rawURL, &net.OpError{
		Op:  "dial",
		Net: "tcp",
		Err: &timeoutError{msg: fmt.Sprintf("connection to %s timed out (connect timeout=57.9)", u.Hostname())},
	}, filter...)
}

// AddReadTimeout prepares a timeout while the response is read.
func (t *Transport) AddReadTimeout(method, url string, filter ...FilterFunc) error {
	return t.AddError(method, url, &net.OpError{
		Op:  "read",
		Net: "tcp",
		Err: &timeoutError{msg: "read timed out (read timeout=57.9)"},
	}, filter...)
}

// AddUnreachableHost prepares a dial failure with EHOSTUNREACH.
func (t *Transport) AddUnreachableHost(method, url string, filter ...FilterFunc) error {
	return t.AddError(method, url, &net.OpError{
		Op:  "dial",
		Net: "tcp",
		Err: os.NewSyscallError("connect", syscall.EHOSTUNREACH),
	}, filter...)
}

type timeoutError struct{ msg string }

func (err *timeoutError) Error() string   { return err.msg }
func (err *timeoutError) Timeout() bool   { return true }
func (err *timeoutError) Temporary() bool { return true }
