package httpmock

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"golang.org/x/net/http/httpguts"
)

// statuses which must not carry a response entity.
var entityNotAllowed = map[int]struct{}{
	http.StatusNoContent:         {},
	http.StatusResetContent:      {},
	http.StatusMovedPermanently:  {},
	http.StatusFound:             {},
	http.StatusSeeOther:          {},
	http.StatusNotModified:       {},
	http.StatusTemporaryRedirect: {},
	http.StatusPermanentRedirect: {},
}

// EntityNotAllowed reports whether a response with the given status must have an empty body.
func EntityNotAllowed(status int) bool {
	_, ok := entityNotAllowed[status]
	return ok
}

type EntityNotAllowedError struct {
	StatusCode int
}

func (err *EntityNotAllowedError) Error() string {
	return fmt.Sprintf("cannot provide non-empty body for status == %d", err.StatusCode)
}

func (err *EntityNotAllowedError) Is(target error) bool { return target == ErrEntityNotAllowed }

// Response is a canned HTTP response.
type Response struct {
	StatusCode int
	Text       string
	Header     http.Header
}

// NewResponse makes a Response with canonical header keys.
// Content-Length is derived from the text unless it is given,
// or the status doesn't allow a response entity.
func NewResponse(status int, text string, header http.Header) (*Response, error) {
	h, err := canonicalHeader(header)
	if err != nil {
		return nil, err
	}
	if EntityNotAllowed(status) {
		if text != "" {
			return nil, &EntityNotAllowedError{StatusCode: status}
		}
	} else if h.Get("Content-Length") == "" {
		h.Set("Content-Length", strconv.Itoa(len(text)))
	}
	return &Response{StatusCode: status, Text: text, Header: h}, nil
}

func canonicalHeader(header http.Header) (http.Header, error) {
	h := make(http.Header, len(header))
	for key, values := range header {
		if !httpguts.ValidHeaderFieldName(key) {
			return nil, ErrInvalidHeader.F("invalid header name: %q", key)
		}
		for _, v := range values {
			if !httpguts.ValidHeaderFieldValue(v) {
				return nil, ErrInvalidHeader.F("invalid value for header %s: %q", key, v)
			}
			h.Add(key, v)
		}
	}
	return h, nil
}

// JSON decodes the response text into ptr.
func (r *Response) JSON(ptr any) error {
	return json.Unmarshal([]byte(r.Text), ptr)
}

func (r *Response) String() string {
	return fmt.Sprintf("<Response %d>", r.StatusCode)
}

// HTTP builds the *http.Response which answers req.
// Every call returns a fresh response with an unread body.
func (r *Response) HTTP(req *http.Request) *http.Response {
	return &http.Response{
		Status:        fmt.Sprintf("%d %s", r.StatusCode, http.StatusText(r.StatusCode)),
		StatusCode:    r.StatusCode,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        r.Header.Clone(),
		Body:          io.NopCloser(strings.NewReader(r.Text)),
		ContentLength: int64(len(r.Text)),
		Request:       req,
	}
}
