package httpmock

import (
	"fmt"
	"net/http"
)

// RequestInfo records one intercepted request and its outcome.
type RequestInfo struct {
	// Method is lower-cased.
	Method   string
	URL      string
	Response *Response
	Err      error
	Request  *http.Request
	Body     []byte
}

// Result is the outcome of the request, either the *Response or the error.
func (ri RequestInfo) Result() any {
	if ri.Err != nil {
		return ri.Err
	}
	return ri.Response
}

// At gives positional access to the fields: method, url, result, request, body.
func (ri RequestInfo) At(i int) any {
	switch i {
	case 0:
		return ri.Method
	case 1:
		return ri.URL
	case 2:
		return ri.Result()
	case 3:
		return ri.Request
	case 4:
		return ri.Body
	default:
		panic(fmt.Sprintf("httpmock: RequestInfo index out of range [%d] with length 5", i))
	}
}

func (ri RequestInfo) Header() http.Header {
	if ri.Request == nil {
		return nil
	}
	return ri.Request.Header
}

func (ri RequestInfo) String() string {
	return fmt.Sprintf("RequestInfo(%q, %q, %v, %q)", ri.Method, ri.URL, ri.Result(), ri.Body)
}
