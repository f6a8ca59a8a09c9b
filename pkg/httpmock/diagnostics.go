package httpmock

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// UnexpectedRequestError is returned for a request which no prepared entry accepted.
type UnexpectedRequestError struct {
	Key Key
	// Filtered is the number of prepared entries whose filter rejected the request.
	Filtered int
	// ContentType and Display describe the payload of PATCH, POST and PUT requests.
	ContentType string
	Display     string
}

func (err *UnexpectedRequestError) Is(target error) bool { return target == ErrUnexpectedRequest }

func (err *UnexpectedRequestError) Error() string {
	var msg strings.Builder
	fmt.Fprintf(&msg, "unexpected request: %s %s", err.Key.Method, err.Key.URL)
	if 0 < err.Filtered {
		plural := "s"
		if err.Filtered == 1 {
			plural = ""
		}
		fmt.Fprintf(&msg, "\n    (filtered %d prepared response%s)", err.Filtered, plural)
	}
	if err.ContentType != "" {
		fmt.Fprintf(&msg, "\n    Content-Type: %s\n    %s", err.ContentType, err.Display)
	}
	return msg.String()
}

func newUnexpectedRequestError(key Key, filtered int, header http.Header, body []byte) *UnexpectedRequestError {
	err := &UnexpectedRequestError{Key: key, Filtered: filtered}
	switch key.Method {
	case http.MethodPatch, http.MethodPost, http.MethodPut:
		err.ContentType, err.Display = describePayload(header.Get("Content-Type"), body)
	}
	return err
}

func describePayload(ctype string, body []byte) (string, string) {
	if ctype == "" {
		ctype = "???"
	}
	lctype := strings.ToLower(ctype)
	switch {
	case strings.Contains(lctype, "json"):
		if len(body) == 0 {
			return ctype, "(undefined content)"
		}
		dec := json.NewDecoder(bytes.NewReader(body))
		dec.UseNumber()
		var v any
		if err := dec.Decode(&v); err != nil || dec.More() {
			return ctype, "(malformed JSON data)"
		}
		var pretty bytes.Buffer
		enc := json.NewEncoder(&pretty)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return ctype, "(malformed JSON data)"
		}
		display := strings.ReplaceAll(strings.TrimSuffix(pretty.String(), "\n"), "\n", "\n    ")
		return ctype + " (pretty-printed for display)", strings.TrimRight(display, " \n")
	case strings.Contains(lctype, "xml"):
		if len(body) == 0 {
			return ctype, "(undefined content)"
		}
		return ctype, string(body)
	default:
		return ctype, "(content not shown)"
	}
}
