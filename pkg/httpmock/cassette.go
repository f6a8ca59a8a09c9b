package httpmock

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.llib.dev/frameless/pkg/errorkit"
	"gopkg.in/yaml.v3"
)

//go:embed cassette.schema.json
var cassetteSchemaJSON string

const cassetteSchemaURL = "cassette.schema.json"

var cassetteSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(cassetteSchemaURL, strings.NewReader(cassetteSchemaJSON)); err != nil {
		return nil, fmt.Errorf("add cassette schema resource: %w", err)
	}
	return compiler.Compile(cassetteSchemaURL)
})

// Cassette is a recorded list of prepared interactions.
//
//	interactions:
//	  - method: GET
//	    url: http://example.com/
//	    status: 200
//	    headers: {Content-Type: application/json}
//	    body: '{"ok":true}'
//	  - method: GET
//	    url: http://example.com/slow
//	    error: read_timeout
type Cassette struct {
	Interactions []Interaction `yaml:"interactions"`
}

type Interaction struct {
	Method  string            `yaml:"method"`
	URL     string            `yaml:"url"`
	Status  int               `yaml:"status,omitempty"`
	Body    *string           `yaml:"body,omitempty"`
	Headers map[string]string `yaml:"headers,omitempty"`
	Error   string            `yaml:"error,omitempty"`
}

// LoadCassette prepares the interactions of the YAML cassette file at path.
func (t *Transport) LoadCassette(path string) (rErr error) {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer errorkit.Finish(&rErr, f.Close)
	return t.AddCassette(f)
}

// AddCassette prepares the interactions of a YAML cassette.
// The document is validated before anything is prepared.
func (t *Transport) AddCassette(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	cassette, err := ParseCassette(data)
	if err != nil {
		return err
	}
	for i, in := range cassette.Interactions {
		if err := t.addInteraction(in); err != nil {
			return ErrInvalidCassette.F("interaction #%d (%s %s): %w", i, in.Method, in.URL, err)
		}
	}
	return nil
}

// ParseCassette decodes and validates a YAML cassette.
func ParseCassette(data []byte) (Cassette, error) {
	schema, err := cassetteSchema()
	if err != nil {
		return Cassette{}, err
	}
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Cassette{}, ErrInvalidCassette.Wrap(err)
	}
	// the validator works with JSON values
	raw, err := json.Marshal(doc)
	if err != nil {
		return Cassette{}, ErrInvalidCassette.Wrap(err)
	}
	var payload any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return Cassette{}, ErrInvalidCassette.Wrap(err)
	}
	if err := schema.Validate(payload); err != nil {
		return Cassette{}, ErrInvalidCassette.Wrap(err)
	}

	var cassette Cassette
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cassette); err != nil {
		return Cassette{}, ErrInvalidCassette.Wrap(err)
	}
	return cassette, nil
}

func (t *Transport) addInteraction(in Interaction) error {
	switch in.Error {
	case "connect_timeout":
		return t.AddConnectTimeout(in.Method, in.URL)
	case "read_timeout":
		return t.AddReadTimeout(in.Method, in.URL)
	case "unreachable_host":
		return t.AddUnreachableHost(in.Method, in.URL)
	case "":
	default:
		return fmt.Errorf("unknown error kind: %q", in.Error)
	}

	var opts []ResponseOption
	if in.Status != 0 {
		opts = append(opts, Status(in.Status))
	}
	if in.Body != nil {
		opts = append(opts, Body(*in.Body))
	}
	for k, v := range in.Headers {
		opts = append(opts, Header(k, v))
	}
	return t.AddResponse(in.Method, in.URL, opts...)
}
