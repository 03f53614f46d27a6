// Package codec encodes the JSON index header.
//
// header.json records the name of the codec that wrote it. Both codecs emit
// plain indented JSON, so either one reads the other's output.
package codec

import (
	"encoding/json"

	gojson "github.com/goccy/go-json"
)

// Codec marshals header values. Implementations are safe for concurrent use.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
}

// Default writes new headers.
var Default Codec = GoJSON{}

// GoJSON uses github.com/goccy/go-json.
type GoJSON struct{}

func (GoJSON) Marshal(v any) ([]byte, error)      { return gojson.MarshalIndent(v, "", "  ") }
func (GoJSON) Unmarshal(data []byte, v any) error { return gojson.Unmarshal(data, v) }
func (GoJSON) Name() string                       { return "go-json" }

// JSON uses encoding/json.
type JSON struct{}

func (JSON) Marshal(v any) ([]byte, error)      { return json.MarshalIndent(v, "", "  ") }
func (JSON) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
func (JSON) Name() string                       { return "json" }

// Names lists the codecs ByName accepts.
func Names() []string { return []string{GoJSON{}.Name(), JSON{}.Name()} }

// ByName returns the codec with the given name.
func ByName(name string) (Codec, bool) {
	switch name {
	case GoJSON{}.Name():
		return GoJSON{}, true
	case JSON{}.Name():
		return JSON{}, true
	}
	return nil, false
}
