// Package participant defines the metadata attached to a join credential.
// It is the only channel through which one participant learns another's
// gender, host status and spotlight state, so both the server (which writes
// it) and the client visibility filter (which reads it) share this package.
package participant

import (
	"bytes"
	"encoding/json"
)

const (
	GenderMale   = "male"
	GenderFemale = "female"
	GenderHost   = "host"
)

// Metadata is the decoded metadata blob.
type Metadata struct {
	Gender        string `json:"gender"`
	IsHost        bool   `json:"isHost"`
	IsSpotlighted bool   `json:"isSpotlighted,omitempty"`
}

// Encode serializes m into the opaque blob carried by the credential.
func (m Metadata) Encode() (string, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Parsed is the outcome of decoding a blob. When OK is false the blob was
// absent, not JSON, or JSON null, and Metadata is the zero value.
type Parsed struct {
	Metadata Metadata
	OK       bool

	object bool
}

// Parse decodes raw leniently. Any JSON value other than null counts as
// parsed. Fields are read from objects only: gender when it is a string,
// isHost and isSpotlighted by truthiness. A JSON value of the wrong shape
// therefore parses with no gender rather than failing.
func Parse(raw string) Parsed {
	b := bytes.TrimSpace([]byte(raw))
	if len(b) == 0 {
		return Parsed{}
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil || v == nil {
		return Parsed{}
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return Parsed{OK: true}
	}
	var m Metadata
	if g, ok := obj["gender"].(string); ok {
		m.Gender = g
	}
	m.IsHost = truthy(obj["isHost"])
	m.IsSpotlighted = truthy(obj["isSpotlighted"])
	return Parsed{Metadata: m, OK: true, object: true}
}

// truthy treats false, 0, "", null and a missing field as false and any
// other value as true.
func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case float64:
		return x != 0
	case string:
		return x != ""
	default:
		return true
	}
}

// WithSpotlight returns raw rewritten with the spotlight flag set to on.
// Input that is not a JSON object starts over from a non-host male
// participant, the same default hosts see when toggling spotlight in the
// room UI.
func WithSpotlight(raw string, on bool) (string, error) {
	p := Parse(raw)
	m := p.Metadata
	if !p.object {
		m = Metadata{Gender: GenderMale}
	}
	m.IsSpotlighted = on
	return m.Encode()
}
