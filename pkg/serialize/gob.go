package serialize

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/aretw0/stategraph/pkg/state"
)

func init() {
	// gob requires concrete types stored behind an interface{} to be
	// registered. State values are typically these basic JSON-ish shapes;
	// callers storing custom struct types must register them themselves.
	for _, v := range []any{
		"", 0, 0.0, false, []any{}, map[string]any{}, int64(0),
	} {
		gob.Register(v)
	}
}

// GobSerializer is the default Serializer, used for checkpoint persistence.
// Values placed in state must be gob-registerable (concrete, exported
// types); callers with custom value types should call gob.Register for
// them before serializing.
type GobSerializer struct{}

// NewGobSerializer returns the default binary serializer.
func NewGobSerializer() *GobSerializer { return &GobSerializer{} }

// Serialize implements Serializer.
func (GobSerializer) Serialize(s state.State) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(map[string]any(s)); err != nil {
		return nil, fmt.Errorf("serialize: gob encode: %w", err)
	}
	return buf.Bytes(), nil
}

// Deserialize implements Serializer.
func (GobSerializer) Deserialize(data []byte) (state.State, error) {
	var raw map[string]any
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&raw); err != nil {
		return nil, fmt.Errorf("serialize: gob decode: %w", err)
	}
	return state.State(raw), nil
}
