// Package serialize provides the opaque byte-level state codec the engine
// treats as an external collaborator: Deserialize(Serialize(state)) must
// equal state for every schema under test.
package serialize

import "github.com/aretw0/stategraph/pkg/state"

// Serializer converts a State to and from a portable byte encoding for
// checkpoint persistence.
type Serializer interface {
	Serialize(s state.State) ([]byte, error)
	Deserialize(data []byte) (state.State, error)
}
