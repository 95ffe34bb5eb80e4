package serialize_test

import (
	"testing"

	"github.com/aretw0/stategraph/pkg/serialize"
	"github.com/aretw0/stategraph/pkg/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func roundTripCases() []state.State {
	return []state.State{
		{},
		{"count": 1},
		{"choice": "right", "count": 3},
		{"msgs": []any{"a", "b"}},
	}
}

func TestGobSerializer_RoundTrip(t *testing.T) {
	s := serialize.NewGobSerializer()
	for _, in := range roundTripCases() {
		data, err := s.Serialize(in)
		require.NoError(t, err)

		out, err := s.Deserialize(data)
		require.NoError(t, err)
		assert.Equal(t, in, out)
	}
}

func TestYAMLSerializer_RoundTrip(t *testing.T) {
	s := serialize.NewYAMLSerializer()
	for _, in := range roundTripCases() {
		data, err := s.Serialize(in)
		require.NoError(t, err)

		out, err := s.Deserialize(data)
		require.NoError(t, err)
		assert.Equal(t, in, out)
	}
}
