package state

// State is the keyed mapping that flows through a compiled graph. Callers
// never see a mutated State; every update produces a fresh one.
type State map[string]any

// Update is a partial state produced by a node or condition action.
type Update map[string]any

// Reducer merges an old and new value for a single key. A nil reducer means
// plain overwrite.
type Reducer func(old, new any) any

// DefaultFunc produces the zero value for a channel when none is supplied.
type DefaultFunc func() any

// Channel is the per-key update policy. BaseChannel and AppenderChannel are
// the two kinds this package ships; callers may implement their own.
type Channel interface {
	// Update computes the effective value to fold into state for this key,
	// given the value currently stored (which may be nil if absent) and the
	// new value from a partial update.
	Update(key string, old, new any) any
}

// BaseChannel is a plain overwrite channel with an optional default and an
// optional reducer, mirroring the org.bsc.langgraph4j Channel contract.
type BaseChannel struct {
	Default DefaultFunc
	Reduce  Reducer
}

// NewBaseChannel builds a BaseChannel. Either argument may be nil.
func NewBaseChannel(def DefaultFunc, reduce Reducer) *BaseChannel {
	return &BaseChannel{Default: def, Reduce: reduce}
}

// Update implements Channel.
func (c *BaseChannel) Update(_ string, old, new any) any {
	if new == nil || IsMarkedForReset(new) {
		if c.Default != nil {
			return c.Default()
		}
		return nil
	}
	if IsMarkedForRemoval(new) {
		return nil
	}
	if c.Reduce == nil {
		return new
	}
	effectiveOld := old
	if effectiveOld == nil && c.Default != nil {
		effectiveOld = c.Default()
	}
	return c.Reduce(effectiveOld, new)
}

// Schema maps state keys to the channel that governs them. Keys absent from
// the schema default to plain overwrite (no default, no reducer).
type Schema map[string]Channel

var overwriteChannel = &BaseChannel{}

func (s Schema) channelFor(key string) Channel {
	if c, ok := s[key]; ok && c != nil {
		return c
	}
	return overwriteChannel
}

// Apply runs the full per-step update algebra: each key of the partial
// update is passed through its channel, then the result is merged with the
// current state, dropping any key whose effective value is nil.
//
// Apply never mutates s or p; it returns a fresh State.
func (s Schema) Apply(current State, p Update) State {
	out := make(State, len(current)+len(p))
	for k, v := range current {
		out[k] = v
	}
	for k, newVal := range p {
		ch := s.channelFor(k)
		effective := ch.Update(k, current[k], newVal)
		if effective == nil || IsMarkedForReset(effective) || IsMarkedForRemoval(effective) {
			delete(out, k)
			continue
		}
		out[k] = effective
	}
	return out
}
