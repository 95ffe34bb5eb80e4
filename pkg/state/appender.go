package state

import (
	"encoding/json"
	"hash/fnv"
	"reflect"
)

// RemoveIdentifier picks the first element of an appender-channel list that
// should be dropped. It returns true for the element to remove.
type RemoveIdentifier func(element any, atIndex int) bool

// ReplaceAllWith wholesale-replaces an appender channel's list, ignoring the
// list's previous contents.
type ReplaceAllWith struct {
	Values []any
}

// ReplaceWith builds a ReplaceAllWith from a single value.
func ReplaceWith(v any) ReplaceAllWith {
	return ReplaceAllWith{Values: []any{v}}
}

// ReplaceAllWithSlice builds a ReplaceAllWith from a slice of values.
func ReplaceAllWithSlice(vs []any) ReplaceAllWith {
	return ReplaceAllWith{Values: append([]any(nil), vs...)}
}

// AppenderChannel accumulates a list under a single key. New values may be a
// bare element, a slice of elements, a RemoveIdentifier, or a
// ReplaceAllWith.
type AppenderChannel struct {
	Default        DefaultFunc
	Reduce         Reducer
	DisallowDup    bool
}

// NewAppenderChannel builds an AppenderChannel with the disallow-duplicate
// reducer if disallowDup is true, allow-duplicate otherwise. Default, if
// nil, is an empty list.
func NewAppenderChannel(disallowDup bool) *AppenderChannel {
	c := &AppenderChannel{DisallowDup: disallowDup}
	if disallowDup {
		c.Reduce = ReducerDisallowDuplicate
	} else {
		c.Reduce = ReducerAllowDuplicate
	}
	c.Default = func() any { return []any{} }
	return c
}

// elementHash produces a stable structural hash of v via its JSON encoding.
// This resolves the open question left by the source's use of a language
// identity hashCode: JSON structural hashing narrows, but does not
// eliminate, the collision caveat for the disallow-duplicate reducer.
func elementHash(v any) (uint64, bool) {
	b, err := json.Marshal(v)
	if err != nil {
		return 0, false
	}
	h := fnv.New64a()
	h.Write(b)
	return h.Sum64(), true
}

// ReducerAllowDuplicate appends new elements to old unconditionally.
func ReducerAllowDuplicate(old, new any) any {
	oldList := toList(old)
	newList := toList(new)
	return append(append([]any{}, oldList...), newList...)
}

// ReducerDisallowDuplicate appends only the elements of new whose structural
// hash is not already present among old's elements.
func ReducerDisallowDuplicate(old, new any) any {
	oldList := toList(old)
	newList := toList(new)

	seen := make(map[uint64]struct{}, len(oldList))
	for _, e := range oldList {
		if h, ok := elementHash(e); ok {
			seen[h] = struct{}{}
		}
	}

	out := append([]any{}, oldList...)
	for _, e := range newList {
		h, ok := elementHash(e)
		if !ok {
			out = append(out, e)
			continue
		}
		if _, dup := seen[h]; dup {
			continue
		}
		seen[h] = struct{}{}
		out = append(out, e)
	}
	return out
}

// toList coerces a scalar, a []any, or any other slice type into a []any.
func toList(v any) []any {
	if v == nil {
		return nil
	}
	if l, ok := v.([]any); ok {
		return l
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		out := make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out[i] = rv.Index(i).Interface()
		}
		return out
	}
	return []any{v}
}

// removeFirst removes the first element for which ident returns true,
// returning a new slice and whether a removal occurred.
func removeFirst(list []any, ident RemoveIdentifier) ([]any, bool) {
	for i, e := range list {
		if ident(e, i) {
			out := make([]any, 0, len(list)-1)
			out = append(out, list[:i]...)
			out = append(out, list[i+1:]...)
			return out, true
		}
	}
	return list, false
}

// Update implements Channel. It mirrors AppenderChannel.update: sentinel
// handling first, then ReplaceAllWith, then RemoveIdentifier against the
// existing list, then coercion of the incoming value into a list, then
// (for a non-empty incoming list) delegating to the reducer via
// BaseChannel-equivalent logic.
func (c *AppenderChannel) Update(key string, old, new any) any {
	if new == nil || IsMarkedForReset(new) {
		if c.Default != nil {
			return c.Default()
		}
		return nil
	}
	if IsMarkedForRemoval(new) {
		return nil
	}

	if r, ok := new.(ReplaceAllWith); ok {
		out := make([]any, len(r.Values))
		copy(out, r.Values)
		return out
	}

	if ident, ok := new.(RemoveIdentifier); ok {
		oldList := toList(old)
		if updated, removed := removeFirst(oldList, ident); removed {
			return updated
		}
		return oldList
	}

	incoming := toList(new)
	if len(incoming) == 0 {
		if old == nil {
			if c.Default != nil {
				return c.Default()
			}
			return nil
		}
		return old
	}

	base := &BaseChannel{Default: c.Default, Reduce: c.Reduce}
	return base.Update(key, old, incoming)
}
