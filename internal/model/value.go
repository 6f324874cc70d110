// This file defines Value, the resolved form of an expression found in a flow
// source file. The source parser never evaluates code: a literal becomes a
// Scalar, a bare name an Identifier, a nested call a Placeholder, and the
// container literals keep their structure. Anything it cannot represent is
// Absent.

package model

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Kind discriminates the variants of a Value.
type Kind int

const (
	KindAbsent Kind = iota
	KindScalar
	KindIdentifier
	KindPlaceholder
	KindMapping
	KindSequence
	KindTuple
)

var kindNames = [...]string{
	KindAbsent:      "absent",
	KindScalar:      "scalar",
	KindIdentifier:  "identifier",
	KindPlaceholder: "placeholder",
	KindMapping:     "mapping",
	KindSequence:    "sequence",
	KindTuple:       "tuple",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindNames[k]
}

// Entry is one key/value pair of a Mapping value. Entries keep source order.
type Entry struct {
	Key   Value
	Value Value
}

// Value is a resolved expression. Only the fields relevant to Kind are set:
//
//   - KindScalar: Scalar holds a string, int64, float64, bool, or nil (None).
//   - KindIdentifier: Name holds the referenced name.
//   - KindPlaceholder: Name holds the called function name.
//   - KindMapping: Entries.
//   - KindSequence, KindTuple: Items.
type Value struct {
	Kind    Kind
	Scalar  any
	Name    string
	Entries []Entry
	Items   []Value
}

// Absent returns the zero Value.
func Absent() Value { return Value{} }

// Scalar wraps a literal.
func Scalar(v any) Value { return Value{Kind: KindScalar, Scalar: v} }

// String wraps a string literal.
func String(s string) Value { return Scalar(s) }

// Identifier references a name bound elsewhere in the source.
func Identifier(name string) Value { return Value{Kind: KindIdentifier, Name: name} }

// Placeholder stands in for an unevaluated call to fn.
func Placeholder(fn string) Value { return Value{Kind: KindPlaceholder, Name: fn} }

// Mapping builds a mapping value. Entries whose key is Absent are dropped.
func Mapping(entries ...Entry) Value {
	kept := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e.Key.IsAbsent() {
			continue
		}
		kept = append(kept, e)
	}
	return Value{Kind: KindMapping, Entries: kept}
}

// Sequence builds a list value.
func Sequence(items ...Value) Value { return Value{Kind: KindSequence, Items: items} }

// Tuple builds a tuple value.
func Tuple(items ...Value) Value { return Value{Kind: KindTuple, Items: items} }

// IsAbsent reports whether v carries no value.
func (v Value) IsAbsent() bool { return v.Kind == KindAbsent }

// Text returns the string for a string scalar, an identifier name, or the
// rendered placeholder. The boolean is false for every other kind.
func (v Value) Text() (string, bool) {
	switch v.Kind {
	case KindScalar:
		s, ok := v.Scalar.(string)
		return s, ok
	case KindIdentifier:
		return v.Name, true
	case KindPlaceholder:
		return v.Name + "(...)", true
	case KindAbsent, KindMapping, KindSequence, KindTuple:
		return "", false
	}
	return "", false
}

// Lookup returns the value stored under key in a Mapping value.
func (v Value) Lookup(key string) (Value, bool) {
	if v.Kind != KindMapping {
		return Value{}, false
	}
	for _, e := range v.Entries {
		if e.Key.String() == key {
			return e.Value, true
		}
	}
	return Value{}, false
}

// Strings returns the textual items of a Sequence or Tuple. Items that are not
// text are skipped.
func (v Value) Strings() []string {
	if v.Kind != KindSequence && v.Kind != KindTuple {
		return nil
	}
	out := make([]string, 0, len(v.Items))
	for _, it := range v.Items {
		if s, ok := it.Text(); ok {
			out = append(out, s)
		}
	}
	return out
}

// String renders v the way it appeared in the flow source, closely enough for
// labels and logs.
func (v Value) String() string {
	switch v.Kind {
	case KindAbsent:
		return ""
	case KindScalar:
		return scalarString(v.Scalar)
	case KindIdentifier:
		return v.Name
	case KindPlaceholder:
		return v.Name + "(...)"
	case KindMapping:
		parts := make([]string, 0, len(v.Entries))
		for _, e := range v.Entries {
			parts = append(parts, e.Key.String()+": "+e.Value.String())
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case KindSequence:
		return "[" + joinValues(v.Items) + "]"
	case KindTuple:
		if len(v.Items) == 1 {
			return "(" + v.Items[0].String() + ",)"
		}
		return "(" + joinValues(v.Items) + ")"
	}
	return ""
}

// Interface converts v to plain Go values: string, int64, float64, bool, nil,
// map[string]any and []any. Identifiers and placeholders become strings.
func (v Value) Interface() any {
	switch v.Kind {
	case KindAbsent:
		return nil
	case KindScalar:
		return v.Scalar
	case KindIdentifier, KindPlaceholder:
		s, _ := v.Text()
		return s
	case KindMapping:
		m := make(map[string]any, len(v.Entries))
		for _, e := range v.Entries {
			m[e.Key.String()] = e.Value.Interface()
		}
		return m
	case KindSequence, KindTuple:
		out := make([]any, len(v.Items))
		for i, it := range v.Items {
			out[i] = it.Interface()
		}
		return out
	}
	return nil
}

// FromInterface is the inverse of Interface for decoded JSON or YAML data.
// Strings always come back as scalars.
func FromInterface(x any) Value {
	switch t := x.(type) {
	case nil:
		return Scalar(nil)
	case string, bool, int64, float64:
		return Scalar(t)
	case int:
		return Scalar(int64(t))
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		entries := make([]Entry, 0, len(keys))
		for _, k := range keys {
			entries = append(entries, Entry{Key: String(k), Value: FromInterface(t[k])})
		}
		return Mapping(entries...)
	case []any:
		items := make([]Value, len(t))
		for i, it := range t {
			items[i] = FromInterface(it)
		}
		return Sequence(items...)
	}
	return Absent()
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if f, ok := raw.(float64); ok && f == float64(int64(f)) {
		raw = int64(f)
	}
	*v = FromInterface(raw)
	return nil
}

func joinValues(items []Value) string {
	parts := make([]string, len(items))
	for i, it := range items {
		parts[i] = it.String()
	}
	return strings.Join(parts, ", ")
}

func scalarString(x any) string {
	switch t := x.(type) {
	case nil:
		return "None"
	case string:
		return t
	case bool:
		if t {
			return "True"
		}
		return "False"
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	}
	return fmt.Sprint(x)
}
