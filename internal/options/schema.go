// Package options validates user supplied option bags against per-owner
// schemas. An owner is an operation ("resize", "input") or an output format
// ("jpeg", "jp2"). Schemas are plain data held in a table, so adding a
// format means registering a Schema rather than changing the validator.
package options

import (
	"fmt"
	"sort"
	"sync"
)

// Spec declares one option.
type Spec struct {
	Kind Kind
	// Enum lists permitted members, in the order they are reported.
	Enum []string
	// Min and Max bound KindInt and KindNumber values, inclusive.
	Min, Max float64
	Default  Value
	// Accept, when set, further checks a string after its type is known to
	// be right; Want names what it expects in the rejection message.
	Accept func(string) bool
	Want   string
}

// Schema is the full set of options an owner accepts.
type Schema struct {
	Owner string
	Specs map[string]Spec
}

// Raw is an untyped option bag, as decoded from flags or JSON.
type Raw map[string]any

// Merge returns a copy of r overlaid with o.
func (r Raw) Merge(o Raw) Raw {
	out := make(Raw, len(r)+len(o))
	for k, v := range r {
		out[k] = v
	}
	for k, v := range o {
		out[k] = v
	}
	return out
}

// Flatten folds nested maps into dotted keys, so {"jp2": {"oneshot": true}}
// becomes {"jp2.oneshot": true}.
func Flatten(r Raw) Raw {
	out := make(Raw, len(r))
	var walk func(prefix string, m map[string]any)
	walk = func(prefix string, m map[string]any) {
		for k, v := range m {
			key := k
			if prefix != "" {
				key = prefix + "." + k
			}
			switch nested := v.(type) {
			case map[string]any:
				walk(key, nested)
			case Raw:
				walk(key, nested)
			default:
				out[key] = v
			}
		}
	}
	walk("", r)
	return out
}

var (
	tableMu sync.RWMutex
	table   = make(map[string]Schema)
)

// Register adds or replaces the schema for s.Owner.
func Register(s Schema) {
	tableMu.Lock()
	defer tableMu.Unlock()
	table[s.Owner] = s
}

// Lookup returns the schema registered for owner.
func Lookup(owner string) (Schema, bool) {
	tableMu.RLock()
	defer tableMu.RUnlock()
	s, ok := table[owner]
	return s, ok
}

// Validate checks raw against the schema registered for owner.
func Validate(owner string, raw Raw) (Set, error) {
	s, ok := Lookup(owner)
	if !ok {
		return Set{}, fmt.Errorf("no option schema registered for %s", owner)
	}
	return s.Validate(raw)
}

// Validate type-checks every key of raw. Keys are visited in sorted order
// so the reported error is deterministic; the first failure wins.
func (s Schema) Validate(raw Raw) (Set, error) {
	raw = Flatten(raw)
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	set := Set{schema: s, values: make(map[string]Value, len(raw))}
	for _, key := range keys {
		spec, ok := s.Specs[key]
		if !ok {
			return Set{}, unknownOption(s.Owner, key, raw[key])
		}
		v, err := spec.check(s.Owner, key, raw[key])
		if err != nil {
			return Set{}, err
		}
		set.values[key] = v
	}
	return set, nil
}

func (sp Spec) check(owner, key string, raw any) (Value, error) {
	switch sp.Kind {
	case KindBool:
		b, ok := asBool(raw)
		if !ok {
			return Value{}, mismatch(owner, key, KindBool, raw)
		}
		return Bool(b), nil

	case KindString:
		str, ok := asString(raw)
		if !ok || (sp.Accept != nil && !sp.Accept(str)) {
			verr := mismatch(owner, key, KindString, raw)
			verr.Want = sp.Want
			return Value{}, verr
		}
		return String(str), nil

	case KindEnum:
		str, ok := asString(raw)
		if ok {
			for _, member := range sp.Enum {
				if member == str {
					return enumValue(member), nil
				}
			}
		}
		return Value{}, &ValidationError{
			Kind:         InvalidEnum,
			Owner:        owner,
			Option:       key,
			Expected:     KindEnum,
			Permitted:    sp.Enum,
			Received:     raw,
			ReceivedType: typeName(raw),
		}

	case KindInt, KindNumber:
		f, ok := asFloat(raw)
		if !ok || (sp.Kind == KindInt && !isIntegral(f)) {
			return Value{}, mismatch(owner, key, sp.Kind, raw)
		}
		if !isFinite(f) {
			return Value{}, NotFinite(owner, key, raw)
		}
		if f < sp.Min || f > sp.Max {
			return Value{}, &ValidationError{
				Kind:         OutOfRange,
				Owner:        owner,
				Option:       key,
				Expected:     sp.Kind,
				Min:          sp.Min,
				Max:          sp.Max,
				Received:     raw,
				ReceivedType: typeName(raw),
			}
		}
		if sp.Kind == KindInt {
			return Int(int(f)), nil
		}
		return Number(f), nil
	}
	return Value{}, fmt.Errorf("option %s for %s has no declared kind", key, owner)
}

// Set is a validated option bag bound to its schema. The zero Set is empty
// and answers every getter with the zero value.
type Set struct {
	schema Schema
	values map[string]Value
}

// NewSet returns an empty, valid set for s.
func NewSet(s Schema) Set {
	return Set{schema: s, values: map[string]Value{}}
}

// Owner names the schema the set was validated against.
func (s Set) Owner() string { return s.schema.Owner }

// Len counts explicitly supplied options.
func (s Set) Len() int { return len(s.values) }

// Has reports whether key was supplied explicitly.
func (s Set) Has(key string) bool {
	_, ok := s.values[key]
	return ok
}

// Get returns the supplied value, falling back to the schema default.
func (s Set) Get(key string) (Value, bool) {
	if v, ok := s.values[key]; ok {
		return v, true
	}
	if spec, ok := s.schema.Specs[key]; ok && !spec.Default.IsZero() {
		return spec.Default, true
	}
	return Value{}, false
}

func (s Set) Bool(key string) bool {
	v, _ := s.Get(key)
	return v.Bool()
}

func (s Set) Int(key string) int {
	v, _ := s.Get(key)
	return v.Int()
}

func (s Set) Float(key string) float64 {
	v, _ := s.Get(key)
	return v.Float()
}

func (s Set) Text(key string) string {
	v, _ := s.Get(key)
	return v.Text()
}

// Keys lists the explicitly supplied keys, sorted.
func (s Set) Keys() []string {
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Map returns the explicitly supplied values, for reporting.
func (s Set) Map() map[string]Value {
	out := make(map[string]Value, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}
