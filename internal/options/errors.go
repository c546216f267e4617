package options

import (
	"fmt"
	"strings"
)

// ErrorKind classifies a ValidationError.
type ErrorKind int

const (
	UnknownOption ErrorKind = iota + 1
	TypeMismatch
	InvalidEnum
	OutOfRange
)

func (k ErrorKind) String() string {
	switch k {
	case UnknownOption:
		return "unknown option"
	case TypeMismatch:
		return "type mismatch"
	case InvalidEnum:
		return "invalid enum"
	case OutOfRange:
		return "out of range"
	}
	return "invalid option"
}

// ValidationError reports a rejected option. It is produced while an
// operation is being attached, before any decode or encode work happens.
type ValidationError struct {
	Kind         ErrorKind
	Owner        string
	Option       string
	Expected     Kind
	Permitted    []string
	Min, Max     float64
	Received     any
	ReceivedType string
	// Want overrides Expected in messages for constrained strings.
	Want string
}

func (e *ValidationError) Error() string {
	switch e.Kind {
	case UnknownOption:
		if e.Owner == OwnerOutput && e.Option == FormatKey {
			return fmt.Sprintf("Unsupported output format %s", render(e.Received))
		}
		return fmt.Sprintf("Unsupported option %s for %s", e.Option, e.Owner)
	case InvalidEnum:
		return fmt.Sprintf("Expected one of %s but received %s of type %s",
			strings.Join(e.Permitted, ", "), render(e.Received), e.ReceivedType)
	case OutOfRange:
		return fmt.Sprintf("Expected %s between %s and %s for %s but received %s of type %s",
			e.Expected, render(e.Min), render(e.Max), e.Option, render(e.Received), e.ReceivedType)
	}
	want := e.Expected.String()
	if e.Want != "" {
		want = e.Want
	}
	return fmt.Sprintf("Expected %s for %s but received %s of type %s",
		want, e.Option, render(e.Received), e.ReceivedType)
}

func unknownOption(owner, key string, raw any) *ValidationError {
	return &ValidationError{
		Kind:         UnknownOption,
		Owner:        owner,
		Option:       key,
		Received:     raw,
		ReceivedType: typeName(raw),
	}
}

// UnknownFormat rejects an output format name that has no schema.
func UnknownFormat(name any) *ValidationError {
	return unknownOption(OwnerOutput, FormatKey, name)
}

// OutOfRangeInt rejects an integer argument outside [min, max].
func OutOfRangeInt(owner, key string, v, min, max int) *ValidationError {
	return &ValidationError{
		Kind:         OutOfRange,
		Owner:        owner,
		Option:       key,
		Expected:     KindInt,
		Min:          float64(min),
		Max:          float64(max),
		Received:     v,
		ReceivedType: typeName(v),
	}
}

// NotFinite rejects NaN and the infinities where a number is expected.
func NotFinite(owner, key string, raw any) *ValidationError {
	verr := mismatch(owner, key, KindNumber, raw)
	verr.Want = "finite number"
	return verr
}

func mismatch(owner, key string, want Kind, raw any) *ValidationError {
	return &ValidationError{
		Kind:         TypeMismatch,
		Owner:        owner,
		Option:       key,
		Expected:     want,
		Received:     raw,
		ReceivedType: typeName(raw),
	}
}
