package mef

import (
	"fmt"

	"github.com/astrokit/mefkit/fits"
)

// ErrKind classifies errors so callers can branch on intent rather than text.
type ErrKind int

const (
	ErrKindKeyMissing    ErrKind = iota // header keyword absent
	ErrKindIndex                        // extension index out of range
	ErrKindMissingName                  // operation needs a name and none was resolvable
	ErrKindUnsupported                  // value of a structural type we can't place
	ErrKindDuplicate                    // second primary unit
	ErrKindNotSliceable                 // slicing a single-extension slice
	ErrKindSingle                       // operation invalid on a single-extension slice
	ErrKindValueMismatch                // operand sizes/shapes disagree
	ErrKindFile                         // destination/file-system failure
	ErrKindNotFound                     // named payload/table/alias absent
)

// Error is a typed error with an optional underlying cause.
type Error struct {
	Kind ErrKind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is makes sentinels match whenever the kinds agree, so wrapped variants
// carrying context still satisfy errors.Is against the bare sentinel.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Sentinels commonly returned by the provider and slice operations.
var (
	// ErrIndexOutOfRange indicates an extension index outside the current range.
	ErrIndexOutOfRange = &Error{Kind: ErrKindIndex, Msg: "extension index out of range"}
	// ErrMissingName indicates an attach/append that could not resolve a name.
	ErrMissingName = &Error{Kind: ErrKindMissingName, Msg: "no name resolvable for this payload"}
	// ErrUnsupportedStructure indicates a payload of a kind that can't be placed or serialized.
	ErrUnsupportedStructure = &Error{Kind: ErrKindUnsupported, Msg: "unsupported payload structure"}
	// ErrDuplicatePrimary indicates an attempt to append a second primary unit.
	ErrDuplicatePrimary = &Error{Kind: ErrKindDuplicate, Msg: "only one primary unit allowed"}
	// ErrNotSliceable indicates re-slicing of a single-extension slice.
	ErrNotSliceable = &Error{Kind: ErrKindNotSliceable, Msg: "can't slice a single-extension slice"}
	// ErrInvalidOnSingle indicates an operation that needs a multi-extension view.
	ErrInvalidOnSingle = &Error{Kind: ErrKindSingle, Msg: "operation not valid on a single-extension slice"}
	// ErrValueMismatch indicates operands whose sizes or shapes disagree.
	ErrValueMismatch = &Error{Kind: ErrKindValueMismatch, Msg: "operands are not the same size"}
	// ErrNotFound indicates a named payload, table or alias that doesn't exist.
	ErrNotFound = &Error{Kind: ErrKindNotFound, Msg: "not found"}
	// ErrFileExists re-exports the codec sentinel for the write path.
	ErrFileExists = fits.ErrFileExists
)

func errf(kind ErrKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// KeyMissingError reports a keyword absent from some (or all) of the headers
// a fan-out operation addressed. MissingAt holds the positions without the
// keyword; Partial holds the per-header values with nil at those positions,
// so callers can degrade to a default instead of aborting.
type KeyMissingError struct {
	Key       string
	MissingAt []int
	Partial   []any
}

func (e *KeyMissingError) Error() string {
	if len(e.MissingAt) > 0 {
		return fmt.Sprintf("keyword %q missing at headers %v", e.Key, e.MissingAt)
	}
	return fmt.Sprintf("keyword %q not found", e.Key)
}

// StructuralError is the panic payload for internal-consistency violations,
// such as the header store and extension list falling out of lockstep. It is
// a bug indicator, never a recoverable condition.
type StructuralError struct {
	Msg string
}

func (e *StructuralError) Error() string {
	return "mef: structural invariant violated: " + e.Msg
}

// assertStructural panics when cond does not hold.
func assertStructural(cond bool, format string, args ...any) {
	if !cond {
		panic(&StructuralError{Msg: fmt.Sprintf(format, args...)})
	}
}
