package types

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode identifies a condition diagnostic. The first letter selects the
// category: S = parse, C = signature, T = type, E = evaluation.
type ErrorCode string

const (
	// S0xxx: parse errors
	ErrStringNotClosed   ErrorCode = "S0101"
	ErrNumberOutOfRange  ErrorCode = "S0102"
	ErrUnsupportedEscape ErrorCode = "S0103"
	ErrUnexpectedEnd     ErrorCode = "S0104"
	ErrCommentNotClosed  ErrorCode = "S0105"
	ErrPlaceholder       ErrorCode = "S0106"
	ErrSyntaxError       ErrorCode = "S0201"
	ErrExpectedToken     ErrorCode = "S0202"
	ErrTooDeep           ErrorCode = "S0203"

	// C0xxx: signature errors
	ErrInvalidVariable   ErrorCode = "C0101"
	ErrDuplicateVariable ErrorCode = "C0102"
	ErrUndeclared        ErrorCode = "C0103"
	ErrRedeclared        ErrorCode = "C0104"

	// T0xxx: type errors
	ErrUnknownMember     ErrorCode = "T0301"
	ErrArgumentCount     ErrorCode = "T0302"
	ErrArgumentType      ErrorCode = "T0303"
	ErrOperandType       ErrorCode = "T0304"
	ErrResultType        ErrorCode = "T0305"
	ErrNotStringifiable  ErrorCode = "T0306"
	ErrMissingReturn     ErrorCode = "T0307"
	ErrAssignType        ErrorCode = "T0308"
	ErrUnsupportedResult ErrorCode = "T0309"
	ErrNotCallable       ErrorCode = "T0310"

	// E0xxx: evaluation errors
	ErrMissingVariable    ErrorCode = "E0101"
	ErrUnexpectedVariable ErrorCode = "E0102"
	ErrVariableType       ErrorCode = "E0103"
	ErrDivisionByZero     ErrorCode = "E0201"
	ErrMemberAccess       ErrorCode = "E0202"
	ErrPanic              ErrorCode = "E0203"
	ErrInvalidArgument    ErrorCode = "E0204"
	ErrResultConversion   ErrorCode = "E0205"
)

// Category groups error codes.
type Category uint8

const (
	CategoryUnknown Category = iota
	CategoryParse
	CategorySignature
	CategoryType
	CategoryEvaluation
)

// Sentinels matched by errors.Is against any *Error of the same category.
var (
	ErrParse      = errors.New("parse error")
	ErrSignature  = errors.New("signature error")
	ErrType       = errors.New("type error")
	ErrEvaluation = errors.New("evaluation error")
)

// Category returns the category encoded in the code prefix.
func (c ErrorCode) Category() Category {
	if c == "" {
		return CategoryUnknown
	}
	switch c[0] {
	case 'S':
		return CategoryParse
	case 'C':
		return CategorySignature
	case 'T':
		return CategoryType
	case 'E':
		return CategoryEvaluation
	default:
		return CategoryUnknown
	}
}

func (c Category) String() string {
	switch c {
	case CategoryParse:
		return "parse"
	case CategorySignature:
		return "signature"
	case CategoryType:
		return "type"
	case CategoryEvaluation:
		return "evaluation"
	default:
		return "unknown"
	}
}

func (c Category) sentinel() error {
	switch c {
	case CategoryParse:
		return ErrParse
	case CategorySignature:
		return ErrSignature
	case CategoryType:
		return ErrType
	case CategoryEvaluation:
		return ErrEvaluation
	default:
		return nil
	}
}

// Error represents a structured condition diagnostic.
type Error struct {
	Code     ErrorCode
	Message  string
	Position int
	Token    string
	Err      error
}

// NewError creates a new diagnostic. Use a negative position when the
// location in the source text is unknown.
func NewError(code ErrorCode, message string, position int) *Error {
	return &Error{
		Code:     code,
		Message:  message,
		Position: position,
	}
}

// Errorf is NewError with a formatted message.
func Errorf(code ErrorCode, position int, format string, args ...any) *Error {
	return NewError(code, fmt.Sprintf(format, args...), position)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Position >= 0 {
		return fmt.Sprintf("%s at position %d: %s", e.Code, e.Position, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the category sentinel of e.
func (e *Error) Is(target error) bool {
	s := e.Code.Category().sentinel()
	return s != nil && target == s
}

// WithToken adds token information to the error.
func (e *Error) WithToken(token string) *Error {
	e.Token = token
	return e
}

// WithCause wraps another error.
func (e *Error) WithCause(err error) *Error {
	e.Err = err
	return e
}

// Shift moves the position by offset. It is used when a fragment of a larger
// text is parsed on its own.
func (e *Error) Shift(offset int) *Error {
	if e.Position >= 0 {
		e.Position += offset
	}
	return e
}

// ConditionError is the uniform failure shape for compiling and evaluating a
// condition. Definition and Condition are supplied by the caller and may be
// empty; Text is the condition source verbatim.
type ConditionError struct {
	Definition string
	Condition  string
	Mode       Mode
	Text       string
	Err        error
}

func (e *ConditionError) Error() string {
	var b strings.Builder
	if e.Definition != "" {
		fmt.Fprintf(&b, "definition %q", e.Definition)
	}
	if e.Condition != "" {
		if b.Len() > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "condition %q", e.Condition)
	}
	if b.Len() > 0 {
		b.WriteString(": ")
	}
	if e.Err != nil {
		b.WriteString(e.Err.Error())
	} else {
		b.WriteString("condition failed")
	}
	fmt.Fprintf(&b, " in %s %q", e.Mode, e.Text)
	return b.String()
}

// Unwrap returns the underlying diagnostic.
func (e *ConditionError) Unwrap() error {
	return e.Err
}

// Code returns the code of the underlying diagnostic, if any.
func (e *ConditionError) Code() ErrorCode {
	var de *Error
	if errors.As(e.Err, &de) {
		return de.Code
	}
	return ""
}
