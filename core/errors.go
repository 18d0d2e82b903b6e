package core

import (
	"errors"
	"fmt"
)

// Kind categorizes user-facing failures. Every Kind is an expected outcome the
// dialogue layer can phrase back to the user.
type Kind string

const (
	KindItemNotFound            Kind = "ITEM_NOT_FOUND"
	KindRecipeNotFound          Kind = "RECIPE_NOT_FOUND"
	KindNoResolvableIngredients Kind = "NO_RESOLVABLE_INGREDIENTS"
	KindItemNotInCart           Kind = "ITEM_NOT_IN_CART"
	KindInvalidQuantity         Kind = "INVALID_QUANTITY"
	KindEmptyCart               Kind = "EMPTY_CART"
	KindOrderNotFound           Kind = "ORDER_NOT_FOUND"
	KindStorageUnavailable      Kind = "STORAGE_UNAVAILABLE"
	KindPersistenceFailure      Kind = "PERSISTENCE_FAILURE"
)

// Sentinels for errors.Is comparisons; matching is by Kind only.
var (
	ErrItemNotFound            = &Error{Kind: KindItemNotFound}
	ErrRecipeNotFound          = &Error{Kind: KindRecipeNotFound}
	ErrNoResolvableIngredients = &Error{Kind: KindNoResolvableIngredients}
	ErrItemNotInCart           = &Error{Kind: KindItemNotInCart}
	ErrInvalidQuantity         = &Error{Kind: KindInvalidQuantity}
	ErrEmptyCart               = &Error{Kind: KindEmptyCart}
	ErrOrderNotFound           = &Error{Kind: KindOrderNotFound}
	ErrStorageUnavailable      = &Error{Kind: KindStorageUnavailable}
	ErrPersistenceFailure      = &Error{Kind: KindPersistenceFailure}
)

// Error is a typed engine failure carrying a short message suitable for
// speaking back to the user and an optional underlying cause.
type Error struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// NewError creates an Error of the given kind.
func NewError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WrapError creates an Error of the given kind wrapping cause.
func WrapError(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: cause}
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error with the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the Kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// MessageOf returns the user-facing message of err. Non-typed errors fall back
// to err.Error().
func MessageOf(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return err.Error()
}
