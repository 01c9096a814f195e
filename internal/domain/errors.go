package domain

import (
	"errors"
	"fmt"
)

// Store-level sentinels. Services translate them into *Error values.
var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate key")
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

// Error carries a Kind for status mapping and a Code for errors.Is matching.
// Message is safe to show to clients.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error

	// Existing is set on ErrDuplicateCustomer to the stored customer.
	Existing *Customer
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Code
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on Code so sentinels compare equal to any error built from them.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

var (
	ErrMissingFields       = &Error{Kind: KindValidation, Code: "missing_fields"}
	ErrInvalidField        = &Error{Kind: KindValidation, Code: "invalid_field"}
	ErrInvalidStay         = &Error{Kind: KindValidation, Code: "invalid_stay"}
	ErrCapacityExceeded    = &Error{Kind: KindValidation, Code: "capacity_exceeded"}
	ErrMissingCustomerName = &Error{Kind: KindValidation, Code: "missing_customer_name"}

	ErrHotelNotFound       = &Error{Kind: KindNotFound, Code: "hotel_not_found"}
	ErrRoomNotFound        = &Error{Kind: KindNotFound, Code: "room_not_found"}
	ErrCustomerNotFound    = &Error{Kind: KindNotFound, Code: "customer_not_found"}
	ErrReservationNotFound = &Error{Kind: KindNotFound, Code: "reservation_not_found"}

	ErrDateConflict      = &Error{Kind: KindConflict, Code: "date_conflict"}
	ErrDuplicateCustomer = &Error{Kind: KindConflict, Code: "duplicate_customer"}
	ErrHotelInUse        = &Error{Kind: KindConflict, Code: "hotel_in_use"}
	ErrRoomInUse         = &Error{Kind: KindConflict, Code: "room_in_use"}

	ErrInternal = &Error{Kind: KindInternal, Code: "internal"}
)

// Errorf builds a new error from a sentinel with a formatted client message.
func Errorf(sentinel *Error, format string, args ...any) *Error {
	return &Error{Kind: sentinel.Kind, Code: sentinel.Code, Message: fmt.Sprintf(format, args...)}
}

// Internal wraps a storage failure, keeping its message for diagnostics.
func Internal(op string, err error) *Error {
	return &Error{Kind: KindInternal, Code: ErrInternal.Code, Message: fmt.Sprintf("%s: %v", op, err), Err: err}
}

// KindOf reports the Kind of err, KindInternal for anything unclassified.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
