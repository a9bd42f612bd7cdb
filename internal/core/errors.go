package core

import (
	"errors"
	"fmt"
)

// Error families. Specific sentinels wrap one of these so callers can branch
// on the family with errors.Is and still inspect the precise cause.
var (
	ErrValidation = errors.New("validation failed")
	ErrConstraint = errors.New("constraint violation")
	ErrStorage    = errors.New("storage failure")

	ErrNotConnected = errors.New("message source not connected")
)

var (
	ErrInvalidAmount      = fmt.Errorf("%w: amount must be a number greater than zero", ErrValidation)
	ErrEmptyDescription   = fmt.Errorf("%w: empty description", ErrValidation)
	ErrInvalidDirection   = fmt.Errorf("%w: direction must be in or out", ErrValidation)
	ErrInvalidSource      = fmt.Errorf("%w: source must be one of sms, email, push, manual", ErrValidation)
	ErrInvalidDateTime    = fmt.Errorf("%w: invalid date/time", ErrValidation)
	ErrEmptyCategory      = fmt.Errorf("%w: empty category", ErrValidation)
	ErrEmptyName          = fmt.Errorf("%w: empty name", ErrValidation)
	ErrInvalidAccountType = fmt.Errorf("%w: account type must be one of bank, wallet, cash, card, other", ErrValidation)
	ErrInvalidCurrency    = fmt.Errorf("%w: currency must be a 3-letter code", ErrValidation)
	ErrInvalidMonthKey    = fmt.Errorf("%w: month must be formatted YYYY-MM", ErrValidation)
)

// IsValidation reports whether err belongs to the validation family.
func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }

// IsConstraint reports whether err is a storage constraint violation, such as
// a duplicate dedupe hash.
func IsConstraint(err error) bool { return errors.Is(err, ErrConstraint) }
