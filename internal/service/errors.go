package service

import "errors"

var (
	// ErrValidation covers malformed business input, e.g. a non-positive
	// quantity or a bad date range.
	ErrValidation = errors.New("validation failed")
	// ErrOutOfStock is returned when an item cannot cover the requested
	// quantity.
	ErrOutOfStock = errors.New("out of stock")
	// ErrForbidden is returned when the actor fails an ownership or staff
	// check.
	ErrForbidden = errors.New("forbidden")
	// ErrPaymentFailed wraps any persistence failure inside the payment
	// transaction. The transaction is rolled back before it is returned.
	ErrPaymentFailed = errors.New("payment failed")
)
