// Package repository defines sentinel errors reused across repositories.
// These values let services and handlers distinguish failure scenarios
// without string matching: ErrInsufficientStock maps to HTTP 409,
// ErrProductNotFound to 404, ErrForbidden to 403, and so on.
package repository

import "errors"

// ErrProductNotFound is returned when a product id does not resolve to a row.
var ErrProductNotFound = errors.New("product not found")

// ErrReviewNotFound is returned when a review id does not resolve to a row.
var ErrReviewNotFound = errors.New("review not found")

// ErrPurchaseNotFound is returned when a purchase id does not resolve to a
// row owned by the requesting user.
var ErrPurchaseNotFound = errors.New("purchase not found")

// ErrInsufficientStock is returned when a requested quantity exceeds a
// product's current stock, including the case where the conditional
// decrement at checkout affects zero rows because a concurrent checkout
// won the race.
var ErrInsufficientStock = errors.New("insufficient stock")

// ErrEmptyCart is returned when checkout is attempted with no cart lines.
var ErrEmptyCart = errors.New("cart is empty")

// ErrEmailExists is returned when registering an email that already has a
// user row.
var ErrEmailExists = errors.New("email already exists")

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own, such as deleting another user's review.
// Handlers translate this into HTTP 403.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when an update cannot be performed because of
// conflicting state, such as moderating a review that has already left the
// pending status. Handlers translate this into HTTP 409.
var ErrConflict = errors.New("conflict")
