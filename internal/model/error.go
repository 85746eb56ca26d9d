package model

import "errors"

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	CorrelationID string `json:"correlationId,omitempty"`
}

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON           = "INVALID_JSON"
	ErrCodeMissingField          = "MISSING_FIELD"
	ErrCodeInvalidParameter      = "INVALID_PARAMETER"
	ErrCodeEmptyCart             = "EMPTY_CART"
	ErrCodeInvalidQuantity       = "INVALID_QUANTITY"
	ErrCodeInvalidVariant        = "INVALID_VARIANT"
	ErrCodeInsufficientPoints    = "INSUFFICIENT_POINTS"
	ErrCodeRewardExpired         = "REWARD_EXPIRED"
	ErrCodeRewardNotFound        = "REWARD_NOT_FOUND"
	ErrCodeRewardConflict        = "REWARD_CONFLICT"
	ErrCodeInvalidRewardRequest  = "INVALID_REWARD_REQUEST"
	ErrCodeAlreadyUsed           = "ALREADY_USED"
	ErrCodeNotRefundable         = "NOT_REFUNDABLE"
	ErrCodeNotCancellable        = "NOT_CANCELLABLE"
	ErrCodeInvalidTransition     = "INVALID_TRANSITION"
	ErrCodePersistenceFailure    = "PERSISTENCE_FAILURE"
	ErrCodeProductNotFound       = "PRODUCT_NOT_FOUND"
	ErrCodeOrderNotFound         = "ORDER_NOT_FOUND"
	ErrCodeInvalidDeliveryOption = "INVALID_DELIVERY_OPTION"
	ErrCodeInvalidAmount         = "INVALID_AMOUNT"
	ErrCodeUnauthorised          = "UNAUTHORIZED"
	ErrCodeInternalError         = "INTERNAL_ERROR"
)

// DomainError is a business rule violation with a stable code.
// Two domain errors are considered equal by errors.Is when their codes match.
type DomainError struct {
	Code    string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap returns the underlying cause, if any.
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is reports whether target is a domain error with the same code.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// NewPersistenceFailure wraps a storage error so callers can tell it apart
// from business rule violations.
func NewPersistenceFailure(err error) *DomainError {
	var de *DomainError
	if errors.As(err, &de) {
		return de
	}
	return &DomainError{
		Code:    ErrCodePersistenceFailure,
		Message: "Storage is unavailable, no changes were applied",
		Err:     err,
	}
}

// AsDomainError extracts a DomainError from err.
func AsDomainError(err error) (*DomainError, bool) {
	var de *DomainError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// Common domain errors
var (
	ErrEmptyCart             = NewDomainError(ErrCodeEmptyCart, "Cart is empty")
	ErrInvalidQuantity       = NewDomainError(ErrCodeInvalidQuantity, "Quantity must be between one and the per-line maximum")
	ErrInvalidVariant        = NewDomainError(ErrCodeInvalidVariant, "Variant must be eco or regular")
	ErrInsufficientPoints    = NewDomainError(ErrCodeInsufficientPoints, "Not enough EcoPoints for this operation")
	ErrRewardExpired         = NewDomainError(ErrCodeRewardExpired, "Reward is outside its validity window")
	ErrRewardNotFound        = NewDomainError(ErrCodeRewardNotFound, "Reward not found or inactive")
	ErrRewardConflict        = NewDomainError(ErrCodeRewardConflict, "Requested rewards cannot be combined")
	ErrInvalidRewardRequest  = NewDomainError(ErrCodeInvalidRewardRequest, "Reward request is malformed")
	ErrAlreadyUsed           = NewDomainError(ErrCodeAlreadyUsed, "Redemption has already been used")
	ErrNotRefundable         = NewDomainError(ErrCodeNotRefundable, "Redemption cannot be refunded")
	ErrNotCancellable        = NewDomainError(ErrCodeNotCancellable, "Order cannot be cancelled")
	ErrInvalidTransition     = NewDomainError(ErrCodeInvalidTransition, "Order status transition is not allowed")
	ErrPersistenceFailure    = NewDomainError(ErrCodePersistenceFailure, "Storage is unavailable, no changes were applied")
	ErrProductNotFound       = NewDomainError(ErrCodeProductNotFound, "One or more products not found")
	ErrOrderNotFound         = NewDomainError(ErrCodeOrderNotFound, "Order not found")
	ErrInvalidDeliveryOption = NewDomainError(ErrCodeInvalidDeliveryOption, "Delivery option must be standard or express")
	ErrInvalidAmount         = NewDomainError(ErrCodeInvalidAmount, "Amount must be greater than zero")
	ErrInvalidParameter      = NewDomainError(ErrCodeInvalidParameter, "Query parameter is not supported")
)
