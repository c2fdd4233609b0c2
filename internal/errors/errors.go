package errors

import (
	"errors"
	"fmt"
)

const (
	ResourceOrder   = "order"
	ResourceProduct = "product"
)

type NotFoundError struct {
	Resource string
	Message  string
}

func (e *NotFoundError) Error() string {
	return e.Message
}

func NewOrderNotFoundError(kind string, id string) *NotFoundError {
	return &NotFoundError{
		Resource: ResourceOrder,
		Message:  fmt.Sprintf("%s order %s not found", kind, id),
	}
}

func NewProductNotFoundError(id string) *NotFoundError {
	return &NotFoundError{
		Resource: ResourceProduct,
		Message:  fmt.Sprintf("product %s not found", id),
	}
}

func IsNotFoundError(err error) (*NotFoundError, bool) {
	var nfe *NotFoundError
	if errors.As(err, &nfe) {
		return nfe, true
	}
	return nil, false
}

func IsOrderNotFound(err error) bool {
	nfe, ok := IsNotFoundError(err)
	return ok && nfe.Resource == ResourceOrder
}

func IsProductNotFound(err error) bool {
	nfe, ok := IsNotFoundError(err)
	return ok && nfe.Resource == ResourceProduct
}

type ValidationDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ValidationError struct {
	Message string
	Details []ValidationDetail
}

func (e *ValidationError) Error() string {
	return e.Message
}

func NewValidationError(message string, details ...ValidationDetail) *ValidationError {
	return &ValidationError{
		Message: message,
		Details: details,
	}
}

func NewInvalidStatusError(kind string, status string) *ValidationError {
	return NewValidationError(
		fmt.Sprintf("invalid status %q for %s order", status, kind),
		ValidationDetail{Field: "status", Message: "status is not allowed for this order kind"},
	)
}

func IsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

func IsInvalidStatus(err error) bool {
	ve, ok := IsValidationError(err)
	if !ok {
		return false
	}
	for _, d := range ve.Details {
		if d.Field == "status" {
			return true
		}
	}
	return false
}

type ConflictError struct {
	Code    string
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

func NewConflictError(code string, message string) *ConflictError {
	return &ConflictError{Code: code, Message: message}
}

func IsConflictError(err error) (*ConflictError, bool) {
	var ce *ConflictError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

type DeadlockError struct {
	Message string
}

func (e *DeadlockError) Error() string {
	return e.Message
}

func NewDeadlockError(message string) *DeadlockError {
	return &DeadlockError{Message: message}
}

func IsDeadlockError(err error) (*DeadlockError, bool) {
	var de *DeadlockError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

type InternalError struct {
	Message string
	Cause   error
}

func (e *InternalError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *InternalError) Unwrap() error {
	return e.Cause
}

func NewInternalError(message string, cause error) *InternalError {
	return &InternalError{
		Message: message,
		Cause:   cause,
	}
}

func IsInternalError(err error) (*InternalError, bool) {
	var ie *InternalError
	if errors.As(err, &ie) {
		return ie, true
	}
	return nil, false
}
