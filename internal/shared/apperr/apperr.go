// Package apperr 定义业务错误分类：本地校验错误、重复记录、存储层失败。
package apperr

import (
	"errors"
	"fmt"
)

// 错误定义
var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("combination already exists")
	ErrForbidden = errors.New("not allowed for this user")

	// 变体价格
	ErrNoAttributeSelected  = errors.New("select at least one attribute")
	ErrIncompleteAssignment = errors.New("select all attribute options")
	ErrInvalidPrice         = errors.New("price must be a finite number greater than zero")
	ErrInvalidAttributeSet  = errors.New("invalid variation attribute set")

	// 交付配置
	ErrQuantityMismatch      = errors.New("total quantity does not match equipment quantity")
	ErrNoRemainingQuantity   = errors.New("no remaining quantity to assign")
	ErrAllSerialsAssigned    = errors.New("every serial number is already assigned")
	ErrLastItem              = errors.New("at least one delivery item is required")
	ErrSerialPartition       = errors.New("serial numbers must be assigned exactly once")
	ErrUnknownSerial         = errors.New("serial number does not belong to this equipment")
	ErrDestinationIncomplete = errors.New("delivery destination is incomplete")
	ErrModeNotAvailable      = errors.New("delivery mode not available for this equipment")
	ErrInvalidStep           = errors.New("action not allowed at this step")
	ErrItemIndex             = errors.New("delivery item index out of range")
	ErrUnsavedChanges        = errors.New("wizard has unsaved changes")
)

// ValidationError 本地可修正的校验错误，不会到达存储层
type ValidationError struct {
	Err     error
	Details string
}

func (e *ValidationError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s", e.Err.Error(), e.Details)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Invalid wraps a sentinel into a ValidationError.
func Invalid(err error, format string, args ...interface{}) error {
	details := ""
	if format != "" {
		details = fmt.Sprintf(format, args...)
	}
	return &ValidationError{Err: err, Details: details}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// RemoteFailure 存储层拒绝写入
type RemoteFailure struct {
	Op  string
	Err error
}

func (e *RemoteFailure) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *RemoteFailure) Unwrap() error {
	return e.Err
}

// Remote wraps a store error. Duplicate and not-found errors pass through
// unchanged so callers can still match them with errors.Is.
func Remote(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrDuplicate) || errors.Is(err, ErrNotFound) || errors.Is(err, ErrForbidden) || IsValidation(err) {
		return err
	}
	return &RemoteFailure{Op: op, Err: err}
}

// Response codes; the HTTP status is code/100.
const (
	CodeBadRequest = 40000
	CodeForbidden  = 40300
	CodeNotFound   = 40400
	CodeConflict   = 40900
	CodeInternal   = 50000
	CodeBadGateway = 50200
)

// Code maps an error onto a response code.
func Code(err error) int {
	var rf *RemoteFailure
	switch {
	case IsValidation(err):
		return CodeBadRequest
	case errors.Is(err, ErrDuplicate), errors.Is(err, ErrUnsavedChanges):
		return CodeConflict
	case errors.Is(err, ErrForbidden):
		return CodeForbidden
	case errors.Is(err, ErrNotFound):
		return CodeNotFound
	case errors.As(err, &rf):
		return CodeBadGateway
	default:
		return CodeInternal
	}
}
