package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrTypeFieldExtraction    ErrorType = "FIELD_EXTRACTION"
	ErrTypeSectionUnavailable ErrorType = "SECTION_UNAVAILABLE"
	ErrTypeParsing            ErrorType = "PARSE"
	ErrTypeRegistryMismatch   ErrorType = "REGISTRY_MISMATCH"
	ErrTypeJobStateCorrupt    ErrorType = "JOB_STATE_CORRUPT"
	ErrTypeWorkListIO         ErrorType = "WORK_LIST_IO"
	ErrTypeStorage            ErrorType = "STORAGE"
	ErrTypeConfig             ErrorType = "CONFIG"
)

// AppError represents an application-specific error
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to work with AppError
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// NewFieldExtractionError reports one unreadable field
func NewFieldExtractionError(field string, cause error) *AppError {
	return NewAppError(ErrTypeFieldExtraction, fmt.Sprintf("field %q unreadable", field), cause).
		WithContext("field", field)
}

// NewSectionUnavailableError reports an unreachable statement section
func NewSectionUnavailableError(section string, cause error) *AppError {
	return NewAppError(ErrTypeSectionUnavailable, fmt.Sprintf("section %q unavailable", section), cause).
		WithContext("section", section)
}

// NewParsingError creates a parsing-related error
func NewParsingError(message string, cause error) *AppError {
	return NewAppError(ErrTypeParsing, message, cause)
}

// NewRegistryMismatchError reports that no registry resolved the requested identifier
func NewRegistryMismatchError(requested, resolved string) *AppError {
	return NewAppError(ErrTypeRegistryMismatch,
		fmt.Sprintf("requested %q but source resolved %q", requested, resolved), nil).
		WithContext("requested", requested).
		WithContext("resolved", resolved)
}

// NewJobStateCorruptError reports an unparsable checkpoint
func NewJobStateCorruptError(path string, cause error) *AppError {
	return NewAppError(ErrTypeJobStateCorrupt, "checkpoint unreadable", cause).
		WithContext("path", path)
}

// NewWorkListIOError reports a missing or unreadable work list or output location
func NewWorkListIOError(path string, cause error) *AppError {
	return NewAppError(ErrTypeWorkListIO, fmt.Sprintf("work list i/o failed for %s", path), cause).
		WithContext("path", path)
}

// NewStorageError creates a storage-related error
func NewStorageError(message string, cause error) *AppError {
	return NewAppError(ErrTypeStorage, message, cause)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}

// IsType reports whether any error in err's chain is an AppError of the given type
func IsType(err error, errType ErrorType) bool {
	for err != nil {
		var appErr *AppError
		if !stderrors.As(err, &appErr) {
			return false
		}
		if appErr.Type == errType {
			return true
		}
		err = appErr.Cause
	}
	return false
}

// TypeOf returns the type of the outermost AppError in err's chain, or "" if none
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Type
	}
	return ""
}
