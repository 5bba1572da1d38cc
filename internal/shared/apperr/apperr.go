package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	Invalid      Kind = "invalid"
	Unauthorized Kind = "unauthorized"
	NotFound     Kind = "not_found"
	Conflict     Kind = "conflict"
	Unavailable  Kind = "unavailable"
	Internal     Kind = "internal"
)

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	if e.Code != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Code)
	}
	return string(e.Kind)
}

func (e *AppError) Unwrap() error { return e.Err }

// Constructors (PublicMsg must stay short and safe)
func InvalidErr(code, publicMsg string) *AppError {
	return &AppError{Kind: Invalid, Code: code, PublicMsg: publicMsg}
}
func InvalidFieldsErr(publicMsg string, fields map[string]string) *AppError {
	return &AppError{Kind: Invalid, PublicMsg: publicMsg, Fields: fields}
}
func UnauthorizedErr(publicMsg string) *AppError {
	return &AppError{Kind: Unauthorized, PublicMsg: publicMsg}
}
func NotFoundErr(code, publicMsg string) *AppError {
	return &AppError{Kind: NotFound, Code: code, PublicMsg: publicMsg}
}
func ConflictErr(code, publicMsg string) *AppError {
	return &AppError{Kind: Conflict, Code: code, PublicMsg: publicMsg}
}

// UnavailableErr: a required dependency is down; the operation was refused
// rather than attempted with degraded guarantees.
func UnavailableErr(code string, err error) *AppError {
	return &AppError{Kind: Unavailable, Code: code, PublicMsg: "Service temporarily unavailable.", Err: err}
}

// Wrap: internal error without a public message (default 500)
func Wrap(err error) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{Kind: Internal, PublicMsg: "Something went wrong.", Err: err}
}

func As(err error) (*AppError, bool) {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

func HTTPStatus(err error) int {
	if ae, ok := As(err); ok {
		switch ae.Kind {
		case Invalid:
			return http.StatusBadRequest
		case Unauthorized:
			return http.StatusUnauthorized
		case NotFound:
			return http.StatusNotFound
		case Conflict:
			return http.StatusConflict
		case Unavailable:
			return http.StatusServiceUnavailable
		default:
			return http.StatusInternalServerError
		}
	}
	return http.StatusInternalServerError
}

func PublicMessage(err error) string {
	if ae, ok := As(err); ok && ae.PublicMsg != "" {
		return ae.PublicMsg
	}
	return "Something went wrong."
}

func Code(err error) string {
	if ae, ok := As(err); ok {
		return ae.Code
	}
	return ""
}
