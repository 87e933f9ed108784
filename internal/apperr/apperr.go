// Package apperr define os erros de aplicação que atravessam serviços e handlers
// carregando status HTTP, tipo e detalhes por campo.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// StatusTokenExpired é o status não padronizado usado para "token expirado/inválido".
const StatusTokenExpired = 498

// Tipos de erro expostos no envelope.
const (
	TypeValidation     = "validationError"
	TypeAuthentication = "authenticationError"
	TypeTokenExpired   = "tokenExpiredError"
	TypeUnauthorized   = "unauthorized"
	TypeForbidden      = "forbidden"
	TypeNotFound       = "resourceNotFound"
	TypeDuplicate      = "duplicateEntry"
	TypeOperational    = "operationalError"
	TypeServer         = "serverError"
)

// Detail descreve uma falha pontual, normalmente ligada a um campo.
type Detail struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// Error é o erro estruturado da aplicação.
type Error struct {
	Status  int
	Type    string
	Field   string
	Details []Detail
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Wrap anexa a causa original sem alterar a mensagem exposta.
func (e *Error) Wrap(cause error) *Error {
	clone := *e
	clone.cause = cause
	return &clone
}

// WithDetails devolve uma cópia com os detalhes informados.
func (e *Error) WithDetails(details ...Detail) *Error {
	clone := *e
	clone.Details = append([]Detail(nil), details...)
	return &clone
}

// New cria um erro operacional com status explícito.
func New(status int, errType, field, message string) *Error {
	if errType == "" {
		errType = TypeOperational
	}
	return &Error{Status: status, Type: errType, Field: field, Message: message}
}

func Validation(field, message string) *Error {
	return New(http.StatusBadRequest, TypeValidation, field, message)
}

func Authentication(status int, message string) *Error {
	return New(status, TypeAuthentication, "AuthenticationError", message)
}

func TokenExpired(message string) *Error {
	return New(StatusTokenExpired, TypeTokenExpired, "TokenExpiredError", message)
}

func Unauthorized(field, message string) *Error {
	return New(http.StatusUnauthorized, TypeUnauthorized, field, message)
}

func Forbidden(message string) *Error {
	return New(http.StatusForbidden, TypeForbidden, "", message)
}

func NotFound(field, message string) *Error {
	return New(http.StatusNotFound, TypeNotFound, field, message)
}

func Duplicate(field, message string) *Error {
	return New(http.StatusConflict, TypeDuplicate, field, message)
}

func Server(field, message string) *Error {
	return New(http.StatusInternalServerError, TypeServer, field, message)
}

// As extrai o *Error de uma cadeia de erros.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
