// Package render escreve o envelope JSON padrão da API e traduz erros em respostas.
package render

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync/atomic"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog/log"

	"github.com/gestaozabele/inscricoes/internal/apperr"
	"github.com/gestaozabele/inscricoes/internal/util"
)

// Códigos de erro do Postgres tratados pelo tradutor.
const (
	pgUniqueViolation  = "23505"
	pgCheckViolation   = "23514"
	pgNotNullViolation = "23502"
)

const msgErroInterno = "Erro interno do servidor."

// Envelope é o formato único de resposta.
type Envelope struct {
	Message   string          `json:"message"`
	Data      any             `json:"data"`
	Errors    []apperr.Detail `json:"errors"`
	ErrorType string          `json:"errorType,omitempty"`
}

var hideInternal atomic.Bool

// HideInternalErrors controla se a causa de erros inesperados aparece na resposta.
// Em produção deve ser true.
func HideInternalErrors(hide bool) {
	hideInternal.Store(hide)
}

var defaultMessages = map[int]string{
	http.StatusOK:      "Requisição bem-sucedida",
	http.StatusCreated: "Recurso criado com sucesso",
}

// JSON escreve o envelope de sucesso; msg vazia usa a mensagem padrão do status.
func JSON(w http.ResponseWriter, status int, data any, msg string) {
	if msg == "" {
		msg = defaultMessages[status]
	}
	write(w, status, Envelope{Message: msg, Data: data, Errors: []apperr.Detail{}})
}

// NotFound responde rotas inexistentes.
func NotFound(w http.ResponseWriter, r *http.Request) {
	Error(w, r, apperr.NotFound("Rota", "Rota não encontrada: "+r.Method+" "+r.URL.Path))
}

// MethodNotAllowed responde métodos não registrados para a rota.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	Error(w, r, apperr.New(http.StatusMethodNotAllowed, apperr.TypeOperational, "Rota", "Método não permitido."))
}

// Error traduz qualquer erro no envelope de erro.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	appErr := translate(err)
	if appErr.Status >= http.StatusInternalServerError {
		errorID := uuid.NewString()
		log.Error().Err(err).
			Str("error_id", errorID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("erro não tratado")

		details := []apperr.Detail{{Field: "error_id", Message: errorID}}
		if !hideInternal.Load() && err != nil {
			details = append(details, apperr.Detail{Field: appErr.Field, Message: err.Error()})
		}
		appErr = appErr.WithDetails(details...)
	} else {
		log.Warn().Err(err).
			Int("status", appErr.Status).
			Str("type", appErr.Type).
			Str("path", r.URL.Path).
			Msg("erro operacional")
	}

	details := appErr.Details
	if len(details) == 0 {
		details = []apperr.Detail{{Field: appErr.Field, Message: appErr.Message}}
	}
	write(w, appErr.Status, Envelope{
		Message:   appErr.Message,
		Data:      nil,
		Errors:    details,
		ErrorType: appErr.Type,
	})
}

func translate(err error) *apperr.Error {
	if appErr, ok := apperr.As(err); ok {
		return appErr
	}
	if appErr := util.ValidationError(err); appErr != nil {
		return appErr
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return apperr.Duplicate(pgErr.ConstraintName, "Registro duplicado. Valor já cadastrado.")
		case pgCheckViolation, pgNotNullViolation:
			return apperr.Validation(pgErr.ColumnName, "Erro de validação no banco de dados.").
				WithDetails(apperr.Detail{Field: firstNonEmpty(pgErr.ColumnName, pgErr.ConstraintName), Message: pgErr.Message})
		}
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
		return apperr.Validation("body", "JSON malformado.")
	case errors.As(err, &typeErr):
		return apperr.Validation(typeErr.Field, "Tipo inválido para o campo "+typeErr.Field+".")
	case errors.Is(err, io.EOF):
		return apperr.Validation("body", "Corpo da requisição vazio.")
	}

	return apperr.Server("Servidor", msgErroInterno)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func write(w http.ResponseWriter, status int, env Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}

// DecodeJSON lê o corpo da requisição em dst.
func DecodeJSON(r *http.Request, dst any) error {
	return json.NewDecoder(r.Body).Decode(dst)
}
