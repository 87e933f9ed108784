package util

import (
	"strings"

	"github.com/google/uuid"

	"github.com/gestaozabele/inscricoes/internal/apperr"
)

// ParseID valida identificadores recebidos na URL.
func ParseID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil || id == uuid.Nil {
		return uuid.Nil, apperr.Validation("id", "ID inválido").
			WithDetails(apperr.Detail{Field: "id", Message: "ID inválido"})
	}
	return id, nil
}
