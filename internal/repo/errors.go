package repo

import "errors"

var (
	// ErrNotFound é retornado quando nenhum registro é encontrado.
	ErrNotFound = errors.New("registro não encontrado")
	// ErrInvalidPapel indica papel fora do conjunto aceito.
	ErrInvalidPapel = errors.New("papel inválido")
	// ErrInvalidStatus indica status de inscrição fora do conjunto aceito.
	ErrInvalidStatus = errors.New("status inválido")
)
