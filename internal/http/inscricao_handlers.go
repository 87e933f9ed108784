package http

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	httpmiddleware "github.com/gestaozabele/inscricoes/internal/http/middleware"
	"github.com/gestaozabele/inscricoes/internal/http/render"
	"github.com/gestaozabele/inscricoes/internal/service"
	"github.com/gestaozabele/inscricoes/internal/util"
)

// CreateInscricao recebe a candidatura pública.
func (h *Handler) CreateInscricao(w http.ResponseWriter, r *http.Request) {
	var payload service.InscricaoInput
	if err := render.DecodeJSON(r, &payload); err != nil {
		render.Error(w, r, err)
		return
	}

	inscricao, err := h.inscricoes.Create(r.Context(), payload)
	if err != nil {
		render.Error(w, r, err)
		return
	}
	render.JSON(w, http.StatusCreated, inscricao, "")
}

func (h *Handler) ListInscricoes(w http.ResponseWriter, r *http.Request) {
	filter, page, err := util.ParseInscricaoQuery(r.URL.Query())
	if err != nil {
		render.Error(w, r, err)
		return
	}

	result, err := h.inscricoes.List(r.Context(), filter, page)
	if err != nil {
		render.Error(w, r, err)
		return
	}
	render.JSON(w, http.StatusOK, result, "")
}

// ListInscricoesAvaliadas lista apenas inscrições com pontuação.
func (h *Handler) ListInscricoesAvaliadas(w http.ResponseWriter, r *http.Request) {
	filter, page, err := util.ParseInscricaoQuery(r.URL.Query())
	if err != nil {
		render.Error(w, r, err)
		return
	}

	result, err := h.inscricoes.FindEvaluated(r.Context(), filter, page)
	if err != nil {
		render.Error(w, r, err)
		return
	}
	render.JSON(w, http.StatusOK, result, "")
}

func (h *Handler) GetInscricaoAvaliada(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		render.Error(w, r, err)
		return
	}

	inscricao, err := h.inscricoes.FindEvaluatedByID(r.Context(), id)
	if err != nil {
		render.Error(w, r, err)
		return
	}
	render.JSON(w, http.StatusOK, inscricao, "")
}

func (h *Handler) GetInscricao(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		render.Error(w, r, err)
		return
	}

	inscricao, err := h.inscricoes.Read(r.Context(), id)
	if err != nil {
		render.Error(w, r, err)
		return
	}
	render.JSON(w, http.StatusOK, inscricao, "")
}

// AvaliarInscricao grava pontuação e observação.
func (h *Handler) AvaliarInscricao(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		render.Error(w, r, err)
		return
	}

	var payload service.AvaliacaoInput
	if err := render.DecodeJSON(r, &payload); err != nil {
		render.Error(w, r, err)
		return
	}

	inscricao, err := h.inscricoes.Evaluate(r.Context(), id, payload)
	if err != nil {
		render.Error(w, r, err)
		return
	}
	logDecisao(r, "avaliar", id)
	render.JSON(w, http.StatusOK, inscricao, "Inscrição avaliada com sucesso.")
}

// AprovarInscricao define o status final (APROVADO ou REPROVADO).
func (h *Handler) AprovarInscricao(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		render.Error(w, r, err)
		return
	}

	var payload service.AprovacaoInput
	if err := render.DecodeJSON(r, &payload); err != nil {
		render.Error(w, r, err)
		return
	}

	inscricao, err := h.inscricoes.Approve(r.Context(), id, payload)
	if err != nil {
		render.Error(w, r, err)
		return
	}
	logDecisao(r, "aprovar", id)
	render.JSON(w, http.StatusOK, inscricao, "Status da inscrição atualizado.")
}

// logDecisao registra quem avaliou ou aprovou a inscrição.
func logDecisao(r *http.Request, acao string, id uuid.UUID) {
	log.Info().
		Str("acao", acao).
		Str("inscricao_id", id.String()).
		Str("usuario_id", httpmiddleware.GetSubject(r.Context())).
		Str("papel", string(httpmiddleware.GetPapel(r.Context()))).
		Msg("inscrição atualizada")
}
