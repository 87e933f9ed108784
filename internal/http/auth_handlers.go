package http

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gestaozabele/inscricoes/internal/http/render"
	"github.com/gestaozabele/inscricoes/internal/service"
)

// Login autentica por e-mail e senha.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var payload service.LoginInput
	if err := render.DecodeJSON(r, &payload); err != nil {
		render.Error(w, r, err)
		return
	}

	result, err := h.auth.Login(r.Context(), payload)
	if err != nil {
		render.Error(w, r, err)
		return
	}
	render.JSON(w, http.StatusOK, result, "")
}

// Logout encerra a sessão do dono do access token, vindo do corpo ou do header.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		AccessToken string `json:"access_token"`
	}
	if err := render.DecodeJSON(r, &payload); err != nil && !errors.Is(err, io.EOF) {
		render.Error(w, r, err)
		return
	}

	token := payload.AccessToken
	if token == "" {
		if _, bearer, ok := strings.Cut(r.Header.Get("Authorization"), " "); ok {
			token = bearer
		}
	}

	if err := h.auth.LogoutWithToken(r.Context(), token); err != nil {
		render.Error(w, r, err)
		return
	}
	render.JSON(w, http.StatusOK, nil, "Logout realizado com sucesso")
}

// SolicitarRecuperacao responde sempre sucesso para e-mails bem formados.
func (h *Handler) SolicitarRecuperacao(w http.ResponseWriter, r *http.Request) {
	var payload service.RecuperacaoInput
	if err := render.DecodeJSON(r, &payload); err != nil {
		render.Error(w, r, err)
		return
	}

	if err := h.auth.SolicitarRecuperacao(r.Context(), payload); err != nil {
		render.Error(w, r, err)
		return
	}
	render.JSON(w, http.StatusOK, nil, "Se o e-mail estiver cadastrado, as instruções de recuperação foram enviadas.")
}

// RedefinirSenha troca a senha com o token de recuperação.
func (h *Handler) RedefinirSenha(w http.ResponseWriter, r *http.Request) {
	var payload service.RedefinicaoInput
	if err := render.DecodeJSON(r, &payload); err != nil {
		render.Error(w, r, err)
		return
	}

	if err := h.auth.RedefinirSenha(r.Context(), payload); err != nil {
		render.Error(w, r, err)
		return
	}
	render.JSON(w, http.StatusOK, nil, "Senha redefinida com sucesso.")
}
