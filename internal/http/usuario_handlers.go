package http

import (
	"net/http"

	"github.com/gestaozabele/inscricoes/internal/http/render"
	"github.com/gestaozabele/inscricoes/internal/service"
	"github.com/gestaozabele/inscricoes/internal/util"
)

func (h *Handler) CreateUsuario(w http.ResponseWriter, r *http.Request) {
	var payload service.UsuarioInput
	if err := render.DecodeJSON(r, &payload); err != nil {
		render.Error(w, r, err)
		return
	}

	usuario, err := h.usuarios.Create(r.Context(), payload)
	if err != nil {
		render.Error(w, r, err)
		return
	}
	render.JSON(w, http.StatusCreated, usuario, "")
}

// ListUsuarios aceita filtros nome, email e papel.
func (h *Handler) ListUsuarios(w http.ResponseWriter, r *http.Request) {
	filter, page, err := util.ParseUsuarioQuery(r.URL.Query())
	if err != nil {
		render.Error(w, r, err)
		return
	}

	result, err := h.usuarios.List(r.Context(), filter, page)
	if err != nil {
		render.Error(w, r, err)
		return
	}
	render.JSON(w, http.StatusOK, result, "")
}

func (h *Handler) GetUsuario(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		render.Error(w, r, err)
		return
	}

	usuario, err := h.usuarios.Read(r.Context(), id)
	if err != nil {
		render.Error(w, r, err)
		return
	}
	render.JSON(w, http.StatusOK, usuario, "")
}

// UpdateUsuario aplica atualização parcial.
func (h *Handler) UpdateUsuario(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		render.Error(w, r, err)
		return
	}

	var payload service.UsuarioUpdateInput
	if err := render.DecodeJSON(r, &payload); err != nil {
		render.Error(w, r, err)
		return
	}

	usuario, err := h.usuarios.Update(r.Context(), id, payload)
	if err != nil {
		render.Error(w, r, err)
		return
	}
	render.JSON(w, http.StatusOK, usuario, "Usuário atualizado com sucesso.")
}

func (h *Handler) DeleteUsuario(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		render.Error(w, r, err)
		return
	}

	if err := h.usuarios.Delete(r.Context(), id); err != nil {
		render.Error(w, r, err)
		return
	}
	render.JSON(w, http.StatusOK, nil, "Usuário removido com sucesso.")
}
