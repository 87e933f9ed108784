package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gestaozabele/inscricoes/internal/http/render"
	"github.com/gestaozabele/inscricoes/internal/util"
)

// ValidateIDParam rejeita com 400 rotas cujo parâmetro não seja um UUID.
func ValidateIDParam(name string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, err := util.ParseID(chi.URLParam(r, name)); err != nil {
				render.Error(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
