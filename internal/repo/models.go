package repo

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Papel é o perfil de acesso de um usuário.
type Papel string

const (
	PapelAdministrador Papel = "administrador"
	PapelAvaliador     Papel = "avaliador"
	PapelCoordenador   Papel = "coordenador"
)

// Papeis lista os papéis aceitos.
var Papeis = []Papel{PapelAdministrador, PapelAvaliador, PapelCoordenador}

// ParsePapel normaliza (trim + minúsculas) e rejeita valores fora do enum.
func ParsePapel(value string) (Papel, error) {
	p := Papel(strings.ToLower(strings.TrimSpace(value)))
	for _, known := range Papeis {
		if p == known {
			return p, nil
		}
	}
	return "", ErrInvalidPapel
}

// Status é a situação de uma inscrição.
type Status string

const (
	StatusPendente  Status = "PENDENTE"
	StatusAprovado  Status = "APROVADO"
	StatusReprovado Status = "REPROVADO"
)

// ParseStatus normaliza (trim + maiúsculas) e rejeita valores fora do enum.
func ParseStatus(value string) (Status, error) {
	s := Status(strings.ToUpper(strings.TrimSpace(value)))
	switch s {
	case StatusPendente, StatusAprovado, StatusReprovado:
		return s, nil
	}
	return "", ErrInvalidStatus
}

// Finalizada indica status terminal (aprovada ou reprovada).
func (s Status) Finalizada() bool {
	return s == StatusAprovado || s == StatusReprovado
}

// Usuario representa avaliadores, coordenadores e administradores.
type Usuario struct {
	ID             uuid.UUID `db:"id" json:"id"`
	Nome           string    `db:"nome" json:"nome"`
	Email          string    `db:"email" json:"email"`
	Senha          string    `db:"senha" json:"-"`
	DataNascimento time.Time `db:"data_nascimento" json:"data_nascimento"`
	Telefone       string    `db:"telefone" json:"telefone"`
	Papel          Papel     `db:"papel" json:"papel"`
	AccessToken    *string   `db:"accesstoken" json:"-"`
	RefreshToken   *string   `db:"refreshtoken" json:"-"`
	CriadoEm       time.Time `db:"criado_em" json:"createdAt"`
	AtualizadoEm   time.Time `db:"atualizado_em" json:"updatedAt"`
}

// Background é um certificado informado pelo candidato.
type Background struct {
	Certificado string `json:"certificado"`
	Descricao   string `json:"descricao"`
}

// Inscricao representa a candidatura no processo seletivo.
type Inscricao struct {
	ID             uuid.UUID    `db:"id" json:"id"`
	Nome           string       `db:"nome" json:"nome"`
	Email          string       `db:"email" json:"email"`
	Telefone       string       `db:"telefone" json:"telefone"`
	DataNascimento time.Time    `db:"data_nascimento" json:"data_nascimento"`
	Background     []Background `db:"background" json:"background"`
	Experiencia    string       `db:"experiencia" json:"experiencia"`
	AreaInteresse  string       `db:"area_interesse" json:"area_interesse"`
	Observacao     *string      `db:"observacao" json:"observacao"`
	Pontuacao      *float64     `db:"pontuacao" json:"pontuacao"`
	Status         Status       `db:"status" json:"status"`
	CriadoEm       time.Time    `db:"criado_em" json:"createdAt"`
	AtualizadoEm   time.Time    `db:"atualizado_em" json:"updatedAt"`
}

// NovoUsuario agrega os campos gravados na criação.
type NovoUsuario struct {
	Nome           string
	Email          string
	SenhaHash      string
	DataNascimento time.Time
	Telefone       string
	Papel          Papel
}

// UsuarioPatch lista campos opcionais de atualização.
type UsuarioPatch struct {
	Nome           *string
	Email          *string
	SenhaHash      *string
	DataNascimento *time.Time
	Telefone       *string
	Papel          *Papel
}

// Empty indica que nenhum campo foi informado.
func (p UsuarioPatch) Empty() bool {
	return p.Nome == nil && p.Email == nil && p.SenhaHash == nil &&
		p.DataNascimento == nil && p.Telefone == nil && p.Papel == nil
}

// NovaInscricao agrega os campos gravados na criação. Pontuação e status
// não fazem parte: entram sempre nulos/PENDENTE.
type NovaInscricao struct {
	Nome           string
	Email          string
	Telefone       string
	DataNascimento time.Time
	Background     []Background
	Experiencia    string
	AreaInteresse  string
	Observacao     *string
}
