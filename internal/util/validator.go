package util

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/gestaozabele/inscricoes/internal/apperr"
	"github.com/gestaozabele/inscricoes/internal/repo"
)

var (
	telefonePattern = regexp.MustCompile(`^\d{11}$`)
	dataBRPattern   = regexp.MustCompile(`^\d{2}[/.-]\d{2}[/.-]\d{4}$`)
	dataSeparators  = strings.NewReplacer("-", "/", ".", "/")
)

const senhaEspeciais = "@$!%*?&"

// clock permite fixar a data atual nos cálculos de idade.
var clock = time.Now

var validate = newValidate()

func newValidate() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})

	custom := map[string]validator.Func{
		"telefone":     validateTelefone,
		"data_br":      validateDataBR,
		"nao_futura":   validateNaoFutura,
		"idade_minima": validateIdadeMinima,
		"senha_forte":  validateSenhaForte,
		"papel":        validatePapel,
		"status":       validateStatus,
		"nao_vazio":    validateNaoVazio,
	}
	for tag, fn := range custom {
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic(fmt.Sprintf("registrar validação %s: %v", tag, err))
		}
	}
	return v
}

// validateNaoVazio recusa textos compostos só de espaços.
func validateNaoVazio(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

func validateTelefone(fl validator.FieldLevel) bool {
	return telefonePattern.MatchString(strings.TrimSpace(fl.Field().String()))
}

func validateDataBR(fl validator.FieldLevel) bool {
	_, err := ParseDataBR(fl.Field().String())
	return err == nil
}

func validateNaoFutura(fl validator.FieldLevel) bool {
	date, err := ParseDataBR(fl.Field().String())
	if err != nil {
		return false
	}
	return date.Before(clock())
}

func validateIdadeMinima(fl validator.FieldLevel) bool {
	date, err := ParseDataBR(fl.Field().String())
	if err != nil {
		return false
	}
	minimo, err := strconv.Atoi(fl.Param())
	if err != nil {
		return false
	}
	return Idade(date, clock()) >= minimo
}

func validateSenhaForte(fl validator.FieldLevel) bool {
	return SenhaForte(fl.Field().String())
}

func validatePapel(fl validator.FieldLevel) bool {
	_, err := repo.ParsePapel(fl.Field().String())
	return err == nil
}

func validateStatus(fl validator.FieldLevel) bool {
	_, err := repo.ParseStatus(fl.Field().String())
	return err == nil
}

// ParseDataBR converte DD/MM/AAAA (separadores "/", "-" ou ".") para data UTC.
func ParseDataBR(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if !dataBRPattern.MatchString(value) {
		return time.Time{}, errors.New("data fora do formato DD/MM/AAAA")
	}
	return time.Parse("02/01/2006", dataSeparators.Replace(value))
}

// Idade calcula anos completos entre nascimento e a data de referência.
func Idade(nascimento, ref time.Time) int {
	anos := ref.Year() - nascimento.Year()
	if ref.Month() < nascimento.Month() || (ref.Month() == nascimento.Month() && ref.Day() < nascimento.Day()) {
		anos--
	}
	return anos
}

// SenhaForte exige 8+ caracteres com maiúscula, minúscula, dígito e especial (@$!%*?&),
// sem outros símbolos.
func SenhaForte(senha string) bool {
	if len(senha) < 8 {
		return false
	}
	var lower, upper, digit, special bool
	for _, r := range senha {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case unicode.IsDigit(r) && r < unicode.MaxASCII:
			digit = true
		case strings.ContainsRune(senhaEspeciais, r):
			special = true
		default:
			return false
		}
	}
	return lower && upper && digit && special
}

// ValidateStruct valida o payload e converte falhas em erro de validação da aplicação.
func ValidateStruct(payload any) error {
	err := validate.Struct(payload)
	if err == nil {
		return nil
	}
	if appErr := ValidationError(err); appErr != nil {
		return appErr
	}
	return err
}

// ValidateEmail confere formato de e-mail com as mesmas regras dos payloads.
func ValidateEmail(email string) bool {
	return validate.Var(strings.TrimSpace(email), "required,email") == nil
}

// ValidationError traduz validator.ValidationErrors; devolve nil para outros erros.
func ValidationError(err error) *apperr.Error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	details := make([]apperr.Detail, 0, len(verrs))
	for _, fe := range verrs {
		details = append(details, apperr.Detail{Field: fieldPath(fe), Message: messageFor(fe)})
	}
	return invalidFields(details)
}

func invalidFields(details []apperr.Detail) *apperr.Error {
	msg := fmt.Sprintf("Erro de validação. %d campo(s) inválido(s).", len(details))
	return apperr.Validation("", msg).WithDetails(details...)
}

// fieldPath remove o nome da struct raiz do namespace ("Input.background[0].descricao").
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if idx := strings.Index(ns, "."); idx >= 0 {
		return ns[idx+1:]
	}
	return fe.Field()
}

var fieldMessages = map[string]string{
	"nome.required":            "Campo nome é obrigatório.",
	"email.required":           "Campo email é obrigatório.",
	"email.email":              "Formato de email inválido.",
	"senha.required":           "Campo senha é obrigatório.",
	"senha.min":                "A senha deve ter pelo menos 8 caracteres.",
	"certificado.min":          "Link do certificado muito curto.",
	"descricao.min":            "Descrição do certificado deve ter pelo menos 10 caracteres.",
	"background.required":      "Ao menos 1 certificado é obrigatório.",
	"background.min":           "Ao menos 1 certificado é obrigatório.",
	"experiencia.min":          "Descreva sua experiência com pelo menos 20 caracteres.",
	"area_interesse.required":  "Área de interesse é obrigatória.",
	"area_interesse.min":       "Área de interesse é obrigatória.",
	"data_nascimento.required": "Data de nascimento é obrigatória.",
	"pontuacao.required":       "A pontuação deve ser um número válido entre 0 e 10.",
	"pontuacao.min":            "O valor não pode ser negativo.",
	"pontuacao.max":            "A pontuação deve ser no máximo 10.",
	"papel.required":           "O papel é obrigatório.",
	"status.required":          "O status é obrigatório.",
	"access_token.required":    "Token requerido.",
}

var tagMessages = map[string]string{
	"telefone":    "O celular deve conter 11 dígitos numéricos.",
	"data_br":     "Data deve estar no formato DD/MM/AAAA ou DD-MM-AAAA.",
	"nao_futura":  "Data de nascimento não pode ser no futuro.",
	"senha_forte": "A senha deve conter pelo menos 1 letra maiúscula, 1 letra minúscula, 1 número e 1 caractere especial.",
	"papel":       "Papel inválido. Use: administrador, coordenador ou avaliador.",
	"status":      "Status inválido. Use: PENDENTE, APROVADO ou REPROVADO.",
	"email":       "Formato de email inválido.",
	"oneof":       "Valor fora das opções permitidas.",
	"nao_vazio":   "O campo não pode conter apenas espaços.",
}

func messageFor(fe validator.FieldError) string {
	if msg, ok := fieldMessages[fe.Field()+"."+fe.Tag()]; ok {
		return msg
	}
	if fe.Tag() == "idade_minima" {
		return fmt.Sprintf("Você deve ter pelo menos %s anos.", fe.Param())
	}
	if msg, ok := tagMessages[fe.Tag()]; ok {
		return msg
	}
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("O campo %s é obrigatório.", fe.Field())
	case "min":
		return fmt.Sprintf("O campo %s deve ter no mínimo %s.", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("O campo %s deve ter no máximo %s.", fe.Field(), fe.Param())
	}
	return fmt.Sprintf("Valor informado em %s é inválido.", fe.Field())
}
