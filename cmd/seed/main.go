package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"math/rand/v2"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gestaozabele/inscricoes/internal/auth"
	"github.com/gestaozabele/inscricoes/internal/db"
	"github.com/gestaozabele/inscricoes/internal/repo"
	"github.com/gestaozabele/inscricoes/internal/service"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	_ = godotenv.Load()

	ctx := context.Background()

	dsn := strings.TrimSpace(os.Getenv("DB_DSN"))
	if dsn == "" {
		dsn = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	}
	if dsn == "" {
		log.Fatal().Msg("defina DB_DSN ou DATABASE_URL")
	}

	if err := db.Migrate(ctx, dsn); err != nil {
		log.Fatal().Err(err).Msg("falha ao aplicar migrações")
	}

	pool, err := db.NewPool(ctx, dsn, 4, 10*time.Second)
	if err != nil {
		log.Fatal().Err(err).Msg("não foi possível conectar ao banco")
	}
	defer pool.Close()

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "admin":
		usuarios := service.NewUsuarioService(repo.NewUsuarioRepository(pool), auth.NewArgon2Hasher(nil), nil)
		if err := runAdmin(ctx, usuarios, args); err != nil {
			log.Fatal().Err(err).Msg("falha ao criar administrador")
		}
	case "inscricoes":
		if err := runInscricoes(ctx, args, func(ctx context.Context, fn func(*repo.InscricaoRepository) error) error {
			return db.WithTx(ctx, pool, func(ctx context.Context, tx pgx.Tx) error {
				return fn(repo.NewInscricaoRepository(tx))
			})
		}); err != nil {
			log.Fatal().Err(err).Msg("falha ao inserir inscrições")
		}
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "seed CLI")
	fmt.Fprintln(os.Stderr, "uso:")
	fmt.Fprintln(os.Stderr, "  seed admin --nome \"Maria Admin\" --email admin@exemplo.com --senha 'Senha@123' --data-nascimento 01/01/1990 [--telefone 69999999999]")
	fmt.Fprintln(os.Stderr, "  seed inscricoes [--quantidade 10] [--seed 42]")
}

func runAdmin(ctx context.Context, usuarios *service.UsuarioService, args []string) error {
	fs := flag.NewFlagSet("admin", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var (
		nome       = fs.String("nome", "", "nome completo")
		email      = fs.String("email", "", "e-mail de login")
		senha      = fs.String("senha", "", "senha forte")
		nascimento = fs.String("data-nascimento", "", "DD/MM/AAAA")
		telefone   = fs.String("telefone", "", "11 dígitos")
	)

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *nome == "" || *email == "" || *senha == "" || *nascimento == "" {
		return errors.New("nome, email, senha e data-nascimento são obrigatórios")
	}

	created, err := usuarios.Create(ctx, service.UsuarioInput{
		Nome:           *nome,
		Email:          *email,
		Telefone:       *telefone,
		Senha:          *senha,
		DataNascimento: *nascimento,
		Papel:          string(repo.PapelAdministrador),
	})
	if err != nil {
		return err
	}

	output, _ := json.MarshalIndent(created, "", "  ")
	fmt.Println(string(output))
	return nil
}

type txRunner func(ctx context.Context, fn func(*repo.InscricaoRepository) error) error

func runInscricoes(ctx context.Context, args []string, inTx txRunner) error {
	fs := flag.NewFlagSet("inscricoes", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var (
		quantidade = fs.Int("quantidade", 10, "número de inscrições")
		semente    = fs.Uint64("seed", uint64(time.Now().UnixNano()), "semente do gerador")
	)

	if err := fs.Parse(args); err != nil {
		return err
	}
	if *quantidade <= 0 {
		return errors.New("quantidade deve ser maior que 0")
	}

	novas := sampleInscricoes(rand.New(rand.NewPCG(*semente, *semente>>1)), *quantidade)

	err := inTx(ctx, func(inscricoes *repo.InscricaoRepository) error {
		for _, nova := range novas {
			if _, err := inscricoes.Create(ctx, nova); err != nil {
				return fmt.Errorf("inserir %s: %w", nova.Email, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Info().Int("quantidade", len(novas)).Msg("inscrições inseridas")
	return nil
}

var (
	primeirosNomes = []string{"Ana", "Bruno", "Carla", "Diego", "Elaine", "Felipe", "Gabriela", "Hugo", "Isabela", "João"}
	sobrenomes     = []string{"Silva", "Santos", "Oliveira", "Souza", "Lima", "Pereira", "Costa", "Rodrigues", "Almeida", "Nascimento"}
	areas          = []string{"Back-end Go", "Front-end React", "Dados", "DevOps", "Mobile", "QA"}
	cursos         = []string{"Go para APIs", "PostgreSQL avançado", "Kubernetes na prática", "React com TypeScript", "Testes automatizados"}
)

// sampleInscricoes gera candidaturas PENDENTE com e-mails únicos.
func sampleInscricoes(rng *rand.Rand, n int) []repo.NovaInscricao {
	out := make([]repo.NovaInscricao, 0, n)
	lote := time.Now().Unix()
	for i := 0; i < n; i++ {
		nome := primeirosNomes[rng.IntN(len(primeirosNomes))] + " " + sobrenomes[rng.IntN(len(sobrenomes))]
		curso := cursos[rng.IntN(len(cursos))]
		nascimento := time.Date(1970+rng.IntN(35), time.Month(1+rng.IntN(12)), 1+rng.IntN(28), 0, 0, 0, 0, time.UTC)

		out = append(out, repo.NovaInscricao{
			Nome:           fmt.Sprintf("%s %d", nome, i+1),
			Email:          fmt.Sprintf("candidato.%d.%d@exemplo.com", lote, i+1),
			Telefone:       fmt.Sprintf("119%08d", rng.IntN(100_000_000)),
			DataNascimento: nascimento,
			Background: []repo.Background{{
				Certificado: fmt.Sprintf("https://certificados.exemplo.com/%d-%d", lote, i+1),
				Descricao:   "Certificado do curso " + curso + " com carga horária de 40 horas.",
			}},
			Experiencia:   "Experiência prática em projetos de " + strings.ToLower(curso) + " durante a graduação.",
			AreaInteresse: areas[rng.IntN(len(areas))],
		})
	}
	return out
}
