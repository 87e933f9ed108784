package main

import (
	"fmt"
	"os"

	"github.com/gestaozabele/inscricoes/internal/auth"
	"github.com/gestaozabele/inscricoes/internal/util"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: hashpass <senha>")
		os.Exit(1)
	}

	senha := os.Args[1]
	if !util.SenhaForte(senha) {
		fmt.Fprintln(os.Stderr, "senha fraca: use ao menos 8 caracteres com maiúscula, minúscula, número e um de @$!%*?&")
		os.Exit(1)
	}

	hash, err := auth.NewArgon2Hasher(nil).Hash(senha)
	if err != nil {
		fmt.Fprintf(os.Stderr, "hash error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(hash)
}
