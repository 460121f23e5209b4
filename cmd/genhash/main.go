// cmd/genhash prints a bcrypt hash for manual password resets.
// Uso: go run ./cmd/genhash <password>
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/JoaquinRodriguez332/gesticom/internal/service"

	"golang.org/x/crypto/bcrypt"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "uso: genhash <password>")
		os.Exit(2)
	}
	pw := os.Args[1]
	if problems := service.PasswordProblems(pw); len(problems) > 0 {
		fmt.Fprintln(os.Stderr, strings.Join(problems, "\n"))
		os.Exit(1)
	}
	h, err := bcrypt.GenerateFromPassword([]byte(pw), 12)
	if err != nil {
		panic(err)
	}
	fmt.Println(string(h))
}
