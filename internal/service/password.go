package service

import (
	"fmt"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

const (
	passwordMinLength = 8
	bcryptCost        = 12
)

// PasswordError lists every unmet password rule.
type PasswordError struct {
	Msg     string
	Details []string
}

func (e *PasswordError) Error() string { return e.Msg }

// PasswordProblems returns the unmet rules: at least 8 characters, one
// letter and one digit. Empty means the password is acceptable.
func PasswordProblems(pw string) []string {
	var hasLetter, hasDigit bool
	for _, r := range pw {
		switch {
		case r < unicode.MaxASCII && unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	var out []string
	if len([]rune(pw)) < passwordMinLength {
		out = append(out, fmt.Sprintf("Mínimo %d caracteres", passwordMinLength))
	}
	if !hasLetter {
		out = append(out, "Debe contener al menos una letra")
	}
	if !hasDigit {
		out = append(out, "Debe contener al menos un número")
	}
	return out
}

func checkPassword(pw, msg string) error {
	if problems := PasswordProblems(pw); len(problems) > 0 {
		return &PasswordError{Msg: msg, Details: problems}
	}
	return nil
}

func hashPassword(pw string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pw), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
