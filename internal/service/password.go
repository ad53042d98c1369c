package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	upperChars  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	lowerChars  = "abcdefghijklmnopqrstuvwxyz"
	digitChars  = "0123456789"
	symbolChars = "@#$%&*"
	allChars    = upperChars + lowerChars + digitChars + symbolChars

	// GeneratedPasswordLength is the length of passwords issued at guest checkout.
	GeneratedPasswordLength = 12
)

// PasswordGenerator issues one-time passwords for accounts created at checkout.
type PasswordGenerator interface {
	Generate() (string, error)
}

type passwordGenerator struct {
	length int
}

// NewPasswordGenerator returns a generator of GeneratedPasswordLength passwords
// holding at least one upper-case letter, lower-case letter, digit and symbol.
func NewPasswordGenerator() PasswordGenerator {
	return &passwordGenerator{length: GeneratedPasswordLength}
}

func (g *passwordGenerator) Generate() (string, error) {
	out := make([]byte, 0, g.length)
	for _, set := range []string{upperChars, lowerChars, digitChars, symbolChars} {
		c, err := pick(set)
		if err != nil {
			return "", err
		}
		out = append(out, c)
	}
	for len(out) < g.length {
		c, err := pick(allChars)
		if err != nil {
			return "", err
		}
		out = append(out, c)
	}

	// Fisher-Yates so the guaranteed classes do not sit in fixed positions.
	for i := len(out) - 1; i > 0; i-- {
		j, err := randInt(i + 1)
		if err != nil {
			return "", err
		}
		out[i], out[j] = out[j], out[i]
	}
	return string(out), nil
}

func pick(set string) (byte, error) {
	i, err := randInt(len(set))
	if err != nil {
		return 0, err
	}
	return set[i], nil
}

func randInt(n int) (int, error) {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, fmt.Errorf("read random: %w", err)
	}
	return int(v.Int64()), nil
}
