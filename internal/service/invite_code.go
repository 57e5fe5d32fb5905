package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const (
	// InviteCodeAlphabet leaves out I, O, 0 and 1.
	InviteCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	InviteCodeLength   = 6
)

func GenerateInviteCode() (string, error) {
	alphabetSize := big.NewInt(int64(len(InviteCodeAlphabet)))
	code := make([]byte, InviteCodeLength)
	for i := range code {
		n, err := rand.Int(rand.Reader, alphabetSize)
		if err != nil {
			return "", fmt.Errorf("generating invite code: %w", err)
		}
		code[i] = InviteCodeAlphabet[n.Int64()]
	}
	return string(code), nil
}

func HashInviteCode(code string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing invite code: %w", err)
	}
	return string(hash), nil
}

func InviteCodeMatches(hash, code string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(code)) == nil
}

// NormalizeInviteCode upper-cases and strips whitespace from a typed code.
func NormalizeInviteCode(code string) string {
	return strings.ToUpper(strings.Join(strings.Fields(code), ""))
}
