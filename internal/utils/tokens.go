package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
)

// NewSessionToken returns nBytes of crypto randomness, hex-encoded.
func NewSessionToken(nBytes int) (string, error) {
	if nBytes <= 0 {
		nBytes = 32 // 256 бит по умолчанию
	}
	b := make([]byte, nBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

const (
	otpMin = 100000
	otpMax = 999999
)

// NewOTPCode returns a uniformly distributed 6-digit code in 100000..999999.
func NewOTPCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(otpMax-otpMin+1))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d", n.Int64()+otpMin), nil
}

// TokenPrefix is what we allow into logs.
func TokenPrefix(tok string) string {
	if len(tok) <= 8 {
		return tok
	}
	return tok[:8] + "..."
}
