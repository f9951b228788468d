package object

import (
	"crypto/rand"
	"math/big"
	"regexp"
)

// Postfix alphabet and length bounds. A postfix is 3-6 lowercase
// alphanumeric characters drawn from a cryptographically secure source.
const (
	postfixAlphabet  = "abcdefghijklmnopqrstuvwxyz0123456789"
	postfixMinLength = 3
	postfixMaxLength = 6
)

var postfixPattern = regexp.MustCompile(`^[a-z0-9]{3,6}$`)

// ValidPostfix reports whether s matches the postfix pattern.
func ValidPostfix(s string) bool {
	return postfixPattern.MatchString(s)
}

// GeneratePostfix returns a random postfix. The length is chosen uniformly
// from {3,4,5,6}, then each character uniformly from the alphabet.
func GeneratePostfix() (string, error) {
	span := int64(postfixMaxLength - postfixMinLength + 1)

	n, err := rand.Int(rand.Reader, big.NewInt(span))
	if err != nil {
		return "", err
	}

	length := postfixMinLength + int(n.Int64())
	buf := make([]byte, length)

	for i := range buf {
		idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(postfixAlphabet))))
		if err != nil {
			return "", err
		}

		buf[i] = postfixAlphabet[idx.Int64()]
	}

	return string(buf), nil
}
