// Package encoder converts numeric identifiers to short base62 aliases and back.
package encoder

import (
	"fmt"
	"math"
	"strings"

	customerrors "github.com/axellelanca/pitico/internal/errors"
)

// Alphabet holds the 62 alias symbols: digits, then uppercase, then lowercase.
const Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

const base = uint64(len(Alphabet))

// Encode converts an identifier to its base62 alias, most significant symbol first.
// Encode(0) is "0".
func Encode(id uint64) string {
	if id == 0 {
		return string(Alphabet[0])
	}

	var buf [11]byte // ceil(log62(2^64))
	i := len(buf)
	for id > 0 {
		i--
		buf[i] = Alphabet[id%base]
		id /= base
	}
	return string(buf[i:])
}

// Decode converts an alias back to its identifier.
// Only canonical aliases (no leading zero symbol) are accepted, so that
// Decode is the exact inverse of Encode.
func Decode(alias string) (uint64, error) {
	if alias == "" {
		return 0, fmt.Errorf("%w: empty alias", customerrors.ErrInvalidAlias)
	}
	if len(alias) > 1 && alias[0] == Alphabet[0] {
		return 0, fmt.Errorf("%w: %q has a leading zero", customerrors.ErrInvalidAlias, alias)
	}

	var id uint64
	for i := 0; i < len(alias); i++ {
		idx := strings.IndexByte(Alphabet, alias[i])
		if idx < 0 {
			return 0, fmt.Errorf("%w: invalid symbol %q at position %d", customerrors.ErrInvalidAlias, alias[i], i)
		}
		if id > (math.MaxUint64-uint64(idx))/base {
			return 0, fmt.Errorf("%w: %q overflows uint64", customerrors.ErrInvalidAlias, alias)
		}
		id = id*base + uint64(idx)
	}
	return id, nil
}

// IsValid reports whether alias could have been produced by Encode.
func IsValid(alias string) bool {
	_, err := Decode(alias)
	return err == nil
}
