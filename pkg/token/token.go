package token

import (
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Length is the fixed length of gallery access tokens. 21 characters over
// the default 64-symbol URL-safe alphabet gives ~126 bits of entropy from
// crypto/rand, which keeps collision and guessing probability negligible at
// expected invitation volumes.
const Length = 21

// New generates a new gallery access token.
func New() (string, error) {
	return gonanoid.New(Length)
}
