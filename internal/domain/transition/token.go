package transition

import "github.com/google/uuid"

// Token identifies one transition for its whole lifecycle. Tokens stay
// stable across ready/finished delivery; a merge retires the merged token
// in favor of the playing one.
type Token string

// NewToken allocates a fresh transition token
func NewToken() Token {
	return Token(uuid.New().String())
}
