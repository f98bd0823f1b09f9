package chat

import (
	"crypto/rand"
	"errors"
	"strconv"
	"time"

	"github.com/oklog/ulid/v2"
)

// NewPublicID returns a ULID for a new chat. Public ids must never parse as
// an integer, otherwise the resolver would treat them as surrogate ids.
func NewPublicID() (string, error) {
	for i := 0; i < 8; i++ {
		id, err := ulid.New(ulid.Timestamp(time.Now()), rand.Reader)
		if err != nil {
			return "", err
		}
		s := id.String()
		if _, numeric := parseSurrogate(s); !numeric {
			return s, nil
		}
	}
	return "", errors.New("could not allocate a non-numeric public id")
}

// parseSurrogate reports whether s is a base-10 integer literal and, if it
// fits, its value. Out-of-range literals are still numeric.
func parseSurrogate(s string) (int64, bool) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err == nil {
		return n, true
	}
	if errors.Is(err, strconv.ErrRange) {
		return 0, true
	}
	return 0, false
}
