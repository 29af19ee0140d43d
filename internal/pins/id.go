package pins

import (
	"strings"

	"github.com/google/uuid"
)

// customIDPrefix distinguishes generated custom event ids from the built-in
// "<person>-NNN" catalog ids.
const customIDPrefix = "custom-"

// IDProvider issues unique suffixes for custom event ids.
type IDProvider interface {
	NewID() (string, error)
}

type uuidProvider struct{}

// NewUUIDProvider constructs an IDProvider that issues UUIDv7 identifiers.
func NewUUIDProvider() IDProvider {
	return &uuidProvider{}
}

func (p *uuidProvider) NewID() (string, error) {
	value, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return value.String(), nil
}

// IsCustomEventID reports whether the id belongs to a user-created event.
func IsCustomEventID(id string) bool {
	return strings.HasPrefix(id, customIDPrefix)
}
