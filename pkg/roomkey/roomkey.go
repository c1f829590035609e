package roomkey

import (
	"strings"

	"github.com/google/uuid"
)

// New generates a short opaque room key, easy to share out-of-band.
func New() string {
	return strings.Split(uuid.NewString(), "-")[0]
}
