package payments

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const referencePrefix = "NRDC"

// NewReference generates a process-unique donation reference of the form
// NRDC-<unix seconds>-<6 uppercase alphanumerics>. Providers that accept a
// caller-supplied correlation id are given this value.
func NewReference() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:6]
	return fmt.Sprintf("%s-%d-%s", referencePrefix, time.Now().Unix(), suffix)
}
