// Package ids generates prefixed, collision-resistant identifiers.
package ids

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Prefixes used for each collection.
const (
	TaskPrefix = "task"
	TagPrefix  = "tag"
)

// Generate creates a prefixed NanoID, e.g. "task-V1StGXR8_Z5jdHi6B-myT".
// Uniqueness does not depend on clock resolution, so many IDs created in the
// same instant (a bulk add) never collide.
func Generate(prefix string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// MustGenerate is like Generate but panics if the system entropy source fails.
func MustGenerate(prefix string) string {
	id, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return id
}
