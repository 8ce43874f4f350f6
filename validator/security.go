package validator

import (
	"errors"
	"fmt"
	"strings"
)

// maxTokenSize bounds the compact serialization accepted by Verify.
// Passage tokens are a few hundred bytes.
const maxTokenSize = 1 << 20

var (
	errEmptyToken    = errors.New("token is empty")
	errTokenTooLarge = errors.New("token exceeds maximum size (1MB)")
)

// splitToken checks the raw token before any decoding and returns its three
// segments.
func splitToken(raw string) ([]string, error) {
	if raw == "" {
		return nil, errEmptyToken
	}
	if len(raw) > maxTokenSize {
		return nil, errTokenTooLarge
	}

	// Count first so a token made of dots never allocates a huge slice.
	if dots := strings.Count(raw, "."); dots != 2 {
		return nil, fmt.Errorf("expected 3 segments, got %d", dots+1)
	}

	parts := strings.Split(raw, ".")
	for i, part := range parts {
		if part == "" {
			return nil, fmt.Errorf("segment %d is empty", i)
		}
	}
	return parts, nil
}
