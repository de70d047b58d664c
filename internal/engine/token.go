package engine

import "github.com/google/uuid"

// TokenSource generates correlation tokens for root dispatches.
// Implemented by UUIDv7Source (production) and testutil.FixedTokenSource
// (tests). Every trace entry caused by one root dispatch - including the
// whole reaction cascade - carries the same token.
type TokenSource interface {
	Generate() string
}

// UUIDv7Source generates time-sortable UUIDv7 tokens.
//
// UUIDv7 embeds a timestamp in the most significant bits, making tokens
// sortable by creation time. This is helpful for debugging and trace
// visualization.
//
// Thread-safety: UUIDv7Source is stateless and safe for concurrent use.
type UUIDv7Source struct{}

// Generate creates a new UUIDv7 and returns it as a hyphenated string.
//
// Panics if UUID generation fails (should never happen in practice).
func (UUIDv7Source) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}
