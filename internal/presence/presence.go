// Package presence maps a user to the single live connection that receives
// their pushes.
package presence

import (
	"context"

	"github.com/google/uuid"
)

// Directory is the presence table. Set always overwrites (last connection
// wins). Remove deletes only when the stored connection id still matches, so
// a late disconnect from a superseded connection leaves the newer one alone.
type Directory interface {
	Set(ctx context.Context, userID uuid.UUID, connID string) error
	Get(ctx context.Context, userID uuid.UUID) (string, bool)
	Remove(ctx context.Context, userID uuid.UUID, connID string) bool
	Has(ctx context.Context, userID uuid.UUID) bool
}
