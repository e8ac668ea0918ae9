package membershiprepo

import (
	"context"
	"time"

	"github.com/federation-tools/membership-checker/internal/domain"
)

// Import describes one accepted federation export.
type Import struct {
	ID         domain.ImportID
	ImportedAt time.Time
	Count      int
}

// Repository stores the current membership collection.
//
// The collection is only ever replaced as a whole: ReplaceAll must be atomic, readers never
// observe a mix of two imports.
//
// Result ordering expectations:
// - List returns memberships in natural order (domain.CompareMemberships).
type Repository interface {
	ReplaceAll(ctx context.Context, imp Import, ms []domain.Membership) error
	List(ctx context.Context) ([]domain.Membership, error)

	// LastImport returns ErrNotFound until the first ReplaceAll.
	LastImport(ctx context.Context) (Import, error)
}
