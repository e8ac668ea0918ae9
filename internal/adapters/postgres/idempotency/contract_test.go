//go:build integration

package idempotency

import (
	"testing"

	"github.com/federation-tools/membership-checker/internal/adapters/contracttest"
	"github.com/federation-tools/membership-checker/internal/adapters/postgres/testutil"
	idempotencyport "github.com/federation-tools/membership-checker/internal/ports/out/idempotency"
)

func TestContract_PostgresIdempotencyStore(t *testing.T) {
	pool := testutil.OpenMigratedPool(t)

	contracttest.RunIdempotencyStore(t, func(t *testing.T) (idempotencyport.Store, func()) {
		t.Helper()
		return NewStore(pool), nil
	})
}
