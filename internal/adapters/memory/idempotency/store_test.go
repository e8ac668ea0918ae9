package idempotency

import (
	"context"
	"testing"
	"time"

	"github.com/federation-tools/membership-checker/internal/ports/out/idempotency"
)

func TestStore_StoresCopies(t *testing.T) {
	t.Parallel()

	s := NewStore()
	fp := idempotency.Fingerprint{
		Key:      "k1",
		Method:   "PUT",
		Route:    "/memberships",
		BodyHash: "abc123",
	}
	body := []byte(`{"count":3}`)
	if err := s.Put(context.Background(), fp, idempotency.Record{
		StatusCode:  200,
		ContentType: "application/json",
		Body:        body,
		CreatedAt:   time.Unix(123, 0).UTC(),
	}); err != nil {
		t.Fatalf("Put() err=%v", err)
	}
	body[2] = 'X'

	got, ok, err := s.Get(context.Background(), fp)
	if err != nil || !ok {
		t.Fatalf("Get() ok=%v err=%v", ok, err)
	}
	if string(got.Body) != `{"count":3}` {
		t.Fatalf("Get() body=%q, caller mutation leaked", got.Body)
	}
}

func TestStore_FingerprintFieldsAreSignificant(t *testing.T) {
	t.Parallel()

	s := NewStore()
	fp := idempotency.Fingerprint{Key: "k1", Method: "PUT", Route: "/memberships", BodyHash: "abc"}
	if err := s.Put(context.Background(), fp, idempotency.Record{StatusCode: 200}); err != nil {
		t.Fatalf("Put() err=%v", err)
	}

	other := fp
	other.BodyHash = "def"
	if _, ok, _ := s.Get(context.Background(), other); ok {
		t.Fatalf("Get() found a record for another body hash")
	}
}
