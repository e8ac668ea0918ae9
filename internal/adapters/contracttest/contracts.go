package contracttest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/federation-tools/membership-checker/internal/domain"
	idempotencyport "github.com/federation-tools/membership-checker/internal/ports/out/idempotency"
	membershiprepoport "github.com/federation-tools/membership-checker/internal/ports/out/membershiprepo"
)

type CleanupFunc = func()

type MembershipRepoFactory func(t *testing.T) (membershiprepoport.Repository, CleanupFunc)

type IdemStoreFactory func(t *testing.T) (idempotencyport.Store, CleanupFunc)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func RunMembershipRepo(t *testing.T, newRepo MembershipRepoFactory) {
	t.Helper()
	ctx := context.Background()

	repo, cleanup := newRepo(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	if _, err := repo.LastImport(ctx); !errors.Is(err, membershiprepoport.ErrNotFound) {
		t.Fatalf("LastImport before any import err=%v, want ErrNotFound", err)
	}
	ms, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List empty: %v", err)
	}
	if len(ms) != 0 {
		t.Fatalf("List empty len=%d, want 0", len(ms))
	}

	birthdate := date(1980, time.February, 1)
	age := 44
	jonDoe := domain.Membership{
		LastName:         "Doe",
		FirstName:        "Jon",
		Gender:           "H",
		Birthdate:        &birthdate,
		Age:              &age,
		MembershipNumber: "123456",
		Email:            "jon.doe@address.com",
		Payed:            true,
		EndDate:          date(2025, time.September, 30),
		Club:             "My club",
		StructureCode:    "Z01234",
	}
	jonetteSnow := domain.Membership{
		LastName:         "Snow",
		FirstName:        "Jonette",
		Gender:           "F",
		MembershipNumber: "0654321",
		Email:            "jonette.snow@address.com",
		EndDate:          date(2026, time.September, 30),
		Expired:          true,
		Club:             "My club",
		StructureCode:    "Z01234",
	}

	first := membershiprepoport.Import{
		ID:         domain.ImportID(uuid.NewString()),
		ImportedAt: time.Unix(1000, 0).UTC(),
	}
	if err := repo.ReplaceAll(ctx, first, []domain.Membership{jonetteSnow, jonDoe}); err != nil {
		t.Fatalf("ReplaceAll first: %v", err)
	}

	// Natural ordering: membership number first, compared as text.
	ms, err = repo.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(ms) != 2 {
		t.Fatalf("List len=%d, want 2", len(ms))
	}
	if ms[0].MembershipNumber != "0654321" || ms[1].MembershipNumber != "123456" {
		t.Fatalf("List order=%q,%q", ms[0].MembershipNumber, ms[1].MembershipNumber)
	}
	if !ms[1].Equal(jonDoe) {
		t.Fatalf("List()[1]=%+v, want %+v", ms[1], jonDoe)
	}
	if ms[0].Birthdate != nil || ms[0].Age != nil {
		t.Fatalf("expected absent birthdate and age, got %+v", ms[0])
	}

	got, err := repo.LastImport(ctx)
	if err != nil {
		t.Fatalf("LastImport: %v", err)
	}
	if got.ID != first.ID || got.Count != 2 || !got.ImportedAt.Equal(first.ImportedAt) {
		t.Fatalf("LastImport=%+v, want id=%s count=2", got, first.ID)
	}

	// Replacement drops the previous collection.
	second := membershiprepoport.Import{
		ID:         domain.ImportID(uuid.NewString()),
		ImportedAt: time.Unix(2000, 0).UTC(),
	}
	renewed := jonDoe
	renewed.EndDate = date(2026, time.September, 30)
	if err := repo.ReplaceAll(ctx, second, []domain.Membership{renewed}); err != nil {
		t.Fatalf("ReplaceAll second: %v", err)
	}
	ms, err = repo.List(ctx)
	if err != nil {
		t.Fatalf("List after replace: %v", err)
	}
	if len(ms) != 1 || !ms[0].Equal(renewed) {
		t.Fatalf("List after replace=%+v", ms)
	}
	got, err = repo.LastImport(ctx)
	if err != nil || got.ID != second.ID || got.Count != 1 {
		t.Fatalf("LastImport after replace=%+v err=%v", got, err)
	}
}

func RunIdempotencyStore(t *testing.T, newStore IdemStoreFactory) {
	t.Helper()
	ctx := context.Background()

	store, cleanup := newStore(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	fp := idempotencyport.Fingerprint{
		Key:      idempotencyport.Key("k-" + uuid.NewString()),
		Method:   "PUT",
		Route:    "/memberships",
		BodyHash: "",
	}
	if _, ok, err := store.Get(ctx, fp); err != nil || ok {
		t.Fatalf("Get unknown key ok=%v err=%v, want ok=false", ok, err)
	}

	rec := idempotencyport.Record{
		StatusCode:  0,
		ContentType: "text/plain",
		Body:        []byte("hash-abc"),
		CreatedAt:   time.Unix(123, 0).UTC(),
	}
	if err := store.Put(ctx, fp, rec); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, ok, err := store.Get(ctx, fp)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatalf("expected ok=true")
	}
	if string(got.Body) != "hash-abc" || got.ContentType != "text/plain" || got.StatusCode != 0 || !got.CreatedAt.Equal(rec.CreatedAt) {
		t.Fatalf("unexpected record: %+v", got)
	}

	// Overwrite semantics.
	rec2 := rec
	rec2.Body = []byte("hash-def")
	if err := store.Put(ctx, fp, rec2); err != nil {
		t.Fatalf("Put overwrite: %v", err)
	}
	got, ok, err = store.Get(ctx, fp)
	if err != nil || !ok || string(got.Body) != "hash-def" {
		t.Fatalf("expected overwritten record, got ok=%v err=%v body=%q", ok, err, string(got.Body))
	}

	// The response record lives next to the claim, under the body hash.
	respFP := fp
	respFP.BodyHash = "hash-def"
	if _, ok, err := store.Get(ctx, respFP); err != nil || ok {
		t.Fatalf("Get response before Put ok=%v err=%v, want ok=false", ok, err)
	}
	if err := store.Put(ctx, respFP, idempotencyport.Record{StatusCode: 200, ContentType: "application/json", Body: []byte(`{}`)}); err != nil {
		t.Fatalf("Put response: %v", err)
	}
	if got, ok, err := store.Get(ctx, respFP); err != nil || !ok || got.StatusCode != 200 {
		t.Fatalf("Get response ok=%v err=%v rec=%+v", ok, err, got)
	}
}
