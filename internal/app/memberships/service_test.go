package memberships

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	memclock "github.com/federation-tools/membership-checker/internal/adapters/memory/clock"
	memmembershiprepo "github.com/federation-tools/membership-checker/internal/adapters/memory/membershiprepo"
	"github.com/federation-tools/membership-checker/internal/domain"
	"github.com/federation-tools/membership-checker/internal/platform/metrics"
	"github.com/federation-tools/membership-checker/internal/ports/out/membershiprepo"
)

type fixture struct {
	svc     *Service
	repo    *memmembershiprepo.Repo
	clk     *memclock.ManualClock
	metrics *metrics.Metrics
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	repo := memmembershiprepo.NewRepo()
	clk := memclock.NewManualClock(date(2025, time.March, 1))
	m := metrics.New(prometheus.NewRegistry())
	return fixture{
		svc:     NewService(repo, clk, zaptest.NewLogger(t), m),
		repo:    repo,
		clk:     clk,
		metrics: m,
	}
}

func TestService_BeforeAnyImport(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	_, err := f.svc.LastImport(context.Background())
	ae := (*Error)(nil)
	require.True(t, errors.As(err, &ae), "err=%v", err)
	assert.Equal(t, 404, ae.Status)
	assert.Equal(t, "NO_MEMBERSHIPS", ae.Code)
	assert.ErrorIs(t, err, membershiprepo.ErrNotFound)

	out, err := f.svc.CheckCsvMembers(context.Background(), []domain.CsvMember{domain.NewCsvMember("123456", "Doe", "Jon")})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, domain.NoMatch, out[0].Result.Kind)
	assert.Equal(t, domain.MembershipStatusUnknown, out[0].Status)
}

func TestService_ImportThenCheck(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	imp, err := f.svc.ImportMemberships(ctx, []domain.Membership{jonDoe(), janeDoe(), jonetteSnow(), jonDoe()})
	require.NoError(t, err)
	assert.NotEmpty(t, imp.ID)
	assert.Equal(t, 4, imp.Count)
	assert.Equal(t, date(2025, time.March, 1), imp.ImportedAt)
	assert.Equal(t, 3, f.svc.Count())
	assert.Equal(t, float64(3), testutil.ToFloat64(f.metrics.MembershipsLoaded))
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.Imports))

	last, err := f.svc.LastImport(ctx)
	require.NoError(t, err)
	assert.Equal(t, imp.ID, last.ID)

	out, err := f.svc.CheckCsvMembers(ctx, []domain.CsvMember{
		domain.NewCsvMember("123456", "Doe", "Jon"),
		domain.NewCsvMemberWithIdentity("789012", "Snow Jonette"),
		domain.NewCsvMember("999", "Doe", "Jon"),
	})
	require.NoError(t, err)
	require.Len(t, out, 3)

	assert.Equal(t, domain.Match, out[0].Result.Kind)
	assert.Equal(t, domain.MembershipStatusUpToDate, out[0].Status)
	assert.Equal(t, domain.Match, out[1].Result.Kind)
	assert.Equal(t, domain.MembershipStatusExpired, out[1].Status)
	assert.Equal(t, domain.NoMatch, out[2].Result.Kind)
	assert.Equal(t, domain.MembershipStatusUnknown, out[2].Status)

	assert.Equal(t, float64(2), testutil.ToFloat64(f.metrics.CheckedMembers.WithLabelValues("MATCH")))
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.CheckedMembers.WithLabelValues("NO_MATCH")))
}

func TestService_StatusFollowsClock(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.ImportMemberships(ctx, []domain.Membership{jonDoe()})
	require.NoError(t, err)

	uda := []domain.UdaMember{{PlatformID: 7, MembershipNumber: ptr("123456"), First: "Jon", Last: "Doe", IsConfirmed: true}}

	out, err := f.svc.CheckUdaMembers(ctx, uda)
	require.NoError(t, err)
	assert.Equal(t, domain.MembershipStatusUpToDate, out[0].Status)

	f.clk.Set(date(2025, time.October, 1))
	out, err = f.svc.CheckUdaMembers(ctx, uda)
	require.NoError(t, err)
	assert.Equal(t, domain.Match, out[0].Result.Kind)
	assert.Equal(t, domain.MembershipStatusExpired, out[0].Status)
	assert.Equal(t, 7, out[0].Candidate.PlatformID)
}

func TestService_ImportEmptyIsRejected(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.ImportMemberships(ctx, []domain.Membership{jonDoe()})
	require.NoError(t, err)

	_, err = f.svc.ImportMemberships(ctx, nil)
	ae := (*Error)(nil)
	require.True(t, errors.As(err, &ae), "err=%v", err)
	assert.Equal(t, 422, ae.Status)
	assert.Equal(t, "INVALID_MEMBERSHIP_FILE", ae.Code)

	// The active collection is untouched.
	assert.Equal(t, 1, f.svc.Count())
}

func TestService_ImportReplacesCollection(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.ImportMemberships(ctx, []domain.Membership{jonDoe()})
	require.NoError(t, err)
	_, err = f.svc.ImportMemberships(ctx, []domain.Membership{janeDoe()})
	require.NoError(t, err)

	found, err := f.svc.LookUp(ctx, domain.MemberToLookUp{LastName: ptr("Doe")})
	require.NoError(t, err)
	assert.Equal(t, []domain.Membership{janeDoe()}, found)
}

func TestService_LoadRestoresStoredCollection(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.ImportMemberships(ctx, []domain.Membership{jonDoe(), janeDoe()})
	require.NoError(t, err)

	restarted := NewService(f.repo, f.clk, nil, nil)
	require.NoError(t, restarted.Load(ctx))
	assert.Equal(t, 2, restarted.Count())

	found, err := restarted.LookUp(ctx, domain.MemberToLookUp{MembershipNum: ptr("654321")})
	require.NoError(t, err)
	assert.Equal(t, []domain.Membership{janeDoe()}, found)
}

func TestService_LookUpWithoutCriteria(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	_, err := f.svc.LookUp(context.Background(), domain.MemberToLookUp{LastName: ptr("   ")})
	ae := (*Error)(nil)
	require.True(t, errors.As(err, &ae), "err=%v", err)
	assert.Equal(t, 400, ae.Status)
	assert.Equal(t, "EMPTY_LOOKUP", ae.Code)
	assert.Zero(t, testutil.ToFloat64(f.metrics.LookUps))
}

func TestService_LookUpReturnsCopies(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.ImportMemberships(ctx, []domain.Membership{jonDoe()})
	require.NoError(t, err)

	found, err := f.svc.LookUp(ctx, domain.MemberToLookUp{FirstName: ptr("Jon")})
	require.NoError(t, err)
	require.Len(t, found, 1)
	found[0].LastName = "Changed"

	again, err := f.svc.LookUp(ctx, domain.MemberToLookUp{FirstName: ptr("Jon")})
	require.NoError(t, err)
	assert.Equal(t, "Doe", again[0].LastName)
}

type failingRepo struct {
	membershiprepo.Repository
	err error
}

func (r failingRepo) ReplaceAll(context.Context, membershiprepo.Import, []domain.Membership) error {
	return r.err
}

func TestService_FailedImportKeepsIndex(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	repo := memmembershiprepo.NewRepo()
	clk := memclock.NewManualClock(date(2025, time.March, 1))
	svc := NewService(repo, clk, nil, nil)
	_, err := svc.ImportMemberships(ctx, []domain.Membership{jonDoe()})
	require.NoError(t, err)

	boom := errors.New("disk full")
	svc.repo = failingRepo{Repository: repo, err: boom}
	_, err = svc.ImportMemberships(ctx, []domain.Membership{janeDoe(), jonetteSnow()})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 1, svc.Count())
}

func TestService_ConcurrentChecksDuringImports(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	accented := func(m domain.Membership) domain.Membership {
		m.LastName = strings.Repeat("Dùpré-Hélène ", 16) + m.LastName
		return m
	}
	older := []domain.Membership{accented(jonDoe())}
	newer := []domain.Membership{accented(renewed(jonDoe(), date(2026, time.September, 30))), accented(janeDoe())}

	_, err := f.svc.ImportMemberships(ctx, older)
	require.NoError(t, err)

	prefix := strings.Repeat("DUPRE HELENE ", 16)
	candidates := []domain.CsvMember{
		domain.NewCsvMember("123456", prefix+"Doe", "Jon"),
		domain.NewCsvMember("654321", prefix+"Doe", "Jane"),
	}
	for i := 0; i < 50; i++ {
		candidates = append(candidates, candidates[i%2])
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				set := older
				if j%2 == 0 {
					set = newer
				}
				_, err := f.svc.ImportMemberships(ctx, set)
				assert.NoError(t, err)
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				out, err := f.svc.CheckCsvMembers(ctx, candidates)
				if !assert.NoError(t, err) {
					return
				}
				if !assert.Len(t, out, len(candidates)) {
					return
				}

				// Every result comes from one complete collection: Jane exists only
				// in the newer one, which also holds the renewed membership of Jon.
				jon := out[0].Result
				if !assert.Equal(t, domain.Match, jon.Kind) {
					return
				}
				inNewer := jon.Membership.EndDate.Equal(date(2026, time.September, 30))
				for k, cm := range out {
					want := domain.Match
					if k%2 == 1 && !inNewer {
						want = domain.NoMatch
					}
					assert.Equal(t, want, cm.Result.Kind, "candidate %d", k)
					if k%2 == 0 && cm.Result.Membership != nil {
						assert.Equal(t, jon.Membership.EndDate, cm.Result.Membership.EndDate, "candidate %d", k)
					}
				}
			}
		}()
	}
	wg.Wait()

	_, err = f.svc.ImportMemberships(ctx, newer)
	require.NoError(t, err)
	assert.Equal(t, 2, f.svc.Count())
}

func TestService_CancelledContext(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	_, err := f.svc.ImportMemberships(context.Background(), []domain.Membership{jonDoe()})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = f.svc.CheckCsvMembers(ctx, []domain.CsvMember{domain.NewCsvMember("123456", "Doe", "Jon")})
	assert.ErrorIs(t, err, context.Canceled)

	_, err = f.svc.CheckUdaMembers(ctx, []domain.UdaMember{{PlatformID: 1, First: "Jon", Last: "Doe"}})
	assert.ErrorIs(t, err, context.Canceled)

	_, err = f.svc.LookUp(ctx, domain.MemberToLookUp{LastName: ptr("Doe")})
	assert.ErrorIs(t, err, context.Canceled)

	assert.Equal(t, float64(0), testutil.ToFloat64(f.metrics.LookUps))
	assert.Equal(t, float64(0), testutil.ToFloat64(f.metrics.CheckedMembers.WithLabelValues("MATCH")))
}
