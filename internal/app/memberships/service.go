package memberships

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/federation-tools/membership-checker/internal/domain"
	"github.com/federation-tools/membership-checker/internal/platform/metrics"
	clockport "github.com/federation-tools/membership-checker/internal/ports/out/clock"
	"github.com/federation-tools/membership-checker/internal/ports/out/membershiprepo"
)

// Service owns the active membership index and serves checks and searches against it.
//
// The index is replaced as a whole under an exclusive lock; readers always work on one
// complete snapshot.
type Service struct {
	repo    membershiprepo.Repository
	clk     clockport.Clock
	log     *zap.Logger
	metrics *metrics.Metrics

	newImportID func() domain.ImportID

	// importMu keeps the stored collection and the active index from two imports apart.
	importMu sync.Mutex

	mu    sync.RWMutex
	index *IndexedMemberships
}

func NewService(repo membershiprepo.Repository, clk clockport.Clock, log *zap.Logger, m *metrics.Metrics) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		repo:    repo,
		clk:     clk,
		log:     log,
		metrics: m,
		newImportID: func() domain.ImportID {
			return domain.ImportID(uuid.NewString())
		},
		index: NewIndexedMemberships(nil),
	}
}

// Load rebuilds the active index from the repository.
func (s *Service) Load(ctx context.Context) error {
	s.importMu.Lock()
	defer s.importMu.Unlock()

	ms, err := s.repo.List(ctx)
	if err != nil {
		return err
	}
	ix := s.swap(NewIndexedMemberships(ms))
	s.log.Info("memberships loaded", zap.Int("memberships", ix.Len()))
	return nil
}

// ImportMemberships replaces the stored collection with ms and activates it.
func (s *Service) ImportMemberships(ctx context.Context, ms []domain.Membership) (membershiprepo.Import, error) {
	if len(ms) == 0 {
		return membershiprepo.Import{}, &Error{
			Status:  422,
			Code:    "INVALID_MEMBERSHIP_FILE",
			Message: "membership file contains no membership",
		}
	}

	s.importMu.Lock()
	defer s.importMu.Unlock()

	imp := membershiprepo.Import{
		ID:         s.newImportID(),
		ImportedAt: s.clk.Now(),
		Count:      len(ms),
	}
	if err := s.repo.ReplaceAll(ctx, imp, ms); err != nil {
		return membershiprepo.Import{}, err
	}
	ix := s.swap(NewIndexedMemberships(ms))

	if s.metrics != nil {
		s.metrics.Imports.Inc()
	}
	s.log.Info("memberships imported",
		zap.String("import_id", string(imp.ID)),
		zap.Int("rows", len(ms)),
		zap.Int("memberships", ix.Len()),
	)
	return imp, nil
}

// LastImport describes the import currently stored.
func (s *Service) LastImport(ctx context.Context) (membershiprepo.Import, error) {
	imp, err := s.repo.LastImport(ctx)
	if err != nil {
		if errors.Is(err, membershiprepo.ErrNotFound) {
			return membershiprepo.Import{}, &Error{
				Status:  404,
				Code:    "NO_MEMBERSHIPS",
				Message: "No membership file has been imported yet.",
				Err:     err,
			}
		}
		return membershiprepo.Import{}, err
	}
	return imp, nil
}

// CheckedMember is a checked participant together with the status of its best membership.
type CheckedMember[T domain.Candidate] struct {
	domain.CheckedMember[T]
	Status domain.MembershipStatus
}

// CheckCsvMembers checks participants imported from a CSV file.
func (s *Service) CheckCsvMembers(ctx context.Context, candidates []domain.CsvMember) ([]CheckedMember[domain.CsvMember], error) {
	return checkWithStatus(ctx, s, candidates)
}

// CheckUdaMembers checks participants retrieved from the registration platform.
func (s *Service) CheckUdaMembers(ctx context.Context, candidates []domain.UdaMember) ([]CheckedMember[domain.UdaMember], error) {
	return checkWithStatus(ctx, s, candidates)
}

func checkWithStatus[T domain.Candidate](ctx context.Context, s *Service, candidates []T) ([]CheckedMember[T], error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ix := s.current()
	now := s.clk.Now()

	checked := CheckMembers(ix, candidates)
	out := make([]CheckedMember[T], len(checked))
	counts := map[domain.MatchKind]int{}
	for i, c := range checked {
		out[i] = CheckedMember[T]{
			CheckedMember: c,
			Status:        domain.StatusAt(c.Result.Membership, now),
		}
		counts[c.Result.Kind]++
		s.metrics.ObserveCheck(c.Result.Kind.String())
	}

	s.log.Debug("members checked",
		zap.Int("candidates", len(candidates)),
		zap.Int("matches", counts[domain.Match]),
		zap.Int("partial_matches", counts[domain.PartialMatch]),
		zap.Int("no_matches", counts[domain.NoMatch]),
	)
	return out, nil
}

// LookUp searches the active index. Unlike the engine, which simply finds nothing, a search
// without any criterion is rejected.
func (s *Service) LookUp(ctx context.Context, q domain.MemberToLookUp) ([]domain.Membership, error) {
	if q.IsEmpty() {
		return nil, &Error{
			Status:  400,
			Code:    "EMPTY_LOOKUP",
			Message: "at least one of membershipNum, lastName or firstName is required",
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.LookUps.Inc()
	}

	found := LookUp(s.current(), q)
	out := make([]domain.Membership, len(found))
	for i, m := range found {
		out[i] = *m
	}
	return out, nil
}

// Count returns the number of memberships in the active index.
func (s *Service) Count() int {
	return s.current().Len()
}

func (s *Service) current() *IndexedMemberships {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index
}

func (s *Service) swap(ix *IndexedMemberships) *IndexedMemberships {
	s.mu.Lock()
	s.index = ix
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.MembershipsLoaded.Set(float64(ix.Len()))
	}
	return ix
}
