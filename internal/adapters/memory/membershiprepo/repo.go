package membershiprepo

import (
	"context"
	"slices"
	"sync"

	"github.com/federation-tools/membership-checker/internal/domain"
	"github.com/federation-tools/membership-checker/internal/ports/out/membershiprepo"
)

// Repo is an in-memory implementation of membershiprepo.Repository.
// It is safe for concurrent use.
type Repo struct {
	mu sync.RWMutex

	memberships []domain.Membership
	last        *membershiprepo.Import
}

func NewRepo() *Repo {
	return &Repo{}
}

func (r *Repo) ReplaceAll(ctx context.Context, imp membershiprepo.Import, ms []domain.Membership) error {
	_ = ctx
	cp := make([]domain.Membership, len(ms))
	for i, m := range ms {
		cp[i] = cloneMembership(m)
	}
	slices.SortStableFunc(cp, domain.CompareMemberships)
	imp.Count = len(cp)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.memberships = cp
	r.last = &imp
	return nil
}

func (r *Repo) List(ctx context.Context) ([]domain.Membership, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Membership, len(r.memberships))
	for i, m := range r.memberships {
		out[i] = cloneMembership(m)
	}
	return out, nil
}

func (r *Repo) LastImport(ctx context.Context) (membershiprepo.Import, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.last == nil {
		return membershiprepo.Import{}, membershiprepo.ErrNotFound
	}
	return *r.last, nil
}

func cloneMembership(m domain.Membership) domain.Membership {
	out := m
	if m.Birthdate != nil {
		v := *m.Birthdate
		out.Birthdate = &v
	}
	if m.Age != nil {
		v := *m.Age
		out.Age = &v
	}
	return out
}
