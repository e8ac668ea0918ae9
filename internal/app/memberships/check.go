package memberships

import (
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/federation-tools/membership-checker/internal/domain"
)

// CheckMemberAgainstMembership decides how strongly a candidate corresponds to one membership.
//
// The membership number is the primary identifier:
//   - a number that differs (literally and as an integer) disqualifies, whatever the names say
//   - number + both names equal -> Match; number + a differing name -> PartialMatch
//   - number + identity equal -> Match; number + differing identity -> NoMatch
//   - without a number, equal names or identity are capped at PartialMatch
//
// Anything else, including a number alone, is NoMatch.
func CheckMemberAgainstMembership(c domain.Candidate, m domain.Membership) domain.CheckResult {
	num := c.MembershipNum()
	last, first := c.LastName(), c.FirstName()
	identity := c.Identity()

	if num != nil {
		if !numbersMatch(*num, m.MembershipNumber) {
			return domain.NoMatchResult()
		}
		if last != nil && first != nil {
			if namesMatch(*last, *first, m) {
				return domain.MatchResult(m)
			}
			return domain.PartialMatchResult(m)
		}
		if identity != nil {
			if identityMatches(*identity, m) {
				return domain.MatchResult(m)
			}
			return domain.NoMatchResult()
		}
		return domain.NoMatchResult()
	}

	if last != nil && first != nil {
		if namesMatch(*last, *first, m) {
			return domain.PartialMatchResult(m)
		}
		return domain.NoMatchResult()
	}
	if identity != nil {
		if identityMatches(*identity, m) {
			return domain.PartialMatchResult(m)
		}
		return domain.NoMatchResult()
	}
	return domain.NoMatchResult()
}

// CheckMember returns the best result of c over the whole collection: a Match always beats a
// PartialMatch, and between results of the same kind the latest membership wins.
//
// Only the index bucket that can hold a qualifying membership is evaluated; the outcome is
// the same as evaluating every membership.
func CheckMember(ix *IndexedMemberships, c domain.Candidate) domain.CheckResult {
	best := domain.NoMatchResult()
	for _, m := range candidateMemberships(ix, c) {
		r := CheckMemberAgainstMembership(c, *m)
		if r.Kind == domain.NoMatch {
			continue
		}
		if domain.CompareResults(r, best) > 0 {
			best = r
		}
	}
	return best
}

// CheckMembers checks every candidate, in parallel, and returns one CheckedMember per
// candidate in input order.
func CheckMembers[T domain.Candidate](ix *IndexedMemberships, candidates []T) []domain.CheckedMember[T] {
	out := make([]domain.CheckedMember[T], len(candidates))
	if len(candidates) == 0 {
		return out
	}

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range candidates {
		g.Go(func() error {
			out[i] = domain.CheckedMember[T]{
				Candidate: candidates[i],
				Result:    CheckMember(ix, candidates[i]),
			}
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// candidateMemberships narrows the collection to the bucket selected by the strongest
// identifier the candidate supplies, mirroring the precedence of CheckMemberAgainstMembership.
func candidateMemberships(ix *IndexedMemberships, c domain.Candidate) []*domain.Membership {
	if num := c.MembershipNum(); num != nil {
		return ix.ByNumber(*num)
	}
	last, first := c.LastName(), c.FirstName()
	if last != nil && first != nil {
		return ix.ByName(*last, *first)
	}
	if identity := c.Identity(); identity != nil {
		return ix.ByIdentity(*identity)
	}
	return nil
}

func numbersMatch(a, b string) bool {
	if domain.Normalize(a) == domain.Normalize(b) {
		return true
	}
	na, okA := domain.ParseMembershipNumber(a)
	nb, okB := domain.ParseMembershipNumber(b)
	return okA && okB && na == nb
}

func namesMatch(last, first string, m domain.Membership) bool {
	return domain.Normalize(last) == domain.Normalize(m.LastName) &&
		domain.Normalize(first) == domain.Normalize(m.FirstName)
}

func identityMatches(identity string, m domain.Membership) bool {
	id := domain.Normalize(identity)
	return id == identityKey(m.LastName, m.FirstName) || id == identityKey(m.FirstName, m.LastName)
}
