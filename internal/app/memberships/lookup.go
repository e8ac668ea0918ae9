package memberships

import (
	"strings"

	"github.com/federation-tools/membership-checker/internal/domain"
)

// LookUp searches memberships for a manual check. The first criterion present drives the
// search and the following ones only filter it:
//  1. membership number, filtered by last and/or first name
//  2. last name, filtered by first name
//  3. first name
//
// There is no fallback: a number that resolves nothing yields an empty result even if the
// names would have matched. Without any criterion the result is empty.
//
// The returned memberships point into ix and must not be modified.
func LookUp(ix *IndexedMemberships, q domain.MemberToLookUp) []*domain.Membership {
	num, last, first := criterion(q.MembershipNum), criterion(q.LastName), criterion(q.FirstName)

	switch {
	case num != nil:
		return filter(ix.ByNumber(*num), func(m *domain.Membership) bool {
			return (last == nil || domain.Normalize(*last) == domain.Normalize(m.LastName)) &&
				(first == nil || domain.Normalize(*first) == domain.Normalize(m.FirstName))
		})
	case last != nil:
		return filter(ix.ByLastName(*last), func(m *domain.Membership) bool {
			return first == nil || domain.Normalize(*first) == domain.Normalize(m.FirstName)
		})
	case first != nil:
		return ix.ByFirstName(*first)
	default:
		return nil
	}
}

// criterion treats blank values as absent.
func criterion(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return s
}

func filter(ms []*domain.Membership, keep func(*domain.Membership) bool) []*domain.Membership {
	out := ms[:0:0]
	for _, m := range ms {
		if keep(m) {
			out = append(out, m)
		}
	}
	return out
}
