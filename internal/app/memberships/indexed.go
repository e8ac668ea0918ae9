package memberships

import (
	"slices"
	"strconv"

	"github.com/federation-tools/membership-checker/internal/domain"
)

type nameKey struct {
	first  string // normalized leading name of the pair
	second string
}

// IndexedMemberships is an immutable, indexed view over a membership collection.
//
// Memberships are stored once, in natural order and without duplicates; every index maps a
// normalized key to positions in that slice. A value is safe for concurrent readers.
type IndexedMemberships struct {
	memberships []domain.Membership

	byNumber    map[string][]int
	byName      map[nameKey][]int // (last, first) and (first, last)
	byIdentity  map[string][]int  // "lastfirst" and "firstlast"
	byLastName  map[string][]int
	byFirstName map[string][]int
}

// NewIndexedMemberships indexes ms. The whole structure is rebuilt on every call; there is
// no incremental update.
func NewIndexedMemberships(ms []domain.Membership) *IndexedMemberships {
	sorted := slices.Clone(ms)
	slices.SortStableFunc(sorted, domain.CompareMemberships)
	sorted = dedupe(sorted)

	ix := &IndexedMemberships{
		memberships: sorted,
		byNumber:    make(map[string][]int, len(sorted)),
		byName:      make(map[nameKey][]int, 2*len(sorted)),
		byIdentity:  make(map[string][]int, 2*len(sorted)),
		byLastName:  make(map[string][]int, len(sorted)),
		byFirstName: make(map[string][]int, len(sorted)),
	}

	for i, m := range sorted {
		last := domain.Normalize(m.LastName)
		first := domain.Normalize(m.FirstName)

		addString(ix.byNumber, domain.Normalize(m.MembershipNumber), i)
		if n, ok := domain.ParseMembershipNumber(m.MembershipNumber); ok {
			addString(ix.byNumber, strconv.FormatUint(uint64(n), 10), i)
		}

		addName(ix.byName, nameKey{first: last, second: first}, i)
		addName(ix.byName, nameKey{first: first, second: last}, i)

		addString(ix.byIdentity, identityKey(m.LastName, m.FirstName), i)
		addString(ix.byIdentity, identityKey(m.FirstName, m.LastName), i)

		addString(ix.byLastName, last, i)
		addString(ix.byFirstName, first, i)
	}
	return ix
}

// Len returns the number of distinct memberships.
func (ix *IndexedMemberships) Len() int {
	if ix == nil {
		return 0
	}
	return len(ix.memberships)
}

// All returns every membership in natural order.
func (ix *IndexedMemberships) All() []*domain.Membership {
	if ix == nil {
		return nil
	}
	out := make([]*domain.Membership, len(ix.memberships))
	for i := range ix.memberships {
		out[i] = &ix.memberships[i]
	}
	return out
}

// ByNumber returns the memberships whose number equals num once normalized, or whose number
// has the same integer value ("007" and "7" collide).
func (ix *IndexedMemberships) ByNumber(num string) []*domain.Membership {
	if ix == nil {
		return nil
	}
	key := domain.Normalize(num)
	positions := ix.byNumber[key]
	if n, ok := domain.ParseMembershipNumber(num); ok {
		if alt := strconv.FormatUint(uint64(n), 10); alt != key {
			positions = mergePositions(positions, ix.byNumber[alt])
		}
	}
	return ix.resolve(positions)
}

// ByName returns the memberships named (a, b) in either order.
func (ix *IndexedMemberships) ByName(a, b string) []*domain.Membership {
	if ix == nil {
		return nil
	}
	return ix.resolve(ix.byName[nameKey{first: domain.Normalize(a), second: domain.Normalize(b)}])
}

// ByIdentity returns the memberships whose concatenated names, in either order, equal the
// normalized identity.
func (ix *IndexedMemberships) ByIdentity(identity string) []*domain.Membership {
	if ix == nil {
		return nil
	}
	return ix.resolve(ix.byIdentity[domain.Normalize(identity)])
}

func (ix *IndexedMemberships) ByLastName(lastName string) []*domain.Membership {
	if ix == nil {
		return nil
	}
	return ix.resolve(ix.byLastName[domain.Normalize(lastName)])
}

func (ix *IndexedMemberships) ByFirstName(firstName string) []*domain.Membership {
	if ix == nil {
		return nil
	}
	return ix.resolve(ix.byFirstName[domain.Normalize(firstName)])
}

// identityKey is the normalized concatenation of two names, as a free-text identity
// would normalize.
func identityKey(a, b string) string {
	return domain.Normalize(a + b)
}

func (ix *IndexedMemberships) resolve(positions []int) []*domain.Membership {
	if len(positions) == 0 {
		return nil
	}
	out := make([]*domain.Membership, len(positions))
	for i, p := range positions {
		out[i] = &ix.memberships[p]
	}
	return out
}

// addString appends i to the bucket unless it is already its last element; positions are
// visited in increasing order, so buckets stay sorted and duplicate-free.
func addString(m map[string][]int, key string, i int) {
	bucket := m[key]
	if n := len(bucket); n > 0 && bucket[n-1] == i {
		return
	}
	m[key] = append(bucket, i)
}

func addName(m map[nameKey][]int, key nameKey, i int) {
	bucket := m[key]
	if n := len(bucket); n > 0 && bucket[n-1] == i {
		return
	}
	m[key] = append(bucket, i)
}

func mergePositions(a, b []int) []int {
	if len(b) == 0 {
		return a
	}
	if len(a) == 0 {
		return b
	}
	out := make([]int, 0, len(a)+len(b))
	out = append(out, a...)
	out = append(out, b...)
	slices.Sort(out)
	return slices.Compact(out)
}

// dedupe drops memberships fully equal to another one. Equal memberships compare equal in
// natural order, so they are grouped within runs of equal sort keys.
func dedupe(sorted []domain.Membership) []domain.Membership {
	out := sorted[:0]
	for i, m := range sorted {
		dup := false
		for j := len(out) - 1; j >= 0 && domain.CompareMemberships(out[j], m) == 0; j-- {
			if out[j].Equal(m) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, sorted[i])
		}
	}
	return out
}
