package domain

import (
	"cmp"
	"time"
)

// Membership is one person's membership with the federation for one period.
// It is read-only once loaded from the federation export.
type Membership struct {
	LastName         string
	FirstName        string
	Gender           string
	Birthdate        *time.Time // date-only semantics
	Age              *int
	MembershipNumber string // may carry leading zeros
	Email            string
	Payed            bool
	EndDate          time.Time // date-only semantics
	Expired          bool
	Club             string
	StructureCode    string
}

// CompareMemberships is the natural ordering of memberships: membership number, last name,
// first name, then end date. Only used to break ties deterministically.
func CompareMemberships(a, b Membership) int {
	if c := cmp.Compare(a.MembershipNumber, b.MembershipNumber); c != 0 {
		return c
	}
	if c := cmp.Compare(a.LastName, b.LastName); c != 0 {
		return c
	}
	if c := cmp.Compare(a.FirstName, b.FirstName); c != 0 {
		return c
	}
	return a.EndDate.Compare(b.EndDate)
}

// Equal reports full field equality. Two memberships that only differ by a field that the
// natural ordering ignores (e.g. email) are not equal.
func (m Membership) Equal(o Membership) bool {
	return m.LastName == o.LastName &&
		m.FirstName == o.FirstName &&
		m.Gender == o.Gender &&
		equalDatePtr(m.Birthdate, o.Birthdate) &&
		equalIntPtr(m.Age, o.Age) &&
		m.MembershipNumber == o.MembershipNumber &&
		m.Email == o.Email &&
		m.Payed == o.Payed &&
		m.EndDate.Equal(o.EndDate) &&
		m.Expired == o.Expired &&
		m.Club == o.Club &&
		m.StructureCode == o.StructureCode
}

// MembershipStatus tells whether a participant's membership is still valid.
type MembershipStatus string

const (
	MembershipStatusUpToDate MembershipStatus = "UP_TO_DATE"
	MembershipStatusExpired  MembershipStatus = "EXPIRED"
	MembershipStatusUnknown  MembershipStatus = "UNKNOWN"
)

// StatusAt computes the status of an optional membership at the given instant.
// The membership stays valid for the whole of its end date.
func StatusAt(m *Membership, now time.Time) MembershipStatus {
	if m == nil {
		return MembershipStatusUnknown
	}
	y, mo, d := now.Date()
	today := time.Date(y, mo, d, 0, 0, 0, 0, time.UTC)
	ey, emo, ed := m.EndDate.Date()
	end := time.Date(ey, emo, ed, 0, 0, 0, 0, time.UTC)
	if today.After(end) {
		return MembershipStatusExpired
	}
	return MembershipStatusUpToDate
}

func equalDatePtr(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

func equalIntPtr(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
