package domain

import (
	"cmp"
	"strings"
)

// Candidate is a participant whose membership has to be checked.
//
// Every accessor is optional: nil means the source did not provide the value.
// Participants imported from a CSV file and participants retrieved from the registration
// platform populate different subsets.
type Candidate interface {
	ID() *int
	MembershipNum() *string
	Identity() *string
	FirstName() *string
	LastName() *string
	Email() *string
	Club() *string
	Confirmed() *bool
}

// CsvMember is a participant imported from a CSV file: a membership number and either
// last name + first name, or a free-text identity ("first last" or "last first").
type CsvMember struct {
	MembershipNumber string  `json:"membershipNum" validate:"required"`
	Name             *string `json:"name,omitempty"`
	Firstname        *string `json:"firstname,omitempty"`
	IdentityText     *string `json:"identity,omitempty"`
}

// NewCsvMember builds a CsvMember from its structured names.
func NewCsvMember(membershipNum, lastName, firstName string) CsvMember {
	return CsvMember{
		MembershipNumber: membershipNum,
		Name:             &lastName,
		Firstname:        &firstName,
	}
}

// NewCsvMemberWithIdentity builds a CsvMember from a free-text identity.
func NewCsvMemberWithIdentity(membershipNum, identity string) CsvMember {
	return CsvMember{
		MembershipNumber: membershipNum,
		IdentityText:     &identity,
	}
}

func (m CsvMember) ID() *int { return nil }

func (m CsvMember) MembershipNum() *string {
	v := m.MembershipNumber
	return &v
}

func (m CsvMember) Identity() *string  { return cloneString(m.IdentityText) }
func (m CsvMember) FirstName() *string { return cloneString(m.Firstname) }
func (m CsvMember) LastName() *string  { return cloneString(m.Name) }
func (m CsvMember) Email() *string     { return nil }
func (m CsvMember) Club() *string      { return nil }
func (m CsvMember) Confirmed() *bool   { return nil }

// UdaMember is a participant retrieved from the convention-registration platform.
type UdaMember struct {
	PlatformID       int     `json:"id"`
	MembershipNumber *string `json:"membershipNumber,omitempty"`
	First            string  `json:"firstName"`
	Last             string  `json:"lastName"`
	EmailAddress     string  `json:"email"`
	ClubName         *string `json:"club,omitempty"`
	IsConfirmed      bool    `json:"confirmed"`
}

func (m UdaMember) ID() *int {
	v := m.PlatformID
	return &v
}

func (m UdaMember) MembershipNum() *string { return cloneString(m.MembershipNumber) }
func (m UdaMember) Identity() *string      { return nil }

func (m UdaMember) FirstName() *string {
	v := m.First
	return &v
}

func (m UdaMember) LastName() *string {
	v := m.Last
	return &v
}

func (m UdaMember) Email() *string {
	v := m.EmailAddress
	return &v
}

func (m UdaMember) Club() *string { return cloneString(m.ClubName) }

func (m UdaMember) Confirmed() *bool {
	v := m.IsConfirmed
	return &v
}

// CompareCandidates orders candidates by last name, first name, then membership number.
// Absent values sort first.
func CompareCandidates(a, b Candidate) int {
	if c := compareOpt(a.LastName(), b.LastName()); c != 0 {
		return c
	}
	if c := compareOpt(a.FirstName(), b.FirstName()); c != 0 {
		return c
	}
	if c := compareOpt(a.MembershipNum(), b.MembershipNum()); c != 0 {
		return c
	}
	return compareOpt(a.Identity(), b.Identity())
}

// MemberToLookUp holds the criteria of a manual search. Each criterion is optional.
type MemberToLookUp struct {
	MembershipNum *string `json:"membershipNum,omitempty"`
	LastName      *string `json:"lastName,omitempty"`
	FirstName     *string `json:"firstName,omitempty"`
}

// IsEmpty reports whether no usable criterion was given.
func (l MemberToLookUp) IsEmpty() bool {
	return isBlank(l.MembershipNum) && isBlank(l.LastName) && isBlank(l.FirstName)
}

func isBlank(s *string) bool {
	return s == nil || strings.TrimSpace(*s) == ""
}

func compareOpt(a, b *string) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	return cmp.Compare(*a, *b)
}

func cloneString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
