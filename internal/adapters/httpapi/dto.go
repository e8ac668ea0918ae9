package httpapi

import (
	"time"

	"github.com/oapi-codegen/nullable"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/federation-tools/membership-checker/internal/app/memberships"
	"github.com/federation-tools/membership-checker/internal/domain"
	"github.com/federation-tools/membership-checker/internal/ports/out/membershiprepo"
)

type Membership struct {
	LastName         string                                `json:"lastName"`
	FirstName        string                                `json:"firstName"`
	Gender           string                                `json:"gender"`
	Birthdate        nullable.Nullable[openapi_types.Date] `json:"birthdate"`
	Age              nullable.Nullable[int]                `json:"age"`
	MembershipNumber string                                `json:"membershipNumber"`
	Email            string                                `json:"email"`
	Payed            bool                                  `json:"payed"`
	EndDate          openapi_types.Date                    `json:"endDate"`
	Expired          bool                                  `json:"expired"`
	Club             string                                `json:"club"`
	StructureCode    string                                `json:"structureCode"`
}

type CheckedMember[T domain.Candidate] struct {
	Member     T                             `json:"member"`
	Result     string                        `json:"result"`
	Status     domain.MembershipStatus       `json:"status"`
	Membership nullable.Nullable[Membership] `json:"membership"`
}

type ImportResponse struct {
	ImportId   string    `json:"importId"`
	Count      int       `json:"count"`
	ImportedAt time.Time `json:"importedAt"`
}

type ParsedMembersResponse struct {
	Members    []domain.CsvMember `json:"members"`
	WrongLines []string           `json:"wrongLines"`
}

func membershipFromDomain(m domain.Membership) Membership {
	return Membership{
		LastName:         m.LastName,
		FirstName:        m.FirstName,
		Gender:           m.Gender,
		Birthdate:        nullableDate(m.Birthdate),
		Age:              nullableInt(m.Age),
		MembershipNumber: m.MembershipNumber,
		Email:            m.Email,
		Payed:            m.Payed,
		EndDate:          openapi_types.Date{Time: m.EndDate.UTC()},
		Expired:          m.Expired,
		Club:             m.Club,
		StructureCode:    m.StructureCode,
	}
}

func membershipsFromDomain(ms []domain.Membership) []Membership {
	out := make([]Membership, 0, len(ms))
	for _, m := range ms {
		out = append(out, membershipFromDomain(m))
	}
	return out
}

func checkedMembersFromApp[T domain.Candidate](cms []memberships.CheckedMember[T]) []CheckedMember[T] {
	out := make([]CheckedMember[T], 0, len(cms))
	for _, cm := range cms {
		dto := CheckedMember[T]{
			Member: cm.Candidate,
			Result: cm.Result.Kind.String(),
			Status: cm.Status,
		}
		if cm.Result.Membership != nil {
			dto.Membership.Set(membershipFromDomain(*cm.Result.Membership))
		} else {
			dto.Membership.SetNull()
		}
		out = append(out, dto)
	}
	return out
}

func importFromApp(imp membershiprepo.Import) ImportResponse {
	return ImportResponse{
		ImportId:   string(imp.ID),
		Count:      imp.Count,
		ImportedAt: imp.ImportedAt.UTC(),
	}
}

func nullableInt(p *int) nullable.Nullable[int] {
	var out nullable.Nullable[int]
	if p != nil {
		out.Set(*p)
	} else {
		out.SetNull()
	}
	return out
}

func nullableDate(p *time.Time) nullable.Nullable[openapi_types.Date] {
	var out nullable.Nullable[openapi_types.Date]
	if p != nil {
		out.Set(openapi_types.Date{Time: p.UTC()})
	} else {
		out.SetNull()
	}
	return out
}
