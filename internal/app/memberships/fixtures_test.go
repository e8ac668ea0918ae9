package memberships

import (
	"time"

	"github.com/federation-tools/membership-checker/internal/domain"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ptr[T any](v T) *T { return &v }

func jonDoe() domain.Membership {
	return domain.Membership{
		LastName:         "Doe",
		FirstName:        "Jon",
		Gender:           "H",
		Birthdate:        ptr(date(1980, time.February, 1)),
		Age:              ptr(44),
		MembershipNumber: "123456",
		Email:            "jon.doe@address.com",
		Payed:            true,
		EndDate:          date(2025, time.September, 30),
		Club:             "My club",
		StructureCode:    "Z01234",
	}
}

func janeDoe() domain.Membership {
	return domain.Membership{
		LastName:         "Doe",
		FirstName:        "Jane",
		Gender:           "F",
		MembershipNumber: "654321",
		Email:            "jane.doe@address.com",
		Payed:            true,
		EndDate:          date(2025, time.September, 30),
		Club:             "My club",
		StructureCode:    "Z01234",
	}
}

func jonetteSnow() domain.Membership {
	return domain.Membership{
		LastName:         "Snow",
		FirstName:        "Jonette",
		Gender:           "F",
		MembershipNumber: "0789012",
		Email:            "jonette.snow@address.com",
		EndDate:          date(2024, time.September, 30),
		Expired:          true,
		Club:             "Other club",
		StructureCode:    "Z05678",
	}
}

func renewed(m domain.Membership, end time.Time) domain.Membership {
	m.EndDate = end
	return m
}
