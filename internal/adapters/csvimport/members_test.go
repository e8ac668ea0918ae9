package csvimport

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/federation-tools/membership-checker/internal/domain"
)

func TestParseCsvMembers(t *testing.T) {
	t.Parallel()

	in := "123456;Doe;Jon\n" +
		"789012;Snow Jonette\n" +
		"1;2;3;4\n" +
		"lonely\n" +
		"123456;Doe;Jon\n" +
		"654321;Doe;Jane\r\n"

	members, wrongLines := ParseCsvMembers(in)

	assert.Equal(t, []domain.CsvMember{
		domain.NewCsvMemberWithIdentity("789012", "Snow Jonette"),
		domain.NewCsvMember("654321", "Doe", "Jane"),
		domain.NewCsvMember("123456", "Doe", "Jon"),
	}, members)
	assert.Equal(t, []string{"1;2;3;4", "lonely"}, wrongLines)
}

func TestParseCsvMembers_Empty(t *testing.T) {
	t.Parallel()

	members, wrongLines := ParseCsvMembers("")
	assert.Empty(t, members)
	assert.Empty(t, wrongLines)
}

func TestParseCsvMembers_KeepsRawValues(t *testing.T) {
	t.Parallel()

	members, _ := ParseCsvMembers("0042; Le Goff ;Anne-Marie\n")
	assert.Equal(t, []domain.CsvMember{domain.NewCsvMember("0042", " Le Goff ", "Anne-Marie")}, members)
}
