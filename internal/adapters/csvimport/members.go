package csvimport

import (
	"encoding/csv"
	"errors"
	"io"
	"slices"
	"strings"

	"github.com/federation-tools/membership-checker/internal/domain"
)

// ParseCsvMembers reads participants to check, one per line, without header:
//
//	membership_num;name;firstname
//	membership_num;identity
//
// Lines with another number of columns are returned verbatim in wrongLines and left out of
// the members. Members are de-duplicated and sorted by name, first name and number.
func ParseCsvMembers(s string) (members []domain.CsvMember, wrongLines []string) {
	reader := csv.NewReader(strings.NewReader(s))
	reader.Comma = ';'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				wrongLines = append(wrongLines, lineAt(s, pe.StartLine))
				continue
			}
			break
		}
		switch len(record) {
		case 3:
			members = append(members, domain.NewCsvMember(record[0], record[1], record[2]))
		case 2:
			members = append(members, domain.NewCsvMemberWithIdentity(record[0], record[1]))
		default:
			wrongLines = append(wrongLines, strings.Join(record, ";"))
		}
	}

	slices.SortFunc(members, func(a, b domain.CsvMember) int {
		return domain.CompareCandidates(a, b)
	})
	members = slices.CompactFunc(members, func(a, b domain.CsvMember) bool {
		return domain.CompareCandidates(a, b) == 0
	})
	return members, wrongLines
}

func lineAt(s string, n int) string {
	lines := strings.Split(s, "\n")
	if n < 1 || n > len(lines) {
		return ""
	}
	return strings.TrimRight(lines[n-1], "\r")
}
