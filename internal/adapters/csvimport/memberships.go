package csvimport

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/federation-tools/membership-checker/internal/domain"
)

const dateLayout = "02-01-2006"

var (
	// ErrEmptyFile indicates the export has no header row.
	ErrEmptyFile = errors.New("membership file is empty")
	// ErrMissingColumn indicates a required column is absent from the header row.
	ErrMissingColumn = errors.New("missing required column")
)

// RowError reports a malformed membership row. Line is the 1-based physical line of the
// offending field, or of the start of the record when no single field is at fault.
type RowError struct {
	Line   int
	Column string
	Err    error
}

func (e *RowError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("line %d, column %q: %v", e.Line, e.Column, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

type column int

const (
	colLastName column = iota
	colFirstName
	colGender
	colBirthdate
	colAge
	colNumber
	colEmail
	colPayed
	colEndDate
	colExpired
	colClub
	colStructureCode
	columnCount
)

// headers holds the export's column titles, in column order.
var headers = [columnCount]string{
	colLastName:      "Nom d'usage",
	colFirstName:     "Prénom",
	colGender:        "Sexe",
	colBirthdate:     "Date de Naissance",
	colAge:           "Age",
	colNumber:        "Numéro d'adhérent",
	colEmail:         "Email",
	colPayed:         "Réglé",
	colEndDate:       "Date Fin d'adhésion",
	colExpired:       "Adherent expiré",
	colClub:          "Nom de structure",
	colStructureCode: "Code de structure",
}

var required = []column{colLastName, colFirstName, colNumber, colEndDate}

// ParseMemberships reads a federation membership export: ';'-delimited, with a header row,
// dd-mm-yyyy dates and Oui/Non flags. Exports that are not valid UTF-8 are read as
// Windows-1252. Columns are located by title; any malformed row rejects the whole file.
func ParseMemberships(r io.Reader) ([]domain.Membership, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read membership file: %w", err)
	}
	raw, err = toUTF8(raw)
	if err != nil {
		return nil, fmt.Errorf("decode membership file: %w", err)
	}

	reader := csv.NewReader(bytes.NewReader(raw))
	reader.Comma = ';'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyFile
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	positions, err := locateColumns(header)
	if err != nil {
		return nil, err
	}

	var out []domain.Membership
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				return nil, &RowError{Line: pe.Line, Err: pe.Err}
			}
			return nil, fmt.Errorf("read membership file: %w", err)
		}
		if isBlankRecord(record) {
			continue
		}
		m, err := parseMembership(record, positions)
		if err != nil {
			var re *RowError
			if !errors.As(err, &re) {
				re = &RowError{Err: err}
			}
			re.Line = fieldLine(reader, positions, re.Column)
			return nil, re
		}
		out = append(out, m)
	}
	return out, nil
}

// fieldLine returns the line the named column of the last record read starts on; quoted
// fields may span lines, so this differs from the record count.
func fieldLine(reader *csv.Reader, positions [columnCount]int, title string) int {
	field := 0
	for c, h := range headers {
		if h == title && positions[c] >= 0 {
			field = positions[c]
			break
		}
	}
	line, _ := reader.FieldPos(field)
	return line
}

func toUTF8(raw []byte) ([]byte, error) {
	raw = bytes.TrimPrefix(raw, []byte("\xef\xbb\xbf"))
	if utf8.Valid(raw) {
		return raw, nil
	}
	return charmap.Windows1252.NewDecoder().Bytes(raw)
}

func locateColumns(header []string) ([columnCount]int, error) {
	var positions [columnCount]int
	for i := range positions {
		positions[i] = -1
	}
	for i, title := range header {
		key := domain.Normalize(title)
		for c, want := range headers {
			if positions[c] == -1 && key == domain.Normalize(want) {
				positions[c] = i
				break
			}
		}
	}
	for _, c := range required {
		if positions[c] == -1 {
			return positions, fmt.Errorf("%w: %q", ErrMissingColumn, headers[c])
		}
	}
	return positions, nil
}

func parseMembership(record []string, positions [columnCount]int) (domain.Membership, error) {
	get := func(c column) string {
		p := positions[c]
		if p < 0 || p >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[p])
	}

	m := domain.Membership{
		LastName:         get(colLastName),
		FirstName:        get(colFirstName),
		Gender:           get(colGender),
		MembershipNumber: get(colNumber),
		Email:            get(colEmail),
		Club:             get(colClub),
		StructureCode:    get(colStructureCode),
	}
	if m.MembershipNumber == "" {
		return domain.Membership{}, &RowError{Column: headers[colNumber], Err: errors.New("must be non-empty")}
	}

	end, err := time.Parse(dateLayout, get(colEndDate))
	if err != nil {
		return domain.Membership{}, &RowError{Column: headers[colEndDate], Err: err}
	}
	m.EndDate = end

	if v := get(colBirthdate); v != "" {
		bd, err := time.Parse(dateLayout, v)
		if err != nil {
			return domain.Membership{}, &RowError{Column: headers[colBirthdate], Err: err}
		}
		m.Birthdate = &bd
	}
	if v := get(colAge); v != "" {
		age, err := strconv.Atoi(v)
		if err != nil || age < 0 {
			return domain.Membership{}, &RowError{Column: headers[colAge], Err: fmt.Errorf("invalid age %q", v)}
		}
		m.Age = &age
	}
	if m.Payed, err = parseFlag(get(colPayed)); err != nil {
		return domain.Membership{}, &RowError{Column: headers[colPayed], Err: err}
	}
	if m.Expired, err = parseFlag(get(colExpired)); err != nil {
		return domain.Membership{}, &RowError{Column: headers[colExpired], Err: err}
	}
	return m, nil
}

// parseFlag reads an Oui/Non flag; an absent column reads as false.
func parseFlag(v string) (bool, error) {
	switch v {
	case "Oui":
		return true, nil
	case "Non", "":
		return false, nil
	default:
		return false, fmt.Errorf("unknown flag %q, want Oui or Non", v)
	}
}

func isBlankRecord(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
