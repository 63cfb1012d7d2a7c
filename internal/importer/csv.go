package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"ataa/internal/domain"
	"ataa/internal/infra"
)

// Header columns of the legacy export.
const (
	colCaseID        = "ID"
	colDescription   = "Description"
	colContributor   = "Contributor"
	colContributorID = "ContributorID"
	colAmount        = "Amount"
	colMonth         = "Month"
)

// DefaultAnonymousName is substituted when the reserved unknown-contributor
// bucket appears without a usable name.
const DefaultAnonymousName = "فاعل خير"

// AggregatedContribution is one accepted row attributed to a case.
type AggregatedContribution struct {
	ContributorID int
	Amount        decimal.Decimal
	// Date is zero when the row carried no parseable date; the writer
	// substitutes the import time.
	Date time.Time
}

// CaseAggregate groups the accepted rows of one external case id.
type CaseAggregate struct {
	ExternalID    string
	Title         string
	Category      string
	Total         decimal.Decimal
	Contributions []AggregatedContribution
	// EarliestDate is the earliest valid contribution date, zero if none.
	EarliestDate time.Time
}

// ParseResult is the aggregated output of one CSV pass. Cases preserve
// first-seen order so downstream batch writes stay positionally stable.
type ParseResult struct {
	Cases        []*CaseAggregate
	Contributors map[int]*domain.ContributorRecord
	RowsAccepted int
	RowsSkipped  int
}

var requiredColumns = []string{colCaseID, colDescription, colContributor, colContributorID, colAmount, colMonth}

// Parse reads the legacy CSV export and aggregates it per case and per
// contributor. Malformed rows are logged and dropped; only a missing header
// column is fatal.
func Parse(r io.Reader, logger infra.Logger) (*ParseResult, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(name)] = i
	}
	for _, name := range requiredColumns {
		if _, ok := columns[name]; !ok {
			return nil, fmt.Errorf("%w: %s", domain.ErrMissingColumn, name)
		}
	}

	result := &ParseResult{Contributors: make(map[int]*domain.ContributorRecord)}
	byCase := make(map[string]*CaseAggregate)

	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			logger.Warn().Err(err).Int("line", line).Msg("import: unreadable row skipped")
			result.RowsSkipped++
			continue
		}

		row, reason := acceptRow(record, columns)
		if reason != "" {
			logger.Warn().Int("line", line).Str("reason", reason).Msg("import: row rejected")
			result.RowsSkipped++
			continue
		}

		agg, ok := byCase[row.caseID]
		if !ok {
			agg = &CaseAggregate{
				ExternalID: row.caseID,
				Title:      row.title,
				Category:   deriveCategory(row.title),
				Total:      decimal.Zero,
			}
			byCase[row.caseID] = agg
			result.Cases = append(result.Cases, agg)
		}
		agg.Total = agg.Total.Add(row.amount)
		agg.Contributions = append(agg.Contributions, AggregatedContribution{
			ContributorID: row.contributorID,
			Amount:        row.amount,
			Date:          row.date,
		})
		if !row.date.IsZero() && (agg.EarliestDate.IsZero() || row.date.Before(agg.EarliestDate)) {
			agg.EarliestDate = row.date
		}

		contributor, ok := result.Contributors[row.contributorID]
		if !ok {
			result.Contributors[row.contributorID] = &domain.ContributorRecord{
				ExternalID: row.contributorID,
				Name:       row.name,
			}
		} else if len(row.name) > len(contributor.Name) {
			contributor.Name = row.name
		}
		result.RowsAccepted++
	}

	return result, nil
}

type parsedRow struct {
	caseID        string
	title         string
	name          string
	contributorID int
	amount        decimal.Decimal
	date          time.Time
}

// acceptRow applies the per-row acceptance rules and returns a non-empty
// rejection reason when the row must be dropped.
func acceptRow(record []string, columns map[string]int) (parsedRow, string) {
	field := func(name string) string {
		idx := columns[name]
		if idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	var row parsedRow
	row.caseID = field(colCaseID)
	if row.caseID == "" {
		return row, "empty case id"
	}

	rawID := field(colContributorID)
	id, err := strconv.Atoi(rawID)
	if err != nil || id < 0 {
		return row, fmt.Sprintf("invalid contributor id %q", rawID)
	}
	row.contributorID = id

	amount, err := parseAmount(field(colAmount))
	if err != nil {
		return row, fmt.Sprintf("invalid amount %q", field(colAmount))
	}
	row.amount = amount

	row.name = field(colContributor)
	if isPlaceholderName(row.name) {
		if id != domain.AnonymousContributorID {
			return row, "missing contributor name"
		}
		row.name = DefaultAnonymousName
	}

	row.title = field(colDescription)
	row.date = parseDate(field(colMonth))
	return row, ""
}

// parseAmount strips thousands separators and stray quoting before parsing,
// and requires a positive value.
func parseAmount(raw string) (decimal.Decimal, error) {
	cleaned := strings.NewReplacer(",", "", `"`, "", "'", "", " ", "").Replace(raw)
	if cleaned == "" {
		return decimal.Zero, fmt.Errorf("empty amount")
	}
	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, err
	}
	if !amount.IsPositive() {
		return decimal.Zero, fmt.Errorf("amount must be positive")
	}
	return amount, nil
}

// parseDate parses DD/MM/YYYY and accepts the result only when reconstructing
// the date reads back the same day, month and year. This rejects normalized
// impossibilities such as 31 April. A zero time means no usable date.
func parseDate(raw string) time.Time {
	parts := strings.Split(raw, "/")
	if len(parts) != 3 {
		return time.Time{}
	}
	day, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
	month, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
	year, err3 := strconv.Atoi(strings.TrimSpace(parts[2]))
	if err1 != nil || err2 != nil || err3 != nil {
		return time.Time{}
	}
	date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if date.Day() != day || date.Month() != time.Month(month) || date.Year() != year {
		return time.Time{}
	}
	return date
}

var placeholderNames = map[string]struct{}{
	"":          {},
	"-":         {},
	".":         {},
	"unknown":   {},
	"غير معروف": {},
}

func isPlaceholderName(name string) bool {
	_, ok := placeholderNames[strings.ToLower(strings.TrimSpace(name))]
	return ok
}

// deriveCategory buckets a case by keywords in its Arabic title.
func deriveCategory(title string) string {
	switch {
	case containsAny(title, "علاج", "مريض", "عملية"):
		return "medical"
	case containsAny(title, "تعليم", "طالب", "مدرسة"):
		return "education"
	case containsAny(title, "دين", "سداد"):
		return "debt"
	default:
		return "general"
	}
}

func containsAny(s string, substrings ...string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
