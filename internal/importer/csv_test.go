package importer

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"ataa/internal/domain"
)

const csvHeader = "ID,Description,Contributor,ContributorID,Amount,Month\n"

func parseString(t *testing.T, body string) *ParseResult {
	t.Helper()
	result, err := Parse(strings.NewReader(body), zerolog.Nop())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return result
}

func TestParseMissingColumnIsFatal(t *testing.T) {
	_, err := Parse(strings.NewReader("ID,Description,Contributor,Amount,Month\n"), zerolog.Nop())
	if !errors.Is(err, domain.ErrMissingColumn) {
		t.Fatalf("expected missing column error, got %v", err)
	}
}

func TestParseAggregatesCaseAndContributor(t *testing.T) {
	body := csvHeader +
		`1,حالة علاج مريض,Ali,5,"1,000",01/03/2023` + "\n" +
		`1,حالة علاج مريض,Ali K.,5,500,02/03/2023` + "\n"
	result := parseString(t, body)

	if len(result.Cases) != 1 {
		t.Fatalf("expected 1 case, got %d", len(result.Cases))
	}
	agg := result.Cases[0]
	if !agg.Total.Equal(decimal.NewFromInt(1500)) {
		t.Fatalf("expected total 1500, got %s", agg.Total)
	}
	if len(agg.Contributions) != 2 {
		t.Fatalf("expected 2 contributions, got %d", len(agg.Contributions))
	}
	if agg.Category != "medical" {
		t.Fatalf("expected medical category, got %q", agg.Category)
	}
	wantEarliest := time.Date(2023, time.March, 1, 0, 0, 0, 0, time.UTC)
	if !agg.EarliestDate.Equal(wantEarliest) {
		t.Fatalf("expected earliest %s, got %s", wantEarliest, agg.EarliestDate)
	}

	if len(result.Contributors) != 1 {
		t.Fatalf("expected 1 contributor, got %d", len(result.Contributors))
	}
	contributor := result.Contributors[5]
	if contributor == nil || contributor.Name != "Ali K." {
		t.Fatalf("expected longest name variant to win, got %+v", contributor)
	}
}

func TestParseRowRejections(t *testing.T) {
	cases := []struct {
		name string
		row  string
	}{
		{"empty case id", `,title,Ali,5,100,01/01/2023`},
		{"negative contributor id", `1,title,Ali,-2,100,01/01/2023`},
		{"non-numeric contributor id", `1,title,Ali,abc,100,01/01/2023`},
		{"zero amount", `1,title,Ali,5,0,01/01/2023`},
		{"negative amount", `1,title,Ali,5,-50,01/01/2023`},
		{"garbage amount", `1,title,Ali,5,free,01/01/2023`},
		{"missing name", `1,title,,5,100,01/01/2023`},
		{"placeholder name", `1,title,غير معروف,5,100,01/01/2023`},
	}
	for _, tc := range cases {
		result := parseString(t, csvHeader+tc.row+"\n")
		if result.RowsAccepted != 0 || result.RowsSkipped != 1 {
			t.Fatalf("%s: expected rejection, got accepted=%d skipped=%d", tc.name, result.RowsAccepted, result.RowsSkipped)
		}
	}
}

func TestParseAnonymousBucketAlwaysAccepted(t *testing.T) {
	body := csvHeader + `1,title,,100,250,01/01/2023` + "\n"
	result := parseString(t, body)
	if result.RowsAccepted != 1 {
		t.Fatalf("expected the anonymous row to be accepted, skipped=%d", result.RowsSkipped)
	}
	contributor := result.Contributors[domain.AnonymousContributorID]
	if contributor == nil || contributor.Name != DefaultAnonymousName {
		t.Fatalf("expected default anonymous name, got %+v", contributor)
	}
}

func TestParseQuotedFieldsWithEmbeddedSeparators(t *testing.T) {
	body := csvHeader + `7,"حالة سداد دين, عائلة محتاجة","Omar, Abu Ali",9,"2,500",15/06/2022` + "\n"
	result := parseString(t, body)
	if result.RowsAccepted != 1 {
		t.Fatalf("expected quoted row to be accepted, skipped=%d", result.RowsSkipped)
	}
	agg := result.Cases[0]
	if agg.Title != "حالة سداد دين, عائلة محتاجة" {
		t.Fatalf("unexpected title %q", agg.Title)
	}
	if !agg.Total.Equal(decimal.NewFromInt(2500)) {
		t.Fatalf("expected total 2500, got %s", agg.Total)
	}
	if result.Contributors[9].Name != "Omar, Abu Ali" {
		t.Fatalf("unexpected contributor name %q", result.Contributors[9].Name)
	}
}

func TestParseDate(t *testing.T) {
	cases := []struct {
		raw  string
		want time.Time
	}{
		{"29/02/2024", time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC)},
		{"31/04/2023", time.Time{}},
		{"29/02/2023", time.Time{}},
		{"01/13/2023", time.Time{}},
		{"2023-01-01", time.Time{}},
		{"", time.Time{}},
		{"15/06/2022", time.Date(2022, time.June, 15, 0, 0, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		got := parseDate(tc.raw)
		if !got.Equal(tc.want) {
			t.Fatalf("parseDate(%q): got %v, want %v", tc.raw, got, tc.want)
		}
	}
}

func TestParseAmountStripsSeparators(t *testing.T) {
	cases := []struct {
		raw  string
		want int64
	}{
		{"1,000", 1000},
		{`"2,500"`, 2500},
		{"500", 500},
		{"1,250,000", 1250000},
	}
	for _, tc := range cases {
		got, err := parseAmount(tc.raw)
		if err != nil {
			t.Fatalf("parseAmount(%q): %v", tc.raw, err)
		}
		if !got.Equal(decimal.NewFromInt(tc.want)) {
			t.Fatalf("parseAmount(%q): got %s, want %d", tc.raw, got, tc.want)
		}
	}
}

func TestParseRowWithoutDateStillAccepted(t *testing.T) {
	body := csvHeader + `3,title,Sara,8,120,31/04/2023` + "\n"
	result := parseString(t, body)
	if result.RowsAccepted != 1 {
		t.Fatal("expected row with invalid date to be accepted")
	}
	agg := result.Cases[0]
	if !agg.EarliestDate.IsZero() {
		t.Fatalf("expected no earliest date, got %v", agg.EarliestDate)
	}
	if !agg.Contributions[0].Date.IsZero() {
		t.Fatalf("expected zero contribution date, got %v", agg.Contributions[0].Date)
	}
}
