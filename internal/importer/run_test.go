package importer

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"ataa/internal/domain"
	"ataa/internal/identity"
)

type fakeCaseRepo struct {
	upserted    []*domain.Case
	seeded      map[string]decimal.Decimal
	upsertErr   error
	currentByID map[string]decimal.Decimal
}

func newFakeCaseRepo() *fakeCaseRepo {
	return &fakeCaseRepo{seeded: make(map[string]decimal.Decimal), currentByID: make(map[string]decimal.Decimal)}
}

func (r *fakeCaseRepo) UpsertBatch(_ context.Context, cases []*domain.Case) ([]string, error) {
	if r.upsertErr != nil {
		return nil, r.upsertErr
	}
	ids := make([]string, 0, len(cases))
	for _, c := range cases {
		r.upserted = append(r.upserted, c)
		ids = append(ids, "case-"+c.ExternalID)
	}
	return ids, nil
}

func (r *fakeCaseRepo) GetByID(context.Context, string) (*domain.Case, error) {
	return nil, domain.ErrNotFound
}

func (r *fakeCaseRepo) List(context.Context, int) ([]domain.Case, error) { return nil, nil }

func (r *fakeCaseRepo) GetCurrentAmount(_ context.Context, id string) (decimal.Decimal, error) {
	return r.currentByID[id], nil
}

func (r *fakeCaseRepo) SetCurrentAmount(_ context.Context, id string, amount decimal.Decimal) error {
	r.seeded[id] = amount
	r.currentByID[id] = amount
	return nil
}

func (r *fakeCaseRepo) RecomputeFundedAmounts(context.Context) (int64, error) { return 0, nil }

type fakeContributionRepo struct {
	batches      [][]*domain.Contribution
	failBatches  map[int]bool
	countByCase  map[string]int64
	batchCounter int
}

func newFakeContributionRepo() *fakeContributionRepo {
	return &fakeContributionRepo{failBatches: make(map[int]bool), countByCase: make(map[string]int64)}
}

func (r *fakeContributionRepo) CreateBatch(_ context.Context, contributions []*domain.Contribution) error {
	r.batchCounter++
	if r.failBatches[r.batchCounter] {
		return fmt.Errorf("batch %d failed", r.batchCounter)
	}
	r.batches = append(r.batches, contributions)
	return nil
}

func (r *fakeContributionRepo) GetByID(context.Context, string) (*domain.Contribution, error) {
	return nil, domain.ErrNotFound
}

func (r *fakeContributionRepo) UpdateStatus(context.Context, string, domain.ContributionStatus) error {
	return nil
}

func (r *fakeContributionRepo) CountByCase(_ context.Context, caseID string) (int64, error) {
	return r.countByCase[caseID], nil
}

type stubDirectory struct {
	accounts []identity.Account
	nextRef  int
	failFor  map[string]error
}

func (d *stubDirectory) ListAccounts(_ context.Context, page, perPage int) ([]identity.Account, error) {
	start := (page - 1) * perPage
	if start >= len(d.accounts) {
		return nil, nil
	}
	end := start + perPage
	if end > len(d.accounts) {
		end = len(d.accounts)
	}
	return d.accounts[start:end], nil
}

func (d *stubDirectory) CreateAccount(_ context.Context, account identity.Account) (identity.Account, error) {
	if err := d.failFor[account.Email]; err != nil {
		return identity.Account{}, err
	}
	d.nextRef++
	account.Ref = fmt.Sprintf("id-%d", d.nextRef)
	d.accounts = append(d.accounts, account)
	return account, nil
}

func (d *stubDirectory) DeleteAccount(_ context.Context, ref string) error {
	for i, account := range d.accounts {
		if account.Ref == ref {
			d.accounts = append(d.accounts[:i], d.accounts[i+1:]...)
			break
		}
	}
	return nil
}

type stubProfiles struct{}

func (stubProfiles) GetByContributor(context.Context, int) (*domain.IdentityProfile, error) {
	return nil, domain.ErrNotFound
}

func (stubProfiles) Ensure(context.Context, *domain.IdentityProfile) error { return nil }

func newTestRunner(dir identity.Directory, cases *fakeCaseRepo, contributions *fakeContributionRepo) *Runner {
	provisioner := identity.NewProvisioner(identity.Options{
		Directory:  dir,
		Profiles:   stubProfiles{},
		Domain:     "test.local",
		MaxRetries: 1,
		BaseDelay:  time.Millisecond,
	})
	return &Runner{
		Cases:         cases,
		Contributions: contributions,
		Directory:     dir,
		Provisioner:   provisioner,
		PageSize:      1000,
		Logger:        zerolog.Nop(),
		Now:           func() time.Time { return time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC) },
	}
}

func buildCSV(rows int) string {
	var b strings.Builder
	b.WriteString(csvHeader)
	for i := 0; i < rows; i++ {
		fmt.Fprintf(&b, "1,case title,Donor %d,%d,10,01/01/2023\n", i%5+1, i%5+1)
	}
	return b.String()
}

func TestRunSplitsContributionsIntoBatches(t *testing.T) {
	dir := &stubDirectory{failFor: map[string]error{}}
	cases := newFakeCaseRepo()
	contributions := newFakeContributionRepo()
	runner := newTestRunner(dir, cases, contributions)

	summary, err := runner.Run(context.Background(), strings.NewReader(buildCSV(250)))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(contributions.batches) != 3 {
		t.Fatalf("expected 3 batches, got %d", len(contributions.batches))
	}
	sizes := []int{len(contributions.batches[0]), len(contributions.batches[1]), len(contributions.batches[2])}
	if sizes[0] != 100 || sizes[1] != 100 || sizes[2] != 50 {
		t.Fatalf("expected batch sizes 100/100/50, got %v", sizes)
	}
	if summary.ContributionsWritten != 250 {
		t.Fatalf("expected 250 written, got %d", summary.ContributionsWritten)
	}
}

func TestRunFailedBatchDoesNotStopLaterBatches(t *testing.T) {
	dir := &stubDirectory{failFor: map[string]error{}}
	cases := newFakeCaseRepo()
	contributions := newFakeContributionRepo()
	contributions.failBatches[2] = true
	runner := newTestRunner(dir, cases, contributions)

	summary, err := runner.Run(context.Background(), strings.NewReader(buildCSV(250)))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(contributions.batches) != 2 {
		t.Fatalf("expected batches 1 and 3 to land, got %d", len(contributions.batches))
	}
	if summary.ContributionsWritten != 150 {
		t.Fatalf("expected 150 written, got %d", summary.ContributionsWritten)
	}
	if summary.ContributionsFailed != 100 {
		t.Fatalf("expected 100 failed, got %d", summary.ContributionsFailed)
	}
}

func TestRunSkipsContributionsOfFailedContributor(t *testing.T) {
	dir := &stubDirectory{failFor: map[string]error{
		identity.LookupKey(2, "test.local"): &identity.ProviderError{Status: 400, Message: "rejected"},
	}}
	cases := newFakeCaseRepo()
	contributions := newFakeContributionRepo()
	runner := newTestRunner(dir, cases, contributions)

	body := csvHeader +
		"1,case title,Ali,1,100,01/01/2023\n" +
		"1,case title,Omar,2,200,01/01/2023\n"
	summary, err := runner.Run(context.Background(), strings.NewReader(body))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.ContributionsWritten != 1 {
		t.Fatalf("expected 1 written, got %d", summary.ContributionsWritten)
	}
	if summary.ContributionsSkipped != 1 {
		t.Fatalf("expected 1 skipped, got %d", summary.ContributionsSkipped)
	}
	if len(summary.IdentityFailures) != 1 || summary.IdentityFailures[0].ContributorID != 2 {
		t.Fatalf("expected failure for contributor 2, got %v", summary.IdentityFailures)
	}
}

func TestRunSeedsFundedAmountWithAggregateTotal(t *testing.T) {
	dir := &stubDirectory{failFor: map[string]error{}}
	cases := newFakeCaseRepo()
	contributions := newFakeContributionRepo()
	runner := newTestRunner(dir, cases, contributions)

	body := csvHeader +
		`1,case title,Ali,1,"1,000",01/03/2023` + "\n" +
		"1,case title,Ali K.,1,500,02/03/2023\n"
	if _, err := runner.Run(context.Background(), strings.NewReader(body)); err != nil {
		t.Fatalf("run: %v", err)
	}
	seeded, ok := cases.seeded["case-1"]
	if !ok {
		t.Fatal("expected funded amount to be seeded")
	}
	if !seeded.Equal(decimal.NewFromInt(1500)) {
		t.Fatalf("expected seed 1500, got %s", seeded)
	}
}

func TestRunSkipsAlreadyImportedCase(t *testing.T) {
	dir := &stubDirectory{failFor: map[string]error{}}
	cases := newFakeCaseRepo()
	contributions := newFakeContributionRepo()
	contributions.countByCase["case-1"] = 2
	runner := newTestRunner(dir, cases, contributions)

	summary, err := runner.Run(context.Background(), strings.NewReader(buildCSV(10)))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.CasesAlreadyImported != 1 {
		t.Fatalf("expected case to be skipped on re-run, got %+v", summary)
	}
	if summary.ContributionsWritten != 0 {
		t.Fatalf("expected no contributions written, got %d", summary.ContributionsWritten)
	}
}

func TestRunDryRunWritesNothing(t *testing.T) {
	dir := &stubDirectory{failFor: map[string]error{}}
	cases := newFakeCaseRepo()
	contributions := newFakeContributionRepo()
	runner := newTestRunner(dir, cases, contributions)
	runner.DryRun = true

	summary, err := runner.Run(context.Background(), strings.NewReader(buildCSV(10)))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !summary.DryRun {
		t.Fatal("expected dry-run summary")
	}
	if len(cases.upserted) != 0 || len(contributions.batches) != 0 || len(dir.accounts) != 0 {
		t.Fatal("expected no writes during dry run")
	}
	if summary.RowsAccepted != 10 {
		t.Fatalf("expected 10 rows accepted, got %d", summary.RowsAccepted)
	}
}

func TestRunFillsMissingContributionDateWithNow(t *testing.T) {
	dir := &stubDirectory{failFor: map[string]error{}}
	cases := newFakeCaseRepo()
	contributions := newFakeContributionRepo()
	runner := newTestRunner(dir, cases, contributions)

	body := csvHeader + "1,case title,Ali,1,100,31/04/2023\n"
	if _, err := runner.Run(context.Background(), strings.NewReader(body)); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(contributions.batches) != 1 || len(contributions.batches[0]) != 1 {
		t.Fatal("expected one contribution")
	}
	got := contributions.batches[0][0].ContributedAt
	want := time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("expected contribution date %s, got %s", want, got)
	}
}
