package importer

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"ataa/internal/domain"
	"ataa/internal/identity"
	"ataa/internal/infra"
)

// contributionBatchSize is the fixed chunk size for bulk contribution inserts.
const contributionBatchSize = 100

// ContributorFailure records one contributor whose provisioning did not
// survive the retry budget.
type ContributorFailure struct {
	ContributorID int
	Reason        string
}

// Summary is the user-visible outcome of one import run.
type Summary struct {
	RowsAccepted         int
	RowsSkipped          int
	CasesTotal           int
	CasesWritten         int
	CasesAlreadyImported int
	IdentitiesResolved   int
	IdentityFailures     []ContributorFailure
	ContributionsWritten int
	ContributionsSkipped int
	ContributionsFailed  int
	DryRun               bool
}

// Runner orchestrates the historical import pipeline: parse, provision,
// persist, seed funded amounts.
type Runner struct {
	Cases         domain.CaseRepository
	Contributions domain.ContributionRepository
	Directory     identity.Directory
	Provisioner   *identity.Provisioner
	PageSize      int
	DryRun        bool
	Logger        infra.Logger
	Now           func() time.Time
}

// Run executes the pipeline against one CSV stream. Row- and
// contributor-level failures are collected into the summary; only a broken
// header, an unreachable directory or an unreachable database abort the run.
func (r *Runner) Run(ctx context.Context, csvStream io.Reader) (*Summary, error) {
	now := r.Now
	if now == nil {
		now = time.Now
	}

	parsed, err := Parse(csvStream, r.Logger)
	if err != nil {
		return nil, err
	}
	summary := &Summary{
		RowsAccepted: parsed.RowsAccepted,
		RowsSkipped:  parsed.RowsSkipped,
		CasesTotal:   len(parsed.Cases),
		DryRun:       r.DryRun,
	}
	if r.DryRun {
		r.Logger.Info().Int("cases", summary.CasesTotal).Int("rows", summary.RowsAccepted).Msg("import: dry run, nothing written")
		return summary, nil
	}

	idx, err := identity.LoadIndex(ctx, r.Directory, r.PageSize)
	if err != nil {
		return nil, fmt.Errorf("directory unavailable: %w", err)
	}

	r.provisionContributors(ctx, parsed.Contributors, idx, summary)

	if err := r.writeCases(ctx, parsed, summary, now); err != nil {
		return nil, err
	}

	r.Logger.Info().
		Int("cases_written", summary.CasesWritten).
		Int("contributions_written", summary.ContributionsWritten).
		Int("contributions_skipped", summary.ContributionsSkipped).
		Int("identity_failures", len(summary.IdentityFailures)).
		Msg("import: finished")
	return summary, nil
}

// provisionContributors resolves every contributor to an identity, serially
// so backoff stays simple and retries never storm a shared rate limit.
func (r *Runner) provisionContributors(ctx context.Context, contributors map[int]*domain.ContributorRecord, idx *identity.Index, summary *Summary) {
	ids := make([]int, 0, len(contributors))
	for id := range contributors {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	for _, id := range ids {
		record := contributors[id]
		ref, err := r.Provisioner.Provision(ctx, record.ExternalID, record.Name, idx)
		if err != nil {
			r.Logger.Error().Err(err).Int("contributor_id", id).Msg("import: provisioning failed, contributions will be skipped")
			summary.IdentityFailures = append(summary.IdentityFailures, ContributorFailure{
				ContributorID: id,
				Reason:        err.Error(),
			})
			continue
		}
		record.Identity = ref
		summary.IdentitiesResolved++
	}
}

// writeCases bulk-persists cases then contributions, and seeds each case's
// funded amount with its aggregate total.
func (r *Runner) writeCases(ctx context.Context, parsed *ParseResult, summary *Summary, now func() time.Time) error {
	cases := make([]*domain.Case, 0, len(parsed.Cases))
	for _, agg := range parsed.Cases {
		c := &domain.Case{
			ExternalID:   agg.ExternalID,
			Title:        agg.Title,
			Category:     agg.Category,
			TargetAmount: agg.Total,
		}
		if !agg.EarliestDate.IsZero() {
			first := agg.EarliestDate
			c.FirstContributedAt = &first
		}
		cases = append(cases, c)
	}

	ids, err := r.Cases.UpsertBatch(ctx, cases)
	if err != nil {
		return fmt.Errorf("persist cases: %w", err)
	}
	if len(ids) != len(parsed.Cases) {
		return fmt.Errorf("persist cases: got %d ids for %d cases", len(ids), len(parsed.Cases))
	}

	for i, agg := range parsed.Cases {
		caseID := ids[i]

		existing, err := r.Contributions.CountByCase(ctx, caseID)
		if err != nil {
			return fmt.Errorf("check case %s: %w", agg.ExternalID, err)
		}
		if existing > 0 {
			r.Logger.Info().Str("case", agg.ExternalID).Int64("existing", existing).Msg("import: case already has contributions, skipping")
			summary.CasesAlreadyImported++
			continue
		}

		rows := make([]*domain.Contribution, 0, len(agg.Contributions))
		for _, item := range agg.Contributions {
			contributor := parsed.Contributors[item.ContributorID]
			if contributor == nil || contributor.Identity == "" {
				summary.ContributionsSkipped++
				continue
			}
			contributedAt := item.Date
			if contributedAt.IsZero() {
				contributedAt = now()
			}
			rows = append(rows, &domain.Contribution{
				CaseID:        caseID,
				DonorIdentity: contributor.Identity,
				Amount:        item.Amount,
				Status:        domain.StatusApproved,
				ContributedAt: contributedAt,
			})
		}

		written := r.writeContributionBatches(ctx, agg.ExternalID, rows, summary)
		if written == 0 {
			continue
		}

		// One-time seed of the funded amount; drift from partially failed
		// batches is repaired by the resync job.
		if err := r.Cases.SetCurrentAmount(ctx, caseID, agg.Total); err != nil {
			r.Logger.Error().Err(err).Str("case", agg.ExternalID).Msg("import: seeding funded amount failed")
			continue
		}
		summary.CasesWritten++
	}
	return nil
}

// writeContributionBatches inserts rows in fixed-size chunks; a failed chunk
// is logged and counted without stopping the chunks after it.
func (r *Runner) writeContributionBatches(ctx context.Context, externalID string, rows []*domain.Contribution, summary *Summary) int {
	written := 0
	for start := 0; start < len(rows); start += contributionBatchSize {
		end := start + contributionBatchSize
		if end > len(rows) {
			end = len(rows)
		}
		chunk := rows[start:end]
		if err := r.Contributions.CreateBatch(ctx, chunk); err != nil {
			r.Logger.Error().Err(err).Str("case", externalID).Int("batch_start", start).Int("batch_size", len(chunk)).Msg("import: contribution batch failed")
			summary.ContributionsFailed += len(chunk)
			continue
		}
		written += len(chunk)
	}
	summary.ContributionsWritten += written
	return written
}
