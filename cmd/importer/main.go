package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"ataa/internal/adapter/repo"
	"ataa/internal/identity"
	"ataa/internal/importer"
	"ataa/internal/infra"
)

func main() {
	_ = godotenv.Load()

	var (
		csvPath string
		dryRun  bool
	)
	flag.StringVar(&csvPath, "csv", "", "Path to the legacy contributions CSV export")
	flag.BoolVar(&dryRun, "dry-run", false, "Parse and report without writing anything")
	flag.Parse()

	if csvPath == "" {
		fmt.Fprintln(os.Stderr, "usage: importer -csv <file> [-dry-run]")
		os.Exit(2)
	}

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	file, err := os.Open(csvPath)
	if err != nil {
		logger.Fatal().Err(err).Str("path", csvPath).Msg("importer: cannot open csv")
	}
	defer file.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("importer: db connection failed")
	}
	defer pool.Close()

	directory, err := identity.NewClient(identity.ClientOptions{
		BaseURL:        cfg.DirectoryBaseURL,
		APIKey:         cfg.DirectoryAPIKey,
		RequestTimeout: cfg.RequestTimeout,
		Logger:         &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("importer: directory client misconfigured")
	}

	provisioner := identity.NewProvisioner(identity.Options{
		Directory:  directory,
		Profiles:   repo.NewIdentityProfileRepository(pool),
		Domain:     cfg.DirectoryDomain,
		PageSize:   cfg.DirectoryPageSize,
		MaxRetries: cfg.ProvisionRetries,
		BaseDelay:  cfg.ProvisionBaseDelay,
		Logger:     &logger,
	})

	runner := &importer.Runner{
		Cases:         repo.NewCaseRepository(pool),
		Contributions: repo.NewContributionRepository(pool),
		Directory:     directory,
		Provisioner:   provisioner,
		PageSize:      cfg.DirectoryPageSize,
		DryRun:        dryRun,
		Logger:        logger,
	}

	summary, err := runner.Run(ctx, file)
	if err != nil {
		logger.Fatal().Err(err).Msg("importer: run aborted")
	}

	printSummary(summary)
	if len(summary.IdentityFailures) > 0 {
		os.Exit(1)
	}
}

func printSummary(s *importer.Summary) {
	fmt.Printf("rows accepted:          %d\n", s.RowsAccepted)
	fmt.Printf("rows skipped:           %d\n", s.RowsSkipped)
	fmt.Printf("cases total:            %d\n", s.CasesTotal)
	fmt.Printf("cases written:          %d\n", s.CasesWritten)
	fmt.Printf("cases already imported: %d\n", s.CasesAlreadyImported)
	fmt.Printf("identities resolved:    %d\n", s.IdentitiesResolved)
	fmt.Printf("contributions written:  %d\n", s.ContributionsWritten)
	fmt.Printf("contributions skipped:  %d\n", s.ContributionsSkipped)
	fmt.Printf("contributions failed:   %d\n", s.ContributionsFailed)
	if s.DryRun {
		fmt.Println("dry run: nothing was written")
	}
	for _, failure := range s.IdentityFailures {
		fmt.Printf("provisioning failed for contributor %d: %s\n", failure.ContributorID, failure.Reason)
	}
}
