package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/rs/zerolog"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/alayssahrnndz/Cash-Elan-Mobile-Bank-sub001/internal/config"
	"github.com/alayssahrnndz/Cash-Elan-Mobile-Bank-sub001/internal/logger"
)

func main() {
	var (
		configPath    = flag.String("config", "", "path to the YAML config")
		projectID     = flag.String("project", "", "GCP project ID (defaults to bigquery.projectId)")
		datasetID     = flag.String("dataset", "", "BigQuery dataset ID (defaults to bigquery.datasetId)")
		appliedBy     = flag.String("applied-by", "migrate-cli", "Name of the tool applying migrations")
		migrationsDir = flag.String("migrations", "migrations/bigquery", "Path to migrations directory")
		dryRun        = flag.Bool("dry-run", false, "List pending migrations without applying them")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		bootLog := logger.New()
		bootLog.Fatal().Err(err).Msg("Failed to load config")
	}
	log := logger.Configure(logger.Options{Level: cfg.Log.Level, Console: true})

	if *projectID == "" {
		*projectID = cfg.BigQuery.ProjectID
	}
	if *datasetID == "" {
		*datasetID = cfg.BigQuery.DatasetID
	}
	if *projectID == "" {
		log.Fatal().Msg("No GCP project: pass -project or set CASHELAN_GCP_PROJECT")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	var opts []option.ClientOption
	if cfg.BigQuery.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.BigQuery.CredentialsFile))
	}
	client, err := bigquery.NewClient(ctx, *projectID, opts...)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create BigQuery client")
	}
	defer client.Close()

	m := &migrator{client: client, dataset: *datasetID, appliedBy: *appliedBy, log: log}
	if err := m.run(ctx, *migrationsDir, *dryRun); err != nil {
		log.Fatal().Err(err).Msg("Migration failed")
	}
}

type migrator struct {
	client    *bigquery.Client
	dataset   string
	appliedBy string
	log       zerolog.Logger
}

func (m *migrator) table() string {
	return fmt.Sprintf("`%s.%s.schema_migrations`", m.client.Project(), m.dataset)
}

func (m *migrator) run(ctx context.Context, dir string, dryRun bool) error {
	m.log.Info().Str("project", m.client.Project()).Str("dataset", m.dataset).Msg("Connected to BigQuery")

	if err := m.exec(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			version       INT64 NOT NULL,
			name          STRING NOT NULL,
			applied_at    TIMESTAMP NOT NULL,
			checksum      STRING,
			applied_by    STRING
		)
	`, m.table()), nil); err != nil {
		return fmt.Errorf("ensuring schema_migrations: %w", err)
	}

	dir, err := findDir(dir)
	if err != nil {
		return err
	}
	migrations, skipped, err := readMigrations(dir, m.client.Project(), m.dataset)
	if err != nil {
		return err
	}
	for _, f := range skipped {
		m.log.Warn().Str("file", f).Msg("Skipping file with invalid name")
	}

	applied, err := m.applied(ctx)
	if err != nil {
		return err
	}
	pending, drifted := plan(migrations, applied)
	for _, d := range drifted {
		m.log.Warn().Str("migration", d.Filename).Msg("Applied migration changed on disk")
	}
	m.log.Info().
		Int("found", len(migrations)).
		Int("applied", len(applied)).
		Int("pending", len(pending)).
		Msg("Migration plan")

	for _, mig := range pending {
		if dryRun {
			m.log.Info().Str("migration", mig.Filename).Msg("Would apply")
			continue
		}
		if err := m.exec(ctx, mig.SQL, nil); err != nil {
			return fmt.Errorf("executing %s: %w", mig.Filename, err)
		}
		if err := m.exec(ctx, fmt.Sprintf(`
			INSERT INTO %s (version, name, applied_at, checksum, applied_by)
			VALUES (@version, @name, CURRENT_TIMESTAMP(), @checksum, @applied_by)
		`, m.table()), []bigquery.QueryParameter{
			{Name: "version", Value: mig.Version},
			{Name: "name", Value: mig.Name},
			{Name: "checksum", Value: mig.Checksum},
			{Name: "applied_by", Value: m.appliedBy},
		}); err != nil {
			return fmt.Errorf("recording %s: %w", mig.Filename, err)
		}
		m.log.Info().Str("migration", mig.Filename).Msg("Applied")
	}

	if len(pending) == 0 {
		m.log.Info().Msg("No new migrations to apply. Database is up to date.")
	}
	return nil
}

func (m *migrator) exec(ctx context.Context, sql string, params []bigquery.QueryParameter) error {
	q := m.client.Query(sql)
	q.Parameters = params
	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("running query: %w", err)
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("waiting for job: %w", err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("job error: %w", err)
	}
	return nil
}

func (m *migrator) applied(ctx context.Context) ([]AppliedMigration, error) {
	it, err := m.client.Query(fmt.Sprintf(`
		SELECT version, name, applied_at, checksum, applied_by
		FROM %s
		ORDER BY version ASC
	`, m.table())).Read(ctx)
	if err != nil {
		if strings.Contains(err.Error(), "Not found") {
			return nil, nil
		}
		return nil, fmt.Errorf("reading applied migrations: %w", err)
	}

	var out []AppliedMigration
	for {
		var row struct {
			Version   int64
			Name      string
			AppliedAt time.Time
			Checksum  bigquery.NullString
			AppliedBy bigquery.NullString
		}
		err := it.Next(&row)
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("iterating results: %w", err)
		}
		out = append(out, AppliedMigration{
			Version:   int(row.Version),
			Name:      row.Name,
			AppliedAt: row.AppliedAt,
			Checksum:  row.Checksum.StringVal,
			AppliedBy: row.AppliedBy.StringVal,
		})
	}
	return out, nil
}
