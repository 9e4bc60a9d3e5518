// Package store persists qualification runs and their output tables to
// SQLite so results can be inspected and exported after the fact.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/energy-comms/internal/criteria"
	"github.com/sells-group/energy-comms/internal/model"
	"github.com/sells-group/energy-comms/internal/monitoring"
)

// Run is one recorded pipeline invocation.
type Run struct {
	ID         string
	Resolution string
	Criteria   []string
	Status     string
	Records    int
	Summary    *monitoring.Summary
	StartedAt  time.Time
	FinishedAt time.Time
}

// Run statuses.
const (
	RunStatusRunning  = "running"
	RunStatusComplete = "complete"
	RunStatusFailed   = "failed"
)

// SQLiteStore persists runs using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	resolution  TEXT NOT NULL,
	criteria    TEXT NOT NULL,
	status      TEXT NOT NULL DEFAULT 'running',
	records     INTEGER NOT NULL DEFAULT 0,
	summary     TEXT,
	started_at  DATETIME NOT NULL DEFAULT (datetime('now')),
	finished_at DATETIME
);

CREATE TABLE IF NOT EXISTS qualifying_areas (
	run_id      TEXT NOT NULL REFERENCES runs(id),
	geoid       TEXT NOT NULL,
	geo_level   TEXT NOT NULL,
	criterion   TEXT NOT NULL,
	area_type   TEXT NOT NULL,
	site_name   TEXT,
	year        INTEGER,
	tract_fips  TEXT,
	tract_name  TEXT,
	county_fips TEXT,
	county_name TEXT,
	state_fips  TEXT,
	state_name  TEXT,
	state_abbr  TEXT,
	latitude    REAL,
	longitude   REAL,
	acreage     REAL,
	site_geom   BLOB,
	area_geom   BLOB,
	PRIMARY KEY (run_id, geoid, criterion)
);

CREATE TABLE IF NOT EXISTS county_summaries (
	run_id             TEXT NOT NULL REFERENCES runs(id),
	county_fips        TEXT NOT NULL,
	county_name        TEXT,
	state_abbr         TEXT,
	criteria_counts    TEXT NOT NULL,
	brownfield_count   INTEGER NOT NULL,
	brownfield_acreage REAL NOT NULL,
	pct_area_qualified REAL NOT NULL,
	PRIMARY KEY (run_id, county_fips)
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_qualifying_areas_county ON qualifying_areas(county_fips);
CREATE INDEX IF NOT EXISTS idx_qualifying_areas_criterion ON qualifying_areas(criterion);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateRun records the start of a pipeline invocation.
func (s *SQLiteStore) CreateRun(ctx context.Context, resolution model.GeoLevel, criteriaRun []string) (*Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, resolution, criteria, status, started_at) VALUES (?, ?, ?, ?, ?)`,
		id, string(resolution), strings.Join(criteriaRun, ","), RunStatusRunning, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
	}

	return &Run{
		ID:         id,
		Resolution: string(resolution),
		Criteria:   criteriaRun,
		Status:     RunStatusRunning,
		StartedAt:  now,
	}, nil
}

// FinishRun marks a run complete and attaches the data-quality summary.
func (s *SQLiteStore) FinishRun(ctx context.Context, runID string, records int, summary monitoring.Summary) error {
	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal summary")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, records = ?, summary = ?, finished_at = ? WHERE id = ?`,
		RunStatusComplete, records, string(summaryJSON), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: finish run %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

// FailRun marks a run failed.
func (s *SQLiteStore) FailRun(ctx context.Context, runID string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, finished_at = ? WHERE id = ?`,
		RunStatusFailed, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: fail run %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

// InsertRecords writes the merged qualifying table for a run. Geometries are
// stored as EWKB so downstream GIS tools can read them directly.
func (s *SQLiteStore) InsertRecords(ctx context.Context, runID string, records []model.QualifyingRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO qualifying_areas (
		run_id, geoid, geo_level, criterion, area_type, site_name, year,
		tract_fips, tract_name, county_fips, county_name,
		state_fips, state_name, state_abbr,
		latitude, longitude, acreage, site_geom, area_geom
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare insert")
	}
	defer stmt.Close() //nolint:errcheck

	for _, r := range records {
		siteGeom, err := EncodeWKB(r.SiteGeometry)
		if err != nil {
			return eris.Wrapf(err, "sqlite: site geometry for %s", r.GeoID)
		}
		var areaGeom []byte
		if r.AreaGeometry != nil {
			areaGeom, err = EncodeWKB(r.AreaGeometry)
			if err != nil {
				return eris.Wrapf(err, "sqlite: area geometry for %s", r.GeoID)
			}
		}

		if _, err := stmt.ExecContext(ctx,
			runID, r.GeoID, string(r.GeoLevel), string(r.Criterion), string(r.AreaType),
			r.SiteName, r.Year,
			r.TractFIPS, r.TractName, r.CountyFIPS, r.CountyName,
			r.StateFIPS, r.StateName, r.StateAbbr,
			r.Latitude, r.Longitude, r.Acreage, siteGeom, areaGeom,
		); err != nil {
			return eris.Wrapf(err, "sqlite: insert record %s/%s", r.GeoID, r.Criterion)
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit records")
}

// InsertSummaries writes the per-county rollup for a run.
func (s *SQLiteStore) InsertSummaries(ctx context.Context, runID string, summaries []criteria.CountySummary) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO county_summaries (
		run_id, county_fips, county_name, state_abbr,
		criteria_counts, brownfield_count, brownfield_acreage, pct_area_qualified
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare insert")
	}
	defer stmt.Close() //nolint:errcheck

	for _, cs := range summaries {
		counts, err := json.Marshal(cs.CriteriaCounts)
		if err != nil {
			return eris.Wrapf(err, "sqlite: marshal counts for %s", cs.CountyFIPS)
		}
		if _, err := stmt.ExecContext(ctx,
			runID, cs.CountyFIPS, cs.CountyName, cs.StateAbbr,
			string(counts), cs.BrownfieldCount, cs.BrownfieldAcreage, cs.PercentAreaQualified,
		); err != nil {
			return eris.Wrapf(err, "sqlite: insert summary %s", cs.CountyFIPS)
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit summaries")
}

// GetRun loads a single run by id.
func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, resolution, criteria, status, records, summary, started_at, finished_at
		 FROM runs WHERE id = ?`, runID)
	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, eris.Errorf("sqlite: run %s not found", runID)
	} else if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get run %s", runID)
	}
	return run, nil
}

// ListRuns returns runs newest first.
func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, resolution, criteria, status, records, summary, started_at, finished_at
		 FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close() //nolint:errcheck

	var out []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run")
		}
		out = append(out, *run)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate runs")
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRun(row scannable) (*Run, error) {
	var (
		run         Run
		criteriaCSV string
		summaryJSON sql.NullString
		finishedAt  sql.NullTime
	)
	if err := row.Scan(&run.ID, &run.Resolution, &criteriaCSV, &run.Status,
		&run.Records, &summaryJSON, &run.StartedAt, &finishedAt); err != nil {
		return nil, err
	}
	if criteriaCSV != "" {
		run.Criteria = strings.Split(criteriaCSV, ",")
	}
	if summaryJSON.Valid && summaryJSON.String != "" {
		var summary monitoring.Summary
		if err := json.Unmarshal([]byte(summaryJSON.String), &summary); err != nil {
			return nil, eris.Wrap(err, "unmarshal summary")
		}
		run.Summary = &summary
	}
	if finishedAt.Valid {
		run.FinishedAt = finishedAt.Time
	}
	return &run, nil
}

func checkRowsAffected(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Errorf("sqlite: %s %s not found", kind, id)
	}
	return nil
}
