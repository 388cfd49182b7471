// internal/store/store.go
//
// Package store persists analysis results in Postgres. The full result is
// stored as a JSONB payload with the queryable fields broken out into
// columns, so history queries never need to unpack the document.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/brandlens/brandlens-workflows/internal/config"
	"github.com/brandlens/brandlens-workflows/internal/models"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

const schema = `
CREATE TABLE IF NOT EXISTS analysis_results (
	result_id        UUID PRIMARY KEY,
	company_name     TEXT NOT NULL,
	company_url      TEXT NOT NULL,
	overall_score    DOUBLE PRECISION NOT NULL,
	visibility_score DOUBLE PRECISION NOT NULL,
	share_of_voice   DOUBLE PRECISION NOT NULL,
	payload          JSONB NOT NULL,
	created_at       TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_analysis_results_company_created
	ON analysis_results (company_url, created_at DESC);
`

// resultRow is the analysis_results table shape.
type resultRow struct {
	ResultID        uuid.UUID       `db:"result_id"`
	CompanyName     string          `db:"company_name"`
	CompanyURL      string          `db:"company_url"`
	OverallScore    float64         `db:"overall_score"`
	VisibilityScore float64         `db:"visibility_score"`
	ShareOfVoice    float64         `db:"share_of_voice"`
	Payload         json.RawMessage `db:"payload"`
	CreatedAt       time.Time       `db:"created_at"`
}

// Store is the Postgres-backed result history.
type Store struct {
	db *sqlx.DB
}

// Connect opens the database with the configured pool settings and
// verifies the connection.
func Connect(ctx context.Context, cfg config.DatabaseConfig) (*Store, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode,
	)

	db, err := sqlx.ConnectContext(ctx, "postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Second)

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// EnsureSchema creates the results table when it does not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}

// SaveResult writes one completed run to the history.
func (s *Store) SaveResult(ctx context.Context, result *models.AnalysisResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	row := resultRow{
		ResultID:        uuid.New(),
		CompanyName:     result.Company.Name,
		CompanyURL:      result.Company.URL,
		OverallScore:    result.Scores.OverallScore,
		VisibilityScore: result.Scores.VisibilityScore,
		ShareOfVoice:    result.Scores.ShareOfVoice,
		Payload:         payload,
		CreatedAt:       result.CreatedAt,
	}

	_, err = s.db.NamedExecContext(ctx, `
		INSERT INTO analysis_results
			(result_id, company_name, company_url, overall_score, visibility_score, share_of_voice, payload, created_at)
		VALUES
			(:result_id, :company_name, :company_url, :overall_score, :visibility_score, :share_of_voice, :payload, :created_at)`,
		row)
	if err != nil {
		return fmt.Errorf("failed to save analysis result: %w", err)
	}
	return nil
}

// LatestBefore returns the newest result for a company strictly older than
// the given time, or nil when there is no history.
func (s *Store) LatestBefore(ctx context.Context, companyURL string, before time.Time) (*models.AnalysisResult, error) {
	var row resultRow
	err := s.db.GetContext(ctx, &row, `
		SELECT result_id, company_name, company_url, overall_score, visibility_score, share_of_voice, payload, created_at
		FROM analysis_results
		WHERE company_url = $1 AND created_at < $2
		ORDER BY created_at DESC
		LIMIT 1`,
		companyURL, before)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query previous result: %w", err)
	}

	var result models.AnalysisResult
	if err := json.Unmarshal(row.Payload, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal stored result: %w", err)
	}
	return &result, nil
}

// History returns up to limit results for a company, newest first.
func (s *Store) History(ctx context.Context, companyURL string, limit int) ([]models.AnalysisResult, error) {
	if limit <= 0 {
		limit = 10
	}
	var rows []resultRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT result_id, company_name, company_url, overall_score, visibility_score, share_of_voice, payload, created_at
		FROM analysis_results
		WHERE company_url = $1
		ORDER BY created_at DESC
		LIMIT $2`,
		companyURL, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query result history: %w", err)
	}

	results := make([]models.AnalysisResult, 0, len(rows))
	for _, row := range rows {
		var result models.AnalysisResult
		if err := json.Unmarshal(row.Payload, &result); err != nil {
			return nil, fmt.Errorf("failed to unmarshal stored result %s: %w", row.ResultID, err)
		}
		results = append(results, result)
	}
	return results, nil
}

// ActiveCompanies returns the latest stored company profile for every
// company analyzed since the given time. The weekly refresh runs over
// this set.
func (s *Store) ActiveCompanies(ctx context.Context, since time.Time) ([]models.Company, error) {
	var rows []resultRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT DISTINCT ON (company_url)
			result_id, company_name, company_url, overall_score, visibility_score, share_of_voice, payload, created_at
		FROM analysis_results
		WHERE created_at >= $1
		ORDER BY company_url, created_at DESC`,
		since)
	if err != nil {
		return nil, fmt.Errorf("failed to query active companies: %w", err)
	}

	companies := make([]models.Company, 0, len(rows))
	for _, row := range rows {
		var result models.AnalysisResult
		if err := json.Unmarshal(row.Payload, &result); err != nil {
			return nil, fmt.Errorf("failed to unmarshal stored result %s: %w", row.ResultID, err)
		}
		companies = append(companies, result.Company)
	}
	return companies, nil
}
