package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"

	"github.com/myrjola/whodunit/internal/db"
	"github.com/myrjola/whodunit/internal/errors"
	"github.com/myrjola/whodunit/internal/models"
)

var ErrCaseNotFound = errors.NewSentinel("case not found")

type CaseRepository struct {
	dbs    *db.Database
	logger *slog.Logger
}

func NewCaseRepository(dbs *db.Database, logger *slog.Logger) *CaseRepository {
	return &CaseRepository{
		dbs:    dbs,
		logger: logger.With("source", "CaseRepository"),
	}
}

type caseRow struct {
	ID             string `db:"id"`
	Title          string `db:"title"`
	Framing        string `db:"framing"`
	Story          []byte `db:"story"`
	ProcessedClues []byte `db:"processed_clues"`
	Map            []byte `db:"map"`
}

// Create persists a freshly generated case along with its empty progress
// record. The two rows commit atomically so that a case can never exist
// without its progress.
func (r *CaseRepository) Create(ctx context.Context, c *models.Case, progress *models.InvestigationProgress) error {
	story, err := json.Marshal(c.Story)
	if err != nil {
		return errors.Wrap(err, "marshal story")
	}
	processedClues, err := json.Marshal(c.ProcessedClues)
	if err != nil {
		return errors.Wrap(err, "marshal processed clues")
	}
	locationMap, err := json.Marshal(c.Map)
	if err != nil {
		return errors.Wrap(err, "marshal map")
	}
	progressData, err := json.Marshal(progress)
	if err != nil {
		return errors.Wrap(err, "marshal progress")
	}

	tx, err := r.dbs.ReadWrite.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin transaction")
	}
	defer func() {
		_ = tx.Rollback()
	}()

	stmt := `INSERT INTO cases (id, title, framing, story, processed_clues, map)
VALUES (@id, @title, @framing, @story, @processed_clues, @map)`
	if _, err = tx.ExecContext(ctx, stmt,
		sql.Named("id", c.ID),
		sql.Named("title", c.Story.Title),
		sql.Named("framing", c.Framing),
		sql.Named("story", story),
		sql.Named("processed_clues", processedClues),
		sql.Named("map", locationMap),
	); err != nil {
		return errors.Wrap(err, "insert case", slog.String("case_id", c.ID))
	}

	stmt = `INSERT INTO investigation_progress (case_id, data) VALUES (@case_id, @data)`
	if _, err = tx.ExecContext(ctx, stmt,
		sql.Named("case_id", c.ID),
		sql.Named("data", progressData),
	); err != nil {
		return errors.Wrap(err, "insert progress", slog.String("case_id", c.ID))
	}

	if err = tx.Commit(); err != nil {
		return errors.Wrap(err, "commit case", slog.String("case_id", c.ID))
	}
	return nil
}

// Get loads a case by id or returns ErrCaseNotFound.
func (r *CaseRepository) Get(ctx context.Context, id string) (*models.Case, error) {
	var row caseRow
	stmt := `SELECT id, title, framing, story, processed_clues, map FROM cases WHERE id = ?`
	if err := r.dbs.ReadOnly.GetContext(ctx, &row, stmt, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.Wrap(ErrCaseNotFound, "read case", slog.String("case_id", id))
		}
		return nil, errors.Wrap(err, "read case", slog.String("case_id", id))
	}

	c := models.Case{
		ID:      row.ID,
		Framing: row.Framing,
	}
	if err := json.Unmarshal(row.Story, &c.Story); err != nil {
		return nil, errors.Wrap(err, "unmarshal story", slog.String("case_id", id))
	}
	if err := json.Unmarshal(row.ProcessedClues, &c.ProcessedClues); err != nil {
		return nil, errors.Wrap(err, "unmarshal processed clues", slog.String("case_id", id))
	}
	if err := json.Unmarshal(row.Map, &c.Map); err != nil {
		return nil, errors.Wrap(err, "unmarshal map", slog.String("case_id", id))
	}
	return &c, nil
}

// GetProgress loads the progress document for a case.
func (r *CaseRepository) GetProgress(ctx context.Context, caseID string) (*models.InvestigationProgress, error) {
	var data []byte
	stmt := `SELECT data FROM investigation_progress WHERE case_id = ?`
	if err := r.dbs.ReadOnly.GetContext(ctx, &data, stmt, caseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.Wrap(ErrCaseNotFound, "read progress", slog.String("case_id", caseID))
		}
		return nil, errors.Wrap(err, "read progress", slog.String("case_id", caseID))
	}

	var progress models.InvestigationProgress
	if err := json.Unmarshal(data, &progress); err != nil {
		return nil, errors.Wrap(err, "unmarshal progress", slog.String("case_id", caseID))
	}
	return &progress, nil
}

// SaveProgress writes the whole progress document back. Callers follow
// read-merge-write: load with GetProgress, apply additive mutations, save.
func (r *CaseRepository) SaveProgress(ctx context.Context, progress *models.InvestigationProgress) error {
	data, err := json.Marshal(progress)
	if err != nil {
		return errors.Wrap(err, "marshal progress")
	}

	stmt := `UPDATE investigation_progress SET data = @data, updated_at = CURRENT_TIMESTAMP WHERE case_id = @case_id`
	result, err := r.dbs.ReadWrite.ExecContext(ctx, stmt,
		sql.Named("data", data),
		sql.Named("case_id", progress.CaseID),
	)
	if err != nil {
		return errors.Wrap(err, "update progress", slog.String("case_id", progress.CaseID))
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "rows affected", slog.String("case_id", progress.CaseID))
	}
	if affected == 0 {
		return errors.Wrap(ErrCaseNotFound, "update progress", slog.String("case_id", progress.CaseID))
	}
	return nil
}

// Delete removes the case and, through the foreign key cascade, its progress.
func (r *CaseRepository) Delete(ctx context.Context, id string) error {
	result, err := r.dbs.ReadWrite.ExecContext(ctx, `DELETE FROM cases WHERE id = ?`, id)
	if err != nil {
		return errors.Wrap(err, "delete case", slog.String("case_id", id))
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "rows affected", slog.String("case_id", id))
	}
	if affected == 0 {
		return errors.Wrap(ErrCaseNotFound, "delete case", slog.String("case_id", id))
	}
	return nil
}
