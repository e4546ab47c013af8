package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tramita-labs/expediente-engine/pkg/apperrors"
	"github.com/tramita-labs/expediente-engine/pkg/database"
	"github.com/tramita-labs/expediente-engine/pkg/models"
)

// CaseLogRepository provides read access to the materialized case log.
// It is the engine's only upstream dependency; everything downstream is
// derived in memory from what it returns.
type CaseLogRepository interface {
	// ListProcedures returns the procedures available for analysis.
	ListProcedures(ctx context.Context) ([]models.Procedure, error)

	// GetStateCatalog returns the state catalog of one procedure.
	// Returns apperrors.ErrUnknownProcedure for codes not in the catalog.
	GetStateCatalog(ctx context.Context, procedureCode string) ([]models.StateInfo, error)

	// ListCases returns all cases of one procedure.
	ListCases(ctx context.Context, procedureCode string) ([]models.Case, error)

	// ListEvents returns all events of one procedure ordered by
	// (case_id, event_time, seq_no).
	ListEvents(ctx context.Context, procedureCode string) ([]models.Event, error)
}

type caseLogRepository struct {
	db *database.DB
}

// NewCaseLogRepository creates a CaseLogRepository backed by postgres.
func NewCaseLogRepository(db *database.DB) CaseLogRepository {
	return &caseLogRepository{db: db}
}

var _ CaseLogRepository = (*caseLogRepository)(nil)

func (r *caseLogRepository) ListProcedures(ctx context.Context) ([]models.Procedure, error) {
	query := `
		SELECT code, description
		FROM procedures
		ORDER BY code`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query procedures: %w", err)
	}
	defer rows.Close()

	var procedures []models.Procedure
	for rows.Next() {
		var p models.Procedure
		if err := rows.Scan(&p.Code, &p.Description); err != nil {
			return nil, fmt.Errorf("failed to scan procedure: %w", err)
		}
		procedures = append(procedures, p)
	}
	return procedures, rows.Err()
}

func (r *caseLogRepository) GetStateCatalog(ctx context.Context, procedureCode string) ([]models.StateInfo, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM procedures WHERE code = $1)`, procedureCode).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to check procedure %q: %w", procedureCode, err)
	}
	if !exists {
		return nil, apperrors.ErrUnknownProcedure
	}

	query := `
		SELECT state_code, name, terminal_candidate
		FROM procedure_states
		WHERE procedure_code = $1
		ORDER BY state_code`

	rows, err := r.db.Query(ctx, query, procedureCode)
	if err != nil {
		return nil, fmt.Errorf("failed to query state catalog: %w", err)
	}
	defer rows.Close()

	var states []models.StateInfo
	for rows.Next() {
		var s models.StateInfo
		if err := rows.Scan(&s.Code, &s.Name, &s.TerminalCandidate); err != nil {
			return nil, fmt.Errorf("failed to scan state: %w", err)
		}
		states = append(states, s)
	}
	return states, rows.Err()
}

func (r *caseLogRepository) ListCases(ctx context.Context, procedureCode string) ([]models.Case, error) {
	query := `
		SELECT case_id, start_date, province_code, province,
		       municipality_code, municipality, is_online, is_company
		FROM cases
		WHERE procedure_code = $1`

	rows, err := r.db.Query(ctx, query, procedureCode)
	if err != nil {
		return nil, fmt.Errorf("failed to query cases: %w", err)
	}
	defer rows.Close()

	var cases []models.Case
	for rows.Next() {
		var c models.Case
		if err := rows.Scan(
			&c.ID, &c.StartDate, &c.ProvinceCode, &c.Province,
			&c.MunicipalityCode, &c.Municipality, &c.IsOnline, &c.IsCompany,
		); err != nil {
			return nil, fmt.Errorf("failed to scan case: %w", err)
		}
		cases = append(cases, c)
	}
	return cases, rows.Err()
}

func (r *caseLogRepository) ListEvents(ctx context.Context, procedureCode string) ([]models.Event, error) {
	query := `
		SELECT case_id, state_code, event_time, unit, seq_no
		FROM case_events
		WHERE procedure_code = $1
		ORDER BY case_id, event_time, seq_no`

	rows, err := r.db.Query(ctx, query, procedureCode)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []models.Event
	for rows.Next() {
		var e models.Event
		var unit sql.NullString
		if err := rows.Scan(&e.CaseID, &e.StateCode, &e.EventTime, &unit, &e.SeqNo); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		if unit.Valid {
			e.Unit = unit.String
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
