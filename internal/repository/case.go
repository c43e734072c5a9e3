package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/kryptonation/creamrun-sub000/internal/model"
	"github.com/kryptonation/creamrun-sub000/internal/sqlerr"
)

type CaseRepository interface {
	NextSequence(ctx context.Context) (int64, error)
	Create(ctx context.Context, c *model.Case) (*model.Case, error)
	GetByNo(ctx context.Context, caseNo string) (*model.Case, error)
	// GetForUpdate locks the case row until the surrounding transaction ends.
	GetForUpdate(ctx context.Context, caseNo string) (*model.Case, error)
	Update(ctx context.Context, c *model.Case) (*model.Case, error)
	AddStep(ctx context.Context, s *model.CaseStep) (*model.CaseStep, error)
	ListSteps(ctx context.Context, caseID uuid.UUID) ([]model.CaseStep, error)
}

const caseColumns = `id, case_no, case_type, status, current_step, data, created_by, created_at, updated_at`

type caseRepository struct {
	db DBTX
}

func NewCaseRepository(db DBTX) CaseRepository {
	return &caseRepository{db: db}
}

func scanCase(row scanner) (*model.Case, error) {
	var c model.Case
	err := row.Scan(&c.ID, &c.CaseNo, &c.CaseType, &c.Status, &c.CurrentStep, &c.Data, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if c.Data == nil {
		c.Data = map[string]any{}
	}
	return &c, nil
}

func (r *caseRepository) NextSequence(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRow(ctx, `SELECT nextval('case_no_seq')`).Scan(&n); err != nil {
		return 0, fmt.Errorf("next case number: %w", err)
	}
	return n, nil
}

func (r *caseRepository) Create(ctx context.Context, c *model.Case) (*model.Case, error) {
	data := c.Data
	if data == nil {
		data = map[string]any{}
	}
	row := r.db.QueryRow(ctx, `
		INSERT INTO cases (case_no, case_type, status, current_step, data, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+caseColumns,
		c.CaseNo, c.CaseType, c.Status, c.CurrentStep, data, c.CreatedBy,
	)
	created, err := scanCase(row)
	if err != nil {
		return nil, fmt.Errorf("insert case: %w", err)
	}
	return created, nil
}

func (r *caseRepository) GetByNo(ctx context.Context, caseNo string) (*model.Case, error) {
	c, err := scanCase(r.db.QueryRow(ctx, `SELECT `+caseColumns+` FROM cases WHERE case_no = $1`, caseNo))
	if err != nil {
		return nil, sqlerr.NotFound("cases", err)
	}
	return c, nil
}

func (r *caseRepository) GetForUpdate(ctx context.Context, caseNo string) (*model.Case, error) {
	c, err := scanCase(r.db.QueryRow(ctx, `SELECT `+caseColumns+` FROM cases WHERE case_no = $1 FOR UPDATE`, caseNo))
	if err != nil {
		return nil, sqlerr.NotFound("cases", err)
	}
	return c, nil
}

func (r *caseRepository) Update(ctx context.Context, c *model.Case) (*model.Case, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE cases SET status = $2, current_step = $3, data = $4
		WHERE id = $1
		RETURNING `+caseColumns,
		c.ID, c.Status, c.CurrentStep, c.Data,
	)
	updated, err := scanCase(row)
	if err != nil {
		return nil, sqlerr.NotFound("cases", err)
	}
	return updated, nil
}

func (r *caseRepository) AddStep(ctx context.Context, s *model.CaseStep) (*model.CaseStep, error) {
	payload := s.Payload
	if payload == nil {
		payload = map[string]any{}
	}
	var out model.CaseStep
	err := r.db.QueryRow(ctx, `
		INSERT INTO case_steps (case_id, step_id, payload, processed_by)
		VALUES ($1, $2, $3, $4)
		RETURNING id, case_id, step_id, payload, processed_by, processed_at`,
		s.CaseID, s.StepID, payload, s.ProcessedBy,
	).Scan(&out.ID, &out.CaseID, &out.StepID, &out.Payload, &out.ProcessedBy, &out.ProcessedAt)
	if err != nil {
		return nil, fmt.Errorf("insert case step: %w", err)
	}
	return &out, nil
}

func (r *caseRepository) ListSteps(ctx context.Context, caseID uuid.UUID) ([]model.CaseStep, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, case_id, step_id, payload, processed_by, processed_at
		FROM case_steps WHERE case_id = $1 ORDER BY processed_at`,
		caseID,
	)
	if err != nil {
		return nil, fmt.Errorf("list case steps: %w", err)
	}
	return collect(rows, func(row scanner) (*model.CaseStep, error) {
		var s model.CaseStep
		if err := row.Scan(&s.ID, &s.CaseID, &s.StepID, &s.Payload, &s.ProcessedBy, &s.ProcessedAt); err != nil {
			return nil, err
		}
		return &s, nil
	})
}
