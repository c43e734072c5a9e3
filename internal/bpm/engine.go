// Package bpm runs step-by-step workflows ("cases") such as onboarding a
// vehicle or a driver.
//
// A Flow is an ordered list of steps. Each step can Fetch the data its form
// needs and Process a submitted payload. A case only accepts its current
// step; processing the last step closes it.
package bpm

import (
	"context"
	"fmt"
	"sort"

	"github.com/kryptonation/creamrun-sub000/internal/errs"
	"github.com/kryptonation/creamrun-sub000/internal/model"
	"github.com/kryptonation/creamrun-sub000/internal/repository"
	"github.com/rs/zerolog"
)

// StepResult is what a processed step hands back to the engine.
type StepResult struct {
	// Data is merged into the case data.
	Data map[string]any
	// Stay keeps the case on the same step, for steps that are submitted
	// more than once.
	Stay bool
}

type (
	FetchFunc   func(ctx context.Context, c *model.Case) (any, error)
	ProcessFunc func(ctx context.Context, c *model.Case, payload map[string]any) (StepResult, error)
)

type Step struct {
	ID      string
	Name    string
	Fetch   FetchFunc
	Process ProcessFunc
}

type Flow struct {
	CaseType string
	// Prefix starts every case number of the flow.
	Prefix string
	Steps  []Step
}

func (f *Flow) step(id string) (int, bool) {
	for i, s := range f.Steps {
		if s.ID == id {
			return i, true
		}
	}
	return -1, false
}

// CaseView is a case with its processed step history.
type CaseView struct {
	*model.Case
	Steps []model.CaseStep `json:"steps"`
}

type Engine struct {
	repos  *repository.Repositories
	flows  map[string]*Flow
	logger *zerolog.Logger
}

func NewEngine(repos *repository.Repositories, logger *zerolog.Logger) *Engine {
	return &Engine{
		repos:  repos,
		flows:  make(map[string]*Flow),
		logger: logger,
	}
}

// Register adds a flow. Case types and step IDs must be unique.
func (e *Engine) Register(f Flow) error {
	if f.CaseType == "" || f.Prefix == "" {
		return fmt.Errorf("flow needs a case type and a prefix")
	}
	if len(f.Steps) == 0 {
		return fmt.Errorf("flow %s has no steps", f.CaseType)
	}
	if _, ok := e.flows[f.CaseType]; ok {
		return fmt.Errorf("flow %s already registered", f.CaseType)
	}

	seen := make(map[string]bool, len(f.Steps))
	for _, s := range f.Steps {
		if s.ID == "" || s.Process == nil {
			return fmt.Errorf("flow %s: step %q needs an ID and a Process func", f.CaseType, s.ID)
		}
		if seen[s.ID] {
			return fmt.Errorf("flow %s: duplicate step %s", f.CaseType, s.ID)
		}
		seen[s.ID] = true
	}

	e.flows[f.CaseType] = &f
	return nil
}

// CaseTypes lists the registered flows.
func (e *Engine) CaseTypes() []string {
	types := make([]string, 0, len(e.flows))
	for t := range e.flows {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

func (e *Engine) flow(caseType string) (*Flow, error) {
	f, ok := e.flows[caseType]
	if !ok {
		code := "UNKNOWN_CASE_TYPE"
		return nil, errs.NewBadRequestError(fmt.Sprintf("Unknown case type %q", caseType), true, &code, nil, nil)
	}
	return f, nil
}

// CreateCase opens a case on the first step of the flow.
func (e *Engine) CreateCase(ctx context.Context, caseType string, user *string) (*model.Case, error) {
	f, err := e.flow(caseType)
	if err != nil {
		return nil, err
	}

	seq, err := e.repos.Cases.NextSequence(ctx)
	if err != nil {
		return nil, err
	}

	c, err := e.repos.Cases.Create(ctx, &model.Case{
		CaseNo:      fmt.Sprintf("%s%06d", f.Prefix, seq),
		CaseType:    f.CaseType,
		Status:      model.CaseStatusOpen,
		CurrentStep: f.Steps[0].ID,
		Data:        map[string]any{},
		CreatedBy:   user,
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info().Str("case_no", c.CaseNo).Str("case_type", c.CaseType).Msg("case created")
	return c, nil
}

func (e *Engine) Get(ctx context.Context, caseNo string) (*CaseView, error) {
	c, err := e.repos.Cases.GetByNo(ctx, caseNo)
	if err != nil {
		return nil, err
	}
	steps, err := e.repos.Cases.ListSteps(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	return &CaseView{Case: c, Steps: steps}, nil
}

func unknownStep(c *model.Case, stepID string) error {
	code := "UNKNOWN_STEP"
	return errs.NewNotFoundError(fmt.Sprintf("Case type %s has no step %s", c.CaseType, stepID), true, &code)
}

// Fetch returns the data the step's form needs. Any step of the flow can be
// fetched, processed or not.
func (e *Engine) Fetch(ctx context.Context, caseNo, stepID string) (any, error) {
	c, err := e.repos.Cases.GetByNo(ctx, caseNo)
	if err != nil {
		return nil, err
	}
	f, err := e.flow(c.CaseType)
	if err != nil {
		return nil, err
	}
	i, ok := f.step(stepID)
	if !ok {
		return nil, unknownStep(c, stepID)
	}
	if f.Steps[i].Fetch == nil {
		return c.Data, nil
	}
	return f.Steps[i].Fetch(ctx, c)
}

// Process runs the current step with payload. The case row stays locked
// while the step runs, so concurrent submissions for one case are
// serialized.
func (e *Engine) Process(ctx context.Context, caseNo, stepID string, payload map[string]any, user *string) (*model.Case, error) {
	var out *model.Case
	err := e.repos.InTx(ctx, func(tx *repository.Repositories) error {
		c, err := tx.Cases.GetForUpdate(ctx, caseNo)
		if err != nil {
			return err
		}
		f, err := e.flow(c.CaseType)
		if err != nil {
			return err
		}
		i, ok := f.step(stepID)
		if !ok {
			return unknownStep(c, stepID)
		}
		if c.Status != model.CaseStatusOpen {
			return errs.NewRuleError("CASE_NOT_OPEN", fmt.Sprintf("Case %s is %s", c.CaseNo, c.Status))
		}
		if c.CurrentStep != stepID {
			return errs.NewRuleError("STEP_OUT_OF_ORDER",
				fmt.Sprintf("Case %s is on step %s, not %s", c.CaseNo, c.CurrentStep, stepID))
		}

		if payload == nil {
			payload = map[string]any{}
		}
		res, err := f.Steps[i].Process(ctx, c, payload)
		if err != nil {
			return err
		}

		if c.Data == nil {
			c.Data = make(map[string]any, len(res.Data))
		}
		for k, v := range res.Data {
			c.Data[k] = v
		}
		if _, err := tx.Cases.AddStep(ctx, &model.CaseStep{
			CaseID:      c.ID,
			StepID:      stepID,
			Payload:     payload,
			ProcessedBy: user,
		}); err != nil {
			return err
		}

		switch {
		case res.Stay:
		case i == len(f.Steps)-1:
			c.Status = model.CaseStatusClosed
		default:
			c.CurrentStep = f.Steps[i+1].ID
		}

		out, err = tx.Cases.Update(ctx, c)
		return err
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info().
		Str("case_no", out.CaseNo).
		Str("step_id", stepID).
		Str("status", string(out.Status)).
		Str("current_step", out.CurrentStep).
		Msg("case step processed")
	return out, nil
}

// Cancel closes an open case without finishing it.
func (e *Engine) Cancel(ctx context.Context, caseNo string) (*model.Case, error) {
	var out *model.Case
	err := e.repos.InTx(ctx, func(tx *repository.Repositories) error {
		c, err := tx.Cases.GetForUpdate(ctx, caseNo)
		if err != nil {
			return err
		}
		if c.Status != model.CaseStatusOpen {
			return errs.NewRuleError("CASE_NOT_OPEN", fmt.Sprintf("Case %s is %s", c.CaseNo, c.Status))
		}
		c.Status = model.CaseStatusCancelled
		out, err = tx.Cases.Update(ctx, c)
		return err
	})
	if err != nil {
		return nil, err
	}
	e.logger.Info().Str("case_no", caseNo).Msg("case cancelled")
	return out, nil
}
