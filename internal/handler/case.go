package handler

import (
	"github.com/kryptonation/creamrun-sub000/internal/bpm"
	"github.com/kryptonation/creamrun-sub000/internal/model"
	"github.com/kryptonation/creamrun-sub000/internal/server"
	"github.com/kryptonation/creamrun-sub000/internal/validation"
	"github.com/labstack/echo/v4"
)

// CaseHandler drives workflow cases.
type CaseHandler struct {
	Handler
	cases *bpm.Engine
}

func NewCaseHandler(s *server.Server, cases *bpm.Engine) *CaseHandler {
	return &CaseHandler{Handler: NewHandler(s), cases: cases}
}

type CreateCaseRequest struct {
	CaseType string `json:"case_type" validate:"required,max=50"`
}

func (r *CreateCaseRequest) Validate() error { return validation.Struct(r) }

func (h *CaseHandler) Create(c echo.Context, req *CreateCaseRequest) (*model.Case, error) {
	return h.cases.CreateCase(c.Request().Context(), req.CaseType, currentUser(c))
}

type CaseRequest struct {
	CaseNo string `param:"case_no" json:"-" validate:"required,alphanum,max=20"`
}

func (r *CaseRequest) Validate() error { return validation.Struct(r) }

func (h *CaseHandler) Get(c echo.Context, req *CaseRequest) (*bpm.CaseView, error) {
	return h.cases.Get(c.Request().Context(), req.CaseNo)
}

func (h *CaseHandler) Cancel(c echo.Context, req *CaseRequest) (*model.Case, error) {
	return h.cases.Cancel(c.Request().Context(), req.CaseNo)
}

type StepRequest struct {
	CaseRequest
	StepID string `param:"step_id" json:"-" validate:"required,max=20"`
}

func (r *StepRequest) Validate() error { return validation.Struct(r) }

func (h *CaseHandler) FetchStep(c echo.Context, req *StepRequest) (any, error) {
	return h.cases.Fetch(c.Request().Context(), req.CaseNo, req.StepID)
}

// ProcessStepRequest carries the step form under "data".
type ProcessStepRequest struct {
	StepRequest
	Data map[string]any `json:"data"`
}

func (r *ProcessStepRequest) Validate() error { return validation.Struct(r) }

func (h *CaseHandler) ProcessStep(c echo.Context, req *ProcessStepRequest) (*model.Case, error) {
	if req.Data == nil {
		req.Data = map[string]any{}
	}
	return h.cases.Process(c.Request().Context(), req.CaseNo, req.StepID, req.Data, currentUser(c))
}

// Types lists the registered workflows.
func (h *CaseHandler) Types(c echo.Context, _ *NoRequest) ([]string, error) {
	return h.cases.CaseTypes(), nil
}
