package handler

import (
	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/kryptonation/creamrun-sub000/internal/middleware"
	"github.com/kryptonation/creamrun-sub000/internal/repository"
	"github.com/kryptonation/creamrun-sub000/internal/validation"
	"github.com/labstack/echo/v4"
)

const (
	defaultPerPage = 20
	maxPerPage     = 100
)

// IDRequest is a request addressed by an :id path parameter.
type IDRequest struct {
	ID string `param:"id" json:"-" validate:"required,uuid"`
}

func (r *IDRequest) Validate() error { return validation.Struct(r) }

// UUID returns the validated id.
func (r *IDRequest) UUID() uuid.UUID { return uuid.MustParse(r.ID) }

// NoRequest is the request of endpoints that take no input.
type NoRequest struct{}

func (r *NoRequest) Validate() error { return nil }

// PageRequest is embedded in list requests.
type PageRequest struct {
	Page    int    `query:"page" validate:"omitempty,min=1"`
	PerPage int    `query:"per_page" validate:"omitempty,min=1,max=100"`
	Sort    string `query:"sort" validate:"omitempty,max=40"`
}

func (p PageRequest) pageQuery() repository.PageQuery {
	page, per := p.page()
	return repository.PageQuery{Limit: per, Offset: (page - 1) * per, Sort: p.Sort}
}

func (p PageRequest) page() (int, int) {
	page, per := p.Page, p.PerPage
	if page < 1 {
		page = 1
	}
	if per < 1 {
		per = defaultPerPage
	}
	if per > maxPerPage {
		per = maxPerPage
	}
	return page, per
}

// Page is the list response envelope.
type Page[T any] struct {
	Items   []T `json:"items"`
	Total   int `json:"total"`
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
}

func newPage[T any](res *repository.PageResult[T], p PageRequest) *Page[T] {
	page, per := p.page()
	return &Page[T]{Items: res.Items, Total: res.Total, Page: page, PerPage: per}
}

// optionalUUID parses a filter value that was validated as omitempty,uuid.
func optionalUUID(s string) *uuid.UUID {
	if s == "" {
		return nil
	}
	id := uuid.MustParse(s)
	return &id
}

// parseDate parses an optional YYYY-MM-DD query value.
func parseDate(s string) (*civil.Date, bool) {
	if s == "" {
		return nil, true
	}
	d, err := civil.ParseDate(s)
	if err != nil {
		return nil, false
	}
	return &d, true
}

// currentUser is the authenticated user id, nil when unknown.
func currentUser(c echo.Context) *string {
	if id := middleware.GetUserID(c); id != "" {
		return &id
	}
	return nil
}
