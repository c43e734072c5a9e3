package repository

import (
	"errors"
	"net/http"
	"testing"

	"cloud.google.com/go/civil"
	"github.com/kryptonation/creamrun-sub000/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSort = map[string]string{
	"vin":      "vin",
	"end_date": "end_date",
}

func TestQueryBuilder_Filters(t *testing.T) {
	from := civil.Date{Year: 2024, Month: 6, Day: 1}
	to := civil.Date{Year: 2024, Month: 6, Day: 30}

	tests := []struct {
		name      string
		build     func(q *QueryBuilder)
		wantWhere string
		wantArgs  []any
	}{
		{
			name:      "no filters",
			build:     func(q *QueryBuilder) {},
			wantWhere: "",
		},
		{
			name: "empty values are skipped",
			build: func(q *QueryBuilder) {
				q.Eq("status", "").In("status", nil).Contains("  ", "vin").EqAny("medallion_id", nil).DateRange("end_date", nil, nil)
			},
			wantWhere: "",
		},
		{
			name: "placeholders follow argument order",
			build: func(q *QueryBuilder) {
				q.Eq("status", "active").
					In("lease_type", []string{"dov", "long_term"}).
					DateRange("end_date", &from, &to)
			},
			wantWhere: " WHERE status = $1 AND lease_type = ANY($2) AND end_date >= $3 AND end_date <= $4",
			wantArgs:  []any{"active", []string{"dov", "long_term"}, DateArg(from), DateArg(to)},
		},
		{
			name: "contains binds one pattern per column",
			build: func(q *QueryBuilder) {
				q.Eq("make", "Toyota").Contains("5X_1", "vin", "plate_number")
			},
			wantWhere: " WHERE make = $1 AND (vin ILIKE $2 OR plate_number ILIKE $3)",
			wantArgs:  []any{"Toyota", `%5X\_1%`, `%5X\_1%`},
		},
		{
			name: "open ended range",
			build: func(q *QueryBuilder) {
				q.DateRange("incurred_on", nil, &to)
			},
			wantWhere: " WHERE incurred_on <= $1",
			wantArgs:  []any{DateArg(to)},
		},
		{
			name: "where with several markers",
			build: func(q *QueryBuilder) {
				q.Where("(a = ? OR b = ?)", 1, 2).Where("c = ?", 3)
			},
			wantWhere: " WHERE (a = $1 OR b = $2) AND c = $3",
			wantArgs:  []any{1, 2, 3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := NewQueryBuilder("id", "leases")
			tt.build(q)

			sql, args := q.CountSQL()
			assert.Equal(t, "SELECT COUNT(*) FROM leases"+tt.wantWhere, sql)
			if tt.wantArgs == nil {
				assert.Empty(t, args)
				return
			}
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestQueryBuilder_OrderBy(t *testing.T) {
	tests := []struct {
		name string
		sort string
		want string
	}{
		{"default", "", "created_at DESC, id"},
		{"ascending", "vin", "vin ASC, id"},
		{"descending", "-end_date", "end_date DESC, id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := NewQueryBuilder("id", "leases")
			require.NoError(t, q.OrderBy(tt.sort, testSort, "created_at DESC"))

			sql, _ := q.Build(PageQuery{})
			assert.Equal(t, "SELECT id FROM leases ORDER BY "+tt.want, sql)
		})
	}
}

func TestQueryBuilder_OrderByRejectsUnknown(t *testing.T) {
	for _, sort := range []string{"driver_id", "-vin; DROP TABLE leases", "--vin"} {
		t.Run(sort, func(t *testing.T) {
			q := NewQueryBuilder("id", "leases")

			err := q.OrderBy(sort, testSort, "created_at DESC")

			var httpErr *errs.HTTPError
			require.True(t, errors.As(err, &httpErr))
			assert.Equal(t, http.StatusBadRequest, httpErr.Status)
			assert.Equal(t, "INVALID_SORT", httpErr.Code)
		})
	}
}

func TestQueryBuilder_BuildPaging(t *testing.T) {
	q := NewQueryBuilder("id, vin", "vehicles").Eq("status", "available").Eq("make", "Ford")
	require.NoError(t, q.OrderBy("vin", testSort, "created_at DESC"))

	sql, args := q.Build(PageQuery{Limit: 20, Offset: 40})

	assert.Equal(t,
		"SELECT id, vin FROM vehicles WHERE status = $1 AND make = $2 ORDER BY vin ASC, id LIMIT $3 OFFSET $4",
		sql)
	assert.Equal(t, []any{"available", "Ford", 20, 40}, args)

	sql, args = q.Build(PageQuery{Limit: 20})
	assert.Equal(t,
		"SELECT id, vin FROM vehicles WHERE status = $1 AND make = $2 ORDER BY vin ASC, id LIMIT $3",
		sql)
	assert.Equal(t, []any{"available", "Ford", 20}, args)

	countSQL, countArgs := q.CountSQL()
	assert.Equal(t, "SELECT COUNT(*) FROM vehicles WHERE status = $1 AND make = $2", countSQL)
	assert.Len(t, countArgs, 2)
}

func TestEscapeLike(t *testing.T) {
	tests := map[string]string{
		"plain":      "plain",
		"50%":        `50\%`,
		"T_123":      `T\_123`,
		`back\slash`: `back\\slash`,
		`%_\`:        `\%\_\\`,
	}
	for in, want := range tests {
		assert.Equal(t, want, escapeLike(in), in)
	}
}
