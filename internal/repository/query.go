package repository

import (
	"fmt"
	"strconv"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/kryptonation/creamrun-sub000/internal/errs"
)

// QueryBuilder assembles a filtered, sorted and paginated SELECT with
// positional ($n) arguments. Column names only ever come from code; values
// always travel as arguments.
type QueryBuilder struct {
	selectSQL string
	fromSQL   string
	where     []string
	args      []any
	orderBy   string
}

// NewQueryBuilder starts a query. columns is the select list, from the FROM
// clause (joins included).
func NewQueryBuilder(columns, from string) *QueryBuilder {
	return &QueryBuilder{selectSQL: columns, fromSQL: from}
}

// Where adds a condition. Each "?" in cond is bound to the next arg.
func (q *QueryBuilder) Where(cond string, args ...any) *QueryBuilder {
	var b strings.Builder
	argIdx := 0
	for _, r := range cond {
		if r == '?' && argIdx < len(args) {
			q.args = append(q.args, args[argIdx])
			argIdx++
			b.WriteString("$" + strconv.Itoa(len(q.args)))
			continue
		}
		b.WriteRune(r)
	}
	q.where = append(q.where, b.String())
	return q
}

// Eq adds "column = value" when value is not empty.
func (q *QueryBuilder) Eq(column string, value string) *QueryBuilder {
	if value == "" {
		return q
	}
	return q.Where(column+" = ?", value)
}

// EqAny adds "column = value" when value is not nil.
func (q *QueryBuilder) EqAny(column string, value any) *QueryBuilder {
	if value == nil {
		return q
	}
	return q.Where(column+" = ?", value)
}

// In adds "column = ANY(values)" when values is not empty.
func (q *QueryBuilder) In(column string, values []string) *QueryBuilder {
	if len(values) == 0 {
		return q
	}
	return q.Where(column+" = ANY(?)", values)
}

// Contains adds a case-insensitive substring match across the given columns.
func (q *QueryBuilder) Contains(value string, columns ...string) *QueryBuilder {
	value = strings.TrimSpace(value)
	if value == "" || len(columns) == 0 {
		return q
	}
	pattern := "%" + escapeLike(value) + "%"
	parts := make([]string, len(columns))
	args := make([]any, len(columns))
	for i, c := range columns {
		parts[i] = c + " ILIKE ?"
		args[i] = pattern
	}
	return q.Where("("+strings.Join(parts, " OR ")+")", args...)
}

// DateRange bounds column by the inclusive range; nil ends are open.
func (q *QueryBuilder) DateRange(column string, from, to *civil.Date) *QueryBuilder {
	if from != nil {
		q.Where(column+" >= ?", DateArg(*from))
	}
	if to != nil {
		q.Where(column+" <= ?", DateArg(*to))
	}
	return q
}

// orderTiebreaker keeps page boundaries stable when the sort column repeats.
const orderTiebreaker = "id"

// OrderBy sets the ORDER BY from a client sort key such as "-end_date".
// Keys are resolved through allowed; unknown keys are rejected. An empty
// key falls back to def. The primary key always breaks ties.
func (q *QueryBuilder) OrderBy(sort string, allowed map[string]string, def string) error {
	if sort == "" {
		q.orderBy = def + ", " + orderTiebreaker
		return nil
	}

	dir := "ASC"
	key := sort
	if strings.HasPrefix(sort, "-") {
		dir = "DESC"
		key = strings.TrimPrefix(sort, "-")
	}

	column, ok := allowed[key]
	if !ok {
		code := "INVALID_SORT"
		return errs.NewBadRequestError(fmt.Sprintf("Cannot sort by %q", key), true, &code, nil, nil)
	}

	q.orderBy = column + " " + dir + ", " + orderTiebreaker
	return nil
}

func (q *QueryBuilder) whereSQL() string {
	if len(q.where) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(q.where, " AND ")
}

// CountSQL returns the COUNT(*) query for the current filters.
func (q *QueryBuilder) CountSQL() (string, []any) {
	return "SELECT COUNT(*) FROM " + q.fromSQL + q.whereSQL(), q.args
}

// Build returns the page query and its arguments.
func (q *QueryBuilder) Build(pq PageQuery) (string, []any) {
	sql := "SELECT " + q.selectSQL + " FROM " + q.fromSQL + q.whereSQL()
	if q.orderBy != "" {
		sql += " ORDER BY " + q.orderBy
	}

	args := append([]any{}, q.args...)
	if pq.Limit > 0 {
		args = append(args, pq.Limit)
		sql += " LIMIT $" + strconv.Itoa(len(args))
	}
	if pq.Offset > 0 {
		args = append(args, pq.Offset)
		sql += " OFFSET $" + strconv.Itoa(len(args))
	}
	return sql, args
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
