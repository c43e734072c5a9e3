// Package repository is the persistence layer. Each repository runs plain
// SQL through pgx against either the pool or an open transaction; no
// business rules live here.
package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is satisfied by *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PageQuery holds limit/offset pagination and the client sort key.
type PageQuery struct {
	Limit  int
	Offset int
	Sort   string
}

// PageResult is a generic pagination result wrapper.
type PageResult[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
}

// ExportLimit caps the rows an export may return.
const ExportLimit = 10000

type scanner interface {
	Scan(dest ...any) error
}

// collect scans every row with scan and closes rows.
func collect[T any](rows pgx.Rows, scan func(scanner) (*T, error)) ([]T, error) {
	defer rows.Close()
	items := []T{}
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// page runs the count and page queries built by qb.
func page[T any](ctx context.Context, db DBTX, qb *QueryBuilder, pq PageQuery, scan func(scanner) (*T, error)) (*PageResult[T], error) {
	countSQL, countArgs := qb.CountSQL()
	var total int
	if err := db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, err
	}

	sql, args := qb.Build(pq)
	rows, err := db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	items, err := collect(rows, scan)
	if err != nil {
		return nil, err
	}

	return &PageResult[T]{Items: items, Total: total}, nil
}
