// Package export writes search results as CSV attachments.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
)

// ContentType is the media type of an export.
const ContentType = "text/csv; charset=utf-8"

// Column maps one CSV column to a value of T.
type Column[T any] struct {
	Header string
	Value  func(T) string
}

// Write emits a header row and one row per item.
func Write[T any](w io.Writer, cols []Column[T], items []T) error {
	cw := csv.NewWriter(w)

	header := make([]string, len(cols))
	for i, c := range cols {
		header[i] = c.Header
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	record := make([]string, len(cols))
	for _, item := range items {
		for i, c := range cols {
			record[i] = c.Value(item)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// Filename builds "<name>-YYYYMMDD.csv" for the given time.
func Filename(name string, at time.Time) string {
	return fmt.Sprintf("%s-%s.csv", name, at.Format("20060102"))
}

func Str(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func Date(d *civil.Date) string {
	if d == nil {
		return ""
	}
	return d.String()
}

func UUID(id *uuid.UUID) string {
	if id == nil {
		return ""
	}
	return id.String()
}
