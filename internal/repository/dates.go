package repository

import (
	"time"

	"cloud.google.com/go/civil"
)

// DateArg converts a civil date to the time.Time pgx encodes into DATE.
func DateArg(d civil.Date) time.Time {
	return d.In(time.UTC)
}

// NullDateArg is DateArg for optional dates.
func NullDateArg(d *civil.Date) *time.Time {
	if d == nil {
		return nil
	}
	t := DateArg(*d)
	return &t
}

func toDate(t time.Time) civil.Date {
	return civil.DateOf(t)
}

func toNullDate(t *time.Time) *civil.Date {
	if t == nil {
		return nil
	}
	d := civil.DateOf(*t)
	return &d
}
