// Package service contains the business logic.
//
// It sits between the handler and repository layers: it enforces the fleet's
// lifecycle rules, runs multi-record changes inside one transaction and
// queues the notices that follow them.
package service

import (
	"time"

	"cloud.google.com/go/civil"
	"github.com/kryptonation/creamrun-sub000/internal/errs"
)

// Clock returns the current time. Tests replace it.
type Clock func() time.Time

// todayIn is the calendar day of now in loc.
func todayIn(now Clock, loc *time.Location) civil.Date {
	return civil.DateOf(now().In(loc))
}

func ptr[T any](v T) *T {
	return &v
}

var errMedallionAssignment = errs.NewRuleError("MEDALLION_ASSIGNMENT",
	"Medallion assignment changes through the vehicle medallion endpoints")
