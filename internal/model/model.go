// Package model holds the fleet's domain records and their status enums.
package model

import (
	"time"

	"github.com/google/uuid"
)

// Base carries the columns every table shares.
type Base struct {
	ID        uuid.UUID `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
