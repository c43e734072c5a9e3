package model

import (
	"cloud.google.com/go/civil"
	"github.com/google/uuid"
)

type MedallionType string

const (
	MedallionTypeRegular MedallionType = "regular"
	MedallionTypeWAV     MedallionType = "wav"
)

type MedallionStatus string

const (
	MedallionStatusInStorage MedallionStatus = "in_storage"
	MedallionStatusActive    MedallionStatus = "active"
	MedallionStatusAssigned  MedallionStatus = "assigned"
)

type Medallion struct {
	Base
	MedallionNumber string          `json:"medallion_number"`
	MedallionType   MedallionType   `json:"medallion_type"`
	OwnerEntityID   uuid.UUID       `json:"owner_entity_id"`
	Status          MedallionStatus `json:"status"`
	RenewalDate     *civil.Date     `json:"renewal_date"`
}

type EntityType string

const (
	EntityTypeCorporation EntityType = "corporation"
	EntityTypeIndividual  EntityType = "individual"
)

// Entity is a medallion owner: a corporation or an individual.
type Entity struct {
	Base
	EntityType EntityType `json:"entity_type"`
	Name       string     `json:"name"`
	TaxIDLast4 *string    `json:"tax_id_last4"`
	Email      *string    `json:"email"`
	Phone      *string    `json:"phone"`
	Address    *string    `json:"address"`
}
