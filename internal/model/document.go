package model

import (
	"github.com/google/uuid"
)

type ObjectType string

const (
	ObjectTypeVehicle   ObjectType = "vehicle"
	ObjectTypeDriver    ObjectType = "driver"
	ObjectTypeLease     ObjectType = "lease"
	ObjectTypeMedallion ObjectType = "medallion"
	ObjectTypeExpense   ObjectType = "expense"
	ObjectTypeCase      ObjectType = "case"
)

// Document is the metadata of a file held in object storage.
type Document struct {
	Base
	ObjectType   ObjectType `json:"object_type"`
	ObjectID     uuid.UUID  `json:"object_id"`
	DocumentType string     `json:"document_type"`
	Filename     string     `json:"filename"`
	StoragePath  string     `json:"storage_path"`
	Size         int64      `json:"size"`
	ContentType  string     `json:"content_type"`
	UploadedBy   *string    `json:"uploaded_by"`
	DownloadURL  string     `json:"download_url,omitempty"`
}
