package model

import (
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type VehicleStatus string

const (
	VehicleStatusPurchased    VehicleStatus = "purchased"
	VehicleStatusDelivered    VehicleStatus = "delivered"
	VehicleStatusHackingUp    VehicleStatus = "hacking_up"
	VehicleStatusHackedUp     VehicleStatus = "hacked_up"
	VehicleStatusRegistered   VehicleStatus = "registered"
	VehicleStatusAvailable    VehicleStatus = "available"
	VehicleStatusLeased       VehicleStatus = "leased"
	VehicleStatusOutOfService VehicleStatus = "out_of_service"
	VehicleStatusRetired      VehicleStatus = "retired"
)

type VehicleType string

const (
	VehicleTypeRegular VehicleType = "regular"
	VehicleTypeHybrid  VehicleType = "hybrid"
	VehicleTypeWAV     VehicleType = "wav"
	VehicleTypeEV      VehicleType = "ev"
)

// vehicleTransitions lists the statuses reachable from each status.
// leased is entered and left for available only through lease activation,
// expiry and termination.
var vehicleTransitions = map[VehicleStatus][]VehicleStatus{
	VehicleStatusPurchased:    {VehicleStatusDelivered, VehicleStatusRetired},
	VehicleStatusDelivered:    {VehicleStatusHackingUp, VehicleStatusRetired},
	VehicleStatusHackingUp:    {VehicleStatusHackedUp, VehicleStatusRetired},
	VehicleStatusHackedUp:     {VehicleStatusRegistered, VehicleStatusRetired},
	VehicleStatusRegistered:   {VehicleStatusAvailable, VehicleStatusOutOfService, VehicleStatusRetired},
	VehicleStatusAvailable:    {VehicleStatusLeased, VehicleStatusOutOfService, VehicleStatusRetired},
	VehicleStatusLeased:       {VehicleStatusAvailable, VehicleStatusOutOfService},
	VehicleStatusOutOfService: {VehicleStatusAvailable, VehicleStatusRetired},
	VehicleStatusRetired:      {},
}

// CanTransition reports whether a vehicle may move from one status to another.
func CanTransition(from, to VehicleStatus) bool {
	for _, next := range vehicleTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// LeaseManaged reports whether the move is reserved for lease operations.
func LeaseManaged(from, to VehicleStatus) bool {
	return to == VehicleStatusLeased || (from == VehicleStatusLeased && to == VehicleStatusAvailable)
}

type Vehicle struct {
	Base
	VIN                string          `json:"vin"`
	Make               string          `json:"make"`
	Model              string          `json:"model"`
	ModelYear          int             `json:"model_year"`
	VehicleType        VehicleType     `json:"vehicle_type"`
	MedallionID        *uuid.UUID      `json:"medallion_id"`
	PlateNumber        *string         `json:"plate_number"`
	RegistrationExpiry *civil.Date     `json:"registration_expiry"`
	PurchasePrice      decimal.Decimal `json:"purchase_price"`
	PurchaseDate       civil.Date      `json:"purchase_date"`
	Status             VehicleStatus   `json:"status"`
	DeliveredAt        *time.Time      `json:"delivered_at"`
	HackedUpAt         *time.Time      `json:"hacked_up_at"`
	RegisteredAt       *time.Time      `json:"registered_at"`
}

type HackupTaskType string

const (
	HackupTaskMeter      HackupTaskType = "meter"
	HackupTaskCamera     HackupTaskType = "camera"
	HackupTaskPartition  HackupTaskType = "partition"
	HackupTaskRoofLight  HackupTaskType = "roof_light"
	HackupTaskDecals     HackupTaskType = "decals"
	HackupTaskInspection HackupTaskType = "inspection"
)

// HackupTaskTypes is the full set of work a vehicle needs before it can be registered.
var HackupTaskTypes = []HackupTaskType{
	HackupTaskMeter,
	HackupTaskCamera,
	HackupTaskPartition,
	HackupTaskRoofLight,
	HackupTaskDecals,
	HackupTaskInspection,
}

type HackupTaskStatus string

const (
	HackupTaskPending    HackupTaskStatus = "pending"
	HackupTaskInProgress HackupTaskStatus = "in_progress"
	HackupTaskCompleted  HackupTaskStatus = "completed"
)

type HackupTask struct {
	Base
	VehicleID   uuid.UUID        `json:"vehicle_id"`
	TaskType    HackupTaskType   `json:"task_type"`
	Status      HackupTaskStatus `json:"status"`
	Vendor      *string          `json:"vendor"`
	Cost        decimal.Decimal  `json:"cost"`
	CompletedAt *time.Time       `json:"completed_at"`
	Notes       *string          `json:"notes"`
}

// HackupComplete reports whether every task is completed. An empty task list
// is not complete.
func HackupComplete(tasks []HackupTask) bool {
	if len(tasks) == 0 {
		return false
	}
	for _, t := range tasks {
		if t.Status != HackupTaskCompleted {
			return false
		}
	}
	return true
}
