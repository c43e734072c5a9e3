package model

import (
	"cloud.google.com/go/civil"
)

type DriverStatus string

const (
	DriverStatusRegistered DriverStatus = "registered"
	DriverStatusActive     DriverStatus = "active"
	DriverStatusSuspended  DriverStatus = "suspended"
	DriverStatusInactive   DriverStatus = "inactive"
)

type Driver struct {
	Base
	FirstName        string       `json:"first_name"`
	LastName         string       `json:"last_name"`
	Email            string       `json:"email"`
	Phone            string       `json:"phone"`
	TLCLicenseNumber string       `json:"tlc_license_number"`
	TLCLicenseExpiry civil.Date   `json:"tlc_license_expiry"`
	DMVLicenseNumber string       `json:"dmv_license_number"`
	DMVLicenseExpiry civil.Date   `json:"dmv_license_expiry"`
	Status           DriverStatus `json:"status"`
}

// FullName joins first and last name.
func (d Driver) FullName() string {
	return d.FirstName + " " + d.LastName
}

// LicensesValidOn reports whether both licenses are unexpired on the given day.
func (d Driver) LicensesValidOn(day civil.Date) bool {
	return !d.TLCLicenseExpiry.Before(day) && !d.DMVLicenseExpiry.Before(day)
}
