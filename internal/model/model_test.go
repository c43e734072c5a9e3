package model

import (
	"testing"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to VehicleStatus
		want     bool
	}{
		{VehicleStatusPurchased, VehicleStatusDelivered, true},
		{VehicleStatusPurchased, VehicleStatusRegistered, false},
		{VehicleStatusDelivered, VehicleStatusHackingUp, true},
		{VehicleStatusHackingUp, VehicleStatusHackedUp, true},
		{VehicleStatusHackedUp, VehicleStatusRegistered, true},
		{VehicleStatusRegistered, VehicleStatusAvailable, true},
		{VehicleStatusAvailable, VehicleStatusLeased, true},
		{VehicleStatusLeased, VehicleStatusRetired, false},
		{VehicleStatusOutOfService, VehicleStatusAvailable, true},
		{VehicleStatusRetired, VehicleStatusAvailable, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}
}

func TestLeaseManaged(t *testing.T) {
	assert.True(t, LeaseManaged(VehicleStatusAvailable, VehicleStatusLeased))
	assert.True(t, LeaseManaged(VehicleStatusLeased, VehicleStatusAvailable))
	assert.False(t, LeaseManaged(VehicleStatusAvailable, VehicleStatusOutOfService))
	assert.False(t, LeaseManaged(VehicleStatusLeased, VehicleStatusOutOfService))
}

func TestHackupComplete(t *testing.T) {
	assert.False(t, HackupComplete(nil))
	assert.False(t, HackupComplete([]HackupTask{
		{Status: HackupTaskCompleted},
		{Status: HackupTaskInProgress},
	}))
	assert.True(t, HackupComplete([]HackupTask{
		{Status: HackupTaskCompleted},
		{Status: HackupTaskCompleted},
	}))
}

func TestDriver_LicensesValidOn(t *testing.T) {
	d := Driver{
		TLCLicenseExpiry: civil.Date{Year: 2025, Month: 6, Day: 30},
		DMVLicenseExpiry: civil.Date{Year: 2026, Month: 1, Day: 15},
	}

	assert.True(t, d.LicensesValidOn(civil.Date{Year: 2025, Month: 6, Day: 30}))
	assert.False(t, d.LicensesValidOn(civil.Date{Year: 2025, Month: 7, Day: 1}))
	assert.Equal(t, " ", Driver{}.FullName())
}

func TestCase_StringData(t *testing.T) {
	c := &Case{Data: map[string]any{"vehicle_id": "abc", "count": 2}}
	assert.Equal(t, "abc", c.StringData("vehicle_id"))
	assert.Equal(t, "", c.StringData("count"))
	assert.Equal(t, "", (&Case{}).StringData("x"))
}
