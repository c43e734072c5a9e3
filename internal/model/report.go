package model

import "github.com/shopspring/decimal"

// StatusCount is the number of records in one status.
type StatusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// FleetReport counts vehicles, medallions and drivers by status.
type FleetReport struct {
	Vehicles   []StatusCount `json:"vehicles"`
	Medallions []StatusCount `json:"medallions"`
	Drivers    []StatusCount `json:"drivers"`
}

// LeaseReport summarises the active lease book.
type LeaseReport struct {
	ActiveLeases   int             `json:"active_leases"`
	WeeklyRevenue  decimal.Decimal `json:"weekly_revenue"`
	ExpiringSoon   int             `json:"expiring_soon"`
	RecentRenewals int             `json:"recent_renewals"`
	ByType         []StatusCount   `json:"by_type"`
}
