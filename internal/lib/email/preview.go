package email

// PreviewData holds sample values for every template, used by the local
// preview route.
var PreviewData = map[Template]map[string]any{
	TemplateLeaseRenewed: {
		"DriverName":      "John Rivera",
		"LeaseNumber":     "LS-001042",
		"PreviousEndDate": "2025-03-01",
		"NewEndDate":      "2025-04-26",
		"WeeklyAmount":    "450.00",
	},
	TemplateLeaseExpiring: {
		"DriverName":  "John Rivera",
		"LeaseNumber": "LS-001042",
		"EndDate":     "2025-03-01",
	},
	TemplateLeaseExpired: {
		"DriverName":    "John Rivera",
		"LeaseNumber":   "LS-001042",
		"EndDate":       "2025-03-01",
		"TermCompleted": true,
	},
	TemplateDriverWelcome: {
		"FirstName":        "John",
		"TLCLicenseNumber": "5123456",
	},
	TemplateComplianceDigest: {
		"WindowEnd": "2025-03-31",
		"Expenses": []map[string]any{
			{"category": "insurance", "vehicle_id": "b1f6c3de-0e55-4a8c-9d1f-2c3b4a5d6e7f", "expires_on": "2025-03-15", "amount": "1200.00"},
		},
		"Drivers": []map[string]any{
			{"name": "John Rivera", "tlc_license_expiry": "2025-03-20", "dmv_license_expiry": "2026-08-01"},
		},
	},
}
