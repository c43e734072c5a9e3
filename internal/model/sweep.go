package model

// SweepResult counts what one sweep run did.
type SweepResult struct {
	Sweep     string `json:"sweep"`
	Processed int    `json:"processed"`
	Succeeded int    `json:"succeeded"`
	Failed    int    `json:"failed"`
	Skipped   int    `json:"skipped"`
}
