package domain

import "time"

// Attempt summarizes one processed work item for the attempt ledger
type Attempt struct {
	RunID         string     `json:"run_id"`
	WorkList      string     `json:"work_list"`
	ItemIndex     int        `json:"item_index"`
	Identifier    string     `json:"identifier"`
	Resolution    Resolution `json:"resolution"`
	MissingFields int        `json:"missing_fields"`
	DurationMS    int64      `json:"duration_ms"`
	CreatedAt     time.Time  `json:"created_at"`
}
