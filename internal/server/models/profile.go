package models

import "encoding/json"

// Profile is reference data describing one kind of processing a report can undergo.
type Profile struct {
	ID          int64           `json:"id"`
	MachineName string          `json:"machine_name"`
	HumanName   string          `json:"human_name"`
	Module      string          `json:"module"`
	Config      json.RawMessage `json:"config,omitempty"`
}
