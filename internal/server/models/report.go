package models

import "time"

// Report is an uploaded payload together with its content address.
//
// File is only loaded when the caller needs the bytes; list and get paths
// leave it nil and set HasFile instead.
type Report struct {
	ID            int64     `json:"id"`
	UserID        int64     `json:"user_id"`
	CreatedWhen   time.Time `json:"created_when"`
	FileMultihash string    `json:"file_multihash"`
	HasFile       bool      `json:"has_file"`
	File          []byte    `json:"-"`
}
