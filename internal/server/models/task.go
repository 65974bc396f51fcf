package models

import "time"

// TaskStatusPending is the status every task is created with. Later states
// belong to the worker pool.
const TaskStatusPending = "pending"

type Task struct {
	ID            int64      `json:"id"`
	ReportID      int64      `json:"report_id"`
	ProfileID     int64      `json:"profile_id"`
	CreatedWhen   time.Time  `json:"created_when"`
	CompletedWhen *time.Time `json:"completed_when"`
	Status        string     `json:"status"`
}
