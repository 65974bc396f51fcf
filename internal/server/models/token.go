package models

import "time"

// Token is an opaque bearer credential bound to a user.
type Token struct {
	ID          int64
	UserID      int64
	Token       string
	CreatedWhen time.Time
}
