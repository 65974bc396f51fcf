// Package models defines server-side data models persisted in the database.
package models

type User struct {
	ID             int64
	UserName       string
	HashedPassword string
	Rank           int32
}
