package models

import "time"

// Entry is one record-store key in the SQL backend. Value holds the JSON
// array (or plain string, for language) exactly as the client would see it.
type Entry struct {
	Key       string `gorm:"column:entry_key;primaryKey;size:64"`
	Value     string `gorm:"type:text;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
