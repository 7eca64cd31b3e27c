package persistence

import (
	"database/sql"
	"time"
)

// Scannable abstracts *sql.Row and *sql.Rows for shared scan helpers.
type Scannable interface {
	Scan(dest ...interface{}) error
}

// parseTime tolerates the driver returning timestamps as time.Time or raw
// bytes, depending on parseTime DSN support and column type.
func parseTime(val interface{}) time.Time {
	if val == nil {
		return time.Time{}
	}
	switch v := val.(type) {
	case time.Time:
		return v
	case []uint8:
		str := string(v)
		if t, err := time.Parse("2006-01-02 15:04:05", str); err == nil {
			return t
		}
		if t, err := time.Parse(time.RFC3339, str); err == nil {
			return t
		}
	}
	return time.Time{}
}

// nullableTime converts a sql.NullTime to a *time.Time.
func nullableTime(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}
