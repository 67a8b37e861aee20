package tablestore

import (
	"strings"
	"time"
)

// StoredTable is the persisted form of one merged table.
type StoredTable struct {
	Name string `gorm:"primaryKey;size:191"`
	// Payload is the zstd-compressed JSON encoding of the table.
	Payload      []byte
	RowCount     int
	Environments string `gorm:"size:512"`
	UpdatedAt    time.Time
}

// TableName overrides the table name used by StoredTable to `stored_tables`.
func (StoredTable) TableName() string {
	return "stored_tables"
}

// Summary describes a stored table without its payload.
type Summary struct {
	Name         string
	RowCount     int
	Environments []string
	UpdatedAt    time.Time
}

func (s StoredTable) summary() Summary {
	var envs []string
	if s.Environments != "" {
		envs = strings.Split(s.Environments, ",")
	}
	return Summary{
		Name:         s.Name,
		RowCount:     s.RowCount,
		Environments: envs,
		UpdatedAt:    s.UpdatedAt,
	}
}
