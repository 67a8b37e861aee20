// Package database handles database connections and schema inspection.
//
// It wraps GORM to open either a local SQLite file (the default, suitable for
// a single workstation) or a shared MySQL server, based on the application's
// configuration.
//
// # Schema Inspection
//
// GetTableColumns reads a table's live column list. The table store uses it to
// verify, after migration, that the backing table carries every column it
// writes.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    log.Fatal("Database connection failed", err)
//	}
//
//	columns, err := database.GetTableColumns(db, "stored_tables")
package database
