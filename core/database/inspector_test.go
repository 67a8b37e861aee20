package database

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func TestGetTableColumns(t *testing.T) {
	db, err := Connect(Config{Driver: "sqlite", Name: ":memory:"})
	require.NoError(t, err)

	err = db.Exec("CREATE TABLE stored_tables (name TEXT PRIMARY KEY, payload BLOB, row_count INTEGER)").Error
	require.NoError(t, err)

	columns, err := GetTableColumns(db, "stored_tables")
	assert.NoError(t, err)
	assert.Len(t, columns, 3)

	colMap := make(map[string]string)
	for _, col := range columns {
		colMap[col.Field] = col.Type
	}

	assert.Equal(t, "text", colMap["name"])
	assert.Equal(t, "blob", colMap["payload"])
	assert.Equal(t, "integer", colMap["row_count"])

	// PRAGMA table_info returns no rows for an unknown table.
	cols, err := GetTableColumns(db, "non_existent")
	assert.NoError(t, err)
	assert.Empty(t, cols)
}

func TestGetTableColumns_MySQL(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	db, err := gorm.Open(mysql.New(mysql.Config{Conn: sqlDB, SkipInitializeWithVersion: true}), &gorm.Config{})
	require.NoError(t, err)

	rows := sqlmock.NewRows([]string{"Field", "Type", "Null", "Key", "Default", "Extra"}).
		AddRow("Name", "VARCHAR(191)", "NO", "PRI", nil, "").
		AddRow("Payload", "LONGBLOB", "YES", "", nil, "")
	mock.ExpectQuery("SHOW COLUMNS FROM `stored_tables`").WillReturnRows(rows)

	columns, err := GetTableColumns(db, "stored_tables")
	require.NoError(t, err)
	require.Len(t, columns, 2)
	assert.Equal(t, "name", columns[0].Field)
	assert.Equal(t, "varchar(191)", columns[0].Type)
	assert.Equal(t, "PRI", columns[0].Key)
	assert.Equal(t, "longblob", columns[1].Type)
	assert.NoError(t, mock.ExpectationsWereMet())
}
