package tablestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"table-manager/core/database"
	"table-manager/core/table"

	"github.com/klauspost/compress/zstd"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrNotFound is returned when no table is stored under the requested name.
var ErrNotFound = errors.New("table not found")

var requiredColumns = []string{"name", "payload", "row_count", "environments", "updated_at"}

// Store persists merged tables between import and build runs.
type Store struct {
	db      *gorm.DB
	logger  *zap.Logger
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// New migrates the stored_tables schema and verifies the live columns.
func New(db *gorm.DB, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := db.AutoMigrate(&StoredTable{}); err != nil {
		return nil, fmt.Errorf("failed to migrate table store: %w", err)
	}
	cols, err := database.GetTableColumns(db, StoredTable{}.TableName())
	if err != nil {
		return nil, err
	}
	present := make(map[string]bool, len(cols))
	for _, c := range cols {
		present[c.Field] = true
	}
	for _, name := range requiredColumns {
		if !present[name] {
			return nil, fmt.Errorf("table store schema is missing column %q", name)
		}
	}
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("failed to create payload encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create payload decoder: %w", err)
	}
	return &Store{db: db, logger: logger, encoder: encoder, decoder: decoder}, nil
}

// Save inserts or replaces the table under its name.
func (s *Store) Save(ctx context.Context, f *table.File) error {
	data, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("failed to encode table %s: %w", f.TableName, err)
	}
	rec := StoredTable{
		Name:         f.TableName,
		Payload:      s.encoder.EncodeAll(data, nil),
		RowCount:     len(f.Rows),
		Environments: strings.Join(f.EnvironmentNames(), ","),
	}
	if err := s.db.WithContext(ctx).Save(&rec).Error; err != nil {
		return fmt.Errorf("failed to save table %s: %w", f.TableName, err)
	}
	s.logger.Debug("Table stored",
		zap.String("table", f.TableName),
		zap.Int("rows", rec.RowCount),
		zap.Int("payload_bytes", len(rec.Payload)))
	return nil
}

// Load returns the table stored under name.
func (s *Store) Load(ctx context.Context, name string) (*table.File, error) {
	var rec StoredTable
	err := s.db.WithContext(ctx).Where("name = ?", name).Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%s: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load table %s: %w", name, err)
	}

	data, err := s.decoder.DecodeAll(rec.Payload, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress table %s: %w", name, err)
	}
	var f table.File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to decode table %s: %w", name, err)
	}
	return &f, nil
}

// List returns every stored table ordered by name.
func (s *Store) List(ctx context.Context) ([]Summary, error) {
	var recs []StoredTable
	err := s.db.WithContext(ctx).
		Select("name", "row_count", "environments", "updated_at").
		Order("name").
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	out := make([]Summary, len(recs))
	for i, r := range recs {
		out[i] = r.summary()
	}
	return out, nil
}

// Delete removes the table stored under name.
func (s *Store) Delete(ctx context.Context, name string) error {
	res := s.db.WithContext(ctx).Where("name = ?", name).Delete(&StoredTable{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete table %s: %w", name, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%s: %w", name, ErrNotFound)
	}
	return nil
}
