package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kdimtricp/xgtag/internal/records"
)

type recordRow struct {
	Kind      string    `gorm:"column:kind;primaryKey"`
	ID        string    `gorm:"column:id;primaryKey"`
	Payload   string    `gorm:"column:payload;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}

func (recordRow) TableName() string {
	return "records"
}

// RecordRepository is the SQL backend of records.Store: one row per record,
// keyed by (kind, id). Payloads are stored as text so that a corrupt record
// surfaces the same way it does in the file backend.
type RecordRepository struct {
	db *DB
}

func NewRecordRepository(db *DB) *RecordRepository {
	return &RecordRepository{db: db}
}

func (r *RecordRepository) List(ctx context.Context, kind records.Kind) ([]records.Unit, []records.Warning, error) {
	var rows []recordRow
	result := r.db.GORM().WithContext(ctx).Where("kind = ?", string(kind)).Order("id ASC").Find(&rows)
	if result.Error != nil {
		return nil, nil, fmt.Errorf("failed to list %s records: %w", kind, result.Error)
	}

	units := make([]records.Unit, 0, len(rows))
	for _, row := range rows {
		units = append(units, records.Unit{Kind: kind, ID: row.ID, Data: []byte(row.Payload)})
	}
	return units, nil, nil
}

func (r *RecordRepository) Get(ctx context.Context, kind records.Kind, id string) (records.Unit, error) {
	if err := records.ValidateID(id); err != nil {
		return records.Unit{}, err
	}

	var row recordRow
	result := r.db.GORM().WithContext(ctx).Where("kind = ? AND id = ?", string(kind), id).Take(&row)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return records.Unit{}, fmt.Errorf("%w: %s", records.ErrNotFound, kind.UnitName(id))
		}
		return records.Unit{}, fmt.Errorf("failed to get %s: %w", kind.UnitName(id), result.Error)
	}
	return records.Unit{Kind: kind, ID: row.ID, Data: []byte(row.Payload)}, nil
}

func (r *RecordRepository) Put(ctx context.Context, kind records.Kind, id string, data []byte) error {
	if err := records.ValidateID(id); err != nil {
		return err
	}

	row := recordRow{
		Kind:      string(kind),
		ID:        id,
		Payload:   string(data),
		UpdatedAt: time.Now().UTC(),
	}
	result := r.db.GORM().WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "kind"}, {Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
		}).
		Create(&row)
	if result.Error != nil {
		return fmt.Errorf("failed to save %s: %w", kind.UnitName(id), result.Error)
	}
	return nil
}

func (r *RecordRepository) DeleteAll(ctx context.Context, kind records.Kind) (int, error) {
	result := r.db.GORM().WithContext(ctx).Where("kind = ?", string(kind)).Delete(&recordRow{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete %s records: %w", kind, result.Error)
	}
	return int(result.RowsAffected), nil
}
