package posgrest

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// repository is a generic GORM-based repository implementation.
type repository[T interface{}] struct {
	db *gorm.DB
}

// New creates a new generic repository instance for type T.
func New[T interface{}](db *gorm.DB) *repository[T] {
	return &repository[T]{
		db,
	}
}

// Upsert inserts entity or, when a row with the same conflict columns
// exists, overwrites only the update columns of that row.
func (r *repository[T]) Upsert(ctx context.Context, entity *T, conflict []string, update []string) error {
	columns := make([]clause.Column, len(conflict))
	for i, name := range conflict {
		columns[i] = clause.Column{Name: name}
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   columns,
			DoUpdates: clause.AssignmentColumns(update),
		}).
		Create(entity).Error
}

// FirstBy retrieves the first entity matching a specific field value.
func (r *repository[T]) FirstBy(ctx context.Context, key string, value interface{}) (*T, error) {
	var entity T
	if err := r.db.WithContext(ctx).Where(key+" = ?", value).First(&entity).Error; err != nil {
		return nil, err
	}
	return &entity, nil
}
