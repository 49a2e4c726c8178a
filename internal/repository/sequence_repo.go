package repository

import (
	"gorm.io/gorm"
)

// SequenceRepository hands out monotonic values for named counters.
// Next must be called inside the same transaction as the insert that consumes
// the number, so an aborted insert never burns a visible gap mid-transaction
// and two writers can never read the same value.
type SequenceRepository interface {
	Next(tx *gorm.DB, name string) (int64, error)
}

type sequenceRepo struct{ db *gorm.DB }

func NewSequenceRepository(db *gorm.DB) SequenceRepository { return &sequenceRepo{db: db} }

func (r *sequenceRepo) Next(tx *gorm.DB, name string) (int64, error) {
	if tx == nil {
		tx = r.db
	}
	var value int64
	err := tx.Raw(`
		INSERT INTO sequences (name, value) VALUES (?, 1)
		ON CONFLICT (name) DO UPDATE SET value = sequences.value + 1
		RETURNING value`, name).Scan(&value).Error
	return value, err
}
