package model

// Sequence is a named monotonic counter backing human-readable identifier
// generation (item codes, transaction numbers, requisition numbers).
// Incremented with a single atomic upsert so concurrent writers can never
// observe the same value.
type Sequence struct {
	Name  string `gorm:"primaryKey;size:64"`
	Value int64  `gorm:"not null;default:0"`
}

func (Sequence) TableName() string { return "sequences" }
