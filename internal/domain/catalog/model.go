package catalog

import (
	"github.com/google/uuid"
)

// ExamService is a bookable examination type with its price.
type ExamService struct {
	ID          uuid.UUID `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description *string   `db:"description" json:"description,omitempty"`
	Price       int64     `db:"price" json:"price"`
	Active      bool      `db:"active" json:"active"`
}

// LabTest is a diagnostic test offered by the clinic with its list price.
type LabTest struct {
	ID    uuid.UUID `db:"id" json:"id"`
	Name  string    `db:"name" json:"name"`
	Price int64     `db:"price" json:"price"`
}

// Medicine is a dispensable medicine with its unit price.
type Medicine struct {
	ID    uuid.UUID `db:"id" json:"id"`
	Name  string    `db:"name" json:"name"`
	Unit  string    `db:"unit" json:"unit"`
	Price int64     `db:"price" json:"price"`
}
