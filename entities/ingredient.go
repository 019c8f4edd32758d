package entities

import (
	"github.com/google/uuid"
)

// Ingredient is reference data. The (name, measurement_unit) pair is unique
// case-insensitively; the index on lower(name), lower(measurement_unit) is
// created in the migration since gorm tags cannot express expression indexes.
type Ingredient struct {
	ID              uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	Name            string    `gorm:"type:varchar(128)" json:"name"`
	MeasurementUnit string    `gorm:"type:varchar(64)" json:"measurement_unit"`
}
