package models

import (
	"time"

	"github.com/google/uuid"
)

// Item is an inventory catalog entry. The catalog itself is owned by a
// collaborating system; quotations only reference it by id.
type Item struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string    `gorm:"column:name;not null"`
	UnitType  string    `gorm:"column:unit_type;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
