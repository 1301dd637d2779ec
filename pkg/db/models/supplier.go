package models

import (
	"time"

	"github.com/google/uuid"
)

// Supplier is a directory entry for a vendor the buyer can invite. The
// directory is owned by a collaborating system; quotations reference it by id.
type Supplier struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string    `gorm:"column:name;not null"`
	Phone     string    `gorm:"column:phone"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
