package model

import "time"

// DefaultCategoryColor is used when a category is created without a color.
const DefaultCategoryColor = "#3B82F6"

// Category groups tasks by area (work, health, study, etc.).
type Category struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:50;not null" json:"name"`
	Color     string    `gorm:"size:7;not null;default:#3B82F6" json:"color"`
	Icon      *string   `gorm:"size:50" json:"icon,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	Tasks     []Task    `gorm:"foreignKey:CategoryID;constraint:OnDelete:SET NULL" json:"tasks,omitempty"`
}
