package model

import "time"

// User owns tasks. Removing a user removes its tasks.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"size:100;not null" json:"username"`
	Email     *string   `gorm:"size:255" json:"email,omitempty"`
	FullName  *string   `gorm:"size:255" json:"fullName,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Tasks     []Task    `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"tasks,omitempty"`
}
