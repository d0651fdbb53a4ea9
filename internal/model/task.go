package model

import "time"

// Task represents a single item on the board.
type Task struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Title       string    `gorm:"size:200;not null" json:"title"`
	Description *string   `gorm:"type:text" json:"description,omitempty"`
	Completed   bool      `gorm:"not null;default:false" json:"completed"`
	Priority    Priority  `gorm:"size:10;not null;default:medium" json:"priority"`
	DueDate     *Date     `json:"dueDate,omitempty"`
	UserID      uint      `gorm:"not null;index" json:"userId"`
	CategoryID  *uint     `gorm:"index" json:"categoryId"`
	CreatedAt   time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	User        *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Category    *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}

// Overdue reports whether the task is open and its due date has passed.
func (t Task) Overdue(now time.Time) bool {
	if t.Completed || t.DueDate == nil {
		return false
	}
	return t.DueDate.EndOfDay(now.Location()).Before(now)
}
