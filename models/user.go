// models/user.go
package models

import (
	"time"
)

type User struct {
	ID          uint    `gorm:"primaryKey" json:"id"`
	Username    string  `gorm:"uniqueIndex;not null" json:"username"`
	Email       *string `gorm:"uniqueIndex" json:"email,omitempty"`
	Password    string  `gorm:"not null" json:"-"`
	DisplayName string  `json:"display_name"`
	IsGuest     bool    `gorm:"default:false" json:"is_guest"`
	IsAdmin     bool    `gorm:"default:false" json:"is_admin"`

	// Sprint stats, denormalized for the dashboard
	TotalSprints  int `gorm:"default:0" json:"total_sprints"`
	BestAccuracy  int `gorm:"default:0" json:"best_accuracy"`
	CurrentStreak int `gorm:"default:0" json:"current_streak"`
	BestStreak    int `gorm:"default:0" json:"best_streak"`

	// Timestamps
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	LastLogin    time.Time  `json:"last_login"`
	LastActivity *time.Time `json:"last_activity,omitempty"`

	// Relationships
	Attempts []Attempt `gorm:"foreignKey:UserID" json:"attempts,omitempty"`
}

func (User) TableName() string {
	return "users"
}
