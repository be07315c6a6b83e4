package models

import (
	"time"

	"gorm.io/gorm"
)

// Group represents a gift group whose members share wishlists with each other
type Group struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	Name      string         `gorm:"not null" json:"name"`

	// Relationships
	Members []GroupMembership `gorm:"foreignKey:GroupID" json:"members,omitempty"`
	Items   []WishlistItem    `gorm:"foreignKey:GroupID" json:"items,omitempty"`
}
