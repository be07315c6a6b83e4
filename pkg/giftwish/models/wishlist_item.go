package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ItemStatus represents the purchase state of a wishlist item
type ItemStatus string

const (
	ItemStatusAvailable ItemStatus = "available"
	ItemStatusGotten    ItemStatus = "gotten"
)

// WishlistItem represents a single item on a user's wishlist within a group.
// Status, GottenBy and Receipt are only ever set on the available -> gotten
// transition and must never be shown to the item's owner.
type WishlistItem struct {
	ID          uint              `gorm:"primarykey" json:"id"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
	DeletedAt   gorm.DeletedAt    `gorm:"index" json:"-"`
	UserID      uint              `gorm:"not null;index" json:"user_id"`
	GroupID     uint              `gorm:"not null;index" json:"group_id"`
	Name        string            `gorm:"not null" json:"name"`
	URL         string            `json:"url,omitempty"`
	Price       string            `json:"price,omitempty"`
	Description string            `json:"description,omitempty"`
	ImageURL    string            `json:"image_url,omitempty"`
	Status      ItemStatus        `gorm:"type:varchar(20);default:'available'" json:"status"`
	GottenBy    *uint             `json:"gotten_by,omitempty"`
	Receipt     string            `json:"receipt,omitempty"` // Opaque, e.g. a data: URL of a receipt image
	IsSurprise  bool              `gorm:"default:false" json:"is_surprise"`
	Metadata    datatypes.JSONMap `json:"metadata,omitempty"`

	// Relationships
	Owner User  `gorm:"foreignKey:UserID" json:"owner,omitempty"`
	Group Group `gorm:"foreignKey:GroupID" json:"group,omitempty"`
}
