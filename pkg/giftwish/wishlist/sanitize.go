package wishlist

import (
	"time"

	"gorm.io/datatypes"

	"github.com/pmarstow/giftwish/pkg/giftwish/models"
)

// ItemView is the API representation of a wishlist item. Purchase state
// fields are omitted from the JSON encoding when empty, which is how
// Sanitize hides them from the item's owner.
type ItemView struct {
	ID          uint              `json:"id"`
	CreatedAt   time.Time         `json:"created_at"`
	UserID      uint              `json:"user_id"`
	GroupID     uint              `json:"group_id"`
	Name        string            `json:"name"`
	URL         string            `json:"url,omitempty"`
	Price       string            `json:"price,omitempty"`
	Description string            `json:"description,omitempty"`
	ImageURL    string            `json:"image_url,omitempty"`
	Status      string            `json:"status,omitempty"`
	GottenBy    *uint             `json:"gotten_by,omitempty"`
	Receipt     string            `json:"receipt,omitempty"`
	IsSurprise  bool              `json:"is_surprise"`
	Metadata    datatypes.JSONMap `json:"metadata,omitempty"`
}

// Sanitize converts an item to its API view for a given viewer. When the
// viewer owns the item, Status, GottenBy and Receipt are stripped so the
// owner can never learn whether the item has been purchased. For any other
// viewer the purchase state passes through unchanged.
//
// Pure and total: no side effects, handles every field combination.
func Sanitize(item models.WishlistItem, viewerID uint) ItemView {
	view := ItemView{
		ID:          item.ID,
		CreatedAt:   item.CreatedAt,
		UserID:      item.UserID,
		GroupID:     item.GroupID,
		Name:        item.Name,
		URL:         item.URL,
		Price:       item.Price,
		Description: item.Description,
		ImageURL:    item.ImageURL,
		IsSurprise:  item.IsSurprise,
		Metadata:    item.Metadata,
	}

	if item.UserID == viewerID {
		return view
	}

	view.Status = string(item.Status)
	view.GottenBy = item.GottenBy
	view.Receipt = item.Receipt
	return view
}

// SanitizeAll applies Sanitize to every item in a list
func SanitizeAll(items []models.WishlistItem, viewerID uint) []ItemView {
	views := make([]ItemView, len(items))
	for i, item := range items {
		views[i] = Sanitize(item, viewerID)
	}
	return views
}
