package wishlist

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/pmarstow/giftwish/pkg/giftwish/auth"
	"github.com/pmarstow/giftwish/pkg/giftwish/models"
	"github.com/pmarstow/giftwish/pkg/giftwish/notify"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Handler handles wishlist item requests
type Handler struct {
	db       *gorm.DB
	notifier *notify.Dispatcher
}

// NewHandler creates a new wishlist handler
func NewHandler(db *gorm.DB, notifier *notify.Dispatcher) *Handler {
	return &Handler{db: db, notifier: notifier}
}

// CreateItemRequest represents the request to add a wishlist item.
// Any user_id/group_id in the payload is ignored; ownership comes from the
// authenticated requester and the URL path.
type CreateItemRequest struct {
	Name        string            `json:"name" binding:"required"`
	URL         string            `json:"url"`
	Price       string            `json:"price"`
	Description string            `json:"description"`
	ImageURL    string            `json:"image_url"`
	IsSurprise  bool              `json:"is_surprise"`
	Metadata    datatypes.JSONMap `json:"metadata"`
}

// PurchaseRequest represents the request to mark an item purchased
type PurchaseRequest struct {
	Receipt string `json:"receipt"`
}

// Create adds an item to the requester's wishlist in a group
// @Summary Add a wishlist item
// @Description Add an item to the current user's wishlist in a group; other members are notified unless the item is a surprise
// @Tags wishlist
// @Accept json
// @Produce json
// @Param id path int true "Group ID"
// @Param request body CreateItemRequest true "Item details"
// @Success 201 {object} ItemView
// @Failure 400 {object} map[string]string "Validation error"
// @Failure 404 {object} map[string]string "Group not found"
// @Security BearerAuth
// @Router /groups/{id}/wishlist [post]
func (h *Handler) Create(c *gin.Context) {
	userID, _ := auth.GetUserID(c)
	actorName, _ := auth.GetUsername(c)
	groupID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid group ID"})
		return
	}

	// The owner must belong to the group before anything is written
	if err := h.db.Where("user_id = ? AND group_id = ?", userID, groupID).First(&models.GroupMembership{}).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Group not found"})
		return
	}

	var req CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Ownership is forced from the token and path, never the payload
	item := models.WishlistItem{
		UserID:      userID,
		GroupID:     uint(groupID),
		Name:        req.Name,
		URL:         req.URL,
		Price:       req.Price,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		Status:      models.ItemStatusAvailable,
		IsSurprise:  req.IsSurprise,
		Metadata:    req.Metadata,
	}

	if err := h.db.Create(&item).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create item"})
		return
	}

	// Tell the rest of the group, unless the item is a surprise. Creation
	// has already committed; delivery failures only get logged.
	if !item.IsSurprise {
		h.notifyItemAdded(c, item, actorName)
	}

	c.JSON(http.StatusCreated, Sanitize(item, userID))
}

// notifyItemAdded sends ItemAdded to every group member except the creator
func (h *Handler) notifyItemAdded(c *gin.Context, item models.WishlistItem, actorName string) {
	var group models.Group
	if err := h.db.First(&group, item.GroupID).Error; err != nil {
		return
	}

	var memberships []models.GroupMembership
	if err := h.db.Preload("User").Where("group_id = ?", item.GroupID).Find(&memberships).Error; err != nil {
		return
	}

	for _, m := range memberships {
		if m.UserID == item.UserID {
			continue
		}
		h.notifier.Notify(c.Request.Context(), notify.KindItemAdded, notify.Data{
			User:      m.User,
			Group:     &group,
			Item:      &item,
			ActorName: actorName,
		})
	}
}

// ListForOwner returns a user's wishlist within a group, sanitized for the viewer
// @Summary Get a member's wishlist
// @Description Get a user's wishlist within a group. Purchase state is hidden when the viewer is the list's owner.
// @Tags wishlist
// @Produce json
// @Param id path int true "Group ID"
// @Param userId path int true "Wishlist owner's user ID"
// @Success 200 {array} ItemView
// @Failure 404 {object} map[string]string "Group not found"
// @Security BearerAuth
// @Router /groups/{id}/wishlist/{userId} [get]
func (h *Handler) ListForOwner(c *gin.Context) {
	viewerID, _ := auth.GetUserID(c)
	groupID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid group ID"})
		return
	}
	ownerID, err := strconv.ParseUint(c.Param("userId"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	// Viewer must belong to the group
	if err := h.db.Where("user_id = ? AND group_id = ?", viewerID, groupID).First(&models.GroupMembership{}).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Group not found"})
		return
	}

	var items []models.WishlistItem
	if err := h.db.Where("user_id = ? AND group_id = ?", ownerID, groupID).Find(&items).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch wishlist"})
		return
	}

	c.JSON(http.StatusOK, SanitizeAll(items, viewerID))
}

// MarkPurchased marks an item as gotten by the requester
// @Summary Mark an item purchased
// @Description Mark a wishlist item as gotten, recording the purchaser and receipt. The item's owner is notified without any purchase detail.
// @Tags wishlist
// @Accept json
// @Produce json
// @Param id path int true "Item ID"
// @Param request body PurchaseRequest true "Purchase details"
// @Success 200 {object} ItemView
// @Failure 404 {object} map[string]string "Item not found"
// @Security BearerAuth
// @Router /wishlist/{id} [patch]
func (h *Handler) MarkPurchased(c *gin.Context) {
	userID, _ := auth.GetUserID(c)
	itemID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid item ID"})
		return
	}

	var req PurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var item models.WishlistItem
	if err := h.db.First(&item, itemID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Item not found"})
		return
	}

	// Requester must belong to the item's group
	if err := h.db.Where("user_id = ? AND group_id = ?", userID, item.GroupID).First(&models.GroupMembership{}).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Item not found"})
		return
	}

	// Single-row update; concurrent purchases are last-writer-wins
	updates := map[string]interface{}{
		"status":    models.ItemStatusGotten,
		"gotten_by": userID,
		"receipt":   req.Receipt,
	}
	if err := h.db.Model(&item).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update item"})
		return
	}

	item.Status = models.ItemStatusGotten
	item.GottenBy = &userID
	item.Receipt = req.Receipt

	// Owner learns an item was purchased, nothing more
	h.notifyItemPurchased(c, item)

	c.JSON(http.StatusOK, Sanitize(item, userID))
}

// notifyItemPurchased tells the item's owner that something was purchased
func (h *Handler) notifyItemPurchased(c *gin.Context, item models.WishlistItem) {
	var owner models.User
	if err := h.db.First(&owner, item.UserID).Error; err != nil {
		return
	}

	var group models.Group
	if err := h.db.First(&group, item.GroupID).Error; err != nil {
		return
	}

	h.notifier.Notify(c.Request.Context(), notify.KindItemPurchased, notify.Data{
		User:  owner,
		Group: &group,
	})
}

// RegisterGroupRoutes registers the wishlist routes nested under groups
func (h *Handler) RegisterGroupRoutes(rg *gin.RouterGroup) {
	rg.POST("/:id/wishlist", h.Create)
	rg.GET("/:id/wishlist/:userId", h.ListForOwner)
}

// RegisterItemRoutes registers the item-level routes
func (h *Handler) RegisterItemRoutes(rg *gin.RouterGroup) {
	rg.PATCH("/wishlist/:id", h.MarkPurchased)
}
