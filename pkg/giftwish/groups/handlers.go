package groups

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/pmarstow/giftwish/pkg/giftwish/auth"
	"github.com/pmarstow/giftwish/pkg/giftwish/models"
	"github.com/pmarstow/giftwish/pkg/giftwish/notify"
	"gorm.io/gorm"
)

// Handler handles group-related requests
type Handler struct {
	db       *gorm.DB
	notifier *notify.Dispatcher
}

// NewHandler creates a new groups handler
func NewHandler(db *gorm.DB, notifier *notify.Dispatcher) *Handler {
	return &Handler{db: db, notifier: notifier}
}

// CreateGroupRequest represents the request to create a group
type CreateGroupRequest struct {
	Name string `json:"name" binding:"required"`
}

// UpdateGroupRequest represents the request to rename a group
type UpdateGroupRequest struct {
	Name string `json:"name" binding:"required"`
}

// GroupResponse represents a group in API responses
type GroupResponse struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	MemberCount int    `json:"member_count,omitempty"`
}

// List returns all groups the current user is a member of
// @Summary List groups
// @Description Get all groups the current user is a member of
// @Tags groups
// @Produce json
// @Success 200 {array} GroupResponse
// @Security BearerAuth
// @Router /groups [get]
func (h *Handler) List(c *gin.Context) {
	userID, _ := auth.GetUserID(c)

	var memberships []models.GroupMembership
	if err := h.db.Preload("Group").Where("user_id = ?", userID).Find(&memberships).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch groups"})
		return
	}

	groups := make([]GroupResponse, len(memberships))
	for i, m := range memberships {
		var memberCount int64
		h.db.Model(&models.GroupMembership{}).Where("group_id = ?", m.GroupID).Count(&memberCount)

		groups[i] = GroupResponse{
			ID:          m.Group.ID,
			Name:        m.Group.Name,
			MemberCount: int(memberCount),
		}
	}

	c.JSON(http.StatusOK, groups)
}

// Create creates a new group with the current user as its first member
// @Summary Create a group
// @Description Create a new group; the creator becomes its first member
// @Tags groups
// @Accept json
// @Produce json
// @Param request body CreateGroupRequest true "Group details"
// @Success 201 {object} GroupResponse
// @Failure 400 {object} map[string]string "Validation error"
// @Security BearerAuth
// @Router /groups [post]
func (h *Handler) Create(c *gin.Context) {
	userID, _ := auth.GetUserID(c)

	var req CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Create group and first membership in a transaction
	var group models.Group
	err := h.db.Transaction(func(tx *gorm.DB) error {
		group = models.Group{Name: req.Name}
		if err := tx.Create(&group).Error; err != nil {
			return err
		}

		membership := models.GroupMembership{
			UserID:  userID,
			GroupID: group.ID,
		}
		return tx.Create(&membership).Error
	})

	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create group"})
		return
	}

	c.JSON(http.StatusCreated, GroupResponse{
		ID:          group.ID,
		Name:        group.Name,
		MemberCount: 1,
	})
}

// Get returns a specific group
// @Summary Get a group
// @Description Get details of a group the current user belongs to
// @Tags groups
// @Produce json
// @Param id path int true "Group ID"
// @Success 200 {object} GroupResponse
// @Failure 404 {object} map[string]string "Group not found"
// @Security BearerAuth
// @Router /groups/{id} [get]
func (h *Handler) Get(c *gin.Context) {
	userID, _ := auth.GetUserID(c)
	groupID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid group ID"})
		return
	}

	// Check membership
	if err := h.db.Where("user_id = ? AND group_id = ?", userID, groupID).First(&models.GroupMembership{}).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Group not found"})
		return
	}

	var group models.Group
	if err := h.db.First(&group, groupID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Group not found"})
		return
	}

	var memberCount int64
	h.db.Model(&models.GroupMembership{}).Where("group_id = ?", groupID).Count(&memberCount)

	c.JSON(http.StatusOK, GroupResponse{
		ID:          group.ID,
		Name:        group.Name,
		MemberCount: int(memberCount),
	})
}

// Update renames a group
// @Summary Rename a group
// @Description Rename a group the current user belongs to
// @Tags groups
// @Accept json
// @Produce json
// @Param id path int true "Group ID"
// @Param request body UpdateGroupRequest true "Updated group details"
// @Success 200 {object} GroupResponse
// @Failure 400 {object} map[string]string "Validation error"
// @Failure 404 {object} map[string]string "Group not found"
// @Security BearerAuth
// @Router /groups/{id} [put]
func (h *Handler) Update(c *gin.Context) {
	userID, _ := auth.GetUserID(c)
	groupID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid group ID"})
		return
	}

	// Check membership
	if err := h.db.Where("user_id = ? AND group_id = ?", userID, groupID).First(&models.GroupMembership{}).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Group not found"})
		return
	}

	var req UpdateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var group models.Group
	if err := h.db.First(&group, groupID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Group not found"})
		return
	}

	group.Name = req.Name
	if err := h.db.Save(&group).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update group"})
		return
	}

	var memberCount int64
	h.db.Model(&models.GroupMembership{}).Where("group_id = ?", groupID).Count(&memberCount)

	c.JSON(http.StatusOK, GroupResponse{
		ID:          group.ID,
		Name:        group.Name,
		MemberCount: int(memberCount),
	})
}

// RegisterRoutes registers group routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.GET("/:id", h.Get)
	rg.PUT("/:id", h.Update)
}
