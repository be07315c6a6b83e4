package groups

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/pmarstow/giftwish/pkg/giftwish/auth"
	"github.com/pmarstow/giftwish/pkg/giftwish/models"
	"github.com/pmarstow/giftwish/pkg/giftwish/notify"
)

// MemberResponse represents a group member in API responses
type MemberResponse struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
}

// AddMemberRequest represents a request to add a member by username
type AddMemberRequest struct {
	Username string `json:"username" binding:"required"`
}

// ListMembers returns all members of a group
// @Summary List group members
// @Description Get all members of a group the current user belongs to
// @Tags groups
// @Produce json
// @Param id path int true "Group ID"
// @Success 200 {array} MemberResponse
// @Failure 404 {object} map[string]string "Group not found"
// @Security BearerAuth
// @Router /groups/{id}/members [get]
func (h *Handler) ListMembers(c *gin.Context) {
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

	var memberships []models.GroupMembership
	if err := h.db.Preload("User").Where("group_id = ?", groupID).Find(&memberships).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch members"})
		return
	}

	members := make([]MemberResponse, len(memberships))
	for i, m := range memberships {
		members[i] = MemberResponse{
			ID:       m.User.ID,
			Username: m.User.Username,
			Email:    m.User.Email,
		}
	}

	c.JSON(http.StatusOK, members)
}

// AddMember adds a user to a group by username and notifies them
// @Summary Add a group member
// @Description Add a user to a group by username; the new member is notified by email
// @Tags groups
// @Accept json
// @Produce json
// @Param id path int true "Group ID"
// @Param request body AddMemberRequest true "Member to add"
// @Success 201 {object} MemberResponse
// @Failure 404 {object} map[string]string "User or group not found"
// @Failure 409 {object} map[string]string "User is already a member"
// @Security BearerAuth
// @Router /groups/{id}/members [post]
func (h *Handler) AddMember(c *gin.Context) {
	userID, _ := auth.GetUserID(c)
	actorName, _ := auth.GetUsername(c)
	groupID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid group ID"})
		return
	}

	// Requester must belong to the group
	if err := h.db.Where("user_id = ? AND group_id = ?", userID, groupID).First(&models.GroupMembership{}).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Group not found"})
		return
	}

	var req AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Find user by username
	var targetUser models.User
	if err := h.db.Where("username = ?", req.Username).First(&targetUser).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	var group models.Group
	if err := h.db.First(&group, groupID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Group not found"})
		return
	}

	// Check if already a member
	var existingMembership models.GroupMembership
	if err := h.db.Where("user_id = ? AND group_id = ?", targetUser.ID, groupID).First(&existingMembership).Error; err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "User is already a member"})
		return
	}

	membership := models.GroupMembership{
		UserID:  targetUser.ID,
		GroupID: uint(groupID),
	}

	if err := h.db.Create(&membership).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add member"})
		return
	}

	// Best-effort welcome email; the membership stands even if it fails
	h.notifier.Notify(c.Request.Context(), notify.KindMemberAdded, notify.Data{
		User:      targetUser,
		Group:     &group,
		ActorName: actorName,
	})

	c.JSON(http.StatusCreated, MemberResponse{
		ID:       targetUser.ID,
		Username: targetUser.Username,
		Email:    targetUser.Email,
	})
}

// RegisterMemberRoutes registers member management routes
func (h *Handler) RegisterMemberRoutes(rg *gin.RouterGroup) {
	rg.GET("/:id/members", h.ListMembers)
	rg.POST("/:id/members", h.AddMember)
}
