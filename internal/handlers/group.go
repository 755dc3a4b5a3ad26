package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5"

	"foodshare/internal/auth"
	"foodshare/internal/database"
	"foodshare/internal/models"
)

type GroupHandler struct {
	db        *database.DB
	validator *validator.Validate
}

func NewGroupHandler(db *database.DB) *GroupHandler {
	return &GroupHandler{
		db:        db,
		validator: validator.New(),
	}
}

// CreateGroup inserts the group row and the owner's membership in one
// transaction.
func (h *GroupHandler) CreateGroup(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req models.CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if err := h.validator.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := context.Background()
	tx, err := h.db.Begin(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create group"})
		return
	}
	defer tx.Rollback(ctx)

	var group models.Group
	err = tx.QueryRow(ctx,
		`INSERT INTO groups (owner_id, name, description)
		 VALUES ($1, $2, $3)
		 RETURNING id, owner_id, name, description, created_at`,
		userID, req.Name, req.Description).Scan(
		&group.ID, &group.OwnerID, &group.Name, &group.Description, &group.CreatedAt)

	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create group"})
		return
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO group_members (group_id, user_id, role)
		 VALUES ($1, $2, $3)`,
		group.ID, userID, models.GroupRoleOwner)

	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create group"})
		return
	}

	if err := tx.Commit(ctx); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create group"})
		return
	}

	c.JSON(http.StatusCreated, group)
}

// GetMyGroups lists groups the caller belongs to.
func (h *GroupHandler) GetMyGroups(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	rows, err := h.db.Query(context.Background(),
		`SELECT g.id, g.owner_id, g.name, g.description, g.created_at
		 FROM groups g
		 JOIN group_members gm ON gm.group_id = g.id
		 WHERE gm.user_id = $1
		 ORDER BY g.created_at DESC`,
		userID)

	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch groups"})
		return
	}
	defer rows.Close()

	groups := []models.Group{}
	for rows.Next() {
		var group models.Group
		err := rows.Scan(&group.ID, &group.OwnerID, &group.Name,
			&group.Description, &group.CreatedAt)

		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan group"})
			return
		}

		groups = append(groups, group)
	}

	c.JSON(http.StatusOK, groups)
}

// InviteMember adds a user to the group with the member role. Owner-only;
// inviting an existing member is rejected.
func (h *GroupHandler) InviteMember(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	groupID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid group ID"})
		return
	}

	var req models.InviteMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing friendId in request body"})
		return
	}

	if err := h.validator.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := context.Background()

	var ownerID int
	err = h.db.QueryRow(ctx,
		"SELECT owner_id FROM groups WHERE id = $1",
		groupID).Scan(&ownerID)

	if err != nil {
		if err == pgx.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "Group not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add friend"})
		return
	}

	if ownerID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the group owner can invite members"})
		return
	}

	var invitee bool
	err = h.db.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)",
		req.FriendID).Scan(&invitee)

	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add friend"})
		return
	}

	if !invitee {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	var alreadyMember bool
	err = h.db.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM group_members WHERE group_id = $1 AND user_id = $2)",
		groupID, req.FriendID).Scan(&alreadyMember)

	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add friend"})
		return
	}

	if alreadyMember {
		c.JSON(http.StatusBadRequest, gin.H{"error": "User is already in this group"})
		return
	}

	_, err = h.db.Exec(ctx,
		`INSERT INTO group_members (group_id, user_id, role, preferences)
		 VALUES ($1, $2, $3, $4)`,
		groupID, req.FriendID, models.GroupRoleMember, req.Preferences)

	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add friend"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Friend invited successfully!"})
}

// GetMembers lists a group's members with roles and preferences, gated on
// the caller's own membership.
func (h *GroupHandler) GetMembers(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	groupID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid group ID"})
		return
	}

	ctx := context.Background()

	var isMember bool
	err = h.db.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM group_members WHERE group_id = $1 AND user_id = $2)",
		groupID, userID).Scan(&isMember)

	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch members"})
		return
	}

	if !isMember {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied. You are not a member of this group."})
		return
	}

	rows, err := h.db.Query(ctx,
		`SELECT gm.group_id, u.id, gm.role, gm.preferences, gm.joined_at, u.name, u.email
		 FROM group_members gm
		 JOIN users u ON gm.user_id = u.id
		 WHERE gm.group_id = $1
		 ORDER BY gm.role DESC`,
		groupID)

	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch members"})
		return
	}
	defer rows.Close()

	members := []models.GroupMember{}
	for rows.Next() {
		var member models.GroupMember
		err := rows.Scan(&member.GroupID, &member.UserID, &member.Role,
			&member.Preferences, &member.JoinedAt, &member.Name, &member.Email)

		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan member"})
			return
		}

		members = append(members, member)
	}

	c.JSON(http.StatusOK, members)
}

// UpdatePreferences lets a member edit their own preferences row.
func (h *GroupHandler) UpdatePreferences(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	groupID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid group ID"})
		return
	}

	var req models.UpdatePreferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if err := h.validator.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.db.Exec(context.Background(),
		"UPDATE group_members SET preferences = $1 WHERE group_id = $2 AND user_id = $3",
		req.Preferences, groupID, userID)

	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update preferences"})
		return
	}

	if result.RowsAffected() == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "You are not a member of this group"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Preferences updated successfully"})
}
