package chat

import (
	"net/http"

	"chatrelay/infrastructure"
	"chatrelay/internal/auth"
	"chatrelay/internal/message"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type JSONHandler struct {
	router *Router
	log    *zap.Logger
}

func NewJSONHandler(router *Router, log *zap.Logger) *JSONHandler {
	return &JSONHandler{router: router, log: log}
}

// RegisterRoutes mounts the chat endpoints on an authenticated group.
func (h *JSONHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/users", h.ListUsers)
	rg.GET("/conversations/direct/:otherUserId", h.DirectHistory)
	rg.GET("/conversations/group/:groupId", h.GroupHistory)
	rg.POST("/messages/attachment", h.SendAttachment)

	groups := rg.Group("/groups")
	groups.POST("", h.CreateGroup)
	groups.GET("/mine", h.MyGroups)
	groups.POST("/leave", h.LeaveGroup)
	groups.POST("/add-member", h.AddMember)
	groups.POST("/not-in-group/:groupId", h.NotInGroup)
	groups.GET("/not-in-group/:groupId", h.NotInGroup)
	groups.POST("/participants", h.ParticipantNames)
}

func (h *JSONHandler) ListUsers(c *gin.Context) {
	me := auth.MustIdentity(c)
	entries, err := h.router.ListReachableUsers(c.Request.Context(), me.UserID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

func (h *JSONHandler) DirectHistory(c *gin.Context) {
	me := auth.MustIdentity(c)
	other, ok := h.uuidParam(c, "otherUserId")
	if !ok {
		return
	}
	messages, err := h.router.DirectHistory(c.Request.Context(), me.UserID, other)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, messages)
}

func (h *JSONHandler) GroupHistory(c *gin.Context) {
	me := auth.MustIdentity(c)
	groupID, ok := h.uuidParam(c, "groupId")
	if !ok {
		return
	}
	messages, err := h.router.GroupHistory(c.Request.Context(), me.UserID, groupID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, messages)
}

func (h *JSONHandler) SendAttachment(c *gin.Context) {
	var req struct {
		ToUserID uuid.UUID `json:"toUserId" binding:"required"`
		URL      string    `json:"url" binding:"required"`
		Kind     string    `json:"kind"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	kind, err := message.ParseKind(req.Kind)
	if err != nil {
		h.fail(c, err)
		return
	}
	if kind == message.KindText {
		kind = message.KindImage
	}

	delivery, err := h.router.SendAttachment(c.Request.Context(), *auth.MustIdentity(c), req.ToUserID, req.URL, kind)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, delivery.Message)
}

func (h *JSONHandler) CreateGroup(c *gin.Context) {
	var req struct {
		GroupName    string      `json:"groupName" binding:"required"`
		GroupPicture string      `json:"groupPicture"`
		Members      []uuid.UUID `json:"members" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	group, err := h.router.CreateGroup(c.Request.Context(), *auth.MustIdentity(c), NewGroup{
		Name:    req.GroupName,
		Picture: req.GroupPicture,
		Members: req.Members,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, group)
}

func (h *JSONHandler) MyGroups(c *gin.Context) {
	groups, err := h.router.MyGroups(c.Request.Context(), auth.MustIdentity(c).UserID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, groups)
}

func (h *JSONHandler) LeaveGroup(c *gin.Context) {
	var req struct {
		GroupID uuid.UUID `json:"groupId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if _, err := h.router.Leave(c.Request.Context(), auth.MustIdentity(c).UserID, req.GroupID); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Successfully left group."})
}

func (h *JSONHandler) AddMember(c *gin.Context) {
	var req struct {
		GroupID   uuid.UUID `json:"groupId" binding:"required"`
		UserToAdd uuid.UUID `json:"userIdToAdd" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if _, err := h.router.AddMember(c.Request.Context(), *auth.MustIdentity(c), req.GroupID, req.UserToAdd); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "User added successfully."})
}

func (h *JSONHandler) NotInGroup(c *gin.Context) {
	groupID, ok := h.uuidParam(c, "groupId")
	if !ok {
		return
	}
	users, err := h.router.NotInGroup(c.Request.Context(), auth.MustIdentity(c).UserID, groupID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *JSONHandler) ParticipantNames(c *gin.Context) {
	var req struct {
		MemberIDs []uuid.UUID `json:"memberIds"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	names, err := h.router.ParticipantNames(c.Request.Context(), req.MemberIDs)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, names)
}

func (h *JSONHandler) uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return uuid.Nil, false
	}
	return id, true
}

func (h *JSONHandler) fail(c *gin.Context, err error) {
	status := infrastructure.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		h.log.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
	}
	c.JSON(status, gin.H{"error": infrastructure.PublicMessage(err)})
}
