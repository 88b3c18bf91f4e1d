package handler

import (
	"net/http"
	"strconv"

	"StudyRoom/internal/service"

	"github.com/gin-gonic/gin"
)

type RoomHandler struct {
	svc *service.RoomService
}

func NewRoomHandler(svc *service.RoomService) *RoomHandler {
	return &RoomHandler{svc: svc}
}

type RoomCreateReq struct {
	Title           string `json:"title" binding:"required"`
	Description     string `json:"description"`
	Private         bool   `json:"private"`
	Password        string `json:"password"`
	MaxParticipants int    `json:"max_participants"`
}

type RoomJoinReq struct {
	Password string `json:"password"`
}

type RoomRoleReq struct {
	UserID uint64 `json:"user_id" binding:"required"`
	Role   int    `json:"role"`
}

type RoomKickReq struct {
	UserID uint64 `json:"user_id" binding:"required"`
}

func currentUserID(c *gin.Context) uint64 {
	userIDAny, _ := c.Get("user_id")
	userID, _ := userIDAny.(uint64)
	return userID
}

func roomIDParam(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"code": "BAD_REQUEST", "msg": "invalid room id"})
		return 0, false
	}
	return id, true
}

func (h *RoomHandler) Create(c *gin.Context) {
	var req RoomCreateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "BAD_REQUEST", "msg": "invalid params"})
		return
	}

	room, err := h.svc.CreateRoom(c.Request.Context(), currentUserID(c), service.CreateRoomInput{
		Title:           req.Title,
		Description:     req.Description,
		Private:         req.Private,
		Password:        req.Password,
		MaxParticipants: req.MaxParticipants,
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":               room.ID,
		"title":            room.Title,
		"max_participants": room.MaxParticipants,
		"status":           room.Status,
	})
}

func (h *RoomHandler) Join(c *gin.Context) {
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}
	var req RoomJoinReq
	_ = c.ShouldBindJSON(&req) // 公开房间可以不带body

	member, err := h.svc.Join(c.Request.Context(), roomID, currentUserID(c), req.Password)
	if err != nil {
		writeDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"room_id": member.RoomID, "role": member.Role, "joined_at": member.JoinedAt})
}

func (h *RoomHandler) Leave(c *gin.Context) {
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}
	if err := h.svc.Leave(c.Request.Context(), roomID, currentUserID(c)); err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "ok"})
}

func (h *RoomHandler) ChangeRole(c *gin.Context) {
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}
	var req RoomRoleReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "BAD_REQUEST", "msg": "invalid params"})
		return
	}
	if err := h.svc.ChangeRole(c.Request.Context(), roomID, req.UserID, req.Role, currentUserID(c)); err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "ok"})
}

func (h *RoomHandler) Kick(c *gin.Context) {
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}
	var req RoomKickReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "BAD_REQUEST", "msg": "invalid params"})
		return
	}
	if err := h.svc.Kick(c.Request.Context(), roomID, req.UserID, currentUserID(c)); err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "ok"})
}

func (h *RoomHandler) Terminate(c *gin.Context) {
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}
	if err := h.svc.Terminate(c.Request.Context(), roomID, currentUserID(c)); err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "ok"})
}

func (h *RoomHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.Query("page"))
	size, _ := strconv.Atoi(c.Query("size"))

	list, err := h.svc.GetJoinableRooms(c.Request.Context(), page, size)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"list": list})
}

func (h *RoomHandler) Popular(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))

	list, err := h.svc.GetPopularRooms(c.Request.Context(), limit)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"list": list})
}

func (h *RoomHandler) Detail(c *gin.Context) {
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}
	detail, err := h.svc.GetRoomDetail(c.Request.Context(), roomID, currentUserID(c))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h *RoomHandler) Members(c *gin.Context) {
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}
	members, err := h.svc.GetMembers(c.Request.Context(), roomID, currentUserID(c))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"list": members})
}

func (h *RoomHandler) Role(c *gin.Context) {
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}
	role, err := h.svc.GetUserRole(c.Request.Context(), roomID, currentUserID(c))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"role": role})
}
