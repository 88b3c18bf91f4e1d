package handler

import (
	"net/http"

	"StudyRoom/internal/service"

	"github.com/gin-gonic/gin"
)

type InviteHandler struct {
	svc     *service.InviteService
	roomSvc *service.RoomService
}

func NewInviteHandler(svc *service.InviteService, roomSvc *service.RoomService) *InviteHandler {
	return &InviteHandler{svc: svc, roomSvc: roomSvc}
}

type InviteJoinReq struct {
	Code     string `json:"code" binding:"required,len=8"`
	Password string `json:"password"`
}

// Create 给当前用户取本房间的邀请码，没有或已过期则新发
func (h *InviteHandler) Create(c *gin.Context) {
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}
	code, err := h.svc.GetOrCreate(c.Request.Context(), roomID, currentUserID(c))
	if err != nil {
		writeDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":       code.Code,
		"room_id":    code.RoomID,
		"expires_at": code.ExpiresAt,
		"active":     code.Active,
	})
}

// Resolve 邀请码换房间信息，不入房
func (h *InviteHandler) Resolve(c *gin.Context) {
	room, err := h.svc.Resolve(c.Request.Context(), c.Param("code"))
	if err != nil {
		writeDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":               room.ID,
		"title":            room.Title,
		"private":          room.Private,
		"max_participants": room.MaxParticipants,
		"status":           room.Status,
	})
}

// Join 邀请码解析成功后走标准join路径，容量、密码校验一个不少
func (h *InviteHandler) Join(c *gin.Context) {
	var req InviteJoinReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "BAD_REQUEST", "msg": "invalid params"})
		return
	}

	room, err := h.svc.Resolve(c.Request.Context(), req.Code)
	if err != nil {
		writeDomainError(c, err)
		return
	}

	member, err := h.roomSvc.Join(c.Request.Context(), room.ID, currentUserID(c), req.Password)
	if err != nil {
		writeDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"room_id": member.RoomID, "role": member.Role, "joined_at": member.JoinedAt})
}
