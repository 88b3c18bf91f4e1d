package handler

import (
	"errors"
	"net/http"

	"StudyRoom/internal/service"

	"github.com/gin-gonic/gin"
)

// writeDomainError 业务错误 -> 稳定错误码。code字段是对外契约，
// 前端和网关按code分支，msg只用来看
func writeDomainError(c *gin.Context, err error) {
	status, code := http.StatusInternalServerError, "INTERNAL_ERROR"
	switch {
	case errors.Is(err, service.ErrRoomNotFound):
		status, code = http.StatusNotFound, "ROOM_NOT_FOUND"
	case errors.Is(err, service.ErrUserNotFound):
		status, code = http.StatusNotFound, "USER_NOT_FOUND"
	case errors.Is(err, service.ErrNotRoomMember):
		status, code = http.StatusNotFound, "NOT_ROOM_MEMBER"
	case errors.Is(err, service.ErrInvalidInviteCode):
		status, code = http.StatusNotFound, "INVALID_INVITE_CODE"
	case errors.Is(err, service.ErrRoomTerminated):
		status, code = http.StatusBadRequest, "ROOM_TERMINATED"
	case errors.Is(err, service.ErrRoomInactive):
		status, code = http.StatusBadRequest, "ROOM_INACTIVE"
	case errors.Is(err, service.ErrRoomFull):
		status, code = http.StatusConflict, "ROOM_FULL"
	case errors.Is(err, service.ErrRoomPasswordIncorrect):
		status, code = http.StatusForbidden, "ROOM_PASSWORD_INCORRECT"
	case errors.Is(err, service.ErrAlreadyJoinedRoom):
		status, code = http.StatusConflict, "ALREADY_JOINED_ROOM"
	case errors.Is(err, service.ErrCannotChangeHostRole):
		status, code = http.StatusBadRequest, "CANNOT_CHANGE_HOST_ROLE"
	case errors.Is(err, service.ErrCannotKickHost):
		status, code = http.StatusBadRequest, "CANNOT_KICK_HOST"
	case errors.Is(err, service.ErrInviteCodeExpired):
		status, code = http.StatusGone, "INVITE_CODE_EXPIRED"
	case errors.Is(err, service.ErrNotRoomManager):
		status, code = http.StatusForbidden, "NOT_ROOM_MANAGER"
	case errors.Is(err, service.ErrRoomForbidden):
		status, code = http.StatusForbidden, "ROOM_FORBIDDEN"
	case errors.Is(err, service.ErrInviteCodeGenerationFailed):
		status, code = http.StatusInternalServerError, "INVITE_CODE_GENERATION_FAILED"
	case errors.Is(err, service.ErrRoomBusy):
		// 锁等待超时，可重试，不属于业务错误
		status, code = http.StatusServiceUnavailable, "ROOM_BUSY"
	}
	c.JSON(status, gin.H{"code": code, "msg": err.Error()})
}
