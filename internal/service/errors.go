package service

import "errors"

// 业务错误是对外契约的一部分，handler层按errors.Is翻译成稳定错误码。
// 除了两处明确的幂等场景（已离线成员再leave等），前置条件不满足一律报错，不吞。
var (
	// 实体缺失类
	ErrUserNotFound      = errors.New("user not found")
	ErrRoomNotFound      = errors.New("room not found")
	ErrNotRoomMember     = errors.New("not a room member")
	ErrInvalidInviteCode = errors.New("invalid invite code")

	// 状态前置条件类
	ErrRoomTerminated        = errors.New("room terminated")
	ErrRoomInactive          = errors.New("room inactive")
	ErrRoomFull              = errors.New("room full")
	ErrRoomPasswordIncorrect = errors.New("room password incorrect")
	ErrAlreadyJoinedRoom     = errors.New("already joined room")
	ErrCannotChangeHostRole  = errors.New("cannot change host role")
	ErrCannotKickHost        = errors.New("cannot kick host")
	ErrInviteCodeExpired     = errors.New("invite code expired")

	// 权限类
	ErrNotRoomManager = errors.New("not a room manager")
	ErrRoomForbidden  = errors.New("room forbidden")

	// 冲突/生成类
	ErrInviteCodeGenerationFailed = errors.New("invite code generation failed")

	// 基础设施类：行锁等待超时，可重试，区别于上面的业务错误
	ErrRoomBusy = errors.New("room busy, retry later")
)
