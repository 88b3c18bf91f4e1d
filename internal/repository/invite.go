package repository

import (
	"context"
	"time"

	"StudyRoom/internal/model"
)

// InviteRepository 邀请码持久层（权威数据）
type InviteRepository interface {
	// FindActive (room,creator)下激活状态的邀请码，不存在返回ErrNotFound。
	// 过期但还没被发现的也会返回，由service判定IsValid后惰性失效。
	FindActive(ctx context.Context, roomID, creatorID uint64) (*model.InviteCode, error)
	FindByCode(ctx context.Context, code string) (*model.InviteCode, error)
	// Create 依赖code列唯一索引，冲突返回ErrDuplicate
	Create(ctx context.Context, code *model.InviteCode) error
	Deactivate(ctx context.Context, id uint64) error
}

// InviteCache 邀请码在快速存储里的镜像。只是加速用，
// 任何读写失败都应被调用方当作miss/no-op处理，不得影响主流程。
type InviteCache interface {
	Set(ctx context.Context, code string, roomID uint64, ttl time.Duration) error
	// GetRoomID 第二个返回值表示是否命中
	GetRoomID(ctx context.Context, code string) (uint64, bool, error)
	Exists(ctx context.Context, code string) (bool, error)
	Delete(ctx context.Context, code string) error
}
