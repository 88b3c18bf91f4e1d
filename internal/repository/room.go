package repository

import (
	"context"

	"StudyRoom/internal/model"
)

// RoomRepository 房间持久层（权威数据）
type RoomRepository interface {
	// Create 同一事务内建房并写入房主成员记录
	Create(ctx context.Context, room *model.Room, host *model.RoomMember) error
	FindByID(ctx context.Context, id uint64) (*model.Room, error)
	// WithRoomLock 对指定房间行加排他锁并在事务内执行fn。
	// fn返回错误则整体回滚。锁等待超时返回ErrLockTimeout。
	// 容量相关的写路径（join、房主离开）必须走这里串行化。
	WithRoomLock(ctx context.Context, roomID uint64, fn func(tx RoomTx) error) error
	// ListJoinable 公开、未终止、未满的房间，新建在前
	ListJoinable(ctx context.Context, offset, limit int) ([]model.Room, error)
	// ListPopular 按在房人数倒序
	ListPopular(ctx context.Context, limit int) ([]model.Room, error)
}

// RoomTx 持有房间行锁期间可用的写操作集合
type RoomTx interface {
	// Room 被锁定的房间行
	Room() *model.Room
	// Member 查(room,user)成员记录，不存在返回ErrNotFound
	Member(userID uint64) (*model.RoomMember, error)
	// OnlineMembers 当前在线成员，按joined_at升序
	OnlineMembers() ([]model.RoomMember, error)
	CreateMember(m *model.RoomMember) error
	SetOnline(userID uint64, online bool) error
	UpdateRole(userID uint64, role int) error
	SetAllOffline() error
	// AddParticipants 原子调整current_participants，负数时落底为0
	AddParticipants(delta int) error
	SetStatus(status int) error
}

// MemberRepository 不需要行锁的成员读写路径
type MemberRepository interface {
	Find(ctx context.Context, roomID, userID uint64) (*model.RoomMember, error)
	ListByRoom(ctx context.Context, roomID uint64) ([]model.RoomMember, error)
	// SetOffline 把成员置为离线并同步扣减房间计数（单事务），
	// 返回本次是否真的发生了在线->离线的变化
	SetOffline(ctx context.Context, roomID, userID uint64) (bool, error)
	UpdateRole(ctx context.Context, roomID, userID uint64, role int) error
}
