package repository

import "context"

// PresenceRepository 易失的在线状态存储。
// 只回答"谁现在在哪个房间在线"，角色、资格一律以持久层为准。
// 整个存储丢失时的语义退化为"所有人显示离线"，不会污染持久数据。
type PresenceRepository interface {
	Enter(ctx context.Context, userID, roomID uint64) error
	Exit(ctx context.Context, userID, roomID uint64) error
	OnlineCount(ctx context.Context, roomID uint64) (int64, error)
	OnlineUsers(ctx context.Context, roomID uint64) ([]uint64, error)
	IsOnline(ctx context.Context, userID, roomID uint64) (bool, error)
	// CurrentRoomOf 用户当前所在房间，第二个返回值表示是否在线
	CurrentRoomOf(ctx context.Context, userID uint64) (uint64, bool, error)
	// OnlineCounts 批量读，列表页用，避免逐房间round trip
	OnlineCounts(ctx context.Context, roomIDs []uint64) (map[uint64]int64, error)
	// ClearRoom 房间终止时整体清空
	ClearRoom(ctx context.Context, roomID uint64) error
}
