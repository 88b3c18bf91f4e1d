package model

import "time"

type InviteCode struct {
	ID        uint64 `gorm:"primaryKey"`
	Code      string `gorm:"size:16;uniqueIndex;not null"`
	RoomID    uint64 `gorm:"not null;index:idx_room_creator"`
	CreatorID uint64 `gorm:"not null;index:idx_room_creator"`
	Active    bool   `gorm:"not null;default:true"`
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsValid 持久层判定：激活且未过期。镜像缓存命中后也必须再过一遍这里
func (i *InviteCode) IsValid(now time.Time) bool {
	return i.Active && now.Before(i.ExpiresAt)
}

// Remaining 剩余有效期，作为镜像缓存的TTL
func (i *InviteCode) Remaining(now time.Time) time.Duration {
	return i.ExpiresAt.Sub(now)
}
