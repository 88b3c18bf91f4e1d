package model

import "time"

// 房间状态
const (
	RoomStatusWaiting    = 0
	RoomStatusActive     = 1
	RoomStatusTerminated = 2
)

// 成员角色
const (
	RoleVisitor = 0
	RoleSubHost = 1
	RoleHost    = 2
)

type Room struct {
	ID                  uint64 `gorm:"primaryKey"`
	Title               string `gorm:"size:100;not null"`
	Description         string `gorm:"type:text"`
	Private             bool   `gorm:"not null;default:false"`
	Password            string `gorm:"size:255"` // 私密房间的bcrypt哈希，公开房间为空
	MaxParticipants     int    `gorm:"not null;default:10"`
	CurrentParticipants int    `gorm:"not null;default:0"` // 持久层成员数的缓存计数，只由协调器修改
	Status              int    `gorm:"not null;default:0;index"`
	OwnerID             uint64 `gorm:"not null;index"`
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// Joinable 房间当前状态是否允许进入（不含容量/密码判断）
func (r *Room) Joinable() bool {
	return r.Status == RoomStatusWaiting || r.Status == RoomStatusActive
}

func (r *Room) Terminated() bool {
	return r.Status == RoomStatusTerminated
}

type RoomMember struct {
	ID        uint64 `gorm:"primaryKey"`
	RoomID    uint64 `gorm:"not null;index;uniqueIndex:uk_room_user"`
	UserID    uint64 `gorm:"not null;index;uniqueIndex:uk_room_user"`
	Role      int    `gorm:"not null;default:0"` // 0=visitor 1=sub_host 2=host
	Online    bool   `gorm:"not null;default:false"`
	JoinedAt  time.Time
	UpdatedAt time.Time
}

func (m *RoomMember) IsHost() bool {
	return m.Role == RoleHost
}

// IsManager 具有管理能力的角色（房主或副房主）
func (m *RoomMember) IsManager() bool {
	return m.Role == RoleHost || m.Role == RoleSubHost
}
