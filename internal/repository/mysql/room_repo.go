package mysql

import (
	"context"
	"errors"
	"time"

	"StudyRoom/internal/model"
	"StudyRoom/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LockWaitTimeout 房间行锁的最长等待时间，超过后返回ErrLockTimeout
const LockWaitTimeout = 3 * time.Second

type RoomRepository struct {
	DB *gorm.DB
}

// Create 建房和写入房主成员记录在同一事务内完成
func (r *RoomRepository) Create(ctx context.Context, room *model.Room, host *model.RoomMember) error {
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(room).Error; err != nil {
			return err
		}
		host.RoomID = room.ID
		return tx.Create(host).Error
	})
	return translate(err)
}

func (r *RoomRepository) FindByID(ctx context.Context, id uint64) (*model.Room, error) {
	var room model.Room
	if err := r.DB.WithContext(ctx).First(&room, id).Error; err != nil {
		return nil, translate(err)
	}
	return &room, nil
}

// WithRoomLock 对房间行SELECT ... FOR UPDATE后执行fn，把同一房间的
// 容量相关写路径串行化。锁由数据库持有，多实例部署下依然成立。
func (r *RoomRepository) WithRoomLock(ctx context.Context, roomID uint64, fn func(tx repository.RoomTx) error) error {
	lockCtx, cancel := context.WithTimeout(ctx, LockWaitTimeout)
	defer cancel()

	err := r.DB.WithContext(lockCtx).Transaction(func(tx *gorm.DB) error {
		var room model.Room
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&room, roomID).Error; err != nil {
			if errors.Is(lockCtx.Err(), context.DeadlineExceeded) {
				return repository.ErrLockTimeout
			}
			return err
		}
		return fn(&roomTx{db: tx, room: &room})
	})
	if errors.Is(lockCtx.Err(), context.DeadlineExceeded) &&
		!errors.Is(err, repository.ErrLockTimeout) {
		return repository.ErrLockTimeout
	}
	return translate(err)
}

func (r *RoomRepository) ListJoinable(ctx context.Context, offset, limit int) ([]model.Room, error) {
	var list []model.Room
	err := r.DB.WithContext(ctx).
		Where("private = ? AND status <> ? AND current_participants < max_participants",
			false, model.RoomStatusTerminated).
		Order("id desc").
		Offset(offset).
		Limit(limit).
		Find(&list).Error
	return list, translate(err)
}

func (r *RoomRepository) ListPopular(ctx context.Context, limit int) ([]model.Room, error) {
	var list []model.Room
	err := r.DB.WithContext(ctx).
		Where("private = ? AND status <> ?", false, model.RoomStatusTerminated).
		Order("current_participants desc, id desc").
		Limit(limit).
		Find(&list).Error
	return list, translate(err)
}

// roomTx 持有行锁期间的写操作，全部走同一个*gorm.DB事务
type roomTx struct {
	db   *gorm.DB
	room *model.Room
}

func (t *roomTx) Room() *model.Room {
	return t.room
}

func (t *roomTx) Member(userID uint64) (*model.RoomMember, error) {
	var m model.RoomMember
	err := t.db.Where("room_id = ? AND user_id = ?", t.room.ID, userID).
		First(&m).Error
	if err != nil {
		return nil, translate(err)
	}
	return &m, nil
}

func (t *roomTx) OnlineMembers() ([]model.RoomMember, error) {
	var list []model.RoomMember
	err := t.db.Where("room_id = ? AND online = ?", t.room.ID, true).
		Order("joined_at asc, id asc").
		Find(&list).Error
	return list, translate(err)
}

func (t *roomTx) CreateMember(m *model.RoomMember) error {
	m.RoomID = t.room.ID
	return translate(t.db.Create(m).Error)
}

func (t *roomTx) SetOnline(userID uint64, online bool) error {
	return translate(t.db.Model(&model.RoomMember{}).
		Where("room_id = ? AND user_id = ?", t.room.ID, userID).
		Update("online", online).Error)
}

func (t *roomTx) UpdateRole(userID uint64, role int) error {
	return translate(t.db.Model(&model.RoomMember{}).
		Where("room_id = ? AND user_id = ?", t.room.ID, userID).
		Update("role", role).Error)
}

func (t *roomTx) SetAllOffline() error {
	return translate(t.db.Model(&model.RoomMember{}).
		Where("room_id = ? AND online = ?", t.room.ID, true).
		Update("online", false).Error)
}

// AddParticipants 原子调整计数，负数时不低于0
func (t *roomTx) AddParticipants(delta int) error {
	err := t.db.Model(&model.Room{}).
		Where("id = ?", t.room.ID).
		UpdateColumn("current_participants",
			gorm.Expr("CASE WHEN current_participants + ? < 0 THEN 0 ELSE current_participants + ? END", delta, delta)).
		Error
	if err != nil {
		return translate(err)
	}
	t.room.CurrentParticipants += delta
	if t.room.CurrentParticipants < 0 {
		t.room.CurrentParticipants = 0
	}
	return nil
}

func (t *roomTx) SetStatus(status int) error {
	if err := t.db.Model(&model.Room{}).
		Where("id = ?", t.room.ID).
		Update("status", status).Error; err != nil {
		return translate(err)
	}
	t.room.Status = status
	return nil
}
