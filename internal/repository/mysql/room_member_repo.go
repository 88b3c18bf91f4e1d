package mysql

import (
	"context"
	"errors"

	"StudyRoom/internal/model"
	"StudyRoom/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RoomMemberRepository struct {
	DB *gorm.DB
}

func (r *RoomMemberRepository) Find(ctx context.Context, roomID, userID uint64) (*model.RoomMember, error) {
	var m model.RoomMember
	err := r.DB.WithContext(ctx).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		First(&m).Error
	if err != nil {
		return nil, translate(err)
	}
	return &m, nil
}

func (r *RoomMemberRepository) ListByRoom(ctx context.Context, roomID uint64) ([]model.RoomMember, error) {
	var list []model.RoomMember
	err := r.DB.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("joined_at asc, id asc").
		Find(&list).Error
	return list, translate(err)
}

// SetOffline 把成员置离线并同步扣减房间计数（单事务，select for update避免竞争）。
// 已经离线时不重复扣减，changed=false。
func (r *RoomMemberRepository) SetOffline(ctx context.Context, roomID, userID uint64) (bool, error) {
	var changed bool
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m model.RoomMember
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("room_id = ? AND user_id = ?", roomID, userID).
			First(&m).Error; err != nil {
			return err
		}
		if !m.Online {
			return nil
		}
		if err := tx.Model(&model.RoomMember{}).
			Where("id = ?", m.ID).
			Update("online", false).Error; err != nil {
			return err
		}
		if err := tx.Model(&model.Room{}).
			Where("id = ?", roomID).
			UpdateColumn("current_participants",
				gorm.Expr("CASE WHEN current_participants > 0 THEN current_participants - 1 ELSE 0 END")).
			Error; err != nil {
			return err
		}
		changed = true
		return nil
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, repository.ErrNotFound
	}
	return changed, translate(err)
}

func (r *RoomMemberRepository) UpdateRole(ctx context.Context, roomID, userID uint64, role int) error {
	res := r.DB.WithContext(ctx).Model(&model.RoomMember{}).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		Update("role", role)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}
