package mysql

import (
	"context"

	"StudyRoom/internal/model"

	"gorm.io/gorm"
)

type InviteRepository struct {
	DB *gorm.DB
}

// FindActive (room,creator)下激活的邀请码。唯一性约束保证最多一条
func (r *InviteRepository) FindActive(ctx context.Context, roomID, creatorID uint64) (*model.InviteCode, error) {
	var code model.InviteCode
	err := r.DB.WithContext(ctx).
		Where("room_id = ? AND creator_id = ? AND active = ?", roomID, creatorID, true).
		Order("id desc").
		First(&code).Error
	if err != nil {
		return nil, translate(err)
	}
	return &code, nil
}

func (r *InviteRepository) FindByCode(ctx context.Context, codeStr string) (*model.InviteCode, error) {
	var code model.InviteCode
	err := r.DB.WithContext(ctx).
		Where("code = ?", codeStr).
		First(&code).Error
	if err != nil {
		return nil, translate(err)
	}
	return &code, nil
}

// Create 依赖code列上的唯一索引兜底碰撞，冲突时返回ErrDuplicate交给上层重试
func (r *InviteRepository) Create(ctx context.Context, code *model.InviteCode) error {
	return translate(r.DB.WithContext(ctx).Create(code).Error)
}

// Deactivate 幂等失效，已失效再调不报错
func (r *InviteRepository) Deactivate(ctx context.Context, id uint64) error {
	return translate(r.DB.WithContext(ctx).
		Model(&model.InviteCode{}).
		Where("id = ?", id).
		Update("active", false).Error)
}
