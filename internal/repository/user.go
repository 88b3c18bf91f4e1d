package repository

import (
	"context"

	"StudyRoom/internal/model"
)

// UserRepository 用户目录，协调器只用FindByID做存在性校验
type UserRepository interface {
	FindByID(ctx context.Context, id uint64) (*model.User, error)
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	Create(ctx context.Context, user *model.User) error
}
