package service

import (
	"context"
	"errors"
	"time"

	"StudyRoom/internal/model"
	"StudyRoom/internal/pkg"
	"StudyRoom/internal/repository"

	"github.com/sirupsen/logrus"
)

const (
	// InviteTTL 邀请码有效期，过期时刻落库成expires_at，
	// 镜像被淘汰后持久层仍然知道真相
	InviteTTL = 3 * time.Hour
	// MaxGenerateAttempts 碰撞重试上限
	MaxGenerateAttempts = 5
)

// InviteService 邀请码注册表：持久层权威 + 快速存储镜像。
// 镜像读写失败一律当miss/no-op处理并记日志，持久层写成功即算成功。
type InviteService struct {
	invites repository.InviteRepository
	cache   repository.InviteCache
	rooms   repository.RoomRepository
	users   repository.UserRepository

	ttl      time.Duration
	attempts int
	alphabet string
	codeLen  int
	now      func() time.Time
}

func NewInviteService(
	invites repository.InviteRepository,
	cache repository.InviteCache,
	rooms repository.RoomRepository,
	users repository.UserRepository,
) *InviteService {
	return &InviteService{
		invites:  invites,
		cache:    cache,
		rooms:    rooms,
		users:    users,
		ttl:      InviteTTL,
		attempts: MaxGenerateAttempts,
		alphabet: pkg.InviteAlphabet,
		codeLen:  pkg.InviteCodeLength,
		now:      time.Now,
	}
}

// GetOrCreate 惰性取码：(room,creator)下已有未过期的码直接复用，
// 顺手补齐缺失的镜像；过期的先失效再新生成
func (s *InviteService) GetOrCreate(ctx context.Context, roomID, userID uint64) (*model.InviteCode, error) {
	if _, err := s.rooms.FindByID(ctx, roomID); err != nil {
		return nil, mapRoomErr(err)
	}
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	now := s.now()
	existing, err := s.invites.FindActive(ctx, roomID, userID)
	switch {
	case err == nil:
		if existing.IsValid(now) {
			s.refreshMirror(ctx, existing, now)
			return existing, nil
		}
		// 过期发现即失效，然后走新生成
		if err := s.invites.Deactivate(ctx, existing.ID); err != nil {
			return nil, err
		}
		s.dropMirror(ctx, existing.Code)
	case errors.Is(err, repository.ErrNotFound):
		// 没有现成的，直接生成
	default:
		return nil, err
	}

	return s.generate(ctx, roomID, userID, now)
}

// generate 有界重试：镜像和持久层都查一遍，最终靠唯一索引兜底
func (s *InviteService) generate(ctx context.Context, roomID, userID uint64, now time.Time) (*model.InviteCode, error) {
	for attempt := 0; attempt < s.attempts; attempt++ {
		codeStr, err := pkg.RandCode(s.alphabet, s.codeLen)
		if err != nil {
			return nil, err
		}

		if hit, err := s.cache.Exists(ctx, codeStr); err == nil && hit {
			continue
		}
		if _, err := s.invites.FindByCode(ctx, codeStr); err == nil {
			continue
		} else if !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}

		code := &model.InviteCode{
			Code:      codeStr,
			RoomID:    roomID,
			CreatorID: userID,
			Active:    true,
			ExpiresAt: now.Add(s.ttl),
		}
		err = s.invites.Create(ctx, code)
		if errors.Is(err, repository.ErrDuplicate) {
			continue // 并发撞码，换一个
		}
		if err != nil {
			return nil, err
		}

		s.setMirror(ctx, code, now)
		return code, nil
	}
	return nil, ErrInviteCodeGenerationFailed
}

// Resolve 邀请码换房间。镜像只是加速，命中与否都要回持久层
// 再验一次active+未过期，持久层的过期判定永远赢
func (s *InviteService) Resolve(ctx context.Context, codeStr string) (*model.Room, error) {
	// 镜像返回的roomID故意不用：IsValid要看持久层整行，行反正要取，
	// hit只用来做孤儿清理和回填判断。别把镜像优化成信任边界
	_, hit, err := s.cache.GetRoomID(ctx, codeStr)
	if err != nil {
		logrus.WithError(err).Warn("invite mirror: read failed, falling back to durable store")
		hit = false
	}

	code, err := s.invites.FindByCode(ctx, codeStr)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			if hit {
				s.dropMirror(ctx, codeStr) // 镜像里的孤儿条目
			}
			return nil, ErrInvalidInviteCode
		}
		return nil, err
	}

	now := s.now()
	if !code.IsValid(now) {
		if code.Active {
			if err := s.invites.Deactivate(ctx, code.ID); err != nil {
				return nil, err
			}
		}
		s.dropMirror(ctx, codeStr)
		return nil, ErrInviteCodeExpired
	}

	if !hit {
		s.setMirror(ctx, code, now)
	}

	room, err := s.rooms.FindByID(ctx, code.RoomID)
	if err != nil {
		return nil, mapRoomErr(err)
	}
	return room, nil
}

// 镜像写路径，尽力而为

func (s *InviteService) setMirror(ctx context.Context, code *model.InviteCode, now time.Time) {
	if err := s.cache.Set(ctx, code.Code, code.RoomID, code.Remaining(now)); err != nil {
		logrus.WithError(err).WithField("code", code.Code).Warn("invite mirror: set failed")
	}
}

func (s *InviteService) refreshMirror(ctx context.Context, code *model.InviteCode, now time.Time) {
	exists, err := s.cache.Exists(ctx, code.Code)
	if err != nil {
		logrus.WithError(err).WithField("code", code.Code).Warn("invite mirror: exists check failed")
		return
	}
	if !exists {
		s.setMirror(ctx, code, now)
	}
}

func (s *InviteService) dropMirror(ctx context.Context, codeStr string) {
	if err := s.cache.Delete(ctx, codeStr); err != nil {
		logrus.WithError(err).WithField("code", codeStr).Warn("invite mirror: delete failed")
	}
}
