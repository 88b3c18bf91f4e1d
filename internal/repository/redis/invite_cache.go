package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const InviteCodePrefix = "invite:code" // code -> roomID，TTL为剩余有效期

// InviteCache 邀请码的快速存储镜像。纯加速用：命中后service仍会
// 回持久层校验有效性，整个Key没了也能从持久层重建
type InviteCache struct{}

func NewInviteCache() *InviteCache {
	return &InviteCache{}
}

func (c *InviteCache) key(code string) string {
	return fmt.Sprintf("%s:%s", InviteCodePrefix, code)
}

func (c *InviteCache) Set(ctx context.Context, code string, roomID uint64, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return Client.Set(ctx, c.key(code), roomID, ttl).Err()
}

func (c *InviteCache) GetRoomID(ctx context.Context, code string) (uint64, bool, error) {
	val, err := Client.Get(ctx, c.key(code)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	roomID, perr := strconv.ParseUint(val, 10, 64)
	if perr != nil {
		return 0, false, nil
	}
	return roomID, true, nil
}

func (c *InviteCache) Exists(ctx context.Context, code string) (bool, error) {
	n, err := Client.Exists(ctx, c.key(code)).Result()
	return n > 0, err
}

func (c *InviteCache) Delete(ctx context.Context, code string) error {
	return Client.Del(ctx, c.key(code)).Err()
}
