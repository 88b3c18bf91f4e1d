package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// PresenceTTL 兜底过期，防止崩溃后残留的假在线无限存活
	PresenceTTL        = 24 * time.Hour
	PresenceRoomPrefix = "presence:room" // 某房间当前在线的用户ID集合
	PresenceUserPrefix = "presence:user" // 用户当前所在房间
)

// delIfMatch 值匹配才删除，避免误删用户换房后的新指向
var delIfMatch = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
  return redis.call("del", KEYS[1])
else
  return 0
end`)

// PresenceRepository 在线状态只是持久层成员数据的观测镜像，
// 这里的任何数据都不参与正确性判断
type PresenceRepository struct {
	ttl time.Duration
}

func NewPresenceRepository() *PresenceRepository {
	return &PresenceRepository{ttl: PresenceTTL}
}

func (r *PresenceRepository) roomKey(roomID uint64) string {
	return fmt.Sprintf("%s:%d", PresenceRoomPrefix, roomID)
}

func (r *PresenceRepository) userKey(userID uint64) string {
	return fmt.Sprintf("%s:%d", PresenceUserPrefix, userID)
}

func (r *PresenceRepository) Enter(ctx context.Context, userID, roomID uint64) error {
	k := r.roomKey(roomID)
	_, err := Client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.SAdd(ctx, k, userID)
		p.Expire(ctx, k, r.ttl)
		p.Set(ctx, r.userKey(userID), roomID, r.ttl)
		return nil
	})
	return err
}

func (r *PresenceRepository) Exit(ctx context.Context, userID, roomID uint64) error {
	if err := Client.SRem(ctx, r.roomKey(roomID), userID).Err(); err != nil {
		return err
	}
	return delIfMatch.Run(ctx, Client,
		[]string{r.userKey(userID)}, strconv.FormatUint(roomID, 10)).Err()
}

func (r *PresenceRepository) OnlineCount(ctx context.Context, roomID uint64) (int64, error) {
	return Client.SCard(ctx, r.roomKey(roomID)).Result()
}

func (r *PresenceRepository) OnlineUsers(ctx context.Context, roomID uint64) ([]uint64, error) {
	members, err := Client.SMembers(ctx, r.roomKey(roomID)).Result()
	if err != nil {
		return nil, err
	}
	ids := make([]uint64, 0, len(members))
	for _, m := range members {
		id, err := strconv.ParseUint(m, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (r *PresenceRepository) IsOnline(ctx context.Context, userID, roomID uint64) (bool, error) {
	return Client.SIsMember(ctx, r.roomKey(roomID), userID).Result()
}

func (r *PresenceRepository) CurrentRoomOf(ctx context.Context, userID uint64) (uint64, bool, error) {
	val, err := Client.Get(ctx, r.userKey(userID)).Result()
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

// OnlineCounts 管道批量SCARD，列表页一次拿齐
func (r *PresenceRepository) OnlineCounts(ctx context.Context, roomIDs []uint64) (map[uint64]int64, error) {
	if len(roomIDs) == 0 {
		return map[uint64]int64{}, nil
	}
	cmds := make([]*redis.IntCmd, len(roomIDs))
	_, err := Client.Pipelined(ctx, func(p redis.Pipeliner) error {
		for i, id := range roomIDs {
			cmds[i] = p.SCard(ctx, r.roomKey(id))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	out := make(map[uint64]int64, len(roomIDs))
	for i, id := range roomIDs {
		out[id] = cmds[i].Val()
	}
	return out, nil
}

// ClearRoom 房间终止时调用：清掉房间集合，并逐个解除用户的反向指向
func (r *PresenceRepository) ClearRoom(ctx context.Context, roomID uint64) error {
	users, err := r.OnlineUsers(ctx, roomID)
	if err != nil {
		return err
	}
	roomVal := strconv.FormatUint(roomID, 10)
	for _, uid := range users {
		_ = delIfMatch.Run(ctx, Client, []string{r.userKey(uid)}, roomVal).Err()
	}
	return Client.Del(ctx, r.roomKey(roomID)).Err()
}
