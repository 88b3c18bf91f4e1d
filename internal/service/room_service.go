package service

import (
	"context"
	"errors"
	"time"

	"StudyRoom/internal/model"
	"StudyRoom/internal/pkg"
	"StudyRoom/internal/repository"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

const (
	DefaultMaxParticipants = 10
	MaxRoomCapacity        = 100
)

// RoomService 房间生命周期协调器。容量、角色、房主、在线计数的
// 一致性全部在这一层维护：写路径先持久层（事务+行锁），提交后再
// 同步在线状态镜像；镜像失败只记日志，不影响结果。
type RoomService struct {
	rooms    repository.RoomRepository
	members  repository.MemberRepository
	users    repository.UserRepository
	presence repository.PresenceRepository
	producer *pkg.KafkaProducer // 可为nil，事件尽力而为
}

func NewRoomService(
	rooms repository.RoomRepository,
	members repository.MemberRepository,
	users repository.UserRepository,
	presence repository.PresenceRepository,
	producer *pkg.KafkaProducer,
) *RoomService {
	return &RoomService{
		rooms:    rooms,
		members:  members,
		users:    users,
		presence: presence,
		producer: producer,
	}
}

type CreateRoomInput struct {
	Title           string
	Description     string
	Private         bool
	Password        string
	MaxParticipants int
}

// CreateRoom 建房并让创建者以房主身份入座，计数从1开始
func (s *RoomService) CreateRoom(ctx context.Context, creatorID uint64, in CreateRoomInput) (*model.Room, error) {
	if _, err := s.users.FindByID(ctx, creatorID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if in.Title == "" {
		return nil, errors.New("room title required")
	}
	capacity := in.MaxParticipants
	if capacity <= 0 {
		capacity = DefaultMaxParticipants
	}
	if capacity > MaxRoomCapacity {
		capacity = MaxRoomCapacity
	}

	var hash string
	if in.Private {
		h, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		hash = string(h)
	}

	room := &model.Room{
		Title:               in.Title,
		Description:         in.Description,
		Private:             in.Private,
		Password:            hash,
		MaxParticipants:     capacity,
		CurrentParticipants: 1,
		Status:              model.RoomStatusWaiting,
		OwnerID:             creatorID,
	}
	host := &model.RoomMember{
		UserID:   creatorID,
		Role:     model.RoleHost,
		Online:   true,
		JoinedAt: time.Now(),
	}
	if err := s.rooms.Create(ctx, room, host); err != nil {
		return nil, err
	}

	s.enterPresence(ctx, creatorID, room.ID)
	s.sendEvent(ctx, pkg.RoomEvent{Type: pkg.EventRoomCreated, RoomID: room.ID, UserID: creatorID})
	return room, nil
}

// Join 加入房间。校验顺序是对外契约：存在 -> 未终止 -> 状态可进 ->
// 容量 -> 密码 -> 用户。容量在密码之前，满房的拒绝不泄露密码对错。
// 整段持有房间行锁，两个并发join不可能同时挤进最后一个名额。
func (s *RoomService) Join(ctx context.Context, roomID, userID uint64, password string) (*model.RoomMember, error) {
	var joined *model.RoomMember
	err := s.rooms.WithRoomLock(ctx, roomID, func(tx repository.RoomTx) error {
		room := tx.Room()
		if room.Terminated() {
			return ErrRoomTerminated
		}
		if !room.Joinable() {
			return ErrRoomInactive
		}
		if room.CurrentParticipants >= room.MaxParticipants {
			return ErrRoomFull
		}
		if room.Private {
			if bcrypt.CompareHashAndPassword([]byte(room.Password), []byte(password)) != nil {
				return ErrRoomPasswordIncorrect
			}
		}
		if _, err := s.users.FindByID(ctx, userID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		m, err := tx.Member(userID)
		switch {
		case err == nil:
			// 重进复用原成员记录，角色保留，不产生重复行
			if m.Online {
				return ErrAlreadyJoinedRoom
			}
			if err := tx.SetOnline(userID, true); err != nil {
				return err
			}
			m.Online = true
			joined = m
		case errors.Is(err, repository.ErrNotFound):
			nm := &model.RoomMember{
				RoomID:   roomID,
				UserID:   userID,
				Role:     model.RoleVisitor,
				Online:   true,
				JoinedAt: time.Now(),
			}
			if err := tx.CreateMember(nm); err != nil {
				return err
			}
			joined = nm
		default:
			return err
		}

		if err := tx.AddParticipants(1); err != nil {
			return err
		}
		if room.Status == model.RoomStatusWaiting {
			return tx.SetStatus(model.RoomStatusActive)
		}
		return nil
	})
	if err != nil {
		return nil, mapRoomErr(err)
	}

	// 持久层已提交，镜像失败最多表现为"看起来不在线"
	s.enterPresence(ctx, userID, roomID)
	return joined, nil
}

// Leave 离开房间，已离线的成员重复leave是无害no-op。
// 房主离开触发继任协议，和join共用同一把房间行锁。
func (s *RoomService) Leave(ctx context.Context, roomID, userID uint64) error {
	var (
		terminated  bool
		successorID uint64
	)
	err := s.rooms.WithRoomLock(ctx, roomID, func(tx repository.RoomTx) error {
		m, err := tx.Member(userID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrNotRoomMember
			}
			return err
		}
		if !m.Online {
			return nil // 幂等
		}
		if m.IsHost() {
			succ, term, err := s.succeedHost(tx, m)
			if err != nil {
				return err
			}
			terminated, successorID = term, succ
			return nil
		}
		if err := tx.SetOnline(userID, false); err != nil {
			return err
		}
		return tx.AddParticipants(-1)
	})
	if err != nil {
		return mapRoomErr(err)
	}

	s.exitPresence(ctx, userID, roomID)
	if terminated {
		s.clearPresence(ctx, roomID)
		s.sendEvent(ctx, pkg.RoomEvent{Type: pkg.EventRoomTerminated, RoomID: roomID, UserID: userID})
	} else if successorID != 0 {
		s.sendEvent(ctx, pkg.RoomEvent{Type: pkg.EventHostChanged, RoomID: roomID, UserID: successorID})
	}
	return nil
}

// succeedHost 房主继任：没有其他在线成员就终止房间；否则优先提升
// 在线副房主（多个时取joined_at最早的），再退到joined_at最早的在线成员
func (s *RoomService) succeedHost(tx repository.RoomTx, host *model.RoomMember) (successorID uint64, terminated bool, err error) {
	online, err := tx.OnlineMembers()
	if err != nil {
		return 0, false, err
	}
	rest := online[:0:0]
	for _, m := range online {
		if m.UserID != host.UserID {
			rest = append(rest, m)
		}
	}

	if len(rest) == 0 {
		if err := tx.SetStatus(model.RoomStatusTerminated); err != nil {
			return 0, false, err
		}
		if err := tx.SetOnline(host.UserID, false); err != nil {
			return 0, false, err
		}
		return 0, true, tx.AddParticipants(-1)
	}

	succ := pickSuccessor(rest)
	if err := tx.UpdateRole(succ.UserID, model.RoleHost); err != nil {
		return 0, false, err
	}
	// 旧房主降为普通成员，保证非终止房间任意时刻只有一个房主；
	// 不降级的话旧房主重进时角色保留，会出现双房主
	if err := tx.UpdateRole(host.UserID, model.RoleVisitor); err != nil {
		return 0, false, err
	}
	if err := tx.SetOnline(host.UserID, false); err != nil {
		return 0, false, err
	}
	return succ.UserID, false, tx.AddParticipants(-1)
}

// pickSuccessor 入参按joined_at升序。副房主里joined_at最早的优先，
// 没有副房主时取最早加入的在线成员
func pickSuccessor(members []model.RoomMember) *model.RoomMember {
	for i := range members {
		if members[i].Role == model.RoleSubHost {
			return &members[i]
		}
	}
	return &members[0]
}

// ChangeRole 调整成员角色。房主角色不能被指派也不能被剥夺，
// 房主变更只发生在离开继任里
func (s *RoomService) ChangeRole(ctx context.Context, roomID, targetID uint64, newRole int, requesterID uint64) error {
	if _, err := s.rooms.FindByID(ctx, roomID); err != nil {
		return mapRoomErr(err)
	}
	requester, err := s.members.Find(ctx, roomID, requesterID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotRoomMember
		}
		return err
	}
	if !requester.IsManager() {
		return ErrNotRoomManager
	}
	if newRole == model.RoleHost {
		return ErrCannotChangeHostRole
	}
	target, err := s.members.Find(ctx, roomID, targetID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotRoomMember
		}
		return err
	}
	if target.IsHost() {
		return ErrCannotChangeHostRole
	}
	return s.members.UpdateRole(ctx, roomID, targetID, newRole)
}

// Kick 踢人。目标是房主时拒绝；目标已离线时视为已达成，不重复扣减
func (s *RoomService) Kick(ctx context.Context, roomID, targetID, requesterID uint64) error {
	if _, err := s.rooms.FindByID(ctx, roomID); err != nil {
		return mapRoomErr(err)
	}
	requester, err := s.members.Find(ctx, roomID, requesterID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotRoomMember
		}
		return err
	}
	if !requester.IsManager() {
		return ErrNotRoomManager
	}
	target, err := s.members.Find(ctx, roomID, targetID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotRoomMember
		}
		return err
	}
	if target.IsHost() {
		return ErrCannotKickHost
	}
	if _, err := s.members.SetOffline(ctx, roomID, targetID); err != nil {
		return err
	}
	s.exitPresence(ctx, targetID, roomID)
	return nil
}

// Terminate 房主终止房间：全员离线、计数清零、镜像清空。
// 已终止的房间重复terminate是no-op
func (s *RoomService) Terminate(ctx context.Context, roomID, requesterID uint64) error {
	var changed bool
	err := s.rooms.WithRoomLock(ctx, roomID, func(tx repository.RoomTx) error {
		room := tx.Room()
		if room.OwnerID != requesterID {
			return ErrNotRoomManager
		}
		if room.Terminated() {
			return nil
		}
		if err := tx.SetAllOffline(); err != nil {
			return err
		}
		if err := tx.AddParticipants(-room.CurrentParticipants); err != nil {
			return err
		}
		changed = true
		return tx.SetStatus(model.RoomStatusTerminated)
	})
	if err != nil {
		return mapRoomErr(err)
	}
	// 已终止的房间重复terminate不重发事件、不重清镜像
	if !changed {
		return nil
	}

	s.clearPresence(ctx, roomID)
	s.sendEvent(ctx, pkg.RoomEvent{Type: pkg.EventRoomTerminated, RoomID: roomID, UserID: requesterID})
	return nil
}

// RoomSummary 列表项，带上镜像里的实时在线数
type RoomSummary struct {
	Room   model.Room `json:"room"`
	Online int64      `json:"online"`
}

func (s *RoomService) GetJoinableRooms(ctx context.Context, page, size int) ([]RoomSummary, error) {
	if page <= 0 {
		page = 1
	}
	if size <= 0 || size > 50 {
		size = 20
	}
	rooms, err := s.rooms.ListJoinable(ctx, (page-1)*size, size)
	if err != nil {
		return nil, err
	}
	return s.decorate(ctx, rooms), nil
}

func (s *RoomService) GetPopularRooms(ctx context.Context, limit int) ([]RoomSummary, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	rooms, err := s.rooms.ListPopular(ctx, limit)
	if err != nil {
		return nil, err
	}
	return s.decorate(ctx, rooms), nil
}

// decorate 批量补实时在线数，镜像挂了就全0，列表本身照常返回
func (s *RoomService) decorate(ctx context.Context, rooms []model.Room) []RoomSummary {
	ids := make([]uint64, len(rooms))
	for i := range rooms {
		ids[i] = rooms[i].ID
	}
	counts, err := s.presence.OnlineCounts(ctx, ids)
	if err != nil {
		logrus.WithError(err).Warn("presence: bulk online counts failed, degrading to zero")
		counts = nil
	}
	out := make([]RoomSummary, len(rooms))
	for i := range rooms {
		out[i] = RoomSummary{Room: rooms[i], Online: counts[rooms[i].ID]}
	}
	return out
}

// GetRoomDetail 私密房间只对成员可见
func (s *RoomService) GetRoomDetail(ctx context.Context, roomID, userID uint64) (*RoomSummary, error) {
	room, err := s.rooms.FindByID(ctx, roomID)
	if err != nil {
		return nil, mapRoomErr(err)
	}
	if room.Private {
		if _, err := s.members.Find(ctx, roomID, userID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrRoomForbidden
			}
			return nil, err
		}
	}
	online, err := s.presence.OnlineCount(ctx, roomID)
	if err != nil {
		logrus.WithError(err).WithField("room_id", roomID).
			Warn("presence: online count failed, degrading to zero")
		online = 0
	}
	return &RoomSummary{Room: *room, Online: online}, nil
}

func (s *RoomService) GetMembers(ctx context.Context, roomID, userID uint64) ([]model.RoomMember, error) {
	room, err := s.rooms.FindByID(ctx, roomID)
	if err != nil {
		return nil, mapRoomErr(err)
	}
	if room.Private {
		if _, err := s.members.Find(ctx, roomID, userID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrRoomForbidden
			}
			return nil, err
		}
	}
	return s.members.ListByRoom(ctx, roomID)
}

func (s *RoomService) GetUserRole(ctx context.Context, roomID, userID uint64) (int, error) {
	if _, err := s.rooms.FindByID(ctx, roomID); err != nil {
		return 0, mapRoomErr(err)
	}
	m, err := s.members.Find(ctx, roomID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, ErrNotRoomMember
		}
		return 0, err
	}
	return m.Role, nil
}

// mapRoomErr 仓储哨兵错误 -> 业务错误
func mapRoomErr(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrRoomNotFound
	case errors.Is(err, repository.ErrLockTimeout):
		return ErrRoomBusy
	default:
		return err
	}
}

// 下面三个是镜像写路径：持久层已经提交，这里失败只记日志

func (s *RoomService) enterPresence(ctx context.Context, userID, roomID uint64) {
	if err := s.presence.Enter(ctx, userID, roomID); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{"user_id": userID, "room_id": roomID}).
			Warn("presence: enter failed")
	}
}

func (s *RoomService) exitPresence(ctx context.Context, userID, roomID uint64) {
	if err := s.presence.Exit(ctx, userID, roomID); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{"user_id": userID, "room_id": roomID}).
			Warn("presence: exit failed")
	}
}

func (s *RoomService) clearPresence(ctx context.Context, roomID uint64) {
	if err := s.presence.ClearRoom(ctx, roomID); err != nil {
		logrus.WithError(err).WithField("room_id", roomID).
			Warn("presence: clear room failed")
	}
}

func (s *RoomService) sendEvent(ctx context.Context, ev pkg.RoomEvent) {
	if s.producer == nil {
		return
	}
	if err := s.producer.SendRoomEvent(ctx, ev); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{"type": ev.Type, "room_id": ev.RoomID}).
			Warn("kafka: room event send failed")
	}
}
