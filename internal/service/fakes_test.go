package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"StudyRoom/internal/model"
	"StudyRoom/internal/repository"
)

// 内存版仓储，锁语义和回滚语义与mysql实现对齐：
// WithRoomLock内的修改在fn报错时整体还原

type fakeStore struct {
	mu      sync.Mutex
	rooms   map[uint64]*model.Room
	members map[uint64]map[uint64]*model.RoomMember
	seq     uint64

	lockErr error // 模拟锁等待超时
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		rooms:   make(map[uint64]*model.Room),
		members: make(map[uint64]map[uint64]*model.RoomMember),
	}
}

func (s *fakeStore) Create(_ context.Context, room *model.Room, host *model.RoomMember) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	room.ID = s.seq
	r := *room
	s.rooms[room.ID] = &r
	host.RoomID = room.ID
	s.seq++
	host.ID = s.seq
	m := *host
	s.members[room.ID] = map[uint64]*model.RoomMember{host.UserID: &m}
	return nil
}

func (s *fakeStore) FindByID(_ context.Context, id uint64) (*model.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (s *fakeStore) WithRoomLock(_ context.Context, roomID uint64, fn func(tx repository.RoomTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lockErr != nil {
		return s.lockErr
	}
	room, ok := s.rooms[roomID]
	if !ok {
		return repository.ErrNotFound
	}

	roomSnap := *room
	memberSnap := make(map[uint64]model.RoomMember, len(s.members[roomID]))
	for uid, m := range s.members[roomID] {
		memberSnap[uid] = *m
	}

	err := fn(&fakeTx{store: s, room: room})
	if err != nil {
		*room = roomSnap
		restored := make(map[uint64]*model.RoomMember, len(memberSnap))
		for uid, m := range memberSnap {
			cp := m
			restored[uid] = &cp
		}
		s.members[roomID] = restored
	}
	return err
}

func (s *fakeStore) ListJoinable(_ context.Context, offset, limit int) ([]model.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Room
	for _, r := range s.rooms {
		if !r.Private && !r.Terminated() && r.CurrentParticipants < r.MaxParticipants {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if offset >= len(out) {
		return nil, nil
	}
	if offset+limit > len(out) {
		limit = len(out) - offset
	}
	return out[offset : offset+limit], nil
}

func (s *fakeStore) ListPopular(_ context.Context, limit int) ([]model.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Room
	for _, r := range s.rooms {
		if !r.Private && !r.Terminated() {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CurrentParticipants > out[j].CurrentParticipants
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type fakeTx struct {
	store *fakeStore
	room  *model.Room
}

func (t *fakeTx) Room() *model.Room { return t.room }

func (t *fakeTx) Member(userID uint64) (*model.RoomMember, error) {
	m, ok := t.store.members[t.room.ID][userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (t *fakeTx) OnlineMembers() ([]model.RoomMember, error) {
	var out []model.RoomMember
	for _, m := range t.store.members[t.room.ID] {
		if m.Online {
			out = append(out, *m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].JoinedAt.Equal(out[j].JoinedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].JoinedAt.Before(out[j].JoinedAt)
	})
	return out, nil
}

func (t *fakeTx) CreateMember(m *model.RoomMember) error {
	t.store.seq++
	m.ID = t.store.seq
	m.RoomID = t.room.ID
	cp := *m
	t.store.members[t.room.ID][m.UserID] = &cp
	return nil
}

func (t *fakeTx) SetOnline(userID uint64, online bool) error {
	m, ok := t.store.members[t.room.ID][userID]
	if !ok {
		return repository.ErrNotFound
	}
	m.Online = online
	return nil
}

func (t *fakeTx) UpdateRole(userID uint64, role int) error {
	m, ok := t.store.members[t.room.ID][userID]
	if !ok {
		return repository.ErrNotFound
	}
	m.Role = role
	return nil
}

func (t *fakeTx) SetAllOffline() error {
	for _, m := range t.store.members[t.room.ID] {
		m.Online = false
	}
	return nil
}

func (t *fakeTx) AddParticipants(delta int) error {
	t.room.CurrentParticipants += delta
	if t.room.CurrentParticipants < 0 {
		t.room.CurrentParticipants = 0
	}
	return nil
}

func (t *fakeTx) SetStatus(status int) error {
	t.room.Status = status
	return nil
}

// MemberRepository

func (s *fakeStore) Find(_ context.Context, roomID, userID uint64) (*model.RoomMember, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.members[roomID][userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (s *fakeStore) ListByRoom(_ context.Context, roomID uint64) ([]model.RoomMember, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.RoomMember
	for _, m := range s.members[roomID] {
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *fakeStore) SetOffline(_ context.Context, roomID, userID uint64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.members[roomID][userID]
	if !ok {
		return false, repository.ErrNotFound
	}
	if !m.Online {
		return false, nil
	}
	m.Online = false
	if r, ok := s.rooms[roomID]; ok && r.CurrentParticipants > 0 {
		r.CurrentParticipants--
	}
	return true, nil
}

func (s *fakeStore) UpdateRole(_ context.Context, roomID, userID uint64, role int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.members[roomID][userID]
	if !ok {
		return repository.ErrNotFound
	}
	m.Role = role
	return nil
}

// 用户目录

type fakeUsers struct {
	mu  sync.Mutex
	ids map[uint64]*model.User
}

func newFakeUsers(ids ...uint64) *fakeUsers {
	f := &fakeUsers{ids: make(map[uint64]*model.User)}
	for _, id := range ids {
		f.ids[id] = &model.User{ID: id}
	}
	return f
}

func (f *fakeUsers) FindByID(_ context.Context, id uint64) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.ids[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return u, nil
}

func (f *fakeUsers) FindByUsername(_ context.Context, _ string) (*model.User, error) {
	return nil, repository.ErrNotFound
}

func (f *fakeUsers) Create(_ context.Context, u *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ids[u.ID] = u
	return nil
}

// 在线状态镜像

var errPresenceDown = errors.New("presence store down")

type fakePresence struct {
	mu      sync.Mutex
	rooms      map[uint64]map[uint64]bool
	users      map[uint64]uint64
	failing    bool // 模拟快速存储整体故障
	clearCalls int
}

func newFakePresence() *fakePresence {
	return &fakePresence{
		rooms: make(map[uint64]map[uint64]bool),
		users: make(map[uint64]uint64),
	}
}

func (f *fakePresence) Enter(_ context.Context, userID, roomID uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return errPresenceDown
	}
	if f.rooms[roomID] == nil {
		f.rooms[roomID] = make(map[uint64]bool)
	}
	f.rooms[roomID][userID] = true
	f.users[userID] = roomID
	return nil
}

func (f *fakePresence) Exit(_ context.Context, userID, roomID uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return errPresenceDown
	}
	delete(f.rooms[roomID], userID)
	if f.users[userID] == roomID {
		delete(f.users, userID)
	}
	return nil
}

func (f *fakePresence) OnlineCount(_ context.Context, roomID uint64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return 0, errPresenceDown
	}
	return int64(len(f.rooms[roomID])), nil
}

func (f *fakePresence) OnlineUsers(_ context.Context, roomID uint64) ([]uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return nil, errPresenceDown
	}
	var out []uint64
	for uid := range f.rooms[roomID] {
		out = append(out, uid)
	}
	return out, nil
}

func (f *fakePresence) IsOnline(_ context.Context, userID, roomID uint64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return false, errPresenceDown
	}
	return f.rooms[roomID][userID], nil
}

func (f *fakePresence) CurrentRoomOf(_ context.Context, userID uint64) (uint64, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return 0, false, errPresenceDown
	}
	roomID, ok := f.users[userID]
	return roomID, ok, nil
}

func (f *fakePresence) OnlineCounts(_ context.Context, roomIDs []uint64) (map[uint64]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return nil, errPresenceDown
	}
	out := make(map[uint64]int64, len(roomIDs))
	for _, id := range roomIDs {
		out[id] = int64(len(f.rooms[id]))
	}
	return out, nil
}

func (f *fakePresence) ClearRoom(_ context.Context, roomID uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clearCalls++
	if f.failing {
		return errPresenceDown
	}
	for uid := range f.rooms[roomID] {
		if f.users[uid] == roomID {
			delete(f.users, uid)
		}
	}
	delete(f.rooms, roomID)
	return nil
}

// 邀请码持久层

type fakeInvites struct {
	mu        sync.Mutex
	byCode    map[string]*model.InviteCode
	seq       uint64
	createErr error // 每次Create都返回这个错，碰撞耗尽测试用
}

func newFakeInvites() *fakeInvites {
	return &fakeInvites{byCode: make(map[string]*model.InviteCode)}
}

func (f *fakeInvites) FindActive(_ context.Context, roomID, creatorID uint64) (*model.InviteCode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var found *model.InviteCode
	for _, c := range f.byCode {
		if c.RoomID == roomID && c.CreatorID == creatorID && c.Active {
			if found == nil || c.ID > found.ID {
				found = c
			}
		}
	}
	if found == nil {
		return nil, repository.ErrNotFound
	}
	cp := *found
	return &cp, nil
}

func (f *fakeInvites) FindByCode(_ context.Context, code string) (*model.InviteCode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.byCode[code]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeInvites) Create(_ context.Context, code *model.InviteCode) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	if _, exists := f.byCode[code.Code]; exists {
		return repository.ErrDuplicate
	}
	f.seq++
	code.ID = f.seq
	cp := *code
	f.byCode[code.Code] = &cp
	return nil
}

func (f *fakeInvites) Deactivate(_ context.Context, id uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.byCode {
		if c.ID == id {
			c.Active = false
		}
	}
	return nil
}

// 邀请码镜像

var errCacheDown = errors.New("invite cache down")

type fakeInviteCache struct {
	mu      sync.Mutex
	entries map[string]uint64
	ttls    map[string]time.Duration
	failing bool
}

func newFakeInviteCache() *fakeInviteCache {
	return &fakeInviteCache{
		entries: make(map[string]uint64),
		ttls:    make(map[string]time.Duration),
	}
}

func (f *fakeInviteCache) Set(_ context.Context, code string, roomID uint64, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return errCacheDown
	}
	f.entries[code] = roomID
	f.ttls[code] = ttl
	return nil
}

func (f *fakeInviteCache) GetRoomID(_ context.Context, code string) (uint64, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return 0, false, errCacheDown
	}
	roomID, ok := f.entries[code]
	return roomID, ok, nil
}

func (f *fakeInviteCache) Exists(_ context.Context, code string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return false, errCacheDown
	}
	_, ok := f.entries[code]
	return ok, nil
}

func (f *fakeInviteCache) Delete(_ context.Context, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return errCacheDown
	}
	delete(f.entries, code)
	delete(f.ttls, code)
	return nil
}
