package main

import (
	"bytes"
	"context"
	"io"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/PaulBabatuyi/skillshub/internal/data"
	"github.com/PaulBabatuyi/skillshub/internal/mail"
	"github.com/PaulBabatuyi/skillshub/internal/normalize"
	"github.com/PaulBabatuyi/skillshub/internal/storage"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// fakeUsers is an in-memory userStore.
type fakeUsers struct {
	mu    sync.Mutex
	byID  map[bson.ObjectID]*data.User
	order []bson.ObjectID
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byID: map[bson.ObjectID]*data.User{}}
}

func (f *fakeUsers) CreateUser(_ context.Context, u *data.User) (*data.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	email := normalize.Email(u.Email)
	for _, existing := range f.byID {
		if existing.Email == email {
			return nil, data.ErrUserExists
		}
	}
	cp := *u
	cp.ID = bson.NewObjectID()
	cp.Email = email
	if cp.Role == "" {
		cp.Role = data.RoleStudent
	}
	cp.CreatedAt = time.Now().UTC()
	cp.UpdatedAt = cp.CreatedAt
	f.byID[cp.ID] = &cp
	f.order = append(f.order, cp.ID)

	out := cp
	return &out, nil
}

func (f *fakeUsers) GetUserByEmail(_ context.Context, email string) (*data.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	email = normalize.Email(email)
	for _, u := range f.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, data.ErrNotFound
}

func (f *fakeUsers) GetUserByID(_ context.Context, id bson.ObjectID) (*data.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return nil, data.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) UserExists(_ context.Context, id bson.ObjectID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.byID[id]
	return ok, nil
}

func (f *fakeUsers) GetProfiles(_ context.Context, ids []bson.ObjectID) (map[bson.ObjectID]*data.UserRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[bson.ObjectID]*data.UserRef{}
	for _, id := range ids {
		if u, ok := f.byID[id]; ok {
			out[id] = u.Ref()
		}
	}
	return out, nil
}

func (f *fakeUsers) UpdateProfile(_ context.Context, id bson.ObjectID, upd data.ProfileUpdate) (*data.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return nil, data.ErrNotFound
	}
	for dst, src := range map[*string]*string{
		&u.Name: upd.Name, &u.College: upd.College, &u.Course: upd.Course, &u.Year: upd.Year, &u.Bio: upd.Bio,
	} {
		if src != nil {
			*dst = *src
		}
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) SetAvatar(_ context.Context, id bson.ObjectID, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return data.ErrNotFound
	}
	u.AvatarKey = key
	return nil
}

func (f *fakeUsers) ListStudents(_ context.Context) ([]*data.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*data.User{}
	for i := len(f.order) - 1; i >= 0; i-- {
		if u, ok := f.byID[f.order[i]]; ok && u.Role == data.RoleStudent {
			cp := *u
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeUsers) DeleteUser(_ context.Context, id bson.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return data.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeUsers) VerifyEmail(_ context.Context, digest string, now time.Time) (*data.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.VerificationToken != "" && u.VerificationToken == digest && u.VerificationTokenExpires.After(now) {
			u.IsVerified = true
			u.VerificationToken = ""
			u.VerificationTokenExpires = time.Time{}
			cp := *u
			return &cp, nil
		}
	}
	return nil, data.ErrNotFound
}

// fakeSkills is an in-memory skillStore.
type fakeSkills struct {
	mu     sync.Mutex
	skills []*data.Skill // insertion order
}

func (f *fakeSkills) CreateSkill(_ context.Context, s *data.Skill) (*data.Skill, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *s
	cp.ID = bson.NewObjectID()
	if cp.Status == "" {
		cp.Status = data.SkillActive
	}
	cp.CreatedAt = time.Now().UTC()
	f.skills = append(f.skills, &cp)
	out := cp
	return &out, nil
}

func (f *fakeSkills) index(id bson.ObjectID) int {
	return slices.IndexFunc(f.skills, func(s *data.Skill) bool { return s.ID == id })
}

func (f *fakeSkills) GetSkill(_ context.Context, id bson.ObjectID) (*data.Skill, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.index(id)
	if i < 0 {
		return nil, data.ErrNotFound
	}
	cp := *f.skills[i]
	return &cp, nil
}

func (f *fakeSkills) SkillExists(_ context.Context, id bson.ObjectID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.index(id) >= 0, nil
}

func (f *fakeSkills) SkillRefs(_ context.Context, ids []bson.ObjectID) (map[bson.ObjectID]*data.SkillRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[bson.ObjectID]*data.SkillRef{}
	for _, id := range ids {
		if i := f.index(id); i >= 0 {
			out[id] = &data.SkillRef{ID: id, Title: f.skills[i].Title}
		}
	}
	return out, nil
}

// newest returns copies of the skills matching keep, newest first.
func (f *fakeSkills) newest(keep func(*data.Skill) bool) []*data.Skill {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*data.Skill{}
	for i := len(f.skills) - 1; i >= 0; i-- {
		if keep(f.skills[i]) {
			cp := *f.skills[i]
			out = append(out, &cp)
		}
	}
	return out
}

func (f *fakeSkills) ListSkills(_ context.Context, flt data.SkillFilter) ([]*data.Skill, error) {
	search := strings.ToLower(flt.Search)
	out := f.newest(func(s *data.Skill) bool {
		if s.Status != data.SkillActive {
			return false
		}
		if flt.Category != "" && s.Category != flt.Category {
			return false
		}
		if flt.Type != "" && s.Type != flt.Type {
			return false
		}
		if search != "" && !strings.Contains(strings.ToLower(s.Title+" "+s.Description), search) {
			return false
		}
		return true
	})
	if len(out) > data.MaxSkillResults {
		out = out[:data.MaxSkillResults]
	}
	return out, nil
}

func (f *fakeSkills) ListAllSkills(_ context.Context) ([]*data.Skill, error) {
	return f.newest(func(*data.Skill) bool { return true }), nil
}

func (f *fakeSkills) ListSkillsByOwner(_ context.Context, owner bson.ObjectID) ([]*data.Skill, error) {
	return f.newest(func(s *data.Skill) bool { return s.OwnerID == owner }), nil
}

func (f *fakeSkills) UpdateSkill(_ context.Context, id bson.ObjectID, upd data.SkillUpdate) (*data.Skill, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.index(id)
	if i < 0 {
		return nil, data.ErrNotFound
	}
	s := f.skills[i]
	for dst, src := range map[*string]*string{
		&s.Title: upd.Title, &s.Description: upd.Description, &s.Category: upd.Category, &s.Type: upd.Type,
		&s.Level: upd.Level, &s.Availability: upd.Availability, &s.Status: upd.Status,
	} {
		if src != nil {
			*dst = *src
		}
	}
	cp := *s
	return &cp, nil
}

func (f *fakeSkills) DeleteSkill(_ context.Context, id bson.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.index(id)
	if i < 0 {
		return data.ErrNotFound
	}
	f.skills = slices.Delete(f.skills, i, i+1)
	return nil
}

func (f *fakeSkills) DeleteSkillsByOwner(_ context.Context, owner bson.ObjectID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	before := len(f.skills)
	f.skills = slices.DeleteFunc(f.skills, func(s *data.Skill) bool { return s.OwnerID == owner })
	return int64(before - len(f.skills)), nil
}

// fakeMessages is an in-memory messaging.Store.
type fakeMessages struct {
	mu   sync.Mutex
	msgs []*data.Message
	// clock advances by a millisecond per message so ordering is stable.
	clock time.Time
}

func newFakeMessages() *fakeMessages {
	return &fakeMessages{clock: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
}

func (f *fakeMessages) SaveMessage(_ context.Context, msg *data.Message) (*data.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clock = f.clock.Add(time.Millisecond)
	cp := *msg
	cp.ID = bson.NewObjectID()
	cp.IsRead = false
	cp.CreatedAt = f.clock
	f.msgs = append(f.msgs, &cp)
	out := cp
	return &out, nil
}

func between(m *data.Message, a, b bson.ObjectID) bool {
	return (m.SenderID == a && m.ReceiverID == b) || (m.SenderID == b && m.ReceiverID == a)
}

func (f *fakeMessages) GetConversation(_ context.Context, viewer, counterpart bson.ObjectID) ([]*data.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*data.Message{}
	for _, m := range f.msgs {
		if between(m, viewer, counterpart) {
			cp := *m
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeMessages) MarkConversationRead(_ context.Context, viewer, counterpart bson.ObjectID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, m := range f.msgs {
		if m.SenderID == counterpart && m.ReceiverID == viewer && !m.IsRead {
			m.IsRead = true
			n++
		}
	}
	return n, nil
}

func (f *fakeMessages) CountUnread(_ context.Context, viewer bson.ObjectID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, m := range f.msgs {
		if m.ReceiverID == viewer && !m.IsRead {
			n++
		}
	}
	return n, nil
}

func (f *fakeMessages) ListConversations(_ context.Context, viewer bson.ObjectID) ([]*data.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	byPeer := map[bson.ObjectID]*data.Conversation{}
	for _, m := range f.msgs {
		if m.SenderID != viewer && m.ReceiverID != viewer {
			continue
		}
		peer := m.Counterpart(viewer)
		c, ok := byPeer[peer]
		if !ok {
			c = &data.Conversation{CounterpartID: peer}
			byPeer[peer] = c
		}
		cp := *m
		c.LastMessage = &cp
		if m.ReceiverID == viewer && !m.IsRead {
			c.UnreadCount++
		}
	}
	out := make([]*data.Conversation, 0, len(byPeer))
	for _, c := range byPeer {
		out = append(out, c)
	}
	// newest activity first, then counterpart id ascending like the store
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].LastMessage.CreatedAt, out[j].LastMessage.CreatedAt
		if !a.Equal(b) {
			return a.After(b)
		}
		return bytes.Compare(out[i].CounterpartID[:], out[j].CounterpartID[:]) < 0
	})
	return out, nil
}

// captureMailer records sent mail.
type captureMailer struct {
	mu   sync.Mutex
	sent []mail.Message
}

func (c *captureMailer) Send(_ context.Context, m mail.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, m)
	return nil
}

func (c *captureMailer) last() (mail.Message, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.sent) == 0 {
		return mail.Message{}, false
	}
	return c.sent[len(c.sent)-1], true
}

// memStorage is an in-memory storage.ObjectStorage.
type memStorage struct {
	mu      sync.Mutex
	objects map[string]memObject
}

type memObject struct {
	data        []byte
	contentType string
}

func newMemStorage() *memStorage {
	return &memStorage{objects: map[string]memObject{}}
}

func (m *memStorage) EnsureBucket(context.Context) error { return nil }
func (m *memStorage) Bucket() string                     { return "avatars-test" }

func (m *memStorage) Put(_ context.Context, key string, r io.Reader, _ int64, contentType string) error {
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = memObject{data: b, contentType: contentType}
	return nil
}

func (m *memStorage) Get(_ context.Context, key string) (*storage.Object, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	obj, ok := m.objects[key]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return &storage.Object{
		ReadCloser:  io.NopCloser(bytes.NewReader(obj.data)),
		Size:        int64(len(obj.data)),
		ContentType: obj.contentType,
	}, nil
}

func (m *memStorage) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

// staticHealth reports a fixed store state.
type staticHealth bool

func (h staticHealth) Healthy() bool { return bool(h) }
