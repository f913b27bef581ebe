// Package messaging implements direct messages between users: sending,
// pairwise conversations with read marking, and the conversation list.
package messaging

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/PaulBabatuyi/skillshub/internal/data"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// MaxContentLen is the longest accepted message, in characters.
const MaxContentLen = 1000

var (
	// ErrReceiverNotFound is returned when sending to an unknown account.
	ErrReceiverNotFound = fmt.Errorf("receiver %w", data.ErrNotFound)
	// ErrSkillNotFound is returned when the related skill does not exist.
	ErrSkillNotFound = fmt.Errorf("related skill %w", data.ErrNotFound)
)

// Store persists messages.
type Store interface {
	SaveMessage(ctx context.Context, msg *data.Message) (*data.Message, error)
	GetConversation(ctx context.Context, viewer, counterpart bson.ObjectID) ([]*data.Message, error)
	MarkConversationRead(ctx context.Context, viewer, counterpart bson.ObjectID) (int64, error)
	ListConversations(ctx context.Context, viewer bson.ObjectID) ([]*data.Conversation, error)
	CountUnread(ctx context.Context, viewer bson.ObjectID) (int64, error)
}

// Directory resolves users.
type Directory interface {
	UserExists(ctx context.Context, id bson.ObjectID) (bool, error)
	GetProfiles(ctx context.Context, ids []bson.ObjectID) (map[bson.ObjectID]*data.UserRef, error)
}

// Catalog resolves skills.
type Catalog interface {
	SkillExists(ctx context.Context, id bson.ObjectID) (bool, error)
	SkillRefs(ctx context.Context, ids []bson.ObjectID) (map[bson.ObjectID]*data.SkillRef, error)
}

// Service coordinates the message store with the user and skill lookups.
type Service struct {
	store     Store
	directory Directory
	catalog   Catalog
}

// NewService returns a messaging Service.
func NewService(store Store, directory Directory, catalog Catalog) *Service {
	return &Service{store: store, directory: directory, catalog: catalog}
}

// SendRequest is an outgoing message as submitted by a client. Ids are raw
// hex strings so malformed input is reported as a validation error.
type SendRequest struct {
	ReceiverID   string `json:"receiver"`
	Content      string `json:"content"`
	RelatedSkill string `json:"relatedSkill,omitempty"`
}

// ValidateContent trims content and checks its length in characters.
func ValidateContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", data.Invalid("content", "Message cannot be empty")
	}
	if utf8.RuneCountInString(content) > MaxContentLen {
		return "", data.Invalid("content", "Message cannot exceed %d characters", MaxContentLen)
	}
	return content, nil
}

// SendMessage validates req and stores it as an unread message from sender.
// Sending to oneself is allowed.
func (s *Service) SendMessage(ctx context.Context, sender bson.ObjectID, req SendRequest) (*data.Message, error) {
	if strings.TrimSpace(req.ReceiverID) == "" || strings.TrimSpace(req.Content) == "" {
		return nil, data.Invalid("", "Please provide receiver and message content")
	}
	receiver, err := data.ParseID("receiver", strings.TrimSpace(req.ReceiverID))
	if err != nil {
		return nil, err
	}
	content, err := ValidateContent(req.Content)
	if err != nil {
		return nil, err
	}

	var skillID *bson.ObjectID
	if raw := strings.TrimSpace(req.RelatedSkill); raw != "" {
		id, err := data.ParseID("relatedSkill", raw)
		if err != nil {
			return nil, err
		}
		skillID = &id
	}

	ok, err := s.directory.UserExists(ctx, receiver)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrReceiverNotFound
	}
	if skillID != nil {
		ok, err := s.catalog.SkillExists(ctx, *skillID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrSkillNotFound
		}
	}

	msg, err := s.store.SaveMessage(ctx, &data.Message{
		SenderID:       sender,
		ReceiverID:     receiver,
		Content:        content,
		RelatedSkillID: skillID,
	})
	if err != nil {
		return nil, err
	}

	if err := s.resolveMessages(ctx, []*data.Message{msg}); err != nil {
		return nil, err
	}
	return msg, nil
}

// Conversation returns every message between viewer and the counterpart with
// hex id counterpartRaw, oldest first, then marks the incoming ones read. The
// returned messages carry the read state from before marking.
func (s *Service) Conversation(ctx context.Context, viewer bson.ObjectID, counterpartRaw string) ([]*data.Message, error) {
	counterpart, err := data.ParseID("userId", counterpartRaw)
	if err != nil {
		return nil, err
	}

	messages, err := s.store.GetConversation(ctx, viewer, counterpart)
	if err != nil {
		return nil, err
	}
	if err := s.resolveMessages(ctx, messages); err != nil {
		return nil, err
	}

	if _, err := s.MarkRead(ctx, viewer, counterpart); err != nil {
		return nil, err
	}
	return messages, nil
}

// MarkRead marks every unread message from counterpart to viewer as read.
func (s *Service) MarkRead(ctx context.Context, viewer, counterpart bson.ObjectID) (int64, error) {
	return s.store.MarkConversationRead(ctx, viewer, counterpart)
}

// UnreadCount returns how many messages addressed to viewer are unread,
// across all conversations.
func (s *Service) UnreadCount(ctx context.Context, viewer bson.ObjectID) (int64, error) {
	return s.store.CountUnread(ctx, viewer)
}

// ListConversations returns one summary per counterpart, most recent activity
// first. A counterpart whose account was deleted has a nil User.
func (s *Service) ListConversations(ctx context.Context, viewer bson.ObjectID) ([]*data.Conversation, error) {
	convs, err := s.store.ListConversations(ctx, viewer)
	if err != nil {
		return nil, err
	}
	if len(convs) == 0 {
		return []*data.Conversation{}, nil
	}

	ids := make([]bson.ObjectID, 0, len(convs)+1)
	ids = append(ids, viewer)
	for _, c := range convs {
		ids = append(ids, c.CounterpartID)
	}
	profiles, err := s.directory.GetProfiles(ctx, dedupe(ids))
	if err != nil {
		return nil, err
	}

	for _, c := range convs {
		c.User = profiles[c.CounterpartID].Card()
		if m := c.LastMessage; m != nil {
			m.Sender = profiles[m.SenderID].NameOnly()
			m.Receiver = profiles[m.ReceiverID].NameOnly()
		}
	}
	return convs, nil
}

// resolveMessages attaches participant contacts and related skill titles
// with one lookup each.
func (s *Service) resolveMessages(ctx context.Context, messages []*data.Message) error {
	if len(messages) == 0 {
		return nil
	}

	var userIDs, skillIDs []bson.ObjectID
	for _, m := range messages {
		userIDs = append(userIDs, m.SenderID, m.ReceiverID)
		if m.RelatedSkillID != nil {
			skillIDs = append(skillIDs, *m.RelatedSkillID)
		}
	}

	profiles, err := s.directory.GetProfiles(ctx, dedupe(userIDs))
	if err != nil {
		return err
	}
	skills := map[bson.ObjectID]*data.SkillRef{}
	if len(skillIDs) > 0 {
		if skills, err = s.catalog.SkillRefs(ctx, dedupe(skillIDs)); err != nil {
			return err
		}
	}

	for _, m := range messages {
		m.Sender = profiles[m.SenderID].Contact()
		m.Receiver = profiles[m.ReceiverID].Contact()
		if m.RelatedSkillID != nil {
			if ref, ok := skills[*m.RelatedSkillID]; ok {
				m.RelatedSkill = &data.SkillRef{ID: ref.ID, Title: ref.Title}
			}
		}
	}
	return nil
}

func dedupe(ids []bson.ObjectID) []bson.ObjectID {
	seen := make(map[bson.ObjectID]struct{}, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
