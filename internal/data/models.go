// Package data provides DB models and stores.
package data

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Roles.
const (
	RoleStudent = "student"
	RoleAdmin   = "admin"
)

// User maps to the users collection. Persisted in snake_case, served with the
// camelCase keys the web client expects.
type User struct {
	ID         bson.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name       string        `bson:"name" json:"name"`
	Email      string        `bson:"email" json:"email"`
	Password   string        `bson:"password" json:"-"`
	Role       string        `bson:"role" json:"role"`
	IsVerified bool          `bson:"is_verified" json:"isVerified"`

	VerificationToken        string    `bson:"verification_token,omitempty" json:"-"`
	VerificationTokenExpires time.Time `bson:"verification_token_expires,omitempty" json:"-"`

	College   string    `bson:"college" json:"college"`
	Course    string    `bson:"course" json:"course"`
	Year      string    `bson:"year" json:"year"`
	Bio       string    `bson:"bio" json:"bio"`
	AvatarKey string    `bson:"avatar_key,omitempty" json:"-"`
	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// HasAvatar reports whether an avatar object is stored for the user.
func (u *User) HasAvatar() bool { return u.AvatarKey != "" }

// UserRef is the public subset of a user attached to skills and messages.
type UserRef struct {
	ID      bson.ObjectID `bson:"_id" json:"_id"`
	Name    string        `bson:"name" json:"name"`
	Email   string        `bson:"email,omitempty" json:"email,omitempty"`
	College string        `bson:"college,omitempty" json:"college,omitempty"`
	Course  string        `bson:"course,omitempty" json:"course,omitempty"`
	Year    string        `bson:"year,omitempty" json:"year,omitempty"`
	Bio     string        `bson:"bio,omitempty" json:"bio,omitempty"`
}

// Ref returns the full public profile of u.
func (u *User) Ref() *UserRef {
	return &UserRef{
		ID:      u.ID,
		Name:    u.Name,
		Email:   u.Email,
		College: u.College,
		Course:  u.Course,
		Year:    u.Year,
		Bio:     u.Bio,
	}
}

// Contact trims a profile to name and email.
func (r *UserRef) Contact() *UserRef {
	if r == nil {
		return nil
	}
	return &UserRef{ID: r.ID, Name: r.Name, Email: r.Email}
}

// Card trims a profile to name, email and college.
func (r *UserRef) Card() *UserRef {
	if r == nil {
		return nil
	}
	return &UserRef{ID: r.ID, Name: r.Name, Email: r.Email, College: r.College}
}

// NameOnly trims a profile to the display name.
func (r *UserRef) NameOnly() *UserRef {
	if r == nil {
		return nil
	}
	return &UserRef{ID: r.ID, Name: r.Name}
}

// Skill categories, types, levels and statuses.
var (
	SkillCategories = []string{"Programming", "Design", "Languages", "Music", "Sports", "Academics", "Other"}
	SkillTypes      = []string{"teaching", "learning"}
	SkillLevels     = []string{"Beginner", "Intermediate", "Advanced"}
	SkillStatuses   = []string{"active", "inactive"}
)

const (
	SkillTeaching = "teaching"
	SkillLearning = "learning"
	SkillActive   = "active"
)

// Skill maps to the skills collection.
type Skill struct {
	ID           bson.ObjectID `bson:"_id,omitempty" json:"_id"`
	OwnerID      bson.ObjectID `bson:"posted_by" json:"-"`
	Title        string        `bson:"title" json:"title"`
	Description  string        `bson:"description" json:"description"`
	Category     string        `bson:"category" json:"category"`
	Type         string        `bson:"type" json:"type"`
	Level        string        `bson:"level" json:"level"`
	Availability string        `bson:"availability" json:"availability"`
	Status       string        `bson:"status" json:"status"`
	CreatedAt    time.Time     `bson:"created_at" json:"createdAt"`

	// PostedBy is resolved from OwnerID for responses.
	PostedBy *UserRef `bson:"-" json:"postedBy"`
}

// SkillRef is the summary of a skill shown inside profiles and messages.
type SkillRef struct {
	ID          bson.ObjectID `bson:"_id" json:"_id"`
	Title       string        `bson:"title" json:"title"`
	Description string        `bson:"description,omitempty" json:"description,omitempty"`
	Category    string        `bson:"category,omitempty" json:"category,omitempty"`
	Level       string        `bson:"level,omitempty" json:"level,omitempty"`
	Type        string        `bson:"type,omitempty" json:"-"`
}

// Message maps to the messages collection.
type Message struct {
	ID             bson.ObjectID  `bson:"_id,omitempty" json:"_id"`
	SenderID       bson.ObjectID  `bson:"sender" json:"-"`
	ReceiverID     bson.ObjectID  `bson:"receiver" json:"-"`
	Content        string         `bson:"content" json:"content"`
	RelatedSkillID *bson.ObjectID `bson:"related_skill" json:"-"`
	IsRead         bool           `bson:"is_read" json:"isRead"`
	CreatedAt      time.Time      `bson:"created_at" json:"createdAt"`

	// Resolved participants and skill for responses.
	Sender       *UserRef  `bson:"-" json:"sender"`
	Receiver     *UserRef  `bson:"-" json:"receiver"`
	RelatedSkill *SkillRef `bson:"-" json:"relatedSkill"`
}

// Counterpart returns the participant of m that is not viewer.
func (m *Message) Counterpart(viewer bson.ObjectID) bson.ObjectID {
	if m.SenderID == viewer {
		return m.ReceiverID
	}
	return m.SenderID
}

// Conversation is the derived per-counterpart summary; it is never stored.
type Conversation struct {
	CounterpartID bson.ObjectID `bson:"_id" json:"-"`
	User          *UserRef      `bson:"-" json:"user"`
	LastMessage   *Message      `bson:"last_message" json:"lastMessage"`
	UnreadCount   int           `bson:"unread_count" json:"unreadCount"`
}
