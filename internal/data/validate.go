package data

import (
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"
)

// Field limits.
const (
	MaxNameLen          = 50
	MaxBioLen           = 500
	MinPasswordLen      = 6
	MaxSkillTitleLen    = 100
	MaxSkillDescLen     = 1000
	DefaultAvailability = "Flexible"
)

var emailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)

// ValidateRegistration checks the fields required to create an account.
func ValidateRegistration(name, email, password string) error {
	if strings.TrimSpace(name) == "" || strings.TrimSpace(email) == "" || password == "" {
		return Invalid("", "Please provide name, email, and password")
	}
	if utf8.RuneCountInString(strings.TrimSpace(name)) > MaxNameLen {
		return Invalid("name", "Name cannot exceed %d characters", MaxNameLen)
	}
	if !emailPattern.MatchString(strings.TrimSpace(email)) {
		return Invalid("email", "Please provide a valid email")
	}
	if utf8.RuneCountInString(password) < MinPasswordLen {
		return Invalid("password", "Password must be at least %d characters", MinPasswordLen)
	}
	return nil
}

// ValidateProfile checks the set fields of a profile update.
func ValidateProfile(upd ProfileUpdate) error {
	if upd.Name != nil {
		if *upd.Name == "" {
			return Invalid("name", "Please provide a name")
		}
		if utf8.RuneCountInString(*upd.Name) > MaxNameLen {
			return Invalid("name", "Name cannot exceed %d characters", MaxNameLen)
		}
	}
	if upd.Bio != nil && utf8.RuneCountInString(*upd.Bio) > MaxBioLen {
		return Invalid("bio", "Bio cannot exceed %d characters", MaxBioLen)
	}
	return nil
}

// PrepareSkill trims s, fills defaults and validates it for insertion.
func PrepareSkill(s *Skill) error {
	s.Title = strings.TrimSpace(s.Title)
	s.Description = strings.TrimSpace(s.Description)
	s.Category = strings.TrimSpace(s.Category)
	s.Availability = strings.TrimSpace(s.Availability)

	if s.Title == "" || s.Description == "" || s.Category == "" {
		return Invalid("", "Please provide title, description, and category")
	}
	if s.Type == "" {
		s.Type = SkillTeaching
	}
	if s.Level == "" {
		s.Level = SkillLevels[0]
	}
	if s.Availability == "" {
		s.Availability = DefaultAvailability
	}
	if s.Status == "" {
		s.Status = SkillActive
	}
	return validateSkillFields(&s.Title, &s.Description, &s.Category, &s.Type, &s.Level, &s.Status)
}

// SkillUpdate carries editable skill fields; nil leaves a field unchanged.
type SkillUpdate struct {
	Title        *string `json:"title"`
	Description  *string `json:"description"`
	Category     *string `json:"category"`
	Type         *string `json:"type"`
	Level        *string `json:"level"`
	Availability *string `json:"availability"`
	Status       *string `json:"status"`
}

// Empty reports whether no field is set.
func (u SkillUpdate) Empty() bool {
	return u.Title == nil && u.Description == nil && u.Category == nil && u.Type == nil &&
		u.Level == nil && u.Availability == nil && u.Status == nil
}

// ValidateSkillUpdate checks the set fields of upd.
func ValidateSkillUpdate(upd SkillUpdate) error {
	if upd.Title != nil && *upd.Title == "" {
		return Invalid("title", "Please provide a skill title")
	}
	if upd.Description != nil && *upd.Description == "" {
		return Invalid("description", "Please provide a description")
	}
	return validateSkillFields(upd.Title, upd.Description, upd.Category, upd.Type, upd.Level, upd.Status)
}

func validateSkillFields(title, desc, category, typ, level, status *string) error {
	if title != nil && utf8.RuneCountInString(*title) > MaxSkillTitleLen {
		return Invalid("title", "Title cannot exceed %d characters", MaxSkillTitleLen)
	}
	if desc != nil && utf8.RuneCountInString(*desc) > MaxSkillDescLen {
		return Invalid("description", "Description cannot exceed %d characters", MaxSkillDescLen)
	}
	if category != nil && !slices.Contains(SkillCategories, *category) {
		return Invalid("category", "unknown category %q", *category)
	}
	if typ != nil && !slices.Contains(SkillTypes, *typ) {
		return Invalid("type", "type must be teaching or learning")
	}
	if level != nil && !slices.Contains(SkillLevels, *level) {
		return Invalid("level", "unknown level %q", *level)
	}
	if status != nil && !slices.Contains(SkillStatuses, *status) {
		return Invalid("status", "status must be active or inactive")
	}
	return nil
}
