package main

import (
	"errors"
	"net/http"

	"github.com/PaulBabatuyi/skillshub/internal/data"
	"github.com/PaulBabatuyi/skillshub/internal/normalize"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// attachOwners resolves postedBy for skills with one profile lookup.
func (s *Server) attachOwners(r *http.Request, skills ...*data.Skill) error {
	if len(skills) == 0 {
		return nil
	}
	ids := make([]bson.ObjectID, 0, len(skills))
	for _, sk := range skills {
		ids = append(ids, sk.OwnerID)
	}
	profiles, err := s.users.GetProfiles(r.Context(), ids)
	if err != nil {
		return err
	}
	for _, sk := range skills {
		sk.PostedBy = profiles[sk.OwnerID]
	}
	return nil
}

// handleListSkills lists active skills with optional search, category and type filters.
func (s *Server) handleListSkills(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	skills, err := s.skills.ListSkills(r.Context(), data.SkillFilter{
		Search:   q.Get("search"),
		Category: q.Get("category"),
		Type:     q.Get("type"),
	})
	if err != nil {
		errorResponse(w, r, err)
		return
	}
	if err := s.attachOwners(r, skills...); err != nil {
		errorResponse(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, envelope{"count": len(skills), "skills": skills})
}

func (s *Server) handleListAllSkills(w http.ResponseWriter, r *http.Request) {
	skills, err := s.skills.ListAllSkills(r.Context())
	if err != nil {
		errorResponse(w, r, err)
		return
	}
	if err := s.attachOwners(r, skills...); err != nil {
		errorResponse(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, envelope{"count": len(skills), "skills": skills})
}

// loadSkill parses {id} and fetches the skill, writing the error response on
// failure.
func (s *Server) loadSkill(w http.ResponseWriter, r *http.Request) (*data.Skill, bool) {
	id, err := data.ParseID("id", chi.URLParam(r, "id"))
	if err != nil {
		errorResponse(w, r, err)
		return nil, false
	}
	skill, err := s.skills.GetSkill(r.Context(), id)
	if err != nil {
		if errors.Is(err, data.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Skill not found")
			return nil, false
		}
		errorResponse(w, r, err)
		return nil, false
	}
	return skill, true
}

func (s *Server) handleGetSkill(w http.ResponseWriter, r *http.Request) {
	skill, ok := s.loadSkill(w, r)
	if !ok {
		return
	}
	if err := s.attachOwners(r, skill); err != nil {
		errorResponse(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, envelope{"skill": skill})
}

type skillRequest struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	Category     string `json:"category"`
	Type         string `json:"type"`
	Level        string `json:"level"`
	Availability string `json:"availability"`
}

// handleCreateSkill posts a skill owned by the authenticated user.
func (s *Server) handleCreateSkill(w http.ResponseWriter, r *http.Request) {
	user, _ := userFromContext(r.Context())

	var req skillRequest
	if err := decodeJSON(r, &req); err != nil {
		errorResponse(w, r, err)
		return
	}

	skill := &data.Skill{
		OwnerID:      user.ID,
		Title:        req.Title,
		Description:  req.Description,
		Category:     req.Category,
		Type:         req.Type,
		Level:        req.Level,
		Availability: req.Availability,
	}
	if err := data.PrepareSkill(skill); err != nil {
		errorResponse(w, r, err)
		return
	}

	created, err := s.skills.CreateSkill(r.Context(), skill)
	if err != nil {
		errorResponse(w, r, err)
		return
	}
	created.PostedBy = user.Ref()

	writeOK(w, http.StatusCreated, envelope{
		"message": "Skill posted successfully",
		"skill":   created,
	})
}

// handleUpdateSkill applies a partial update; only the owner may edit.
func (s *Server) handleUpdateSkill(w http.ResponseWriter, r *http.Request) {
	user, _ := userFromContext(r.Context())

	skill, ok := s.loadSkill(w, r)
	if !ok {
		return
	}
	if skill.OwnerID != user.ID {
		writeError(w, http.StatusForbidden, "Not authorized to update this skill")
		return
	}

	var upd data.SkillUpdate
	if err := decodeJSON(r, &upd); err != nil {
		errorResponse(w, r, err)
		return
	}
	normalize.Trim(upd.Title, upd.Description, upd.Category, upd.Availability)
	if err := data.ValidateSkillUpdate(upd); err != nil {
		errorResponse(w, r, err)
		return
	}

	updated, err := s.skills.UpdateSkill(r.Context(), skill.ID, upd)
	if err != nil {
		errorResponse(w, r, err)
		return
	}
	updated.PostedBy = user.Ref()

	writeOK(w, http.StatusOK, envelope{
		"message": "Skill updated successfully",
		"skill":   updated,
	})
}

// handleDeleteSkill removes a skill; the owner or an admin may delete.
func (s *Server) handleDeleteSkill(w http.ResponseWriter, r *http.Request) {
	user, _ := userFromContext(r.Context())

	skill, ok := s.loadSkill(w, r)
	if !ok {
		return
	}
	if skill.OwnerID != user.ID && user.Role != data.RoleAdmin {
		writeError(w, http.StatusForbidden, "Not authorized to delete this skill")
		return
	}

	if err := s.skills.DeleteSkill(r.Context(), skill.ID); err != nil {
		errorResponse(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, envelope{"message": "Skill deleted successfully"})
}
