package main

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/PaulBabatuyi/skillshub/internal/auth"
	"github.com/PaulBabatuyi/skillshub/internal/data"
	"github.com/PaulBabatuyi/skillshub/internal/mail"
	"github.com/PaulBabatuyi/skillshub/internal/normalize"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	College  string `json:"college"`
	Course   string `json:"course"`
	Year     string `json:"year"`
}

// handleRegister creates an unverified student and emails a verification
// link. No token is issued until the address is verified.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		errorResponse(w, r, err)
		return
	}
	normalize.Trim(&req.Name, &req.College, &req.Course, &req.Year)

	if err := data.ValidateRegistration(req.Name, req.Email, req.Password); err != nil {
		errorResponse(w, r, err)
		return
	}

	hashed, err := auth.HashPassword(req.Password)
	if err != nil {
		errorResponse(w, r, err)
		return
	}

	token, digest := auth.NewVerificationToken()
	user, err := s.users.CreateUser(r.Context(), &data.User{
		Name:                     req.Name,
		Email:                    req.Email,
		Password:                 hashed,
		Role:                     data.RoleStudent,
		College:                  req.College,
		Course:                   req.Course,
		Year:                     req.Year,
		VerificationToken:        digest,
		VerificationTokenExpires: s.now().UTC().Add(auth.VerificationTTL),
	})
	if err != nil {
		errorResponse(w, r, err)
		return
	}

	// send failures are logged; the account is already stored
	link := mail.VerificationLink(s.appBaseURL, token)
	if err := s.mailer.Send(r.Context(), mail.VerificationEmail(user.Email, user.Name, link)); err != nil {
		log.Printf("verification email to %s failed: %v", user.Email, err)
	}

	writeOK(w, http.StatusCreated, envelope{
		"message": "Registration successful. Please check your email to verify your account.",
		"user":    user,
	})
}

// handleVerifyEmail consumes a verification token.
func (s *Server) handleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
	}
	if err := decodeJSON(r, &req); err != nil {
		errorResponse(w, r, err)
		return
	}
	if strings.TrimSpace(req.Token) == "" {
		writeError(w, http.StatusBadRequest, "Verification token is required")
		return
	}

	user, err := s.users.VerifyEmail(r.Context(), auth.HashVerificationToken(req.Token), s.now().UTC())
	if err != nil {
		if errors.Is(err, data.ErrNotFound) {
			writeError(w, http.StatusBadRequest, "Invalid or expired verification token")
			return
		}
		errorResponse(w, r, err)
		return
	}

	writeOK(w, http.StatusOK, envelope{
		"message": "Email verified successfully. You can now login.",
		"user":    user,
	})
}

// handleLogin authenticates a verified user and returns a JWT.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		errorResponse(w, r, err)
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Please provide email and password")
		return
	}

	user, err := s.users.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, data.ErrNotFound) {
			writeError(w, http.StatusUnauthorized, "Invalid email or password")
			return
		}
		errorResponse(w, r, err)
		return
	}
	if err := auth.CheckPassword(user.Password, req.Password); err != nil {
		writeError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	if !user.IsVerified {
		writeError(w, http.StatusForbidden, "Please verify your email before logging in")
		return
	}

	token, expiresAt, err := s.auth.GenerateToken(user.ID, user.Email)
	if err != nil {
		errorResponse(w, r, err)
		return
	}

	writeOK(w, http.StatusOK, envelope{
		"message":   "Login successful",
		"token":     token,
		"expiresAt": expiresAt,
		"user":      user,
	})
}

// skillSummary is how a skill appears inside a profile.
type skillSummary struct {
	ID          string `json:"_id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category"`
	Level       string `json:"level,omitempty"`
}

// profileResponse is a user with their skills split by type.
type profileResponse struct {
	*data.User
	SkillsTeaching []skillSummary `json:"skillsTeaching"`
	SkillsLearning []skillSummary `json:"skillsLearning"`
}

// withSkills loads the skills owned by u. detailed adds description and level.
func (s *Server) withSkills(r *http.Request, u *data.User, detailed bool) (*profileResponse, error) {
	owned, err := s.skills.ListSkillsByOwner(r.Context(), u.ID)
	if err != nil {
		return nil, err
	}

	resp := &profileResponse{User: u, SkillsTeaching: []skillSummary{}, SkillsLearning: []skillSummary{}}
	for _, sk := range owned {
		sum := skillSummary{ID: sk.ID.Hex(), Title: sk.Title, Category: sk.Category}
		if detailed {
			sum.Description = sk.Description
			sum.Level = sk.Level
		}
		if sk.Type == data.SkillLearning {
			resp.SkillsLearning = append(resp.SkillsLearning, sum)
		} else {
			resp.SkillsTeaching = append(resp.SkillsTeaching, sum)
		}
	}
	return resp, nil
}

// handleMe returns the authenticated user's profile.
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	user, _ := userFromContext(r.Context())

	resp, err := s.withSkills(r, user, false)
	if err != nil {
		errorResponse(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, envelope{"user": resp})
}
