package main

import (
	"bytes"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/PaulBabatuyi/skillshub/internal/data"
	"github.com/PaulBabatuyi/skillshub/internal/normalize"
	"github.com/PaulBabatuyi/skillshub/internal/storage"

	"github.com/go-chi/chi/v5"
)

// maxAvatarBytes caps avatar uploads.
const maxAvatarBytes = 2 << 20

var avatarTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// loadUser parses {id} and fetches the user, writing the error response on
// failure.
func (s *Server) loadUser(w http.ResponseWriter, r *http.Request) (*data.User, bool) {
	id, err := data.ParseID("id", chi.URLParam(r, "id"))
	if err != nil {
		errorResponse(w, r, err)
		return nil, false
	}
	user, err := s.users.GetUserByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, data.ErrNotFound) {
			writeError(w, http.StatusNotFound, "User not found")
			return nil, false
		}
		errorResponse(w, r, err)
		return nil, false
	}
	return user, true
}

// handleGetUser returns a public profile with the user's skills.
func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	user, ok := s.loadUser(w, r)
	if !ok {
		return
	}
	resp, err := s.withSkills(r, user, true)
	if err != nil {
		errorResponse(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, envelope{"user": resp})
}

// handleUpdateProfile edits the caller's profile; absent fields are unchanged.
func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	user, _ := userFromContext(r.Context())

	var upd data.ProfileUpdate
	if err := decodeJSON(r, &upd); err != nil {
		errorResponse(w, r, err)
		return
	}
	normalize.Trim(upd.Name, upd.College, upd.Course, upd.Year, upd.Bio)
	if err := data.ValidateProfile(upd); err != nil {
		errorResponse(w, r, err)
		return
	}

	updated, err := s.users.UpdateProfile(r.Context(), user.ID, upd)
	if err != nil {
		errorResponse(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, envelope{
		"message": "Profile updated successfully",
		"user":    updated,
	})
}

// handleListUsers lists student accounts for admins.
func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.users.ListStudents(r.Context())
	if err != nil {
		errorResponse(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, envelope{"count": len(users), "users": users})
}

// handleDeleteUser removes a student and their skills. Messages are kept;
// conversation lists show the deleted counterpart as null.
func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	target, ok := s.loadUser(w, r)
	if !ok {
		return
	}
	if target.Role == data.RoleAdmin {
		writeError(w, http.StatusForbidden, "Cannot delete admin users")
		return
	}

	if _, err := s.skills.DeleteSkillsByOwner(r.Context(), target.ID); err != nil {
		errorResponse(w, r, err)
		return
	}
	if err := s.users.DeleteUser(r.Context(), target.ID); err != nil {
		errorResponse(w, r, err)
		return
	}
	if s.avatars != nil && target.HasAvatar() {
		if err := s.avatars.Delete(r.Context(), target.AvatarKey); err != nil {
			log.Printf("delete avatar %s: %v", target.AvatarKey, err)
		}
	}

	writeOK(w, http.StatusOK, envelope{"message": "User deleted successfully"})
}

// handleUploadAvatar stores a profile picture for the caller.
func (s *Server) handleUploadAvatar(w http.ResponseWriter, r *http.Request) {
	user, _ := userFromContext(r.Context())

	// leave room for the multipart envelope around the file
	r.Body = http.MaxBytesReader(w, r.Body, maxAvatarBytes+64<<10)
	if err := r.ParseMultipartForm(maxAvatarBytes); err != nil {
		writeError(w, http.StatusBadRequest, "Avatar must be an image of at most 2 MB")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("avatar")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Please attach an image in the avatar field")
		return
	}
	defer file.Close()

	if header.Size > maxAvatarBytes {
		writeError(w, http.StatusBadRequest, "Avatar must be an image of at most 2 MB")
		return
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		writeError(w, http.StatusBadRequest, "Could not read the uploaded file")
		return
	}
	head = head[:n]
	contentType := http.DetectContentType(head)
	if !avatarTypes[contentType] {
		writeError(w, http.StatusBadRequest, "Avatar must be a JPEG, PNG or WebP image")
		return
	}

	key := storage.AvatarKey(user.ID.Hex())
	body := io.MultiReader(bytes.NewReader(head), file)
	if err := s.avatars.Put(r.Context(), key, body, header.Size, contentType); err != nil {
		errorResponse(w, r, err)
		return
	}
	if err := s.users.SetAvatar(r.Context(), user.ID, key); err != nil {
		errorResponse(w, r, err)
		return
	}

	writeOK(w, http.StatusOK, envelope{
		"message":   "Avatar updated successfully",
		"avatarUrl": "/api/users/" + user.ID.Hex() + "/avatar",
	})
}

// handleGetAvatar streams a user's avatar.
func (s *Server) handleGetAvatar(w http.ResponseWriter, r *http.Request) {
	user, ok := s.loadUser(w, r)
	if !ok {
		return
	}
	if !user.HasAvatar() {
		writeError(w, http.StatusNotFound, "Avatar not found")
		return
	}

	obj, err := s.avatars.Get(r.Context(), user.AvatarKey)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			writeError(w, http.StatusNotFound, "Avatar not found")
			return
		}
		errorResponse(w, r, err)
		return
	}
	defer obj.Close()

	w.Header().Set("Content-Type", obj.ContentType)
	if obj.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(obj.Size, 10))
	}
	w.Header().Set("Cache-Control", "public, max-age=300")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, obj); err != nil {
		log.Printf("stream avatar %s: %v", user.AvatarKey, err)
	}
}
