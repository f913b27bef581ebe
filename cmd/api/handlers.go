package main

import (
	"net/http"

	"github.com/PaulBabatuyi/skillshub/internal/messaging"

	"github.com/go-chi/chi/v5"
)

// handleSendMessage stores a direct message from the authenticated user.
func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	user, _ := userFromContext(r.Context())

	var req messaging.SendRequest
	if err := decodeJSON(r, &req); err != nil {
		errorResponse(w, r, err)
		return
	}

	msg, err := s.messages.SendMessage(r.Context(), user.ID, req)
	if err != nil {
		errorResponse(w, r, err)
		return
	}

	writeOK(w, http.StatusCreated, envelope{
		"message": "Message sent successfully",
		"data":    msg,
	})
}

// handleConversation returns the messages exchanged with {userId} and marks
// the incoming ones read. The response shows them as they were before.
func (s *Server) handleConversation(w http.ResponseWriter, r *http.Request) {
	user, _ := userFromContext(r.Context())

	msgs, err := s.messages.Conversation(r.Context(), user.ID, chi.URLParam(r, "userId"))
	if err != nil {
		errorResponse(w, r, err)
		return
	}

	writeOK(w, http.StatusOK, envelope{
		"count":    len(msgs),
		"messages": msgs,
	})
}

// handleConversations lists one entry per counterpart, most recent first.
func (s *Server) handleConversations(w http.ResponseWriter, r *http.Request) {
	user, _ := userFromContext(r.Context())

	convs, err := s.messages.ListConversations(r.Context(), user.ID)
	if err != nil {
		errorResponse(w, r, err)
		return
	}

	writeOK(w, http.StatusOK, envelope{"conversations": convs})
}

// handleUnreadCount returns the caller's unread total for the inbox badge.
func (s *Server) handleUnreadCount(w http.ResponseWriter, r *http.Request) {
	user, _ := userFromContext(r.Context())

	n, err := s.messages.UnreadCount(r.Context(), user.ID)
	if err != nil {
		errorResponse(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, envelope{"unreadCount": n})
}
