package main

import (
	"context"
	"net/http"
	"time"

	"github.com/PaulBabatuyi/skillshub/internal/auth"
	"github.com/PaulBabatuyi/skillshub/internal/data"
	"github.com/PaulBabatuyi/skillshub/internal/mail"
	"github.com/PaulBabatuyi/skillshub/internal/messaging"
	"github.com/PaulBabatuyi/skillshub/internal/middleware"
	"github.com/PaulBabatuyi/skillshub/internal/storage"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// userStore is the subset of data.UsersStore the handlers use.
type userStore interface {
	CreateUser(ctx context.Context, u *data.User) (*data.User, error)
	GetUserByEmail(ctx context.Context, email string) (*data.User, error)
	GetUserByID(ctx context.Context, id bson.ObjectID) (*data.User, error)
	UserExists(ctx context.Context, id bson.ObjectID) (bool, error)
	GetProfiles(ctx context.Context, ids []bson.ObjectID) (map[bson.ObjectID]*data.UserRef, error)
	UpdateProfile(ctx context.Context, id bson.ObjectID, upd data.ProfileUpdate) (*data.User, error)
	SetAvatar(ctx context.Context, id bson.ObjectID, key string) error
	ListStudents(ctx context.Context) ([]*data.User, error)
	DeleteUser(ctx context.Context, id bson.ObjectID) error
	VerifyEmail(ctx context.Context, digest string, now time.Time) (*data.User, error)
}

// skillStore is the subset of data.SkillsStore the handlers use.
type skillStore interface {
	CreateSkill(ctx context.Context, s *data.Skill) (*data.Skill, error)
	GetSkill(ctx context.Context, id bson.ObjectID) (*data.Skill, error)
	SkillExists(ctx context.Context, id bson.ObjectID) (bool, error)
	SkillRefs(ctx context.Context, ids []bson.ObjectID) (map[bson.ObjectID]*data.SkillRef, error)
	ListSkills(ctx context.Context, f data.SkillFilter) ([]*data.Skill, error)
	ListAllSkills(ctx context.Context) ([]*data.Skill, error)
	ListSkillsByOwner(ctx context.Context, owner bson.ObjectID) ([]*data.Skill, error)
	UpdateSkill(ctx context.Context, id bson.ObjectID, upd data.SkillUpdate) (*data.Skill, error)
	DeleteSkill(ctx context.Context, id bson.ObjectID) error
	DeleteSkillsByOwner(ctx context.Context, owner bson.ObjectID) (int64, error)
}

// storeHealth reports whether the database answered the last ping.
type storeHealth interface {
	Healthy() bool
}

// Server holds the HTTP handlers and their dependencies.
type Server struct {
	users    userStore
	skills   skillStore
	messages *messaging.Service
	auth     *auth.JWTManager
	mailer   mail.Mailer
	avatars  storage.ObjectStorage // nil disables avatar routes
	health   storeHealth           // nil means always healthy
	limiter  *middleware.LimiterStore

	appBaseURL string
	origins    []string
	now        func() time.Time
}

// newServer returns a Server wired with stores and auth manager. The message
// store is wrapped in a messaging.Service that shares the user and skill stores.
func newServer(users userStore, skills skillStore, msgs messaging.Store, authMgr *auth.JWTManager, mailer mail.Mailer) *Server {
	if mailer == nil {
		mailer = mail.LogMailer{}
	}
	return &Server{
		users:      users,
		skills:     skills,
		messages:   messaging.NewService(msgs, users, skills),
		auth:       authMgr,
		mailer:     mailer,
		appBaseURL: "http://localhost:3000",
		origins:    []string{"*"},
		now:        time.Now,
	}
}

// routes builds the router.
func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(
		chimw.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		chimw.Logger,
		cors.New(cors.Options{
			AllowedOrigins: s.origins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{"Authorization", "Content-Type"},
		}).Handler,
	)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeOK(w, http.StatusOK, envelope{"message": "Welcome to Skills Marketplace API!"})
	})
	r.Get("/healthz", s.handleHealthz)

	r.Route("/api", func(r chi.Router) {
		r.Use(s.requireStore)

		r.Route("/auth", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				if s.limiter != nil {
					r.Use(middleware.RateLimit(s.limiter))
				}
				r.Post("/register", s.handleRegister)
				r.Post("/login", s.handleLogin)
				r.Post("/verify-email", s.handleVerifyEmail)
			})
			r.With(s.authenticate).Get("/me", s.handleMe)
		})

		r.Route("/skills", func(r chi.Router) {
			r.Get("/", s.handleListSkills)
			r.With(s.authenticate, s.requireAdmin).Get("/admin/all", s.handleListAllSkills)
			r.Get("/{id}", s.handleGetSkill)
			r.Group(func(r chi.Router) {
				r.Use(s.authenticate)
				r.Post("/", s.handleCreateSkill)
				r.Put("/{id}", s.handleUpdateSkill)
				r.Delete("/{id}", s.handleDeleteSkill)
			})
		})

		r.Route("/messages", func(r chi.Router) {
			r.Use(s.authenticate)
			r.Post("/", s.handleSendMessage)
			r.Get("/conversation/{userId}", s.handleConversation)
			r.Get("/conversations", s.handleConversations)
			r.Get("/unread", s.handleUnreadCount)
		})

		r.Route("/users", func(r chi.Router) {
			r.With(s.authenticate, s.requireAdmin).Get("/", s.handleListUsers)
			r.With(s.authenticate).Put("/profile", s.handleUpdateProfile)
			if s.avatars != nil {
				r.With(s.authenticate).Put("/profile/avatar", s.handleUploadAvatar)
				r.Get("/{id}/avatar", s.handleGetAvatar)
			}
			r.Get("/{id}", s.handleGetUser)
			r.With(s.authenticate, s.requireAdmin).Delete("/{id}", s.handleDeleteUser)
		})
	})

	return r
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if s.health != nil && !s.health.Healthy() {
		writeError(w, http.StatusServiceUnavailable, "database unreachable")
		return
	}
	writeOK(w, http.StatusOK, envelope{"status": "ok"})
}
