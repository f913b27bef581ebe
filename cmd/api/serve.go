package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/PaulBabatuyi/skillshub/internal/auth"
	"github.com/PaulBabatuyi/skillshub/internal/config"
	"github.com/PaulBabatuyi/skillshub/internal/data"
	"github.com/PaulBabatuyi/skillshub/internal/db"
	"github.com/PaulBabatuyi/skillshub/internal/health"
	"github.com/PaulBabatuyi/skillshub/internal/mail"
	"github.com/PaulBabatuyi/skillshub/internal/middleware"
	"github.com/PaulBabatuyi/skillshub/internal/storage"

	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

var serveMigrate bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API and the gRPC health endpoint",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if serveMigrate {
			if err := migrateUp(cfg); err != nil {
				return err
			}
		}
		return serve(cmd.Context(), cfg)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().BoolVar(&serveMigrate, "migrate", true, "apply pending migrations before serving")
}

func newJWTManager(cfg config.JWTConfig) *auth.JWTManager {
	if len(cfg.Keys) > 0 {
		return auth.NewJWTManagerFromKeys(cfg.Keys, cfg.ActiveKid, cfg.TTL)
	}
	return auth.NewJWTManager(cfg.Secret, cfg.TTL)
}

func newMailer(cfg config.MailConfig) mail.Mailer {
	if !cfg.Enabled() {
		log.Printf("SMTP not configured; verification emails will be logged")
		return mail.LogMailer{}
	}
	return mail.NewSMTPMailer(cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.From)
}

// serve runs until ctx is cancelled, then drains both listeners.
func serve(ctx context.Context, cfg config.Config) error {
	dbClient, err := db.New(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
	if err != nil {
		return fmt.Errorf("connect to DB: %w", err)
	}
	defer func() {
		_ = dbClient.Close(context.Background())
	}()

	if err := dbClient.CreateIndexes(ctx); err != nil {
		return fmt.Errorf("create indexes: %w", err)
	}

	users := data.NewUsersStore(dbClient.UsersCollection())
	skills := data.NewSkillsStore(dbClient.SkillsCollection())
	msgs := data.NewMessagesStore(dbClient.MessagesCollection())

	srv := newServer(users, skills, msgs, newJWTManager(cfg.JWT), newMailer(cfg.Mail))
	srv.appBaseURL = cfg.AppBaseURL
	srv.origins = cfg.Origins

	// small burst so a couple of quick retries go through
	limiter := middleware.NewLimiterStore(cfg.RateRPM, 3, time.Minute)
	defer limiter.Stop()
	srv.limiter = limiter

	if cfg.Minio.Enabled() {
		mc, err := storage.NewMinioClient(cfg.Minio)
		if err != nil {
			return fmt.Errorf("init object storage: %w", err)
		}
		if err := mc.EnsureBucket(ctx); err != nil {
			return fmt.Errorf("ensure bucket %s: %w", mc.Bucket(), err)
		}
		srv.avatars = mc
	} else {
		log.Printf("MINIO_ENDPOINT not set; avatar routes disabled")
	}

	checker := health.NewChecker(dbClient, cfg.HealthInterval)
	srv.health = checker
	go checker.Run(ctx)

	grpcServer, err := newGRPCServer(checker, cfg.TLS)
	if err != nil {
		return err
	}
	grpcAddr := fmt.Sprintf(":%d", cfg.GRPCHealthPort)
	lis, err := net.Listen("tcp", grpcAddr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", grpcAddr, err)
	}
	go func() {
		log.Printf("gRPC health server listening on %s", grpcAddr)
		if err := grpcServer.Serve(lis); err != nil {
			log.Printf("gRPC server exit: %v", err)
		}
	}()

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           srv.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("HTTP server listening on %s", httpServer.Addr)
		var err error
		if cfg.TLS.Enabled() {
			err = httpServer.ListenAndServeTLS(cfg.TLS.CertFile, cfg.TLS.KeyFile)
		} else {
			err = httpServer.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errCh:
	}

	log.Printf("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP shutdown: %v", err)
	}

	// open Watch streams would block GracefulStop indefinitely
	stopped := make(chan struct{})
	go func() {
		grpcServer.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-shutdownCtx.Done():
		grpcServer.Stop()
	}

	if serveErr != nil {
		return fmt.Errorf("HTTP server: %w", serveErr)
	}
	return nil
}
