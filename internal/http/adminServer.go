package http

import (
	"context"
	"log"
	"net/http"
	"sync"

	"hireline/internal/api"
	"hireline/internal/auth"
	"hireline/internal/config"
	"hireline/internal/storage"
)

type AdminServer struct {
	server *http.Server
	wg     sync.WaitGroup
}

func NewAdminServer(authService *auth.AuthService, store *storage.BboltStorage, cfg *config.Config) *AdminServer {
	admin := api.NewAdminHandler(authService, store, cfg.AdminUser, cfg.AdminPass)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /admin/users", admin.RequireBasicAuth(admin.ListUsersHandler))
	mux.HandleFunc("POST /admin/users/{id}/deactivate", admin.RequireBasicAuth(admin.DeactivateUserHandler))
	mux.HandleFunc("GET /admin/messages/flagged", admin.RequireBasicAuth(admin.FlaggedMessagesHandler))
	mux.HandleFunc("DELETE /admin/chats/{chatID}/messages/{seq}", admin.RequireBasicAuth(admin.DeleteMessageHandler))

	addr := cfg.AdminAddr
	if addr == "" {
		addr = "localhost:8081"
	}

	return &AdminServer{
		server: &http.Server{
			Addr:    addr,
			Handler: mux,
		},
	}
}

func (s *AdminServer) Start() error {
	log.Printf("Admin API started on %s", s.server.Addr)
	s.wg.Add(1)
	defer s.wg.Done()

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *AdminServer) Shutdown(ctx context.Context) error {
	defer s.wg.Wait()
	return s.server.Shutdown(ctx)
}
