package http

import (
	"context"
	"log"
	"net/http"
	"sync"

	"hireline/internal/api"
	"hireline/internal/auth"
	"hireline/internal/config"
	"hireline/internal/filestore"
	"hireline/internal/push"
	"hireline/internal/storage"
	"hireline/internal/ws"
)

type APIServer struct {
	server *http.Server
	wg     sync.WaitGroup
}

func NewAPIServer(authService *auth.AuthService, hub *ws.Hub, files filestore.FileStore, store *storage.BboltStorage, pushService *push.Service, cfg *config.Config) *APIServer {
	wsServer := ws.NewServer(authService, hub)
	handlers := api.New(authService, store, files, pushService, cfg)

	mux := http.NewServeMux()

	// Auth and account
	mux.HandleFunc("POST /api/register", api.RequireSameOrigin(handlers.RegisterHandler))
	mux.HandleFunc("POST /api/login", api.RequireSameOrigin(handlers.LoginHandler))
	mux.HandleFunc("POST /api/logoff", api.RequireSameOrigin(handlers.LogoffHandler))
	mux.HandleFunc("GET /api/me", handlers.RequireAuth(handlers.MeHandler))
	mux.HandleFunc("PUT /api/users/me", api.RequireSameOrigin(handlers.RequireAuth(handlers.UpdateProfileHandler)))
	mux.HandleFunc("POST /api/users/me/password", api.RequireSameOrigin(handlers.RequireAuth(handlers.ChangePasswordHandler)))
	mux.HandleFunc("POST /api/users/me/avatar", api.RequireSameOrigin(handlers.RequireAuth(handlers.UploadAvatarHandler)))
	mux.HandleFunc("POST /api/upload/image", api.RequireSameOrigin(handlers.RequireAuth(handlers.UploadImageHandler)))
	mux.HandleFunc("GET /api/images/{id}", handlers.GetImageHandler)

	// Freelancer discovery and portfolio
	mux.HandleFunc("GET /api/freelancers", handlers.RequireAuth(handlers.ListFreelancersHandler))
	mux.HandleFunc("GET /api/freelancers/filters", handlers.RequireAuth(handlers.FilterOptionsHandler))
	mux.HandleFunc("GET /api/freelancers/stats", handlers.RequireAuth(handlers.FreelancerStatsHandler))
	mux.HandleFunc("GET /api/freelancers/{id}", handlers.RequireAuth(handlers.GetFreelancerHandler))
	mux.HandleFunc("PUT /api/freelancers/me", api.RequireSameOrigin(handlers.RequireAuth(handlers.UpdateMyFreelancerHandler)))
	mux.HandleFunc("POST /api/freelancers/me/availability", api.RequireSameOrigin(handlers.RequireAuth(handlers.ToggleAvailabilityHandler)))
	mux.HandleFunc("GET /api/freelancers/{id}/projects", handlers.RequireAuth(handlers.ListProjectsHandler))
	mux.HandleFunc("POST /api/projects", api.RequireSameOrigin(handlers.RequireAuth(handlers.CreateProjectHandler)))
	mux.HandleFunc("PUT /api/projects/{id}", api.RequireSameOrigin(handlers.RequireAuth(handlers.UpdateProjectHandler)))
	mux.HandleFunc("DELETE /api/projects/{id}", api.RequireSameOrigin(handlers.RequireAuth(handlers.DeleteProjectHandler)))

	// Chats and message history
	mux.HandleFunc("POST /api/chats", api.RequireSameOrigin(handlers.RequireAuth(handlers.CreateChatHandler)))
	mux.HandleFunc("GET /api/chats", handlers.RequireAuth(handlers.ListChatsHandler))
	mux.HandleFunc("GET /api/chats/{id}", handlers.RequireAuth(handlers.GetChatHandler))
	mux.HandleFunc("POST /api/chats/{id}/archive", api.RequireSameOrigin(handlers.RequireAuth(handlers.ArchiveChatHandler)))
	mux.HandleFunc("DELETE /api/chats/{id}", api.RequireSameOrigin(handlers.RequireAuth(handlers.DeleteChatHandler)))
	mux.HandleFunc("GET /api/chats/{id}/messages", handlers.RequireAuth(handlers.ChatMessagesHandler))
	mux.HandleFunc("GET /api/chats/{id}/messages/search", handlers.RequireAuth(handlers.SearchMessagesHandler))

	// Payments and notifications
	mux.HandleFunc("POST /api/payments", api.RequireSameOrigin(handlers.RequireAuth(handlers.CreateOrderHandler)))
	mux.HandleFunc("GET /api/payments", handlers.RequireAuth(handlers.ListPaymentsHandler))
	mux.HandleFunc("GET /api/payments/{id}", handlers.RequireAuth(handlers.PaymentStatusHandler))
	mux.HandleFunc("POST /api/payments/{id}/confirm", api.RequireSameOrigin(handlers.RequireAuth(handlers.ConfirmPaymentHandler)))
	mux.HandleFunc("GET /api/notifications", handlers.RequireAuth(handlers.ListNotificationsHandler))
	mux.HandleFunc("POST /api/notifications/{id}/read", api.RequireSameOrigin(handlers.RequireAuth(handlers.MarkNotificationReadHandler)))
	mux.HandleFunc("GET /api/push/key", handlers.RequireAuth(handlers.PushKeyHandler))
	mux.HandleFunc("POST /api/push/subscribe", api.RequireSameOrigin(handlers.RequireAuth(handlers.PushSubscribeHandler)))
	mux.HandleFunc("DELETE /api/push/subscribe", api.RequireSameOrigin(handlers.RequireAuth(handlers.PushUnsubscribeHandler)))

	// WebSocket endpoint
	mux.HandleFunc("GET /ws/chat/{chatID}", wsServer.HandleConnections)

	addr := cfg.APIAddr
	if addr == "" {
		addr = ":8080"
	}

	return &APIServer{
		server: &http.Server{
			Addr:    addr,
			Handler: mux,
		},
	}
}

func (s *APIServer) Addr() string {
	return s.server.Addr
}

func (s *APIServer) Start() error {
	log.Printf("Server started on %s", s.server.Addr)
	s.wg.Add(1)
	defer s.wg.Done()

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *APIServer) Shutdown(ctx context.Context) error {
	defer s.wg.Wait()
	return s.server.Shutdown(ctx)
}
