package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/h2non/filetype"

	"hireline/internal/auth"
	"hireline/internal/config"
	"hireline/internal/content"
	"hireline/internal/filestore"
	"hireline/internal/models"
	"hireline/internal/push"
	"hireline/internal/storage"
)

const maxUploadSize = 10 << 20

type API struct {
	auth  *auth.AuthService
	store *storage.BboltStorage
	files filestore.FileStore
	push  *push.Service
	cfg   *config.Config
}

func New(authService *auth.AuthService, store *storage.BboltStorage, files filestore.FileStore, pushService *push.Service, cfg *config.Config) *API {
	return &API{
		auth:  authService,
		store: store,
		files: files,
		push:  pushService,
		cfg:   cfg,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, models.APIResponse{Success: false, Message: message})
}

func (a *API) getToken(r *http.Request) string {
	token := r.Header.Get("token")
	if token == "" {
		if c, err := r.Cookie("token"); err == nil {
			token = c.Value
		}
	}
	return token
}

type contextKey string

const userIDKey contextKey = "userID"

// RequireAuth resolves the request token and stores the user ID in the
// request context for the wrapped handler.
func (a *API) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := a.auth.GetUserID(a.getToken(r))
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), userIDKey, userID)))
	}
}

func requestUserID(r *http.Request) string {
	id, _ := r.Context().Value(userIDKey).(string)
	return id
}

// RequireSameOrigin rejects state-changing requests whose Origin (or Referer,
// when Origin is absent) host does not match the request host.
func RequireSameOrigin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin == "" {
			origin = r.Header.Get("Referer")
		}
		if origin != "" {
			u, err := url.Parse(origin)
			if err != nil || u.Host != r.Host {
				writeError(w, http.StatusForbidden, "Cross-origin request rejected")
				return
			}
		}
		next(w, r)
	}
}

func (a *API) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req auth.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.FirstName = content.Sanitize(req.FirstName)
	req.LastName = content.Sanitize(req.LastName)

	user, err := a.auth.Register(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// A freelancer account starts with an empty profile so discovery
	// endpoints have a row to update.
	if user.UserType == models.UserTypeFreelancer {
		profile := models.FreelancerProfile{
			ID:          uuid.NewString(),
			UserID:      user.ID,
			IsAvailable: true,
		}
		if err := a.store.UpsertFreelancer(profile); err != nil {
			slog.Error("failed to create freelancer profile", "user", user.ID, "error", err)
		}
	}

	writeJSON(w, http.StatusCreated, user)
}

func (a *API) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req auth.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	resp := a.auth.Login(req)
	if !resp.Success {
		writeJSON(w, http.StatusUnauthorized, resp)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    resp.Token,
		HttpOnly: true,
		Path:     "/",
		Expires:  time.Unix(resp.TokenExpiry, 0),
	})

	writeJSON(w, http.StatusOK, resp)
}

func (a *API) LogoffHandler(w http.ResponseWriter, r *http.Request) {
	if token := a.getToken(r); token != "" {
		_ = a.auth.Logoff(token)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    "",
		HttpOnly: true,
		Path:     "/",
		MaxAge:   -1,
	})

	writeJSON(w, http.StatusOK, models.APIResponse{Success: true})
}

func (a *API) MeHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := a.auth.GetUser(requestUserID(r))
	if !ok {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (a *API) UpdateProfileHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FirstName      string `json:"first_name"`
		LastName       string `json:"last_name"`
		ProfilePicture string `json:"profile_picture"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := a.auth.UpdateProfile(
		requestUserID(r),
		content.Sanitize(req.FirstName),
		content.Sanitize(req.LastName),
		req.ProfilePicture,
	)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (a *API) ChangePasswordHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OldPassword string `json:"old_password"`
		NewPassword string `json:"new_password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := a.auth.ChangePassword(requestUserID(r), req.OldPassword, req.NewPassword); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, models.APIResponse{Success: true, Message: "Password changed"})
}

func (a *API) UploadAvatarHandler(w http.ResponseWriter, r *http.Request) {
	fileID, err := a.storeImageUpload(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	userID := requestUserID(r)
	user, ok := a.auth.GetUser(userID)
	if !ok {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}

	updated, err := a.auth.UpdateProfile(userID, user.FirstName, user.LastName, "/api/images/"+fileID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (a *API) UploadImageHandler(w http.ResponseWriter, r *http.Request) {
	fileID, err := a.storeImageUpload(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, struct {
		models.APIResponse
		ID  string `json:"id"`
		URL string `json:"url"`
	}{
		APIResponse: models.APIResponse{Success: true},
		ID:          fileID,
		URL:         "/api/images/" + fileID,
	})
}

// storeImageUpload reads the multipart "file" part, verifies it is an image
// and persists content plus metadata. Returns the metadata ID.
func (a *API) storeImageUpload(r *http.Request) (string, error) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		return "", fmt.Errorf("failed to parse upload: %w", err)
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		return "", fmt.Errorf("missing file part: %w", err)
	}
	defer file.Close()

	head := make([]byte, 261)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}
	head = head[:n]

	if !filetype.IsImage(head) {
		return "", errors.New("only image uploads are accepted")
	}
	kind, _ := filetype.Match(head)

	hash, size, err := a.files.Put(io.MultiReader(bytes.NewReader(head), file))
	if err != nil {
		return "", fmt.Errorf("failed to store file: %w", err)
	}

	meta := storage.FileMetadata{
		ID:        uuid.NewString(),
		Hash:      hash,
		MimeType:  kind.MIME.Value,
		Size:      size,
		CreatedAt: time.Now().UnixMilli(),
		UserID:    requestUserID(r),
	}
	if err := a.store.UpsertFileMetadata(meta); err != nil {
		return "", fmt.Errorf("failed to store file metadata: %w", err)
	}
	return meta.ID, nil
}

func (a *API) GetImageHandler(w http.ResponseWriter, r *http.Request) {
	meta, err := a.store.GetFileMetadata(r.PathValue("id"))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	rc, err := a.files.Get(meta.Hash)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", meta.MimeType)
	w.Header().Set("Cache-Control", "public, max-age=86400")
	if _, err := io.Copy(w, rc); err != nil {
		slog.Debug("failed to stream image", "id", meta.ID, "error", err)
	}
}
