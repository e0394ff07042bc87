package api

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"hireline/internal/models"
)

func newTestAdmin(t *testing.T) (*API, *AdminHandler) {
	t.Helper()
	a := newTestAPI(t)
	return a, NewAdminHandler(a.auth, a.store, "admin", "letmein")
}

func adminRequest(t *testing.T, h *AdminHandler, handler http.HandlerFunc, method, target string, authorized bool, pathValues map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	if authorized {
		req.SetBasicAuth("admin", "letmein")
	}
	for k, v := range pathValues {
		req.SetPathValue(k, v)
	}
	w := httptest.NewRecorder()
	h.RequireBasicAuth(handler)(w, req)
	return w
}

func TestAdminAuth(t *testing.T) {
	_, admin := newTestAdmin(t)

	w := adminRequest(t, admin, admin.ListUsersHandler, http.MethodGet, "/admin/users", false, nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Unauthenticated request returned %d", w.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/admin/users", nil)
	req.SetBasicAuth("admin", "wrong")
	rec := httptest.NewRecorder()
	admin.RequireBasicAuth(admin.ListUsersHandler)(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Wrong password returned %d", rec.Code)
	}
}

func TestAdminModeration(t *testing.T) {
	a, admin := newTestAdmin(t)

	hunter := registerUser(t, a, "target@example.com", models.UserTypeClientHunter)
	freelancer := registerUser(t, a, "peer@example.com", models.UserTypeFreelancer)

	chat := models.Chat{
		ID:            uuid.NewString(),
		InitiatorID:   hunter.ID,
		ParticipantID: freelancer.ID,
		Status:        models.ChatStatusActive,
		CreatedAt:     time.Now().UnixMilli(),
	}
	if err := a.store.UpsertChat(chat); err != nil {
		t.Fatalf("UpsertChat: %v", err)
	}
	flagged, err := a.store.AppendMessage(models.Message{
		ID:         uuid.NewString(),
		ChatID:     chat.ID,
		SenderID:   hunter.ID,
		Content:    "contact me at [CONTACT INFO REMOVED]",
		IsFlagged:  true,
		FlagReason: "content filter: [contact info]",
		CreatedAt:  time.Now(),
	})
	if err != nil {
		t.Fatalf("AppendMessage: %v", err)
	}

	t.Run("ListUsers", func(t *testing.T) {
		w := adminRequest(t, admin, admin.ListUsersHandler, http.MethodGet, "/admin/users", true, nil)
		if users := decodeBody[[]models.User](t, w); len(users) != 2 {
			t.Errorf("User list = %+v", users)
		}
	})

	t.Run("FlaggedMessages", func(t *testing.T) {
		w := adminRequest(t, admin, admin.FlaggedMessagesHandler, http.MethodGet, "/admin/messages/flagged", true, nil)
		messages := decodeBody[[]models.Message](t, w)
		if len(messages) != 1 || messages[0].ID != flagged.ID {
			t.Fatalf("Flagged list = %+v", messages)
		}
	})

	t.Run("DeleteMessage", func(t *testing.T) {
		w := adminRequest(t, admin, admin.DeleteMessageHandler, http.MethodDelete,
			fmt.Sprintf("/admin/chats/%s/messages/%d", chat.ID, flagged.Seq), true,
			map[string]string{"chatID": chat.ID, "seq": fmt.Sprint(flagged.Seq)})
		if w.Code != http.StatusOK {
			t.Fatalf("DeleteMessage returned %d", w.Code)
		}

		after := adminRequest(t, admin, admin.FlaggedMessagesHandler, http.MethodGet, "/admin/messages/flagged", true, nil)
		if messages := decodeBody[[]models.Message](t, after); len(messages) != 0 {
			t.Errorf("Flagged list after delete = %+v", messages)
		}
	})

	t.Run("Deactivate", func(t *testing.T) {
		w := adminRequest(t, admin, admin.DeactivateUserHandler, http.MethodPost,
			"/admin/users/"+hunter.ID+"/deactivate", true, map[string]string{"id": hunter.ID})
		if w.Code != http.StatusOK {
			t.Fatalf("Deactivate returned %d", w.Code)
		}
		users := decodeBody[[]models.User](t,
			adminRequest(t, admin, admin.ListUsersHandler, http.MethodGet, "/admin/users", true, nil))
		if len(users) != 1 {
			t.Errorf("Active users after deactivate = %+v", users)
		}
	})
}
