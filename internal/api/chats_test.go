package api

import (
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"

	"hireline/internal/models"
)

// payAccessFee walks the user through create-order + confirm.
func payAccessFee(t *testing.T, a *API, token string) models.Payment {
	t.Helper()

	w := doJSON(t, a.RequireAuth(a.CreateOrderHandler), http.MethodPost, "/api/payments", token, nil, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("CreateOrder returned %d: %s", w.Code, w.Body.String())
	}
	payment := decodeBody[models.Payment](t, w)
	if payment.Status != models.PaymentStatusPending {
		t.Fatalf("New payment status = %q", payment.Status)
	}

	w = doJSON(t, a.RequireAuth(a.ConfirmPaymentHandler), http.MethodPost, "/api/payments/"+payment.ID+"/confirm", token,
		map[string]string{"status": "completed"}, map[string]string{"id": payment.ID})
	if w.Code != http.StatusOK {
		t.Fatalf("ConfirmPayment returned %d: %s", w.Code, w.Body.String())
	}
	return decodeBody[models.Payment](t, w)
}

func setupChatUsers(t *testing.T) (a *API, hunterToken, freelancerToken, profileID string) {
	t.Helper()
	a = newTestAPI(t)

	registerUser(t, a, "hunter@example.com", models.UserTypeClientHunter)
	freelancer := registerUser(t, a, "dev@example.com", models.UserTypeFreelancer)

	hunterToken = loginToken(t, a, "hunter@example.com")
	freelancerToken = loginToken(t, a, "dev@example.com")

	profile, err := a.store.GetFreelancerByUser(freelancer.ID)
	if err != nil {
		t.Fatalf("Freelancer has no profile: %v", err)
	}
	return a, hunterToken, freelancerToken, profile.ID
}

func TestPaymentGate(t *testing.T) {
	a, hunterToken, _, profileID := setupChatUsers(t)

	w := doJSON(t, a.RequireAuth(a.CreateChatHandler), http.MethodPost, "/api/chats", hunterToken,
		CreateChatRequest{FreelancerID: profileID}, nil)
	if w.Code != http.StatusPaymentRequired {
		t.Fatalf("Expected 402 before payment, got %d", w.Code)
	}

	payment := payAccessFee(t, a, hunterToken)
	if payment.Status != models.PaymentStatusCompleted {
		t.Errorf("Payment status = %q after confirm", payment.Status)
	}
	if payment.PaidAt == 0 {
		t.Error("PaidAt not set")
	}

	// Confirming twice must not work.
	w = doJSON(t, a.RequireAuth(a.ConfirmPaymentHandler), http.MethodPost, "/api/payments/"+payment.ID+"/confirm", hunterToken,
		map[string]string{"status": "completed"}, map[string]string{"id": payment.ID})
	if w.Code != http.StatusConflict {
		t.Errorf("Second confirm returned %d", w.Code)
	}

	w = doJSON(t, a.RequireAuth(a.CreateChatHandler), http.MethodPost, "/api/chats", hunterToken,
		CreateChatRequest{FreelancerID: profileID, ProjectTitle: "New backend"}, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("CreateChat returned %d after payment: %s", w.Code, w.Body.String())
	}

	t.Run("PaymentNotification", func(t *testing.T) {
		w := doJSON(t, a.RequireAuth(a.ListNotificationsHandler), http.MethodGet, "/api/notifications", hunterToken, nil, nil)
		notifications := decodeBody[[]models.Notification](t, w)
		if len(notifications) != 1 || notifications[0].Type != models.NotificationPaymentConfirmed {
			t.Fatalf("Unexpected notifications: %+v", notifications)
		}

		read := doJSON(t, a.RequireAuth(a.MarkNotificationReadHandler), http.MethodPost,
			"/api/notifications/"+notifications[0].ID+"/read", hunterToken, nil,
			map[string]string{"id": notifications[0].ID})
		if read.Code != http.StatusOK {
			t.Errorf("MarkNotificationRead returned %d", read.Code)
		}
	})
}

func TestChatLifecycle(t *testing.T) {
	a, hunterToken, freelancerToken, profileID := setupChatUsers(t)
	payAccessFee(t, a, hunterToken)

	w := doJSON(t, a.RequireAuth(a.CreateChatHandler), http.MethodPost, "/api/chats", hunterToken,
		CreateChatRequest{FreelancerID: profileID, Title: "Backend rewrite", ProjectBudget: "5000 USD"}, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("CreateChat returned %d: %s", w.Code, w.Body.String())
	}
	chat := decodeBody[models.Chat](t, w)

	t.Run("PairReuse", func(t *testing.T) {
		w := doJSON(t, a.RequireAuth(a.CreateChatHandler), http.MethodPost, "/api/chats", hunterToken,
			CreateChatRequest{FreelancerID: profileID}, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("Repeated create returned %d", w.Code)
		}
		again := decodeBody[models.Chat](t, w)
		if again.ID != chat.ID {
			t.Errorf("Repeated create made a new chat %q, want %q", again.ID, chat.ID)
		}
	})

	// Both participants see the chat; outsiders do not.
	t.Run("Visibility", func(t *testing.T) {
		for _, token := range []string{hunterToken, freelancerToken} {
			w := doJSON(t, a.RequireAuth(a.ListChatsHandler), http.MethodGet, "/api/chats", token, nil, nil)
			items := decodeBody[[]ChatListItem](t, w)
			if len(items) != 1 || items[0].ID != chat.ID {
				t.Fatalf("Chat list = %+v", items)
			}
			if items[0].OtherUser.ID == "" {
				t.Error("Other participant not resolved")
			}
		}

		registerUser(t, a, "outsider@example.com", models.UserTypeClientHunter)
		outsider := loginToken(t, a, "outsider@example.com")
		w := doJSON(t, a.RequireAuth(a.GetChatHandler), http.MethodGet, "/api/chats/"+chat.ID, outsider, nil,
			map[string]string{"id": chat.ID})
		if w.Code != http.StatusForbidden {
			t.Errorf("Outsider access returned %d", w.Code)
		}
	})

	t.Run("MessagesAndUnread", func(t *testing.T) {
		for _, text := range []string{"hello", "are you available?"} {
			if _, err := a.store.AppendMessage(models.Message{
				ID:          uuid.NewString(),
				ChatID:      chat.ID,
				SenderID:    chat.InitiatorID,
				Content:     text,
				ContentType: "text",
				CreatedAt:   time.Now(),
			}); err != nil {
				t.Fatalf("AppendMessage: %v", err)
			}
		}

		w := doJSON(t, a.RequireAuth(a.ListChatsHandler), http.MethodGet, "/api/chats", freelancerToken, nil, nil)
		items := decodeBody[[]ChatListItem](t, w)
		if items[0].UnreadCount != 2 {
			t.Errorf("UnreadCount = %d, want 2", items[0].UnreadCount)
		}
		if items[0].LastMessage == nil || items[0].LastMessage.Content != "are you available?" {
			t.Errorf("LastMessage = %+v", items[0].LastMessage)
		}

		page := doJSON(t, a.RequireAuth(a.ChatMessagesHandler), http.MethodGet, "/api/chats/"+chat.ID+"/messages", freelancerToken, nil,
			map[string]string{"id": chat.ID})
		resp := decodeBody[MessagePageResponse](t, page)
		if len(resp.Messages) != 2 || resp.Messages[0].Content != "are you available?" {
			t.Fatalf("Message page = %+v", resp.Messages)
		}

		// Reading page 1 moves the cursor.
		w = doJSON(t, a.RequireAuth(a.ListChatsHandler), http.MethodGet, "/api/chats", freelancerToken, nil, nil)
		items = decodeBody[[]ChatListItem](t, w)
		if items[0].UnreadCount != 0 {
			t.Errorf("UnreadCount after read = %d", items[0].UnreadCount)
		}
	})

	t.Run("Search", func(t *testing.T) {
		w := doJSON(t, a.RequireAuth(a.SearchMessagesHandler), http.MethodGet,
			"/api/chats/"+chat.ID+"/messages/search?q=AVAILABLE", freelancerToken, nil,
			map[string]string{"id": chat.ID})
		if w.Code != http.StatusOK {
			t.Fatalf("Search returned %d", w.Code)
		}
		hits := decodeBody[[]models.MessageData](t, w)
		if len(hits) != 1 || hits[0].Content != "are you available?" {
			t.Errorf("Search hits = %+v", hits)
		}
	})

	t.Run("ArchiveToggle", func(t *testing.T) {
		w := doJSON(t, a.RequireAuth(a.ArchiveChatHandler), http.MethodPost, "/api/chats/"+chat.ID+"/archive", hunterToken, nil,
			map[string]string{"id": chat.ID})
		if got := decodeBody[models.Chat](t, w); got.Status != models.ChatStatusArchived {
			t.Errorf("Status after archive = %q", got.Status)
		}
		w = doJSON(t, a.RequireAuth(a.ArchiveChatHandler), http.MethodPost, "/api/chats/"+chat.ID+"/archive", hunterToken, nil,
			map[string]string{"id": chat.ID})
		if got := decodeBody[models.Chat](t, w); got.Status != models.ChatStatusActive {
			t.Errorf("Status after unarchive = %q", got.Status)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		w := doJSON(t, a.RequireAuth(a.DeleteChatHandler), http.MethodDelete, "/api/chats/"+chat.ID, hunterToken, nil,
			map[string]string{"id": chat.ID})
		if w.Code != http.StatusOK {
			t.Fatalf("Delete returned %d", w.Code)
		}
		after := doJSON(t, a.RequireAuth(a.GetChatHandler), http.MethodGet, "/api/chats/"+chat.ID, hunterToken, nil,
			map[string]string{"id": chat.ID})
		if after.Code != http.StatusNotFound {
			t.Errorf("Deleted chat still served, status %d", after.Code)
		}
	})
}
