package api

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"hireline/internal/models"
	"hireline/internal/push"
)

// CreateOrderHandler opens a pending payment for the one-time access fee.
// The amount and currency come from server config, not from the client.
func (a *API) CreateOrderHandler(w http.ResponseWriter, r *http.Request) {
	userID := requestUserID(r)
	user, ok := a.auth.GetUser(userID)
	if !ok {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	if user.HasPaid {
		writeError(w, http.StatusConflict, "Access fee already paid")
		return
	}

	payment := models.Payment{
		ID:          uuid.NewString(),
		UserID:      userID,
		AmountCents: a.cfg.AccessFeeCents,
		Currency:    a.cfg.FeeCurrency,
		Status:      models.PaymentStatusPending,
		Description: "Platform access fee",
		CreatedAt:   time.Now().UnixMilli(),
	}
	if err := a.store.UpsertPayment(payment); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create payment")
		return
	}
	writeJSON(w, http.StatusCreated, payment)
}

// ConfirmPaymentHandler settles a pending payment. It stands in for the
// processor webhook, so the terminal status comes in the request body.
func (a *API) ConfirmPaymentHandler(w http.ResponseWriter, r *http.Request) {
	payment, err := a.store.GetPayment(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "Payment not found")
		return
	}
	if payment.UserID != requestUserID(r) {
		writeError(w, http.StatusForbidden, "Not your payment")
		return
	}
	if payment.Status != models.PaymentStatusPending {
		writeError(w, http.StatusConflict, "Payment already settled")
		return
	}

	var req struct {
		Status models.PaymentStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	now := time.Now().UnixMilli()
	switch req.Status {
	case models.PaymentStatusCompleted:
		payment.Status = models.PaymentStatusCompleted
		payment.PaidAt = now
	case models.PaymentStatusFailed:
		payment.Status = models.PaymentStatusFailed
		payment.FailedAt = now
	default:
		writeError(w, http.StatusBadRequest, "Status must be completed or failed")
		return
	}

	if err := a.store.UpsertPayment(payment); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update payment")
		return
	}

	if payment.Status == models.PaymentStatusCompleted {
		if err := a.auth.SetHasPaid(payment.UserID); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to unlock account")
			return
		}
		a.notifyPayment(payment, models.NotificationPaymentConfirmed,
			"Payment confirmed", "Your access fee payment went through. You can now contact freelancers.")
	} else {
		a.notifyPayment(payment, models.NotificationPaymentFailed,
			"Payment failed", "Your access fee payment did not go through. Please try again.")
	}

	writeJSON(w, http.StatusOK, payment)
}

func (a *API) notifyPayment(payment models.Payment, kind models.NotificationType, title, message string) {
	_ = a.store.UpsertNotification(models.Notification{
		ID:        uuid.NewString(),
		UserID:    payment.UserID,
		Type:      kind,
		Title:     title,
		Message:   message,
		CreatedAt: time.Now().UnixMilli(),
	})
	a.push.Notify(payment.UserID, push.Payload{Title: title, Body: message})
}

func (a *API) PaymentStatusHandler(w http.ResponseWriter, r *http.Request) {
	payment, err := a.store.GetPayment(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "Payment not found")
		return
	}
	if payment.UserID != requestUserID(r) {
		writeError(w, http.StatusForbidden, "Not your payment")
		return
	}
	writeJSON(w, http.StatusOK, payment)
}

func (a *API) ListPaymentsHandler(w http.ResponseWriter, r *http.Request) {
	payments, err := a.store.ListPayments(requestUserID(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list payments")
		return
	}
	if payments == nil {
		payments = []models.Payment{}
	}
	writeJSON(w, http.StatusOK, payments)
}

func (a *API) ListNotificationsHandler(w http.ResponseWriter, r *http.Request) {
	notifications, err := a.store.ListNotifications(requestUserID(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list notifications")
		return
	}
	if notifications == nil {
		notifications = []models.Notification{}
	}
	writeJSON(w, http.StatusOK, notifications)
}

func (a *API) MarkNotificationReadHandler(w http.ResponseWriter, r *http.Request) {
	notifications, err := a.store.ListNotifications(requestUserID(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list notifications")
		return
	}

	id := r.PathValue("id")
	for _, n := range notifications {
		if n.ID == id {
			if err := a.store.MarkNotificationRead(id); err != nil {
				writeError(w, http.StatusInternalServerError, "Failed to mark notification read")
				return
			}
			writeJSON(w, http.StatusOK, models.APIResponse{Success: true})
			return
		}
	}
	writeError(w, http.StatusNotFound, "Notification not found")
}

// PushKeyHandler exposes the VAPID public key the browser needs to subscribe.
func (a *API) PushKeyHandler(w http.ResponseWriter, r *http.Request) {
	if !a.push.Enabled() {
		writeError(w, http.StatusNotFound, "Push notifications are not configured")
		return
	}
	writeJSON(w, http.StatusOK, struct {
		PublicKey string `json:"public_key"`
	}{PublicKey: a.cfg.VAPIDPublicKey})
}

func (a *API) PushSubscribeHandler(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 16<<10))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read request body")
		return
	}
	if err := a.push.Subscribe(requestUserID(r), body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, models.APIResponse{Success: true})
}

func (a *API) PushUnsubscribeHandler(w http.ResponseWriter, r *http.Request) {
	if err := a.push.Unsubscribe(requestUserID(r)); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to remove subscription")
		return
	}
	writeJSON(w, http.StatusOK, models.APIResponse{Success: true})
}
