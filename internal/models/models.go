package models

import (
	"errors"
	"time"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrForbidden = errors.New("forbidden")
)

type UserType string

const (
	UserTypeClientHunter UserType = "client_hunter"
	UserTypeFreelancer   UserType = "freelancer"
)

// User is the base account shared by both roles.
type User struct {
	ID             string   `json:"id"`
	Email          string   `json:"email"`
	FirstName      string   `json:"first_name"`
	LastName       string   `json:"last_name"`
	ProfilePicture string   `json:"profile_picture,omitempty"`
	UserType       UserType `json:"user_type"`
	IsActive       bool     `json:"is_active"`
	IsVerified     bool     `json:"is_verified"`
	// HasPaid reports whether the one-time platform access fee was paid.
	// Client hunters cannot open chats until it is set.
	HasPaid   bool  `json:"has_paid"`
	CreatedAt int64 `json:"created_at"`
}

// APIResponse is the generic success/message envelope of the REST API.
type APIResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

func (u User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// FreelancerProfile holds the professional profile shown in discovery.
type FreelancerProfile struct {
	ID                string   `json:"id"`
	UserID            string   `json:"user_id"`
	Title             string   `json:"title"`
	Bio               string   `json:"bio,omitempty"`
	HourlyRate        float64  `json:"hourly_rate"`
	DailyRate         float64  `json:"daily_rate,omitempty"`
	YearsOfExperience int      `json:"years_of_experience"`
	Skills            []string `json:"skills"`
	Technologies      []string `json:"technologies"`
	PortfolioURL      string   `json:"portfolio_url,omitempty"`
	GithubURL         string   `json:"github_url,omitempty"`
	LinkedinURL       string   `json:"linkedin_url,omitempty"`
	IsAvailable       bool     `json:"is_available"`
	PreferredWorkType []string `json:"preferred_work_type,omitempty"`
	Timezone          string   `json:"timezone,omitempty"`
	IsVerified        bool     `json:"is_verified"`
	Rating            float64  `json:"rating"`
	TotalReviews      int      `json:"total_reviews"`
}

// Project is a portfolio entry on a freelancer profile.
type Project struct {
	ID           string  `json:"id"`
	FreelancerID string  `json:"freelancer_id"`
	Title        string  `json:"title"`
	Description  string  `json:"description,omitempty"`
	URL          string  `json:"url,omitempty"`
	CoverImage   string  `json:"cover_image,omitempty"`
	Earned       float64 `json:"earned"`
	TimeTaken    string  `json:"time_taken,omitempty"`
}

type ChatStatus string

const (
	ChatStatusActive   ChatStatus = "active"
	ChatStatusArchived ChatStatus = "archived"
	ChatStatusDeleted  ChatStatus = "deleted"
)

// Chat is a conversation between exactly two participants: the client hunter
// who initiated it and the freelancer they contacted.
type Chat struct {
	ID            string `json:"id"`
	InitiatorID   string `json:"initiator_id"`
	ParticipantID string `json:"participant_id"`
	Title         string `json:"title,omitempty"`

	// Optional project context attached at creation time.
	ProjectTitle       string `json:"project_title,omitempty"`
	ProjectDescription string `json:"project_description,omitempty"`
	ProjectBudget      string `json:"project_budget,omitempty"`

	Status        ChatStatus `json:"status"`
	LastSeq       int64      `json:"last_seq"`
	LastMessageAt int64      `json:"last_message_at,omitempty"`
	CreatedAt     int64      `json:"created_at"`
}

// IsParticipant reports whether userID is one of the two chat members.
func (c Chat) IsParticipant(userID string) bool {
	return c.InitiatorID == userID || c.ParticipantID == userID
}

// OtherParticipant returns the chat member that is not userID.
func (c Chat) OtherParticipant(userID string) string {
	if c.InitiatorID == userID {
		return c.ParticipantID
	}
	return c.InitiatorID
}

// Message is a persisted chat message.
type Message struct {
	ID          string    `json:"id"`
	Seq         int64     `json:"seq"`
	ChatID      string    `json:"chat_id"`
	SenderID    string    `json:"sender_id"`
	Content     string    `json:"content"`
	ContentType string    `json:"content_type"`
	IsFlagged   bool      `json:"is_flagged"`
	FlagReason  string    `json:"flag_reason,omitempty"`
	IsDeleted   bool      `json:"is_deleted"`
	CreatedAt   time.Time `json:"created_at"`
}

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
)

// Payment records the one-time platform access fee of a client hunter.
type Payment struct {
	ID          string        `json:"id"`
	UserID      string        `json:"user_id"`
	AmountCents int64         `json:"amount_cents"`
	Currency    string        `json:"currency"`
	Status      PaymentStatus `json:"status"`
	Description string        `json:"description,omitempty"`
	CreatedAt   int64         `json:"created_at"`
	PaidAt      int64         `json:"paid_at,omitempty"`
	FailedAt    int64         `json:"failed_at,omitempty"`
}

type NotificationType string

const (
	NotificationChatMessage      NotificationType = "chat_message"
	NotificationPaymentConfirmed NotificationType = "payment_confirmed"
	NotificationPaymentFailed    NotificationType = "payment_failed"
)

type Notification struct {
	ID            string           `json:"id"`
	UserID        string           `json:"user_id"`
	Type          NotificationType `json:"notification_type"`
	Title         string           `json:"title"`
	Message       string           `json:"message"`
	IsRead        bool             `json:"is_read"`
	RelatedChatID string           `json:"related_chat_id,omitempty"`
	CreatedAt     int64            `json:"created_at"`
}
