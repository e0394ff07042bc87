package storage

import (
	"encoding"
	"encoding/binary"

	"github.com/vmihailenco/msgpack/v5"
)

type Storeable interface {
	Key() []byte
	encoding.BinaryMarshaler
	encoding.BinaryUnmarshaler
}

type DBUser struct {
	ID                  string `msgpack:"id"`
	Email               string `msgpack:"email"`
	FirstName           string `msgpack:"firstName"`
	LastName            string `msgpack:"lastName"`
	ProfilePicture      string `msgpack:"profilePicture"`
	UserType            string `msgpack:"userType"`
	IsActive            bool   `msgpack:"isActive"`
	IsVerified          bool   `msgpack:"isVerified"`
	HasPaid             bool   `msgpack:"hasPaid"`
	CreatedAt           int64  `msgpack:"createdAt"`
	PasswordHash        string `msgpack:"passwordHash"`
	FailedLoginAttempts int64  `msgpack:"failedLoginAttempts"`
	LastAttemptTime     int64  `msgpack:"lastAttemptTime"`
}

func (u *DBUser) Key() []byte {
	return []byte(u.ID)
}

func (u *DBUser) MarshalBinary() (data []byte, err error) {
	type alias DBUser
	return msgpack.Marshal((*alias)(u))
}

func (u *DBUser) UnmarshalBinary(data []byte) error {
	type alias DBUser
	return msgpack.Unmarshal(data, (*alias)(u))
}

type DBToken struct {
	UserID string `msgpack:"userId"`
	Token  string `msgpack:"token"`
}

func (t *DBToken) Key() []byte {
	return []byte(t.Token)
}

func (t *DBToken) MarshalBinary() (data []byte, err error) {
	type alias DBToken
	return msgpack.Marshal((*alias)(t))
}

func (t *DBToken) UnmarshalBinary(data []byte) error {
	type alias DBToken
	return msgpack.Unmarshal(data, (*alias)(t))
}

type DBFreelancer struct {
	ID                string   `msgpack:"id"`
	UserID            string   `msgpack:"userId"`
	Title             string   `msgpack:"title"`
	Bio               string   `msgpack:"bio"`
	HourlyRate        float64  `msgpack:"hourlyRate"`
	DailyRate         float64  `msgpack:"dailyRate"`
	YearsOfExperience int      `msgpack:"yearsOfExperience"`
	Skills            []string `msgpack:"skills"`
	Technologies      []string `msgpack:"technologies"`
	PortfolioURL      string   `msgpack:"portfolioUrl"`
	GithubURL         string   `msgpack:"githubUrl"`
	LinkedinURL       string   `msgpack:"linkedinUrl"`
	IsAvailable       bool     `msgpack:"isAvailable"`
	PreferredWorkType []string `msgpack:"preferredWorkType"`
	Timezone          string   `msgpack:"timezone"`
	IsVerified        bool     `msgpack:"isVerified"`
	Rating            float64  `msgpack:"rating"`
	TotalReviews      int      `msgpack:"totalReviews"`
}

func (f *DBFreelancer) Key() []byte {
	return []byte(f.ID)
}

func (f *DBFreelancer) MarshalBinary() (data []byte, err error) {
	type alias DBFreelancer
	return msgpack.Marshal((*alias)(f))
}

func (f *DBFreelancer) UnmarshalBinary(data []byte) error {
	type alias DBFreelancer
	return msgpack.Unmarshal(data, (*alias)(f))
}

type DBProject struct {
	ID           string  `msgpack:"id"`
	FreelancerID string  `msgpack:"freelancerId"`
	Title        string  `msgpack:"title"`
	Description  string  `msgpack:"description"`
	URL          string  `msgpack:"url"`
	CoverImage   string  `msgpack:"coverImage"`
	Earned       float64 `msgpack:"earned"`
	TimeTaken    string  `msgpack:"timeTaken"`
}

func (p *DBProject) Key() []byte {
	return []byte(p.ID)
}

func (p *DBProject) MarshalBinary() (data []byte, err error) {
	type alias DBProject
	return msgpack.Marshal((*alias)(p))
}

func (p *DBProject) UnmarshalBinary(data []byte) error {
	type alias DBProject
	return msgpack.Unmarshal(data, (*alias)(p))
}

type DBChat struct {
	ID                 string `msgpack:"id"`
	InitiatorID        string `msgpack:"initiatorId"`
	ParticipantID      string `msgpack:"participantId"`
	Title              string `msgpack:"title"`
	ProjectTitle       string `msgpack:"projectTitle"`
	ProjectDescription string `msgpack:"projectDescription"`
	ProjectBudget      string `msgpack:"projectBudget"`
	Status             string `msgpack:"status"`
	LastSeq            int64  `msgpack:"lastSeq"`
	LastMessageAt      int64  `msgpack:"lastMessageAt"`
	CreatedAt          int64  `msgpack:"createdAt"`
	// LastRead tracks the highest seq each participant has seen.
	LastRead map[string]int64 `msgpack:"lastRead"`
}

func (c *DBChat) Key() []byte {
	return []byte(c.ID)
}

func (c *DBChat) MarshalBinary() (data []byte, err error) {
	type alias DBChat
	return msgpack.Marshal((*alias)(c))
}

func (c *DBChat) UnmarshalBinary(data []byte) error {
	type alias DBChat
	return msgpack.Unmarshal(data, (*alias)(c))
}

type DBMessage struct {
	ID          string `msgpack:"id"`
	Seq         int64  `msgpack:"seq"`
	ChatID      string `msgpack:"chatId"`
	SenderID    string `msgpack:"senderId"`
	Content     string `msgpack:"content"`
	ContentType string `msgpack:"contentType"`
	IsFlagged   bool   `msgpack:"isFlagged"`
	FlagReason  string `msgpack:"flagReason"`
	IsDeleted   bool   `msgpack:"isDeleted"`
	CreatedAt   int64  `msgpack:"createdAt"` // Unix millis
}

// Key orders messages by sequence number within the chat sub-bucket.
func (m *DBMessage) Key() []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, uint64(m.Seq))
	return key
}

func (m *DBMessage) MarshalBinary() (data []byte, err error) {
	type alias DBMessage
	return msgpack.Marshal((*alias)(m))
}

func (m *DBMessage) UnmarshalBinary(data []byte) error {
	type alias DBMessage
	return msgpack.Unmarshal(data, (*alias)(m))
}

type DBPayment struct {
	ID          string `msgpack:"id"`
	UserID      string `msgpack:"userId"`
	AmountCents int64  `msgpack:"amountCents"`
	Currency    string `msgpack:"currency"`
	Status      string `msgpack:"status"`
	Description string `msgpack:"description"`
	CreatedAt   int64  `msgpack:"createdAt"`
	PaidAt      int64  `msgpack:"paidAt"`
	FailedAt    int64  `msgpack:"failedAt"`
}

func (p *DBPayment) Key() []byte {
	return []byte(p.ID)
}

func (p *DBPayment) MarshalBinary() (data []byte, err error) {
	type alias DBPayment
	return msgpack.Marshal((*alias)(p))
}

func (p *DBPayment) UnmarshalBinary(data []byte) error {
	type alias DBPayment
	return msgpack.Unmarshal(data, (*alias)(p))
}

type DBNotification struct {
	ID            string `msgpack:"id"`
	UserID        string `msgpack:"userId"`
	Type          string `msgpack:"type"`
	Title         string `msgpack:"title"`
	Message       string `msgpack:"message"`
	IsRead        bool   `msgpack:"isRead"`
	RelatedChatID string `msgpack:"relatedChatId"`
	CreatedAt     int64  `msgpack:"createdAt"`
}

func (n *DBNotification) Key() []byte {
	return []byte(n.ID)
}

func (n *DBNotification) MarshalBinary() (data []byte, err error) {
	type alias DBNotification
	return msgpack.Marshal((*alias)(n))
}

func (n *DBNotification) UnmarshalBinary(data []byte) error {
	type alias DBNotification
	return msgpack.Unmarshal(data, (*alias)(n))
}

// DBSubscription stores a web-push subscription blob keyed by user.
type DBSubscription struct {
	UserID       string `msgpack:"userId"`
	Subscription []byte `msgpack:"subscription"`
	CreatedAt    int64  `msgpack:"createdAt"`
}

func (s *DBSubscription) Key() []byte {
	return []byte(s.UserID)
}

func (s *DBSubscription) MarshalBinary() (data []byte, err error) {
	type alias DBSubscription
	return msgpack.Marshal((*alias)(s))
}

func (s *DBSubscription) UnmarshalBinary(data []byte) error {
	type alias DBSubscription
	return msgpack.Unmarshal(data, (*alias)(s))
}
