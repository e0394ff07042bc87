package storage

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"hireline/internal/auth"
	"hireline/internal/models"

	"go.etcd.io/bbolt"
)

var (
	bucketUsers         = []byte("users")
	bucketTokens        = []byte("tokens")
	bucketFreelancers   = []byte("freelancers")
	bucketProjects      = []byte("projects")
	bucketChats         = []byte("chats")
	bucketMessages      = []byte("messages")
	bucketPayments      = []byte("payments")
	bucketNotifications = []byte("notifications")
	bucketSubscriptions = []byte("push_subscriptions")
	bucketFiles         = []byte("files")
)

type BboltStorage struct {
	db *bbolt.DB
}

func NewBboltStorage(path string) (*BboltStorage, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bbolt db: %w", err)
	}

	buckets := [][]byte{
		bucketUsers,
		bucketTokens,
		bucketFreelancers,
		bucketProjects,
		bucketChats,
		bucketMessages,
		bucketPayments,
		bucketNotifications,
		bucketSubscriptions,
		bucketFiles,
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range buckets {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create buckets: %w", err)
	}

	return &BboltStorage{db: db}, nil
}

func (s *BboltStorage) Close() error {
	return s.db.Close()
}

// UpsertCredentials stores new or updated user credentials.
func (s *BboltStorage) UpsertCredentials(credentials auth.UserCredentials) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketUsers)
		dbUser := &DBUser{
			ID:                  credentials.ID,
			Email:               credentials.Email,
			FirstName:           credentials.FirstName,
			LastName:            credentials.LastName,
			ProfilePicture:      credentials.ProfilePicture,
			UserType:            string(credentials.UserType),
			IsActive:            credentials.IsActive,
			IsVerified:          credentials.IsVerified,
			HasPaid:             credentials.HasPaid,
			CreatedAt:           credentials.CreatedAt,
			PasswordHash:        credentials.PasswordHash,
			FailedLoginAttempts: credentials.FailedLoginAttempts,
			LastAttemptTime:     credentials.LastAttemptTime,
		}

		data, err := dbUser.MarshalBinary()
		if err != nil {
			return err
		}
		return b.Put(dbUser.Key(), data)
	})
}

// ListCredentials returns all user credentials stored in the database.
func (s *BboltStorage) ListCredentials() ([]auth.UserCredentials, error) {
	var credentials []auth.UserCredentials
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketUsers)
		return b.ForEach(func(k, v []byte) error {
			var dbUser DBUser
			if err := dbUser.UnmarshalBinary(v); err != nil {
				return err
			}
			credentials = append(credentials, auth.UserCredentials{
				User: models.User{
					ID:             dbUser.ID,
					Email:          dbUser.Email,
					FirstName:      dbUser.FirstName,
					LastName:       dbUser.LastName,
					ProfilePicture: dbUser.ProfilePicture,
					UserType:       models.UserType(dbUser.UserType),
					IsActive:       dbUser.IsActive,
					IsVerified:     dbUser.IsVerified,
					HasPaid:        dbUser.HasPaid,
					CreatedAt:      dbUser.CreatedAt,
				},
				PasswordHash:        dbUser.PasswordHash,
				FailedLoginAttempts: dbUser.FailedLoginAttempts,
				LastAttemptTime:     dbUser.LastAttemptTime,
			})
			return nil
		})
	})
	return credentials, err
}

// UpsertToken stores a session token hash keyed by the hash itself.
func (s *BboltStorage) UpsertToken(tokenHash, userID string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketTokens)
		dbToken := &DBToken{
			UserID: userID,
			Token:  tokenHash,
		}
		data, err := dbToken.MarshalBinary()
		if err != nil {
			return err
		}
		return b.Put(dbToken.Key(), data)
	})
}

func (s *BboltStorage) DeleteToken(tokenHash string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketTokens)
		return b.Delete([]byte(tokenHash))
	})
}

func (s *BboltStorage) ListTokens() (map[string]string, error) {
	tokens := make(map[string]string)
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketTokens)
		return b.ForEach(func(k, v []byte) error {
			var dbToken DBToken
			if err := dbToken.UnmarshalBinary(v); err != nil {
				return err
			}
			tokens[dbToken.Token] = dbToken.UserID
			return nil
		})
	})
	return tokens, err
}

// UpsertFreelancer saves a freelancer profile to the database.
func (s *BboltStorage) UpsertFreelancer(profile models.FreelancerProfile) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketFreelancers)
		dbFreelancer := freelancerToDB(profile)
		data, err := dbFreelancer.MarshalBinary()
		if err != nil {
			return err
		}
		return b.Put(dbFreelancer.Key(), data)
	})
}

// GetFreelancer returns the freelancer profile with the given profile id.
func (s *BboltStorage) GetFreelancer(id string) (models.FreelancerProfile, error) {
	var profile models.FreelancerProfile
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketFreelancers)
		data := b.Get([]byte(id))
		if data == nil {
			return models.ErrNotFound
		}
		var dbFreelancer DBFreelancer
		if err := dbFreelancer.UnmarshalBinary(data); err != nil {
			return err
		}
		profile = freelancerFromDB(dbFreelancer)
		return nil
	})
	return profile, err
}

// GetFreelancerByUser returns the freelancer profile owned by userID.
func (s *BboltStorage) GetFreelancerByUser(userID string) (models.FreelancerProfile, error) {
	var profile models.FreelancerProfile
	found := false
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketFreelancers)
		return b.ForEach(func(k, v []byte) error {
			if found {
				return nil
			}
			var dbFreelancer DBFreelancer
			if err := dbFreelancer.UnmarshalBinary(v); err != nil {
				return err
			}
			if dbFreelancer.UserID == userID {
				profile = freelancerFromDB(dbFreelancer)
				found = true
			}
			return nil
		})
	})
	if err != nil {
		return models.FreelancerProfile{}, err
	}
	if !found {
		return models.FreelancerProfile{}, models.ErrNotFound
	}
	return profile, nil
}

// ListFreelancers returns all freelancer profiles stored in the database.
func (s *BboltStorage) ListFreelancers() ([]models.FreelancerProfile, error) {
	var profiles []models.FreelancerProfile
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketFreelancers)
		return b.ForEach(func(k, v []byte) error {
			var dbFreelancer DBFreelancer
			if err := dbFreelancer.UnmarshalBinary(v); err != nil {
				return err
			}
			profiles = append(profiles, freelancerFromDB(dbFreelancer))
			return nil
		})
	})
	return profiles, err
}

// UpsertProject saves a portfolio project to the database.
func (s *BboltStorage) UpsertProject(project models.Project) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketProjects)
		dbProject := &DBProject{
			ID:           project.ID,
			FreelancerID: project.FreelancerID,
			Title:        project.Title,
			Description:  project.Description,
			URL:          project.URL,
			CoverImage:   project.CoverImage,
			Earned:       project.Earned,
			TimeTaken:    project.TimeTaken,
		}
		data, err := dbProject.MarshalBinary()
		if err != nil {
			return err
		}
		return b.Put(dbProject.Key(), data)
	})
}

func (s *BboltStorage) DeleteProject(id string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketProjects)
		return b.Delete([]byte(id))
	})
}

// ListProjects returns the portfolio projects of one freelancer.
func (s *BboltStorage) ListProjects(freelancerID string) ([]models.Project, error) {
	var projects []models.Project
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketProjects)
		return b.ForEach(func(k, v []byte) error {
			var dbProject DBProject
			if err := dbProject.UnmarshalBinary(v); err != nil {
				return err
			}
			if dbProject.FreelancerID != freelancerID {
				return nil
			}
			projects = append(projects, models.Project{
				ID:           dbProject.ID,
				FreelancerID: dbProject.FreelancerID,
				Title:        dbProject.Title,
				Description:  dbProject.Description,
				URL:          dbProject.URL,
				CoverImage:   dbProject.CoverImage,
				Earned:       dbProject.Earned,
				TimeTaken:    dbProject.TimeTaken,
			})
			return nil
		})
	})
	return projects, err
}

// UpsertChat saves chat struct to the database. Read cursors of an existing
// record are preserved, they are not part of the models.Chat surface.
func (s *BboltStorage) UpsertChat(chat models.Chat) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketChats)
		dbChat := chatToDB(chat)
		if prev := b.Get(dbChat.Key()); prev != nil {
			var prevChat DBChat
			if err := prevChat.UnmarshalBinary(prev); err == nil {
				dbChat.LastRead = prevChat.LastRead
			}
		}
		data, err := dbChat.MarshalBinary()
		if err != nil {
			return err
		}
		return b.Put(dbChat.Key(), data)
	})
}

// MarkChatRead moves the user's read cursor to the current chat LastSeq.
func (s *BboltStorage) MarkChatRead(chatID, userID string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketChats)
		data := b.Get([]byte(chatID))
		if data == nil {
			return models.ErrNotFound
		}
		var dbChat DBChat
		if err := dbChat.UnmarshalBinary(data); err != nil {
			return err
		}
		if dbChat.LastRead == nil {
			dbChat.LastRead = make(map[string]int64)
		}
		dbChat.LastRead[userID] = dbChat.LastSeq
		updated, err := dbChat.MarshalBinary()
		if err != nil {
			return err
		}
		return b.Put([]byte(chatID), updated)
	})
}

// UnreadCount returns how many messages past the user's read cursor the chat
// holds.
func (s *BboltStorage) UnreadCount(chatID, userID string) (int64, error) {
	var unread int64
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketChats)
		data := b.Get([]byte(chatID))
		if data == nil {
			return models.ErrNotFound
		}
		var dbChat DBChat
		if err := dbChat.UnmarshalBinary(data); err != nil {
			return err
		}
		unread = dbChat.LastSeq - dbChat.LastRead[userID]
		if unread < 0 {
			unread = 0
		}
		return nil
	})
	return unread, err
}

// GetChat returns the chat with the given id.
func (s *BboltStorage) GetChat(id string) (models.Chat, error) {
	var chat models.Chat
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketChats)
		data := b.Get([]byte(id))
		if data == nil {
			return models.ErrNotFound
		}
		var dbChat DBChat
		if err := dbChat.UnmarshalBinary(data); err != nil {
			return err
		}
		chat = chatFromDB(dbChat)
		return nil
	})
	return chat, err
}

// ListChats returns all chats where userID is a participant.
// Chats with deleted status are skipped.
func (s *BboltStorage) ListChats(userID string) ([]models.Chat, error) {
	var chats []models.Chat
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketChats)
		return b.ForEach(func(k, v []byte) error {
			var dbChat DBChat
			if err := dbChat.UnmarshalBinary(v); err != nil {
				return err
			}
			if dbChat.Status == string(models.ChatStatusDeleted) {
				return nil
			}
			chat := chatFromDB(dbChat)
			if !chat.IsParticipant(userID) {
				return nil
			}
			chats = append(chats, chat)
			return nil
		})
	})
	return chats, err
}

// FindChat returns the non-deleted chat between the two users, if any.
func (s *BboltStorage) FindChat(userA, userB string) (models.Chat, error) {
	var chat models.Chat
	found := false
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketChats)
		return b.ForEach(func(k, v []byte) error {
			if found {
				return nil
			}
			var dbChat DBChat
			if err := dbChat.UnmarshalBinary(v); err != nil {
				return err
			}
			if dbChat.Status == string(models.ChatStatusDeleted) {
				return nil
			}
			c := chatFromDB(dbChat)
			if c.IsParticipant(userA) && c.IsParticipant(userB) {
				chat = c
				found = true
			}
			return nil
		})
	})
	if err != nil {
		return models.Chat{}, err
	}
	if !found {
		return models.Chat{}, models.ErrNotFound
	}
	return chat, nil
}

// AppendMessage assigns the next sequence number in the chat, saves the
// message and updates the chat LastSeq and LastMessageAt in the same
// transaction. The stored message is returned with its id and seq set.
func (s *BboltStorage) AppendMessage(message models.Message) (models.Message, error) {
	if message.ChatID == "" {
		return models.Message{}, errors.New("message missing chatID")
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		chatsBucket := tx.Bucket(bucketChats)
		chatKey := []byte(message.ChatID)
		chatData := chatsBucket.Get(chatKey)
		if chatData == nil {
			return fmt.Errorf("chat %s not found for message append: %w", message.ChatID, models.ErrNotFound)
		}

		var dbChat DBChat
		if err := dbChat.UnmarshalBinary(chatData); err != nil {
			return fmt.Errorf("failed to unmarshal chat: %w", err)
		}

		dbChat.LastSeq++
		message.Seq = dbChat.LastSeq
		dbChat.LastMessageAt = message.CreatedAt.UnixMilli()

		mainMsgBucket := tx.Bucket(bucketMessages)
		chatBucket, err := mainMsgBucket.CreateBucketIfNotExists(chatKey)
		if err != nil {
			return fmt.Errorf("failed to create chat bucket: %w", err)
		}

		dbMessage := DBMessage{
			ID:          message.ID,
			Seq:         message.Seq,
			ChatID:      message.ChatID,
			SenderID:    message.SenderID,
			Content:     message.Content,
			ContentType: message.ContentType,
			IsFlagged:   message.IsFlagged,
			FlagReason:  message.FlagReason,
			IsDeleted:   message.IsDeleted,
			CreatedAt:   message.CreatedAt.UnixMilli(),
		}

		data, err := dbMessage.MarshalBinary()
		if err != nil {
			return fmt.Errorf("failed to marshal message: %w", err)
		}
		if err := chatBucket.Put(dbMessage.Key(), data); err != nil {
			return fmt.Errorf("failed to put message: %w", err)
		}

		newChatData, err := dbChat.MarshalBinary()
		if err != nil {
			return err
		}
		return chatsBucket.Put(chatKey, newChatData)
	})
	if err != nil {
		return models.Message{}, err
	}
	return message, nil
}

// ListMessagesPage returns one page of chat messages ordered newest first.
// Page numbers start at 1. Deleted messages are skipped before paging.
func (s *BboltStorage) ListMessagesPage(chatID string, page, size int) ([]models.Message, error) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 50
	}

	var messages []models.Message
	err := s.db.View(func(tx *bbolt.Tx) error {
		mainMsgBucket := tx.Bucket(bucketMessages)
		chatBucket := mainMsgBucket.Bucket([]byte(chatID))
		if chatBucket == nil {
			return nil
		}

		skip := (page - 1) * size
		c := chatBucket.Cursor()
		for k, v := c.Last(); k != nil && len(messages) < size; k, v = c.Prev() {
			var dbMsg DBMessage
			if err := dbMsg.UnmarshalBinary(v); err != nil {
				return err
			}
			if dbMsg.IsDeleted {
				continue
			}
			if skip > 0 {
				skip--
				continue
			}
			messages = append(messages, messageFromDB(dbMsg))
		}
		return nil
	})
	return messages, err
}

// ListFlaggedMessages returns all messages caught by the content filter,
// across every chat.
func (s *BboltStorage) ListFlaggedMessages() ([]models.Message, error) {
	var messages []models.Message
	err := s.db.View(func(tx *bbolt.Tx) error {
		mainMsgBucket := tx.Bucket(bucketMessages)
		return mainMsgBucket.ForEachBucket(func(name []byte) error {
			chatBucket := mainMsgBucket.Bucket(name)
			return chatBucket.ForEach(func(k, v []byte) error {
				var dbMsg DBMessage
				if err := dbMsg.UnmarshalBinary(v); err != nil {
					return err
				}
				if dbMsg.IsFlagged && !dbMsg.IsDeleted {
					messages = append(messages, messageFromDB(dbMsg))
				}
				return nil
			})
		})
	})
	return messages, err
}

// SearchMessages scans a chat newest first for messages containing the query,
// case insensitive, up to limit results.
func (s *BboltStorage) SearchMessages(chatID, query string, limit int) ([]models.Message, error) {
	if limit < 1 {
		limit = 50
	}
	needle := strings.ToLower(query)
	var messages []models.Message
	err := s.db.View(func(tx *bbolt.Tx) error {
		mainMsgBucket := tx.Bucket(bucketMessages)
		chatBucket := mainMsgBucket.Bucket([]byte(chatID))
		if chatBucket == nil {
			return nil
		}
		c := chatBucket.Cursor()
		for k, v := c.Last(); k != nil && len(messages) < limit; k, v = c.Prev() {
			var dbMsg DBMessage
			if err := dbMsg.UnmarshalBinary(v); err != nil {
				return err
			}
			if dbMsg.IsDeleted {
				continue
			}
			if strings.Contains(strings.ToLower(dbMsg.Content), needle) {
				messages = append(messages, messageFromDB(dbMsg))
			}
		}
		return nil
	})
	return messages, err
}

// MarkMessageDeleted soft deletes a single message in a chat.
func (s *BboltStorage) MarkMessageDeleted(chatID string, seq int64) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		mainMsgBucket := tx.Bucket(bucketMessages)
		chatBucket := mainMsgBucket.Bucket([]byte(chatID))
		if chatBucket == nil {
			return models.ErrNotFound
		}
		key := (&DBMessage{Seq: seq}).Key()
		data := chatBucket.Get(key)
		if data == nil {
			return models.ErrNotFound
		}
		var dbMsg DBMessage
		if err := dbMsg.UnmarshalBinary(data); err != nil {
			return err
		}
		dbMsg.IsDeleted = true
		newData, err := dbMsg.MarshalBinary()
		if err != nil {
			return err
		}
		return chatBucket.Put(key, newData)
	})
}

// UpsertPayment saves a payment record to the database.
func (s *BboltStorage) UpsertPayment(payment models.Payment) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketPayments)
		dbPayment := &DBPayment{
			ID:          payment.ID,
			UserID:      payment.UserID,
			AmountCents: payment.AmountCents,
			Currency:    payment.Currency,
			Status:      string(payment.Status),
			Description: payment.Description,
			CreatedAt:   payment.CreatedAt,
			PaidAt:      payment.PaidAt,
			FailedAt:    payment.FailedAt,
		}
		data, err := dbPayment.MarshalBinary()
		if err != nil {
			return err
		}
		return b.Put(dbPayment.Key(), data)
	})
}

// GetPayment returns a payment by id.
func (s *BboltStorage) GetPayment(id string) (models.Payment, error) {
	var payment models.Payment
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketPayments)
		data := b.Get([]byte(id))
		if data == nil {
			return models.ErrNotFound
		}
		var dbPayment DBPayment
		if err := dbPayment.UnmarshalBinary(data); err != nil {
			return err
		}
		payment = paymentFromDB(dbPayment)
		return nil
	})
	return payment, err
}

// ListPayments returns the payments of one user.
func (s *BboltStorage) ListPayments(userID string) ([]models.Payment, error) {
	var payments []models.Payment
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketPayments)
		return b.ForEach(func(k, v []byte) error {
			var dbPayment DBPayment
			if err := dbPayment.UnmarshalBinary(v); err != nil {
				return err
			}
			if dbPayment.UserID != userID {
				return nil
			}
			payments = append(payments, paymentFromDB(dbPayment))
			return nil
		})
	})
	return payments, err
}

// UpsertNotification saves a notification to the database.
func (s *BboltStorage) UpsertNotification(n models.Notification) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketNotifications)
		dbNotification := &DBNotification{
			ID:            n.ID,
			UserID:        n.UserID,
			Type:          string(n.Type),
			Title:         n.Title,
			Message:       n.Message,
			IsRead:        n.IsRead,
			RelatedChatID: n.RelatedChatID,
			CreatedAt:     n.CreatedAt,
		}
		data, err := dbNotification.MarshalBinary()
		if err != nil {
			return err
		}
		return b.Put(dbNotification.Key(), data)
	})
}

// ListNotifications returns the notifications of one user.
func (s *BboltStorage) ListNotifications(userID string) ([]models.Notification, error) {
	var notifications []models.Notification
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketNotifications)
		return b.ForEach(func(k, v []byte) error {
			var dbNotification DBNotification
			if err := dbNotification.UnmarshalBinary(v); err != nil {
				return err
			}
			if dbNotification.UserID != userID {
				return nil
			}
			notifications = append(notifications, models.Notification{
				ID:            dbNotification.ID,
				UserID:        dbNotification.UserID,
				Type:          models.NotificationType(dbNotification.Type),
				Title:         dbNotification.Title,
				Message:       dbNotification.Message,
				IsRead:        dbNotification.IsRead,
				RelatedChatID: dbNotification.RelatedChatID,
				CreatedAt:     dbNotification.CreatedAt,
			})
			return nil
		})
	})
	return notifications, err
}

// MarkNotificationRead flips the read flag on a notification.
func (s *BboltStorage) MarkNotificationRead(id string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketNotifications)
		data := b.Get([]byte(id))
		if data == nil {
			return models.ErrNotFound
		}
		var dbNotification DBNotification
		if err := dbNotification.UnmarshalBinary(data); err != nil {
			return err
		}
		dbNotification.IsRead = true
		newData, err := dbNotification.MarshalBinary()
		if err != nil {
			return err
		}
		return b.Put([]byte(id), newData)
	})
}

// UpsertSubscription stores one web-push subscription per user.
func (s *BboltStorage) UpsertSubscription(userID string, subscription []byte) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketSubscriptions)
		dbSub := &DBSubscription{
			UserID:       userID,
			Subscription: subscription,
			CreatedAt:    time.Now().UnixMilli(),
		}
		data, err := dbSub.MarshalBinary()
		if err != nil {
			return err
		}
		return b.Put(dbSub.Key(), data)
	})
}

func (s *BboltStorage) GetSubscription(userID string) ([]byte, error) {
	var subscription []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketSubscriptions)
		data := b.Get([]byte(userID))
		if data == nil {
			return models.ErrNotFound
		}
		var dbSub DBSubscription
		if err := dbSub.UnmarshalBinary(data); err != nil {
			return err
		}
		subscription = dbSub.Subscription
		return nil
	})
	return subscription, err
}

func (s *BboltStorage) DeleteSubscription(userID string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketSubscriptions)
		return b.Delete([]byte(userID))
	})
}

func freelancerToDB(profile models.FreelancerProfile) *DBFreelancer {
	return &DBFreelancer{
		ID:                profile.ID,
		UserID:            profile.UserID,
		Title:             profile.Title,
		Bio:               profile.Bio,
		HourlyRate:        profile.HourlyRate,
		DailyRate:         profile.DailyRate,
		YearsOfExperience: profile.YearsOfExperience,
		Skills:            profile.Skills,
		Technologies:      profile.Technologies,
		PortfolioURL:      profile.PortfolioURL,
		GithubURL:         profile.GithubURL,
		LinkedinURL:       profile.LinkedinURL,
		IsAvailable:       profile.IsAvailable,
		PreferredWorkType: profile.PreferredWorkType,
		Timezone:          profile.Timezone,
		IsVerified:        profile.IsVerified,
		Rating:            profile.Rating,
		TotalReviews:      profile.TotalReviews,
	}
}

func freelancerFromDB(dbFreelancer DBFreelancer) models.FreelancerProfile {
	return models.FreelancerProfile{
		ID:                dbFreelancer.ID,
		UserID:            dbFreelancer.UserID,
		Title:             dbFreelancer.Title,
		Bio:               dbFreelancer.Bio,
		HourlyRate:        dbFreelancer.HourlyRate,
		DailyRate:         dbFreelancer.DailyRate,
		YearsOfExperience: dbFreelancer.YearsOfExperience,
		Skills:            dbFreelancer.Skills,
		Technologies:      dbFreelancer.Technologies,
		PortfolioURL:      dbFreelancer.PortfolioURL,
		GithubURL:         dbFreelancer.GithubURL,
		LinkedinURL:       dbFreelancer.LinkedinURL,
		IsAvailable:       dbFreelancer.IsAvailable,
		PreferredWorkType: dbFreelancer.PreferredWorkType,
		Timezone:          dbFreelancer.Timezone,
		IsVerified:        dbFreelancer.IsVerified,
		Rating:            dbFreelancer.Rating,
		TotalReviews:      dbFreelancer.TotalReviews,
	}
}

func chatToDB(chat models.Chat) *DBChat {
	return &DBChat{
		ID:                 chat.ID,
		InitiatorID:        chat.InitiatorID,
		ParticipantID:      chat.ParticipantID,
		Title:              chat.Title,
		ProjectTitle:       chat.ProjectTitle,
		ProjectDescription: chat.ProjectDescription,
		ProjectBudget:      chat.ProjectBudget,
		Status:             string(chat.Status),
		LastSeq:            chat.LastSeq,
		LastMessageAt:      chat.LastMessageAt,
		CreatedAt:          chat.CreatedAt,
	}
}

func chatFromDB(dbChat DBChat) models.Chat {
	return models.Chat{
		ID:                 dbChat.ID,
		InitiatorID:        dbChat.InitiatorID,
		ParticipantID:      dbChat.ParticipantID,
		Title:              dbChat.Title,
		ProjectTitle:       dbChat.ProjectTitle,
		ProjectDescription: dbChat.ProjectDescription,
		ProjectBudget:      dbChat.ProjectBudget,
		Status:             models.ChatStatus(dbChat.Status),
		LastSeq:            dbChat.LastSeq,
		LastMessageAt:      dbChat.LastMessageAt,
		CreatedAt:          dbChat.CreatedAt,
	}
}

func messageFromDB(dbMsg DBMessage) models.Message {
	return models.Message{
		ID:          dbMsg.ID,
		Seq:         dbMsg.Seq,
		ChatID:      dbMsg.ChatID,
		SenderID:    dbMsg.SenderID,
		Content:     dbMsg.Content,
		ContentType: dbMsg.ContentType,
		IsFlagged:   dbMsg.IsFlagged,
		FlagReason:  dbMsg.FlagReason,
		IsDeleted:   dbMsg.IsDeleted,
		CreatedAt:   time.UnixMilli(dbMsg.CreatedAt),
	}
}

func paymentFromDB(dbPayment DBPayment) models.Payment {
	return models.Payment{
		ID:          dbPayment.ID,
		UserID:      dbPayment.UserID,
		AmountCents: dbPayment.AmountCents,
		Currency:    dbPayment.Currency,
		Status:      models.PaymentStatus(dbPayment.Status),
		Description: dbPayment.Description,
		CreatedAt:   dbPayment.CreatedAt,
		PaidAt:      dbPayment.PaidAt,
		FailedAt:    dbPayment.FailedAt,
	}
}
