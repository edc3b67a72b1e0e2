package storage

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"repairdesk/backend/internal/models"

	_ "github.com/lib/pq" // registers the "postgres" database/sql driver
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Storage interface {
	GetUserByID(ctx context.Context, id uint) (*models.User, error)
	GetUsersByIDs(ctx context.Context, ids []uint) ([]models.User, error)
	ListUsersByRole(ctx context.Context, role models.Role) ([]models.User, error)
	SaveUser(ctx context.Context, user *models.User) error

	SaveMessage(ctx context.Context, msg *models.ChatMessage) error
	GetMessageByID(ctx context.Context, id uint) (*models.ChatMessage, error)
	MarkMessageRead(ctx context.Context, id, readerID uint) (bool, error)
	MarkConversationRead(ctx context.Context, readerID, counterpartID uint) ([]models.ChatMessage, error)

	GetConversation(ctx context.Context, userID, counterpartID uint, page models.Page) ([]models.ChatMessage, error)
	GetMessagesInvolving(ctx context.Context, userID uint) ([]models.ChatMessage, error)
	CountUnread(ctx context.Context, userID uint) (int64, error)
}

type Service struct {
	DB    *gorm.DB
	Redis *redis.Client
}

// NewStorageService Constructor. rdb may be nil; Redis-backed features then become no-ops.
func NewStorageService(db *gorm.DB, rdb *redis.Client) *Service {
	return &Service{
		DB:    db,
		Redis: rdb,
	}
}

// Open connects to PostgreSQL through the lib/pq driver and runs migrations.
func Open(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.New(postgres.Config{
		DriverName: "postgres",
		DSN:        dsn,
	}), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect PostgreSQL: %w", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.ChatMessage{}); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return db, nil
}

// GetUserByID returns nil, nil when the user does not exist.
func (s *Service) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := s.DB.WithContext(ctx).First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		log.Printf("ERROR: Failed to load user %d: %v", id, err)
		return nil, err
	}
	return &user, nil
}

func (s *Service) GetUsersByIDs(ctx context.Context, ids []uint) ([]models.User, error) {
	var users []models.User
	if len(ids) == 0 {
		return users, nil
	}
	if err := s.DB.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Service) ListUsersByRole(ctx context.Context, role models.Role) ([]models.User, error) {
	var users []models.User
	q := s.DB.WithContext(ctx).Order("id asc")
	if role != "" {
		q = q.Where("role = ?", role)
	}
	if err := q.Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Service) SaveUser(ctx context.Context, user *models.User) error {
	return s.DB.WithContext(ctx).Save(user).Error
}

// SaveMessage inserts msg and fills in its ID. A zero SentAt is set to the current UTC time.
func (s *Service) SaveMessage(ctx context.Context, msg *models.ChatMessage) error {
	if msg.SentAt.IsZero() {
		msg.SentAt = time.Now().UTC()
	}
	if err := s.DB.WithContext(ctx).Create(msg).Error; err != nil {
		log.Printf("ERROR: Failed to save message %d -> %d: %v", msg.SenderID, msg.ReceiverID, err)
		return err
	}
	return nil
}

// GetMessageByID returns nil, nil when the message does not exist.
func (s *Service) GetMessageByID(ctx context.Context, id uint) (*models.ChatMessage, error) {
	var msg models.ChatMessage
	err := s.DB.WithContext(ctx).First(&msg, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// MarkMessageRead flips is_read for one message addressed to readerID. It reports
// whether a row actually changed, so repeated calls are no-ops.
func (s *Service) MarkMessageRead(ctx context.Context, id, readerID uint) (bool, error) {
	res := s.DB.WithContext(ctx).Model(&models.ChatMessage{}).
		Where("id = ? AND receiver_id = ? AND is_read = ?", id, readerID, false).
		Update("is_read", true)
	if res.Error != nil {
		log.Printf("ERROR: Failed to mark message %d read: %v", id, res.Error)
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// MarkConversationRead marks every unread message from counterpartID to readerID
// as read and returns the messages it changed, in id order.
func (s *Service) MarkConversationRead(ctx context.Context, readerID, counterpartID uint) ([]models.ChatMessage, error) {
	var flipped []models.ChatMessage
	err := s.DB.WithContext(ctx).Model(&flipped).
		Clauses(clause.Returning{}).
		Where("sender_id = ? AND receiver_id = ? AND is_read = ?", counterpartID, readerID, false).
		Update("is_read", true).Error
	if err != nil {
		return nil, fmt.Errorf("mark conversation %d<-%d read: %w", readerID, counterpartID, err)
	}
	sort.Slice(flipped, func(i, j int) bool { return flipped[i].ID < flipped[j].ID })
	return flipped, nil
}

// GetConversation returns one page of the conversation between two users, oldest first.
// The page holds the newest page.Limit messages with an ID below page.BeforeID.
func (s *Service) GetConversation(ctx context.Context, userID, counterpartID uint, page models.Page) ([]models.ChatMessage, error) {
	var msgs []models.ChatMessage
	q := s.DB.WithContext(ctx).
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
			userID, counterpartID, counterpartID, userID)
	if page.BeforeID > 0 {
		q = q.Where("id < ?", page.BeforeID)
	}
	// The cursor is an id, so the page is cut in id order too.
	if err := q.Order("id desc").Limit(page.Limit).Find(&msgs).Error; err != nil {
		log.Printf("ERROR: Failed to get conversation %d<->%d: %v", userID, counterpartID, err)
		return nil, err
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

// GetMessagesInvolving returns every message sent or received by userID, newest first.
func (s *Service) GetMessagesInvolving(ctx context.Context, userID uint) ([]models.ChatMessage, error) {
	var msgs []models.ChatMessage
	if err := s.DB.WithContext(ctx).
		Where("sender_id = ? OR receiver_id = ?", userID, userID).
		Order("sent_at desc").Order("id desc").
		Find(&msgs).Error; err != nil {
		return nil, err
	}
	return msgs, nil
}

func (s *Service) CountUnread(ctx context.Context, userID uint) (int64, error) {
	var n int64
	err := s.DB.WithContext(ctx).Model(&models.ChatMessage{}).
		Where("receiver_id = ? AND is_read = ?", userID, false).
		Count(&n).Error
	return n, err
}

// CountUnreadFrom counts what senderID sent to receiverID that is still unread.
func (s *Service) CountUnreadFrom(ctx context.Context, receiverID, senderID uint) (int64, error) {
	var n int64
	err := s.DB.WithContext(ctx).Model(&models.ChatMessage{}).
		Where("receiver_id = ? AND sender_id = ? AND is_read = ?", receiverID, senderID, false).
		Count(&n).Error
	return n, err
}
