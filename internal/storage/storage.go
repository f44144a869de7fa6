package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"boting/backend/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Storage is the persistence surface of the relay: lifecycle audit rows in
// the database and lifecycle notifications plus ban flags in Redis.
// No chat content ever reaches it.
type Storage interface {
	SaveRoomAudit(room *models.RoomAudit) error
	CloseRoomAudit(roomID string, at time.Time) error
	SaveSessionAudit(session *models.SessionAudit) error
	CloseSessionAudit(sessionID string, reason models.EndReason, at time.Time) error

	PublishLifecycle(evt models.LifecycleEvent) error

	IsUserBanned(anonID string) (bool, error)
}

// Service implements Storage. DB and Redis are both optional; operations
// on a missing backend succeed without doing anything.
type Service struct {
	DB      *gorm.DB
	Redis   *redis.Client
	Ctx     context.Context
	Channel string
}

// NewStorageService Constructor
func NewStorageService(db *gorm.DB, rdb *redis.Client, channel string) *Service {
	return &Service{
		DB:      db,
		Redis:   rdb,
		Ctx:     context.Background(),
		Channel: channel,
	}
}

// Migrate creates or updates the audit tables.
func (s *Service) Migrate() error {
	if s.DB == nil {
		return nil
	}
	if err := s.DB.AutoMigrate(&models.RoomAudit{}, &models.SessionAudit{}); err != nil {
		return fmt.Errorf("failed to migrate audit tables: %w", err)
	}
	return nil
}

// SaveRoomAudit stores a newly created room.
func (s *Service) SaveRoomAudit(room *models.RoomAudit) error {
	if s.DB == nil {
		return nil
	}
	return s.DB.Save(room).Error
}

// CloseRoomAudit marks a room as deleted.
func (s *Service) CloseRoomAudit(roomID string, at time.Time) error {
	if s.DB == nil {
		return nil
	}
	return s.DB.Model(&models.RoomAudit{}).
		Where("room_id = ?", roomID).
		Updates(map[string]interface{}{
			"is_active": false,
			"closed_at": at,
		}).Error
}

// SaveSessionAudit stores a newly started random session.
func (s *Service) SaveSessionAudit(session *models.SessionAudit) error {
	if s.DB == nil {
		return nil
	}
	return s.DB.Save(session).Error
}

// CloseSessionAudit marks a random session as ended with reason.
func (s *Service) CloseSessionAudit(sessionID string, reason models.EndReason, at time.Time) error {
	if s.DB == nil {
		return nil
	}
	return s.DB.Model(&models.SessionAudit{}).
		Where("session_id = ?", sessionID).
		Updates(map[string]interface{}{
			"is_active":  false,
			"ended_at":   at,
			"end_reason": string(reason),
		}).Error
}

// ListRooms returns the most recently created rooms first.
func (s *Service) ListRooms(limit int) ([]models.RoomAudit, error) {
	var rooms []models.RoomAudit
	if s.DB == nil {
		return rooms, nil
	}
	if err := s.DB.Order("created_at desc").Limit(limit).Find(&rooms).Error; err != nil {
		return nil, err
	}
	return rooms, nil
}

// ListSessions returns the most recently started sessions first.
func (s *Service) ListSessions(limit int) ([]models.SessionAudit, error) {
	var sessions []models.SessionAudit
	if s.DB == nil {
		return sessions, nil
	}
	if err := s.DB.Order("started_at desc").Limit(limit).Find(&sessions).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}

// PurgeBefore deletes closed audit rows that ended before cutoff and returns
// how many rows were removed.
func (s *Service) PurgeBefore(cutoff time.Time) (int64, error) {
	if s.DB == nil {
		return 0, nil
	}
	var total int64
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("is_active = ? AND closed_at < ?", false, cutoff).Delete(&models.RoomAudit{})
		if res.Error != nil {
			return res.Error
		}
		total += res.RowsAffected

		res = tx.Where("is_active = ? AND ended_at < ?", false, cutoff).Delete(&models.SessionAudit{})
		if res.Error != nil {
			return res.Error
		}
		total += res.RowsAffected
		return nil
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}

// PublishLifecycle publishes evt as JSON on the lifecycle channel.
func (s *Service) PublishLifecycle(evt models.LifecycleEvent) error {
	if s.Redis == nil || s.Channel == "" {
		return nil
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	return s.Redis.Publish(s.Ctx, s.Channel, payload).Err()
}

func banKey(anonID string) string {
	return "ban:" + anonID
}

// IsUserBanned checks the ban flag in Redis.
func (s *Service) IsUserBanned(anonID string) (bool, error) {
	if s.Redis == nil || anonID == "" {
		return false, nil
	}
	status, err := s.Redis.Get(s.Ctx, banKey(anonID)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return status != "", nil
}

// BanUser flags anonID. A zero duration bans permanently.
func (s *Service) BanUser(anonID string, duration time.Duration) error {
	if s.Redis == nil {
		return errors.New("redis is not configured")
	}
	if err := s.Redis.Set(s.Ctx, banKey(anonID), "banned", duration).Err(); err != nil {
		return err
	}
	log.Info().Str("module", "storage").Str("anon_id", anonID).Dur("duration", duration).Msg("user banned")
	return nil
}

// UnbanUser clears the ban flag of anonID.
func (s *Service) UnbanUser(anonID string) error {
	if s.Redis == nil {
		return errors.New("redis is not configured")
	}
	return s.Redis.Del(s.Ctx, banKey(anonID)).Err()
}
