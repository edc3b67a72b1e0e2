package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"repairdesk/backend/internal/models"
)

// OnlineKey is the Redis hash mirroring the in-process presence registry.
const OnlineKey = "chat:online"

// OnlineEntry is the value stored per user in OnlineKey.
type OnlineEntry struct {
	ConnID string      `json:"connId"`
	Role   models.Role `json:"role"`
	Since  time.Time   `json:"since"`
}

// MarkOnline records a live connection in Redis. It is a no-op without Redis.
func (s *Service) MarkOnline(ctx context.Context, userID uint, entry OnlineEntry) error {
	if s.Redis == nil {
		return nil
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return s.Redis.HSet(ctx, OnlineKey, strconv.FormatUint(uint64(userID), 10), data).Err()
}

// MarkOffline removes userID from the Redis mirror.
func (s *Service) MarkOffline(ctx context.Context, userID uint) error {
	if s.Redis == nil {
		return nil
	}
	return s.Redis.HDel(ctx, OnlineKey, strconv.FormatUint(uint64(userID), 10)).Err()
}

// ResetOnline drops the whole mirror. Presence does not survive a restart, so the
// server calls this once at boot.
func (s *Service) ResetOnline(ctx context.Context) error {
	if s.Redis == nil {
		return nil
	}
	return s.Redis.Del(ctx, OnlineKey).Err()
}

// ListOnline reads the mirror, keyed by user id.
func (s *Service) ListOnline(ctx context.Context) (map[uint]OnlineEntry, error) {
	out := make(map[uint]OnlineEntry)
	if s.Redis == nil {
		return out, nil
	}
	raw, err := s.Redis.HGetAll(ctx, OnlineKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch online users for key %s: %w", OnlineKey, err)
	}
	for field, value := range raw {
		id, err := strconv.ParseUint(field, 10, 64)
		if err != nil {
			continue
		}
		var entry OnlineEntry
		if err := json.Unmarshal([]byte(value), &entry); err != nil {
			continue
		}
		out[uint(id)] = entry
	}
	return out, nil
}
