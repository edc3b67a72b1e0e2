// Package limiter implements a Redis fixed-window counter used to throttle chat sends.
package limiter

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// INCR and EXPIRE run atomically; the window starts with the first hit.
const fixedWindowScript = `
local current = redis.call("INCR", KEYS[1])
if current == 1 then
	redis.call("EXPIRE", KEYS[1], ARGV[2])
end
if current > tonumber(ARGV[1]) then
	return 0
end
return 1
`

var fixedWindow = redis.NewScript(fixedWindowScript)

// FixedWindow allows Limit hits per key within Window.
type FixedWindow struct {
	rdb    *redis.Client
	Limit  int
	Window time.Duration
	Prefix string
}

// NewFixedWindow returns nil when limit is zero or rdb is nil, meaning "no limiting".
func NewFixedWindow(rdb *redis.Client, prefix string, limit int, window time.Duration) *FixedWindow {
	if rdb == nil || limit <= 0 {
		return nil
	}
	return &FixedWindow{rdb: rdb, Limit: limit, Window: window, Prefix: prefix}
}

// Key builds the Redis key for a subject.
func (l *FixedWindow) Key(subject uint) string {
	return fmt.Sprintf("%s:%d", l.Prefix, subject)
}

// Allow counts one hit for subject and reports whether it is within the limit.
func (l *FixedWindow) Allow(ctx context.Context, subject uint) (bool, error) {
	seconds := int(l.Window / time.Second)
	if seconds < 1 {
		seconds = 1
	}
	res, err := fixedWindow.Run(ctx, l.rdb, []string{l.Key(subject)}, l.Limit, seconds).Int()
	if err != nil {
		return false, err
	}
	return res == 1, nil
}
