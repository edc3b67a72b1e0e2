package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strconv"
	"time"

	"repairdesk/backend/internal/config"
	"repairdesk/backend/internal/models"
	"repairdesk/backend/internal/storage"
)

const usage = `Usage: admin <command> [args]

Commands:
  users [role]                          list users, optionally only one role
  set-role <user_id> <Admin|Technician|Client>
  link-telegram <user_id> <chat_id>     0 unlinks
  unread <user_id> [from_user_id]       unread chat messages for a user, optionally from one sender
  online                                users currently connected (needs Redis)`

// adminStore is what the CLI needs from storage.Service.
type adminStore interface {
	storage.Storage
	CountUnreadFrom(ctx context.Context, receiverID, senderID uint) (int64, error)
	ListOnline(ctx context.Context) (map[uint]storage.OnlineEntry, error)
}

// cli runs one command against store and prints to out.
type cli struct {
	store adminStore
	out   io.Writer
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}

	// 1. Config
	dbCfg, redisCfg, err := config.LoadStores()
	if err != nil {
		log.Fatalf("%v", err)
	}

	// 2. PostgreSQL
	db, err := storage.Open(dbCfg.DSN())
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	// 3. Redis, only for commands that read the presence mirror
	var storageSvc *storage.Service
	if os.Args[1] == "online" {
		if !redisCfg.Enabled() {
			log.Fatalf("Error: REDIS_ADDR is not set; presence is only mirrored to Redis")
		}
		rdb, err := storage.NewRedisClient(redisCfg)
		if err != nil {
			log.Fatalf("failed to connect redis: %v", err)
		}
		storageSvc = storage.NewStorageService(db, rdb)
	} else {
		storageSvc = storage.NewStorageService(db, nil)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	c := &cli{store: storageSvc, out: os.Stdout}
	if err := c.run(ctx, os.Args[1], os.Args[2:]); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func (c *cli) run(ctx context.Context, command string, args []string) error {
	switch command {
	case "users":
		var role models.Role
		if len(args) > 0 {
			role = models.Role(args[0])
			if !role.Valid() {
				return fmt.Errorf("unknown role %q", args[0])
			}
		}
		return c.listUsers(ctx, role)

	case "set-role":
		if len(args) != 2 {
			return fmt.Errorf("usage: admin set-role <user_id> <Admin|Technician|Client>")
		}
		userID, err := parseUserID(args[0])
		if err != nil {
			return err
		}
		role := models.Role(args[1])
		if !role.Valid() {
			return fmt.Errorf("unknown role %q", args[1])
		}
		if err := c.setRole(ctx, userID, role); err != nil {
			return err
		}
		fmt.Fprintf(c.out, "User %d is now %s.\n", userID, role)

	case "link-telegram":
		if len(args) != 2 {
			return fmt.Errorf("usage: admin link-telegram <user_id> <chat_id>")
		}
		userID, err := parseUserID(args[0])
		if err != nil {
			return err
		}
		chatID, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid chat id %q", args[1])
		}
		if err := c.linkTelegram(ctx, userID, chatID); err != nil {
			return err
		}
		fmt.Fprintf(c.out, "Telegram link for user %d updated.\n", userID)

	case "unread":
		if len(args) < 1 || len(args) > 2 {
			return fmt.Errorf("usage: admin unread <user_id> [from_user_id]")
		}
		userID, err := parseUserID(args[0])
		if err != nil {
			return err
		}
		if len(args) == 2 {
			fromID, err := parseUserID(args[1])
			if err != nil {
				return err
			}
			n, err := c.store.CountUnreadFrom(ctx, userID, fromID)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "User %d has %d unread message(s) from user %d.\n", userID, n, fromID)
			return nil
		}
		n, err := c.store.CountUnread(ctx, userID)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "User %d has %d unread message(s).\n", userID, n)

	case "online":
		return c.listOnline(ctx)

	default:
		return fmt.Errorf("unknown command %q\n\n%s", command, usage)
	}
	return nil
}

func parseUserID(s string) (uint, error) {
	id, err := strconv.ParseUint(s, 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid user id %q", s)
	}
	return uint(id), nil
}

func (c *cli) loadUser(ctx context.Context, userID uint) (*models.User, error) {
	user, err := c.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("user %d not found", userID)
	}
	return user, nil
}

func (c *cli) setRole(ctx context.Context, userID uint, role models.Role) error {
	user, err := c.loadUser(ctx, userID)
	if err != nil {
		return err
	}
	user.Role = role
	return c.store.SaveUser(ctx, user)
}

func (c *cli) linkTelegram(ctx context.Context, userID uint, chatID int64) error {
	user, err := c.loadUser(ctx, userID)
	if err != nil {
		return err
	}
	if chatID == 0 {
		user.TelegramChatID = nil
	} else {
		user.TelegramChatID = &chatID
	}
	return c.store.SaveUser(ctx, user)
}

func (c *cli) listUsers(ctx context.Context, role models.Role) error {
	users, err := c.store.ListUsersByRole(ctx, role)
	if err != nil {
		return err
	}
	for _, u := range users {
		fmt.Fprintf(c.out, "%6d  %-10s  %-24s  %s\n", u.ID, u.Role, u.DisplayName(), u.Email)
	}
	return nil
}

func (c *cli) listOnline(ctx context.Context) error {
	online, err := c.store.ListOnline(ctx)
	if err != nil {
		return err
	}
	ids := make([]uint, 0, len(online))
	for id := range online {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		e := online[id]
		fmt.Fprintf(c.out, "%6d  %-10s  since %s  (%s)\n", id, e.Role, e.Since.Format(time.RFC3339), e.ConnID)
	}
	fmt.Fprintf(c.out, "%d user(s) online.\n", len(ids))
	return nil
}
