// Package events shares a corpus version stamp through Redis so dashboards
// reload stored tables only after an ingestion run changed them.
package events

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/go-redis/redis/v8"

	"github.com/deusflow/newslens/internal/logger"
)

const (
	DefaultVersionKey = "newslens:corpus:version"
	DefaultChannel    = "newslens:corpus:updated"
)

// Connect opens a client for addr and checks it answers.
func Connect(ctx context.Context, addr string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", addr, err)
	}
	return rdb, nil
}

// Publisher bumps the version stamp after a table was saved.
type Publisher struct {
	rdb     *redis.Client
	key     string
	channel string
}

func NewPublisher(rdb *redis.Client) *Publisher {
	return &Publisher{rdb: rdb, key: DefaultVersionKey, channel: DefaultChannel}
}

// Publish increments the version and announces table on the update channel.
func (p *Publisher) Publish(ctx context.Context, table string) error {
	version, err := p.rdb.Incr(ctx, p.key).Result()
	if err != nil {
		return fmt.Errorf("failed to bump corpus version: %w", err)
	}
	if err := p.rdb.Publish(ctx, p.channel, table).Err(); err != nil {
		return fmt.Errorf("failed to announce %s: %w", table, err)
	}
	logger.Debug("corpus version bumped", "table", table, "version", version)
	return nil
}

// Watcher remembers the last version a reader saw.
type Watcher struct {
	rdb  *redis.Client
	key  string
	mu   sync.Mutex
	seen string
	init bool
}

func NewWatcher(rdb *redis.Client) *Watcher {
	return &Watcher{rdb: rdb, key: DefaultVersionKey}
}

// Changed reports whether the version moved since the previous call.
// The first call always reports true.
func (w *Watcher) Changed(ctx context.Context) (bool, error) {
	current, err := w.rdb.Get(ctx, w.key).Result()
	if errors.Is(err, redis.Nil) {
		current, err = "", nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read corpus version: %w", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.init && current == w.seen {
		return false, nil
	}
	w.seen, w.init = current, true
	return true, nil
}

// Subscribe delivers the table names announced by Publish until ctx ends.
func Subscribe(ctx context.Context, rdb *redis.Client) <-chan string {
	sub := rdb.Subscribe(ctx, DefaultChannel)
	out := make(chan string)
	go func() {
		defer close(out)
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				select {
				case out <- msg.Payload:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}
