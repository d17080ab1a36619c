package events

import (
	"context"
	"encoding/json"
	"fmt"

	"neurohire/pipeline/internal/models"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Channel carrying every application's progress events; per-application
// channels exist so a client can subscribe to just its own.
const ProgressChannel = "application_progress"

// ProgressPublisher pushes progress updates over Redis pub/sub after each
// terminal stage transition. Push is an optimization only: the poll endpoint
// stays authoritative for reconnecting clients, so publish failures are
// logged and swallowed.
type ProgressPublisher struct {
	rdb    *redis.Client
	logger *zap.Logger
}

func NewProgressPublisher(rdb *redis.Client, logger *zap.Logger) *ProgressPublisher {
	return &ProgressPublisher{rdb: rdb, logger: logger}
}

func (p *ProgressPublisher) PublishProgress(ctx context.Context, progress models.Progress) {
	payload, err := json.Marshal(progress)
	if err != nil {
		p.logger.Error("Failed to encode progress event", zap.Error(err))
		return
	}

	for _, channel := range []string{
		ProgressChannel,
		fmt.Sprintf("%s:%d", ProgressChannel, progress.ApplicationID),
	} {
		if err := p.rdb.Publish(ctx, channel, payload).Err(); err != nil {
			p.logger.Warn("Failed to publish progress event",
				zap.String("channel", channel),
				zap.Uint("application_id", progress.ApplicationID),
				zap.Error(err))
		}
	}
}
