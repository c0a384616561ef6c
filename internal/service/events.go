package service

import (
	"context"
	"time"

	"github.com/Skotchmaster/shop_engine/internal/logging"
	"github.com/Skotchmaster/shop_engine/internal/mykafka"
)

const sideEffectTimeout = 5 * time.Second

// publish sends ev after the state change it describes has committed. Failures
// are logged and never reach the caller.
func publish(ctx context.Context, p mykafka.Publisher, topic, key, typ string, payload any) {
	if p == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sideEffectTimeout)
	defer cancel()

	if err := p.PublishEvent(ctx, topic, key, mykafka.NewEvent(typ, payload)); err != nil {
		logging.FromContext(ctx).Warn("publish_event_error", "topic", topic, "type", typ, "key", key, "error", err)
	}
}
