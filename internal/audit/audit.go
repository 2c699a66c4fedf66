package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/lawravasco2207/phone-store-sub001/internal/events"
	"github.com/lawravasco2207/phone-store-sub001/internal/logging"
	"github.com/lawravasco2207/phone-store-sub001/internal/models"
)

// Logger records who did what. Entries are written after the business
// transaction commits, so a lost entry never rolls an order back.
type Logger struct {
	DB       *gorm.DB
	Producer *events.Producer
}

func (l *Logger) Record(ctx context.Context, actorID uint, action, entity string, entityID uint, detail interface{}) {
	if l == nil || l.DB == nil {
		return
	}

	raw, err := json.Marshal(detail)
	if err != nil {
		raw = []byte(fmt.Sprintf("%v", detail))
	}

	row := models.AuditLog{
		ActorID:   actorID,
		Action:    action,
		Entity:    entity,
		EntityID:  entityID,
		Detail:    string(raw),
		CreatedAt: time.Now().Unix(),
	}
	if err := l.DB.WithContext(ctx).Create(&row).Error; err != nil {
		logging.FromContext(ctx).Error("audit write failed",
			slog.String("action", action), slog.Any("error", err))
		return
	}

	event := map[string]any{
		"type":      "audit",
		"actor_id":  actorID,
		"action":    action,
		"entity":    entity,
		"entity_id": entityID,
		"detail":    json.RawMessage(raw),
	}
	if err := l.Producer.PublishEvent(ctx, events.TopicAuditEvents, fmt.Sprint(actorID), event); err != nil {
		logging.FromContext(ctx).Error("audit publish failed",
			slog.String("action", action), slog.Any("error", err))
	}
}
