package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/bitfantasy/procure/internal/procure/entity"
	"github.com/bitfantasy/procure/internal/procure/repository"
	"github.com/bitfantasy/procure/internal/procure/workflow"
	"github.com/bitfantasy/procure/internal/sse"
	"go.uber.org/zap"
)

// Notifier 领域事件的消费入口。核心只保证每次成功流转恰好发布一次，
// 送达与否由通知协作方自己负责。
type Notifier interface {
	Publish(ctx context.Context, event workflow.Event, recipientIDs []string)
}

// NotificationService 通知服务：事件落库（收件箱）并经SSE实时推送
type NotificationService struct {
	notificationRepo *repository.NotificationRepository
	hub              *sse.Hub
	logger           *zap.Logger
}

func NewNotificationService(notificationRepo *repository.NotificationRepository, hub *sse.Hub, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		notificationRepo: notificationRepo,
		hub:              hub,
		logger:           logger,
	}
}

// Publish 发布领域事件：每个接收人写一条收件箱记录，同时SSE广播
func (s *NotificationService) Publish(ctx context.Context, event workflow.Event, recipientIDs []string) {
	payload := toJSONB(event)
	title := eventTitle(event)

	for _, recipientID := range recipientIDs {
		if recipientID == "" {
			continue
		}
		n := &entity.Notification{
			RecipientID: recipientID,
			Type:        event.Type(),
			Title:       title,
			Payload:     payload,
		}
		if err := s.notificationRepo.Create(ctx, n); err != nil {
			s.logger.Error("Failed to persist notification",
				zap.String("type", event.Type()),
				zap.String("recipient", recipientID),
				zap.Error(err))
		}
	}

	if s.hub != nil {
		s.hub.PublishJSON(event.Type(), event)
	}

	s.logger.Info("Domain event published",
		zap.String("type", event.Type()),
		zap.String("pr_id", event.PR()),
		zap.Int("recipients", len(recipientIDs)))
}

// ListNotifications 查询用户通知
func (s *NotificationService) ListNotifications(ctx context.Context, recipientID string, unreadOnly bool, page, pageSize int) ([]entity.Notification, int64, error) {
	return s.notificationRepo.FindByRecipient(ctx, recipientID, unreadOnly, page, pageSize)
}

// MarkRead 标记通知已读
func (s *NotificationService) MarkRead(ctx context.Context, recipientID, notificationID string) error {
	return s.notificationRepo.MarkRead(ctx, recipientID, notificationID)
}

// MarkAllRead 全部标记已读
func (s *NotificationService) MarkAllRead(ctx context.Context, recipientID string) error {
	return s.notificationRepo.MarkAllRead(ctx, recipientID)
}

func toJSONB(event workflow.Event) entity.JSONB {
	raw, err := json.Marshal(event)
	if err != nil {
		return entity.JSONB{"type": event.Type(), "pr_id": event.PR()}
	}
	var payload entity.JSONB
	if err := json.Unmarshal(raw, &payload); err != nil {
		return entity.JSONB{"type": event.Type(), "pr_id": event.PR()}
	}
	return payload
}

func eventTitle(event workflow.Event) string {
	switch e := event.(type) {
	case workflow.StatusChanged:
		return fmt.Sprintf("采购申请 %s: %s → %s", e.PRNumber, e.From, e.To)
	case workflow.PRAssigned:
		return fmt.Sprintf("采购申请 %s 已分派", e.PRNumber)
	case workflow.SupplierSelected:
		return fmt.Sprintf("采购申请 %s 已定标", e.PRNumber)
	case workflow.BudgetExceptionRaised:
		return fmt.Sprintf("采购申请 %s 超预算待审", e.PRNumber)
	default:
		return event.Type()
	}
}
