package service

import (
	"context"
	"encoding/json"
	"fmt"

	"anoa.com/facultydir/internal/entity"
	notifRepo "anoa.com/facultydir/internal/modules/notification/repository"
	userRepo "anoa.com/facultydir/internal/modules/user/repository"
	"github.com/redis/go-redis/v9"
)

type NotificationService interface {
	CreateNotification(ctx context.Context, notification *entity.Notification) error
	// NotifyManagers fans one notification out to every manager account.
	NotifyManagers(ctx context.Context, notifType, message string) error
	GetNotifications(ctx context.Context, userID uint, limit, offset int) ([]entity.Notification, error)
	MarkAsRead(ctx context.Context, id uint) error
	MarkAllAsRead(ctx context.Context, userID uint) error
	UnreadCount(ctx context.Context, userID uint) (int64, error)
}

type notificationService struct {
	repo        notifRepo.NotificationRepository
	userRepo    userRepo.UserRepository
	redisClient *redis.Client
}

func NewNotificationService(repo notifRepo.NotificationRepository, users userRepo.UserRepository, redisClient *redis.Client) NotificationService {
	return &notificationService{
		repo:        repo,
		userRepo:    users,
		redisClient: redisClient,
	}
}

func (s *notificationService) CreateNotification(ctx context.Context, notification *entity.Notification) error {
	// 1. Save to DB
	if err := s.repo.Create(ctx, notification); err != nil {
		return err
	}

	// 2. Publish to Redis if Redis is available
	if s.redisClient != nil {
		channel := fmt.Sprintf("user_notifications:%d", notification.UserID)

		payload, err := json.Marshal(notification)
		if err == nil {
			s.redisClient.Publish(ctx, channel, payload)
		}
	}

	return nil
}

func (s *notificationService) NotifyManagers(ctx context.Context, notifType, message string) error {
	managers, err := s.userRepo.FindByRole(ctx, entity.RoleManager)
	if err != nil {
		return err
	}

	for _, manager := range managers {
		n := &entity.Notification{
			UserID:  manager.ID,
			Type:    notifType,
			Message: message,
		}
		if err := s.CreateNotification(ctx, n); err != nil {
			return err
		}
	}

	return nil
}

func (s *notificationService) GetNotifications(ctx context.Context, userID uint, limit, offset int) ([]entity.Notification, error) {
	return s.repo.GetByUserID(ctx, userID, limit, offset)
}

func (s *notificationService) MarkAsRead(ctx context.Context, id uint) error {
	return s.repo.MarkAsRead(ctx, id)
}

func (s *notificationService) MarkAllAsRead(ctx context.Context, userID uint) error {
	return s.repo.MarkAllAsRead(ctx, userID)
}

func (s *notificationService) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	return s.repo.CountUnread(ctx, userID)
}
