package service

import (
	"session_tracker_backend/internal/model"
	"session_tracker_backend/internal/repository"
	"session_tracker_backend/internal/util"
)

type NotificationService struct {
	NotificationRepo *repository.NotificationRepository
}

func NewNotificationService(notificationRepo *repository.NotificationRepository) *NotificationService {
	return &NotificationService{NotificationRepo: notificationRepo}
}

type NotificationList struct {
	Items       []model.Notification `json:"items"`
	UnreadCount int64                `json:"unreadCount"`
}

func (s *NotificationService) List(userID uint, unreadOnly bool, limit int) (*NotificationList, error) {
	items, err := s.NotificationRepo.List(userID, unreadOnly, limit)
	if err != nil {
		return nil, err
	}
	unread, err := s.NotificationRepo.UnreadCount(userID)
	if err != nil {
		return nil, err
	}
	return &NotificationList{Items: items, UnreadCount: unread}, nil
}

func (s *NotificationService) MarkRead(userID, notificationID uint) error {
	ok, err := s.NotificationRepo.MarkRead(notificationID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return util.ErrNotificationNotFound
	}
	return nil
}

func (s *NotificationService) MarkAllRead(userID uint) (int64, error) {
	return s.NotificationRepo.MarkAllRead(userID)
}

func (s *NotificationService) UnreadCount(userID uint) (int64, error) {
	return s.NotificationRepo.UnreadCount(userID)
}
