package util

import (
	"errors"

	"session_tracker_backend/internal/stats"
)

var (
	ErrUserNotFound         = errors.New("用户不存在")
	ErrSessionNotFound      = errors.New("session not found")
	ErrSessionClosed        = errors.New("session already ended")
	ErrInvalidPeriod        = stats.ErrInvalidPeriod
	ErrInvalidIntensity     = errors.New("intensity must be between 1 and 10")
	ErrInvalidMood          = errors.New("mood must be one of energized, focused, relaxed, stressed")
	ErrUnknownSetting       = errors.New("unknown setting")
	ErrNotificationNotFound = errors.New("notification not found")
)
