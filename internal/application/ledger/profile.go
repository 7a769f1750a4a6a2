package ledger

import (
	"context"
	"errors"
	"fmt"

	"probaho-server/internal/domain/profile"
	"probaho-server/internal/domain/storage"
)

// GetSettings 設定を返す（未保存・破損時は既定値）
func (s *Service) GetSettings(ctx context.Context) (profile.Settings, error) {
	settings := profile.DefaultSettings()
	err := s.withLock(ctx, func(b *batch) error {
		data, err := s.store.GetItem(ctx, storage.KeySettings.String())
		if err != nil {
			if errors.Is(err, storage.ErrItemNotFound) {
				return nil
			}
			return fmt.Errorf("failed to read settings: %w", err)
		}
		decoded, err := profile.DecodeSettings([]byte(data))
		if err != nil {
			s.logger.Warn(ctx, "Invalid settings data in storage, resetting", map[string]interface{}{
				"user_id": s.userID,
				"reason":  err.Error(),
			})
			s.clearKey(ctx, b, storage.KeySettings, nil)
			return nil
		}
		settings = decoded
		return nil
	})
	return settings, err
}

// SetSettings 設定を保存
func (s *Service) SetSettings(ctx context.Context, settings profile.Settings) error {
	data, err := profile.EncodeSettings(settings)
	if err != nil {
		return err
	}
	return s.withLock(ctx, func(b *batch) error {
		if err := s.store.SetItem(ctx, storage.KeySettings.String(), string(data)); err != nil {
			return fmt.Errorf("failed to save settings: %w", err)
		}
		b.add(storage.KeySettings, data)
		return nil
	})
}

// GetUser ユーザー情報を返す（未保存ならErrUserNotFound）
func (s *Service) GetUser(ctx context.Context) (profile.User, error) {
	var user profile.User
	err := s.withLock(ctx, func(b *batch) error {
		data, err := s.store.GetItem(ctx, storage.KeyUser.String())
		if err != nil {
			if errors.Is(err, storage.ErrItemNotFound) {
				return profile.ErrUserNotFound
			}
			return fmt.Errorf("failed to read user: %w", err)
		}
		decoded, err := profile.DecodeUser([]byte(data))
		if err != nil {
			s.logger.Warn(ctx, "Invalid user data in storage, resetting", map[string]interface{}{
				"user_id": s.userID,
				"reason":  err.Error(),
			})
			s.clearKey(ctx, b, storage.KeyUser, nil)
			return profile.ErrUserNotFound
		}
		user = decoded
		return nil
	})
	return user, err
}

// SetUser ユーザー情報を保存（IDは台帳のユーザーIDに揃える）
func (s *Service) SetUser(ctx context.Context, user profile.User) (profile.User, error) {
	user.ID = s.userID
	now := s.now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	data, err := profile.EncodeUser(user)
	if err != nil {
		return profile.User{}, err
	}
	err = s.withLock(ctx, func(b *batch) error {
		if err := s.store.SetItem(ctx, storage.KeyUser.String(), string(data)); err != nil {
			return fmt.Errorf("failed to save user: %w", err)
		}
		b.add(storage.KeyUser, data)
		return nil
	})
	if err != nil {
		return profile.User{}, err
	}
	return user, nil
}
