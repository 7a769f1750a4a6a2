package profile

import (
	"encoding/json"
	"fmt"

	"probaho-server/internal/domain/schema"
)

// Theme 画面テーマ
type Theme string

const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"
)

// Language 表示言語
type Language string

const (
	LanguageEnglish Language = "en"
	LanguageBangla  Language = "bn"
)

// NotificationSettings 通知設定
type NotificationSettings struct {
	SMS               bool `json:"sms"`
	Email             bool `json:"email"`
	Push              bool `json:"push"`
	TransactionAlerts bool `json:"transactionAlerts"`
	LowBalanceAlerts  bool `json:"lowBalanceAlerts"`
}

// Settings アプリ設定
type Settings struct {
	Theme         Theme                `json:"theme"`
	Language      Language             `json:"language"`
	Currency      string               `json:"currency"`
	Notifications NotificationSettings `json:"notifications"`
}

// DefaultSettings 初期設定を返す
func DefaultSettings() Settings {
	return Settings{
		Theme:    ThemeSystem,
		Language: LanguageEnglish,
		Currency: "BDT",
		Notifications: NotificationSettings{
			SMS:               true,
			Email:             false,
			Push:              true,
			TransactionAlerts: true,
			LowBalanceAlerts:  true,
		},
	}
}

// Validate 設定値を検証
func (s Settings) Validate() error {
	switch s.Theme {
	case ThemeLight, ThemeDark, ThemeSystem:
	default:
		return fmt.Errorf("%w: theme %q", ErrInvalidSettings, s.Theme)
	}
	switch s.Language {
	case LanguageEnglish, LanguageBangla:
	default:
		return fmt.Errorf("%w: language %q", ErrInvalidSettings, s.Language)
	}
	if s.Currency != "BDT" {
		return fmt.Errorf("%w: currency %q", ErrInvalidSettings, s.Currency)
	}
	return nil
}

// EncodeSettings 保存形式に変換
func EncodeSettings(s Settings) ([]byte, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(s)
}

// DecodeSettings 保存形式から検証付きで復元
func DecodeSettings(data []byte) (Settings, error) {
	o, err := schema.ParseObject(data)
	if err != nil {
		return Settings{}, fmt.Errorf("%w: %w", ErrInvalidSettings, err)
	}
	s, err := decodeSettings(o)
	if err != nil {
		return Settings{}, fmt.Errorf("%w: %w", ErrInvalidSettings, err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

func decodeSettings(o schema.Object) (Settings, error) {
	var s Settings
	theme, err := o.String("theme")
	if err != nil {
		return s, err
	}
	language, err := o.String("language")
	if err != nil {
		return s, err
	}
	if s.Currency, err = o.String("currency"); err != nil {
		return s, err
	}
	n, err := o.Object("notifications")
	if err != nil {
		return s, err
	}
	s.Theme = Theme(theme)
	s.Language = Language(language)

	flags := []struct {
		key string
		dst *bool
	}{
		{"sms", &s.Notifications.SMS},
		{"email", &s.Notifications.Email},
		{"push", &s.Notifications.Push},
		{"transactionAlerts", &s.Notifications.TransactionAlerts},
		{"lowBalanceAlerts", &s.Notifications.LowBalanceAlerts},
	}
	for _, f := range flags {
		if *f.dst, err = n.Bool(f.key); err != nil {
			return s, err
		}
	}
	return s, nil
}
