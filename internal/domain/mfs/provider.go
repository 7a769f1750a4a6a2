package mfs

import (
	"fmt"
)

// Provider MFSプロバイダーを表す値オブジェクト
type Provider string

const (
	ProviderBkash  Provider = "bkash"  // bKash
	ProviderRocket Provider = "rocket" // Rocket
	ProviderNagad  Provider = "nagad"  // Nagad
	ProviderUpay   Provider = "upay"   // Upay
	ProviderTapp   Provider = "tapp"   // Tapp
	ProviderMyCash Provider = "mycash" // MyCash
)

// DefaultProvider 未指定時のプロバイダー
const DefaultProvider = ProviderBkash

var displayNames = map[Provider]string{
	ProviderBkash:  "bKash",
	ProviderRocket: "Rocket",
	ProviderNagad:  "Nagad",
	ProviderUpay:   "Upay",
	ProviderTapp:   "Tapp",
	ProviderMyCash: "MyCash",
}

// NewProvider 新しいProviderを作成
func NewProvider(s string) (Provider, error) {
	p := Provider(s)
	if !p.Valid() {
		return "", fmt.Errorf("%w: %s", ErrInvalidProvider, s)
	}
	return p, nil
}

// Providers 全プロバイダーを表示順に返す
func Providers() []Provider {
	return []Provider{ProviderBkash, ProviderRocket, ProviderNagad, ProviderUpay, ProviderTapp, ProviderMyCash}
}

// String 文字列表現を返す
func (p Provider) String() string {
	return string(p)
}

// Valid 有効なプロバイダーかどうかを返す
func (p Provider) Valid() bool {
	_, ok := displayNames[p]
	return ok
}

// DisplayName 表示名を返す（未知のプロバイダーはそのまま）
func (p Provider) DisplayName() string {
	if name, ok := displayNames[p]; ok {
		return name
	}
	return string(p)
}

// DisplayName 文字列のプロバイダー名から表示名を返す
func DisplayName(provider string) string {
	return Provider(provider).DisplayName()
}
