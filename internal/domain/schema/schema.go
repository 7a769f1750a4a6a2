// Package schema 保存済みJSONレコードを型検査付きで読み出す
package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TimeLayout 保存時のタイムスタンプ形式（ISO 8601、ミリ秒、UTC）
const TimeLayout = "2006-01-02T15:04:05.000Z07:00"

// ErrSchema スキーマ不一致エラー
var ErrSchema = errors.New("schema violation")

// Object JSONオブジェクトのフィールド
type Object map[string]json.RawMessage

// ParseObject JSONオブジェクトとして解析
func ParseObject(data []byte) (Object, error) {
	if kind(data) != '{' {
		return nil, fmt.Errorf("%w: expected object", ErrSchema)
	}
	var o Object
	if err := json.Unmarshal(data, &o); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchema, err)
	}
	return o, nil
}

// ParseArray JSON配列として解析
func ParseArray(data []byte) ([]json.RawMessage, error) {
	if kind(data) != '[' {
		return nil, fmt.Errorf("%w: expected array", ErrSchema)
	}
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchema, err)
	}
	return items, nil
}

// String 文字列フィールドを取得
func (o Object) String(key string) (string, error) {
	raw, ok := o[key]
	if !ok || kind(raw) != '"' {
		return "", fmt.Errorf("%w: %s must be a string", ErrSchema, key)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrSchema, key, err)
	}
	return s, nil
}

// OptionalString 省略可能な文字列フィールドを取得（未設定・nullはnil）
func (o Object) OptionalString(key string) (*string, error) {
	raw, ok := o[key]
	if !ok || kind(raw) == 'n' {
		return nil, nil
	}
	s, err := o.String(key)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Number 数値フィールドを取得
func (o Object) Number(key string) (decimal.Decimal, error) {
	raw, ok := o[key]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s must be a number", ErrSchema, key)
	}
	k := kind(raw)
	if k != '-' && (k < '0' || k > '9') {
		return decimal.Zero, fmt.Errorf("%w: %s must be a number", ErrSchema, key)
	}
	d, err := decimal.NewFromString(string(bytes.TrimSpace(raw)))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s: %v", ErrSchema, key, err)
	}
	return d, nil
}

// Bool 真偽値フィールドを取得
func (o Object) Bool(key string) (bool, error) {
	raw, ok := o[key]
	if !ok || (kind(raw) != 't' && kind(raw) != 'f') {
		return false, fmt.Errorf("%w: %s must be a boolean", ErrSchema, key)
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err != nil {
		return false, fmt.Errorf("%w: %s: %v", ErrSchema, key, err)
	}
	return b, nil
}

// Time ISO 8601文字列のタイムスタンプを取得
func (o Object) Time(key string) (time.Time, error) {
	s, err := o.String(key)
	if err != nil {
		return time.Time{}, err
	}
	t, err := ParseTime(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s: %v", ErrSchema, key, err)
	}
	return t, nil
}

// Object ネストしたオブジェクトを取得
func (o Object) Object(key string) (Object, error) {
	raw, ok := o[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s must be an object", ErrSchema, key)
	}
	nested, err := ParseObject(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	return nested, nil
}

// FormatTime 保存形式の文字列に変換
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// Normalize 保存形式で表せる精度（ミリ秒、UTC）に揃える
func Normalize(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}

// ParseTime 保存形式の文字列を解析
func ParseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

// NumberOf 数値をJSON数値として出力
func NumberOf(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}

// kind 先頭の非空白文字を返す
func kind(raw []byte) byte {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return 0
	}
	return trimmed[0]
}
