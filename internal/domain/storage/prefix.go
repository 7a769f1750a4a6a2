package storage

import "context"

// prefixed キーに接頭辞を付けるストレージ
type prefixed struct {
	inner  Storage
	prefix string
}

// WithPrefix キーを"<prefix>:<key>"に名前空間化したStorageを返す
func WithPrefix(s Storage, prefix string) Storage {
	if prefix == "" {
		return s
	}
	return &prefixed{inner: s, prefix: prefix + ":"}
}

func (p *prefixed) GetItem(ctx context.Context, key string) (string, error) {
	return p.inner.GetItem(ctx, p.prefix+key)
}

func (p *prefixed) SetItem(ctx context.Context, key, value string) error {
	return p.inner.SetItem(ctx, p.prefix+key, value)
}

func (p *prefixed) RemoveItem(ctx context.Context, key string) error {
	return p.inner.RemoveItem(ctx, p.prefix+key)
}

func (p *prefixed) HealthCheck(ctx context.Context) error {
	return p.inner.HealthCheck(ctx)
}

// RemoveItems 内側が一括削除に対応していれば委譲する
func (p *prefixed) RemoveItems(ctx context.Context, keys ...string) error {
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = p.prefix + k
	}
	return RemoveAll(ctx, p.inner, full...)
}

// RemoveAll 一括削除に対応していればまとめて、そうでなければ1件ずつ削除
func RemoveAll(ctx context.Context, s Storage, keys ...string) error {
	if br, ok := s.(BatchRemover); ok {
		return br.RemoveItems(ctx, keys...)
	}
	for _, k := range keys {
		if err := s.RemoveItem(ctx, k); err != nil {
			return err
		}
	}
	return nil
}
