package ledger

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"probaho-server/internal/domain/ledger_event"
	otelinfra "probaho-server/internal/infrastructure/observability/otel"
	"probaho-server/internal/infrastructure/persistence/memory"
)

// testClock 呼び出しごとに1ミリ秒進む時計
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock(start time.Time) *testClock {
	return &testClock{now: start}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now
	c.now = c.now.Add(time.Millisecond)
	return t
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// faultyStore 書き込み・読み込みの失敗を切り替えられるStorage
type faultyStore struct {
	*memory.Store
	mu      sync.Mutex
	failSet bool
	failGet bool
	// failKey 一致するキーへの次の書き込みを1回だけ失敗させる
	failKey string
}

var errStorageDown = errors.New("storage unavailable")

func (f *faultyStore) setFailSet(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failSet = v
}

func (f *faultyStore) setFailGet(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failGet = v
}

func (f *faultyStore) failNextSet(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failKey = key
}

func (f *faultyStore) GetItem(ctx context.Context, key string) (string, error) {
	f.mu.Lock()
	fail := f.failGet
	f.mu.Unlock()
	if fail {
		return "", errStorageDown
	}
	return f.Store.GetItem(ctx, key)
}

func (f *faultyStore) SetItem(ctx context.Context, key, value string) error {
	f.mu.Lock()
	fail := f.failSet
	if f.failKey != "" && strings.HasSuffix(key, ":"+f.failKey) {
		fail = true
		f.failKey = ""
	}
	f.mu.Unlock()
	if fail {
		return errStorageDown
	}
	return f.Store.SetItem(ctx, key, value)
}

// spyPublisher 配信されたイベントを記録する
type spyPublisher struct {
	mu     sync.Mutex
	events []ledger_event.Event
	err    error
}

func (p *spyPublisher) Publish(_ context.Context, e ledger_event.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *spyPublisher) keys() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	keys := make([]string, len(p.events))
	for i, e := range p.events {
		keys[i] = e.Key
	}
	return keys
}

type fixture struct {
	store *faultyStore
	clock *testClock
	logs  *observer.ObservedLogs
	pub   *spyPublisher
	svc   *Service
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()

	core, logs := observer.New(zapcore.DebugLevel)
	logger := otelinfra.NewLoggerWithZap(noop.NewTracerProvider().Tracer("test"), zap.New(core))
	metrics, err := otelinfra.NewMetrics("test")
	if err != nil {
		t.Fatal(err)
	}

	f := &fixture{
		store: &faultyStore{Store: memory.NewStore()},
		clock: newTestClock(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)),
		logs:  logs,
		pub:   &spyPublisher{},
	}
	all := append([]Option{
		WithClock(f.clock.Now),
		WithLocation(time.UTC),
		WithPublisher(f.pub),
	}, opts...)
	f.svc = NewService("1", f.store, logger, metrics, all...)
	return f
}

// raw ストレージ上の生の値を返す（存在しなければ空文字）
func (f *fixture) raw(t *testing.T, key string) string {
	t.Helper()
	v, err := f.store.Store.GetItem(context.Background(), "1:"+key)
	if err != nil {
		return ""
	}
	return v
}
