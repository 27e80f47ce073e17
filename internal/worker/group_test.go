package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shaiso/Conveyor/internal/channels"
	"github.com/shaiso/Conveyor/internal/routing"
)

// signalLayer сообщает о входе воркера в первый ReceiveMany:
// после закрытия entered воркер гарантированно прошёл проверку
// terminated и находится внутри блокирующего receive.
type signalLayer struct {
	channels.Layer
	once    sync.Once
	entered chan struct{}
}

func newSignalLayer(inner channels.Layer) *signalLayer {
	return &signalLayer{Layer: inner, entered: make(chan struct{})}
}

func (l *signalLayer) ReceiveMany(ctx context.Context, names []string, block bool) (string, channels.Message, error) {
	l.once.Do(func() { close(l.entered) })
	return l.Layer.ReceiveMany(ctx, names, block)
}

// idleMemLayer — слой с длинным receive timeout: блокировка receive
// не успевает истечь за время теста.
func idleMemLayer() *channels.InMemoryLayer {
	return channels.NewInMemoryLayer(channels.InMemoryConfig{
		ReceiveTimeout: 5 * time.Second,
	})
}

// startGroup запускает Run в горутине и возвращает канал результата.
func startGroup(g *Group) <-chan error {
	errCh := make(chan error, 1)
	go func() { errCh <- g.Run(context.Background()) }()
	return errCh
}

// awaitResult дожидается возврата Run с таймаутом.
func awaitResult(t *testing.T, errCh <-chan error) error {
	t.Helper()
	select {
	case err := <-errCh:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("worker group did not stop in time")
		return nil
	}
}

// assertQuiescent проверяет инвариант полного затишья группы.
func assertQuiescent(t *testing.T, g *Group) {
	t.Helper()
	g.Wait()
	for i, w := range g.Workers() {
		if w.InJob() {
			t.Errorf("worker %d: in_job must be false after shutdown", i)
		}
	}
}

func TestGroup_GracefulStopWhenMainIdle(t *testing.T) {
	routes := routing.NewTable()
	routes.Add("test", func(ctx context.Context, message channels.Message) error { return nil })

	layer := newSignalLayer(idleMemLayer())
	g := NewGroup(GroupConfig{
		Layer:          layer,
		Routes:         routes,
		NThreads:       0,
		StopGracefully: true,
	})

	errCh := startGroup(g)
	<-layer.entered

	// Сообщений нет — главный воркер простаивает в receive;
	// остановка обязана прервать его ожидание
	g.Shutdown()

	if err := awaitResult(t, errCh); !errors.Is(err, ErrStopped) {
		t.Fatalf("expected ErrStopped for idle main worker, got %v", err)
	}

	assertQuiescent(t, g)
}

func TestGroup_GracefulStopWhenMainBusy(t *testing.T) {
	inner := newMemLayer()
	if err := inner.Send(context.Background(), "test", channels.Message{"test": "test"}); err != nil {
		t.Fatalf("seed send: %v", err)
	}
	layer := newCountingLayer(inner)

	var calls atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})

	routes := routing.NewTable()
	routes.Add("test", func(ctx context.Context, message channels.Message) error {
		calls.Add(1)
		close(started)
		<-release
		return nil
	})

	var cbCount atomic.Int32
	// Без sub-воркеров: сообщение гарантированно достаётся главному
	g := NewGroup(GroupConfig{
		Layer:          layer,
		Routes:         routes,
		NThreads:       0,
		StopGracefully: true,
		Callback: func(channel string, message channels.Message) {
			cbCount.Add(1)
		},
	})

	errCh := startGroup(g)
	<-started

	// Главный воркер в обработчике: остановка не прерывает его,
	// сообщение дорабатывается до конца
	g.Shutdown()
	close(release)

	if err := awaitResult(t, errCh); err != nil {
		t.Fatalf("expected clean exit for busy main worker, got %v", err)
	}

	if got := calls.Load(); got != 1 {
		t.Errorf("expected 1 handler call, got %d", got)
	}
	if got := cbCount.Load(); got != 1 {
		t.Errorf("expected callback once, got %d", got)
	}
	if layer.Sends() != 0 {
		t.Errorf("expected 0 requeue sends, got %d", layer.Sends())
	}

	assertQuiescent(t, g)
}

func TestGroup_OneMessageOneHandler(t *testing.T) {
	inner := newMemLayer()
	if err := inner.Send(context.Background(), "test", channels.Message{"test": "test"}); err != nil {
		t.Fatalf("seed send: %v", err)
	}
	layer := newCountingLayer(inner)

	var calls atomic.Int32
	routes := routing.NewTable()
	routes.Add("test", func(ctx context.Context, message channels.Message) error {
		calls.Add(1)
		// Имитируем работу, чтобы остальные воркеры успели поконкурировать
		time.Sleep(50 * time.Millisecond)
		return nil
	})

	var cbCount atomic.Int32
	cbDone := make(chan struct{})
	g := NewGroup(GroupConfig{
		Layer:          layer,
		Routes:         routes,
		NThreads:       3,
		StopGracefully: true,
		Callback: func(channel string, message channels.Message) {
			cbCount.Add(1)
			close(cbDone)
		},
	})

	errCh := startGroup(g)

	select {
	case <-cbDone:
	case <-time.After(2 * time.Second):
		t.Fatal("callback was not invoked")
	}

	// Сообщение мог забрать и главный воркер: тогда он не простаивал
	// и Run вернёт nil, иначе — ErrStopped. Оба исхода штатные.
	g.Shutdown()
	if err := awaitResult(t, errCh); err != nil && !errors.Is(err, ErrStopped) {
		t.Fatalf("unexpected error: %v", err)
	}

	// Ровно один воркер выполнил обработчик, callback сработал один раз
	if got := calls.Load(); got != 1 {
		t.Errorf("expected 1 handler call, got %d", got)
	}
	if got := cbCount.Load(); got != 1 {
		t.Errorf("expected callback once, got %d", got)
	}
	if layer.Sends() != 0 {
		t.Errorf("expected 0 requeue sends, got %d", layer.Sends())
	}

	assertQuiescent(t, g)
}

func TestGroup_NonGracefulStopLeavesReceiveAlone(t *testing.T) {
	routes := routing.NewTable()
	routes.Add("test", func(ctx context.Context, message channels.Message) error { return nil })

	g := NewGroup(GroupConfig{
		Layer:          newMemLayer(),
		Routes:         routes,
		NThreads:       1,
		StopGracefully: false,
	})

	errCh := startGroup(g)

	// Без graceful stop заблокированный receive не прерывается:
	// воркеры выходят сами после таймаута слоя, главный цикл — чистым nil
	g.Shutdown()

	if err := awaitResult(t, errCh); err != nil {
		t.Fatalf("expected clean exit, got %v", err)
	}

	assertQuiescent(t, g)
}

func TestGroup_Workers(t *testing.T) {
	routes := routing.NewTable()
	routes.Add("test", func(ctx context.Context, message channels.Message) error { return nil })

	g := NewGroup(GroupConfig{
		Layer:    newMemLayer(),
		Routes:   routes,
		NThreads: 3,
	})

	workers := g.Workers()
	if len(workers) != 4 {
		t.Fatalf("expected 4 workers (main + 3 subs), got %d", len(workers))
	}
	if workers[0] != g.main {
		t.Error("main worker must come first")
	}
}

func TestGroup_ShutdownIdempotent(t *testing.T) {
	routes := routing.NewTable()
	routes.Add("test", func(ctx context.Context, message channels.Message) error { return nil })

	layer := newSignalLayer(idleMemLayer())
	g := NewGroup(GroupConfig{
		Layer:          layer,
		Routes:         routes,
		NThreads:       0,
		StopGracefully: true,
	})

	errCh := startGroup(g)
	<-layer.entered

	g.Shutdown()
	g.Shutdown()

	if err := awaitResult(t, errCh); !errors.Is(err, ErrStopped) {
		t.Fatalf("expected ErrStopped, got %v", err)
	}

	assertQuiescent(t, g)
}
