package channels

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestAsyncSender_Delivers(t *testing.T) {
	layer := newTestLayer()
	layer.GroupAdd("room", "client.1")

	ctx, cancel := context.WithCancel(context.Background())
	sender := NewAsyncSender(ctx, layer, nil, AsyncSenderConfig{})

	if err := sender.SendGroupAsync("room", Message{"hello": true}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Фоновая доставка: ждём появления сообщения у члена группы
	deadline := time.Now().Add(2 * time.Second)
	for layer.Len("client.1") == 0 {
		if time.Now().After(deadline) {
			t.Fatal("async send was not delivered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
	sender.Close()
}

func TestAsyncSender_DrainsOnShutdown(t *testing.T) {
	layer := newTestLayer()
	layer.GroupAdd("room", "client.1")

	ctx, cancel := context.WithCancel(context.Background())
	sender := NewAsyncSender(ctx, layer, nil, AsyncSenderConfig{})

	if err := sender.SendGroupAsync("room", Message{"n": 1}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Принятые задания дообрабатываются и после отмены ctx
	cancel()
	sender.Close()

	if layer.Len("client.1") != 1 {
		t.Errorf("expected queued job delivered on shutdown, got %d messages", layer.Len("client.1"))
	}
}

// stuckLayer блокирует SendGroup до закрытия release.
type stuckLayer struct {
	*InMemoryLayer
	release chan struct{}
}

func (l *stuckLayer) SendGroup(ctx context.Context, group string, message Message) error {
	<-l.release
	return l.InMemoryLayer.SendGroup(ctx, group, message)
}

func TestAsyncSender_QueueFull(t *testing.T) {
	layer := &stuckLayer{
		InMemoryLayer: newTestLayer(),
		release:       make(chan struct{}),
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sender := NewAsyncSender(ctx, layer, nil, AsyncSenderConfig{Buffer: 1})

	// Первое задание забирает фоновая горутина и застревает в доставке,
	// второе занимает буфер; дальше очередь переполнена
	var err error
	for i := 0; i < 3; i++ {
		if err = sender.SendGroupAsync("room", Message{}); err != nil {
			break
		}
	}
	if !errors.Is(err, ErrSenderFull) {
		t.Fatalf("expected ErrSenderFull, got %v", err)
	}

	close(layer.release)
	cancel()
	sender.Close()
}
