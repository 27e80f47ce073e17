package channels

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"
)

// Default configuration values.
const (
	defaultCapacity       = 100
	defaultReceiveTimeout = 100 * time.Millisecond
)

// InMemoryLayer — слой каналов в памяти процесса.
//
// Подходит для тестов и embedded-сценариев: очереди ограниченной
// ёмкости на канал, блокирующее ожидание с таймаутом, поддержка
// групп. Заблокированный ReceiveMany возвращается не позже
// ReceiveTimeout — на этом построен опортунистический drain
// sub-воркеров при остановке группы.
type InMemoryLayer struct {
	capacity       int
	receiveTimeout time.Duration

	mu     sync.Mutex
	queues map[string][]Message
	groups map[string]map[string]struct{}

	// wakeup закрывается при каждом Send и заменяется новым:
	// broadcast для всех заблокированных ReceiveMany.
	wakeup chan struct{}
}

// InMemoryConfig — конфигурация InMemoryLayer.
type InMemoryConfig struct {
	// Capacity — максимум сообщений в одном канале (default: 100).
	Capacity int

	// ReceiveTimeout — максимальное время блокировки ReceiveMany (default: 100ms).
	ReceiveTimeout time.Duration
}

// NewInMemoryLayer создаёт новый InMemoryLayer.
func NewInMemoryLayer(cfg InMemoryConfig) *InMemoryLayer {
	capacity := cfg.Capacity
	if capacity <= 0 {
		capacity = defaultCapacity
	}

	receiveTimeout := cfg.ReceiveTimeout
	if receiveTimeout <= 0 {
		receiveTimeout = defaultReceiveTimeout
	}

	return &InMemoryLayer{
		capacity:       capacity,
		receiveTimeout: receiveTimeout,
		queues:         make(map[string][]Message),
		groups:         make(map[string]map[string]struct{}),
		wakeup:         make(chan struct{}),
	}
}

// Send кладёт сообщение в канал.
func (l *InMemoryLayer) Send(_ context.Context, channel string, message Message) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.queues[channel]) >= l.capacity {
		return fmt.Errorf("%w: %s", ErrChannelFull, channel)
	}
	l.queues[channel] = append(l.queues[channel], message)

	// Будим всех ожидающих
	close(l.wakeup)
	l.wakeup = make(chan struct{})

	return nil
}

// ReceiveMany забирает одно сообщение из любого канала списка names.
func (l *InMemoryLayer) ReceiveMany(ctx context.Context, names []string, block bool) (string, Message, error) {
	if len(names) == 0 {
		return "", nil, nil
	}

	// Случайный порядок обхода, чтобы первый канал списка
	// не вытеснял остальные.
	shuffled := make([]string, len(names))
	copy(shuffled, names)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	var timeout <-chan time.Time
	if block {
		timer := time.NewTimer(l.receiveTimeout)
		defer timer.Stop()
		timeout = timer.C
	}

	for {
		channel, msg, wake := l.tryReceive(shuffled)
		if channel != "" {
			return channel, msg, nil
		}

		if !block {
			return "", nil, nil
		}

		select {
		case <-ctx.Done():
			return "", nil, ctx.Err()
		case <-timeout:
			return "", nil, nil
		case <-wake:
			// Пришло сообщение в какой-то канал — пробуем снова
		}
	}
}

// tryReceive пытается забрать сообщение без ожидания.
// Если сообщений нет, возвращает текущий wakeup-канал для подписки.
func (l *InMemoryLayer) tryReceive(names []string) (string, Message, <-chan struct{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, name := range names {
		q := l.queues[name]
		if len(q) == 0 {
			continue
		}

		msg := q[0]
		if len(q) == 1 {
			delete(l.queues, name)
		} else {
			l.queues[name] = q[1:]
		}
		return name, msg, nil
	}

	return "", nil, l.wakeup
}

// GroupAdd добавляет канал в группу.
func (l *InMemoryLayer) GroupAdd(group, channel string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.groups[group] == nil {
		l.groups[group] = make(map[string]struct{})
	}
	l.groups[group][channel] = struct{}{}

	return nil
}

// GroupDiscard убирает канал из группы.
func (l *InMemoryLayer) GroupDiscard(group, channel string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if members := l.groups[group]; members != nil {
		delete(members, channel)
		if len(members) == 0 {
			delete(l.groups, group)
		}
	}

	return nil
}

// SendGroup отправляет сообщение всем каналам группы.
// Переполненные каналы пропускаются.
func (l *InMemoryLayer) SendGroup(ctx context.Context, group string, message Message) error {
	l.mu.Lock()
	members := make([]string, 0, len(l.groups[group]))
	for channel := range l.groups[group] {
		members = append(members, channel)
	}
	l.mu.Unlock()

	sort.Strings(members)

	for _, channel := range members {
		if err := l.Send(ctx, channel, message); err != nil {
			if errors.Is(err, ErrChannelFull) {
				continue
			}
			return err
		}
	}

	return nil
}

// Len возвращает количество сообщений, ожидающих в канале.
func (l *InMemoryLayer) Len(channel string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queues[channel])
}
