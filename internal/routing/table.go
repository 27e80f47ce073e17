package routing

import (
	"context"
	"sync"

	"github.com/shaiso/Conveyor/internal/channels"
)

// Handler — обработчик сообщения канала.
//
// Возвращает nil при успешной обработке, worker.ErrConsumeLater,
// если сообщение надо вернуть в канал и обработать позже, или
// любую другую ошибку — она фатальна для цикла воркера.
type Handler func(ctx context.Context, message channels.Message) error

// Table — таблица маршрутов channel → Handler.
//
// Маршруты хранятся в порядке регистрации; имя канала сопоставляется
// точно (wildcard-паттерны живут в фильтрах воркера, не здесь).
// Потокобезопасна.
type Table struct {
	mu     sync.RWMutex
	order  []string
	routes map[string]Handler
}

// NewTable создаёт пустую таблицу маршрутов.
func NewTable() *Table {
	return &Table{
		routes: make(map[string]Handler),
	}
}

// Add регистрирует обработчик для канала.
// Если маршрут уже существует, обработчик перезаписывается.
func (t *Table) Add(channel string, handler Handler) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.routes[channel]; !exists {
		t.order = append(t.order, channel)
	}
	t.routes[channel] = handler
}

// Match возвращает обработчик для имени канала или nil,
// если маршрут не зарегистрирован.
func (t *Table) Match(channel string) Handler {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.routes[channel]
}

// Has проверяет, зарегистрирован ли маршрут.
func (t *Table) Has(channel string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, exists := t.routes[channel]
	return exists
}

// Channels возвращает имена каналов в порядке регистрации.
// Это полный набор каналов, который слушает воркер (до фильтров).
func (t *Table) Channels() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	names := make([]string, len(t.order))
	copy(names, t.order)
	return names
}

// Count возвращает количество маршрутов.
func (t *Table) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.routes)
}

// Remove удаляет маршрут из таблицы.
func (t *Table) Remove(channel string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.routes[channel]; !exists {
		return
	}

	delete(t.routes, channel)
	for i, name := range t.order {
		if name == channel {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
}
