package channels

import (
	"context"
	"errors"
)

// Message — сообщение, передаваемое по каналу.
// Содержимое непрозрачно для слоя доставки и воркеров,
// интерпретацией занимается consumer.
type Message map[string]any

// Ошибки слоя каналов.
var (
	// ErrChannelFull — канал достиг максимальной ёмкости.
	ErrChannelFull = errors.New("channel is full")

	// ErrLayerClosed — слой закрыт, операции невозможны.
	ErrLayerClosed = errors.New("channel layer is closed")
)

// Layer — слой доставки сообщений по именованным каналам.
//
// Реализации обязаны быть безопасными для конкурентных вызовов
// ReceiveMany/Send из нескольких горутин.
type Layer interface {
	// ReceiveMany забирает одно сообщение из любого канала списка names.
	//
	// При block=false сразу возвращает ("", nil, nil), если сообщений нет.
	// При block=true ждёт сообщение, но не дольше receive timeout слоя:
	// по его истечении тоже возвращает ("", nil, nil). Отмена ctx
	// прерывает ожидание, результат — ctx.Err().
	ReceiveMany(ctx context.Context, names []string, block bool) (string, Message, error)

	// Send кладёт сообщение в канал (неблокирующий enqueue).
	// Возвращает ErrChannelFull, если канал переполнен.
	Send(ctx context.Context, channel string, message Message) error
}

// GroupLayer — слой с поддержкой групп каналов (broadcast).
type GroupLayer interface {
	Layer

	// GroupAdd добавляет канал в группу.
	GroupAdd(group, channel string) error

	// GroupDiscard убирает канал из группы.
	GroupDiscard(group, channel string) error

	// SendGroup отправляет сообщение всем каналам группы.
	// Переполненные каналы пропускаются, для них сообщение теряется.
	SendGroup(ctx context.Context, group string, message Message) error
}
