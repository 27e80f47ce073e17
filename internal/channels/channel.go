package channels

import (
	"context"

	"github.com/google/uuid"
)

// Channel — именованный канал, привязанный к слою доставки.
type Channel struct {
	Name  string
	layer Layer
}

// NewChannel создаёт handle канала.
func NewChannel(layer Layer, name string) Channel {
	return Channel{Name: name, layer: layer}
}

// NewReplyChannel создаёт канал с процесс-уникальным именем вида
// "prefix!<uuid>" — для ответов конкретному получателю.
func NewReplyChannel(layer Layer, prefix string) Channel {
	return Channel{
		Name:  prefix + "!" + uuid.NewString(),
		layer: layer,
	}
}

// Send отправляет сообщение в канал.
func (c Channel) Send(ctx context.Context, message Message) error {
	return c.layer.Send(ctx, c.Name, message)
}

// BroadcastGroup — именованная группа каналов для fan-out отправки.
type BroadcastGroup struct {
	Name  string
	layer GroupLayer
}

// NewBroadcastGroup создаёт handle группы.
func NewBroadcastGroup(layer GroupLayer, name string) BroadcastGroup {
	return BroadcastGroup{Name: name, layer: layer}
}

// Add подписывает канал на группу.
func (g BroadcastGroup) Add(channel string) error {
	return g.layer.GroupAdd(g.Name, channel)
}

// Discard отписывает канал от группы.
func (g BroadcastGroup) Discard(channel string) error {
	return g.layer.GroupDiscard(g.Name, channel)
}

// Send отправляет сообщение всем каналам группы.
func (g BroadcastGroup) Send(ctx context.Context, message Message) error {
	return g.layer.SendGroup(ctx, g.Name, message)
}
