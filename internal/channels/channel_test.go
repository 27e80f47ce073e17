package channels

import (
	"context"
	"strings"
	"testing"
)

func TestChannel_Send(t *testing.T) {
	layer := newTestLayer()
	ctx := context.Background()

	ch := NewChannel(layer, "test")
	if err := ch.Send(ctx, Message{"key": "value"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	channel, msg, err := layer.ReceiveMany(ctx, []string{"test"}, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if channel != "test" || msg["key"] != "value" {
		t.Errorf("expected message on test, got %q %v", channel, msg)
	}
}

func TestNewReplyChannel(t *testing.T) {
	layer := newTestLayer()

	a := NewReplyChannel(layer, "http.response")
	b := NewReplyChannel(layer, "http.response")

	if !strings.HasPrefix(a.Name, "http.response!") {
		t.Errorf("expected prefix http.response!, got %q", a.Name)
	}
	if a.Name == b.Name {
		t.Error("reply channel names must be unique")
	}
}

func TestBroadcastGroup(t *testing.T) {
	layer := newTestLayer()
	ctx := context.Background()

	group := NewBroadcastGroup(layer, "room")
	if err := group.Add("client.1"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := group.Add("client.2"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := group.Discard("client.2"); err != nil {
		t.Fatalf("discard: %v", err)
	}

	if err := group.Send(ctx, Message{"hello": true}); err != nil {
		t.Fatalf("send: %v", err)
	}

	if layer.Len("client.1") != 1 {
		t.Error("member must receive group message")
	}
	if layer.Len("client.2") != 0 {
		t.Error("discarded member must not receive group message")
	}
}
