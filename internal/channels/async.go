package channels

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

const defaultAsyncBuffer = 256

// ErrSenderFull — очередь асинхронной отправки переполнена.
var ErrSenderFull = errors.New("async send queue is full")

// AsyncSender выполняет групповые отправки в фоне.
//
// Продюсер кладёт задание в ограниченную очередь и не ждёт fan-out
// по всем каналам группы; доставкой занимается фоновая горутина.
// После отмены ctx горутина дообрабатывает уже принятые задания
// и завершается; Close дожидается её выхода.
type AsyncSender struct {
	layer  GroupLayer
	logger *slog.Logger
	jobs   chan groupSend
	wg     sync.WaitGroup
}

type groupSend struct {
	group   string
	message Message
}

// AsyncSenderConfig — конфигурация AsyncSender.
type AsyncSenderConfig struct {
	// Buffer — ёмкость очереди заданий (default: 256).
	Buffer int
}

// NewAsyncSender создаёт sender и запускает фоновую доставку.
func NewAsyncSender(ctx context.Context, layer GroupLayer, logger *slog.Logger, cfg AsyncSenderConfig) *AsyncSender {
	buffer := cfg.Buffer
	if buffer <= 0 {
		buffer = defaultAsyncBuffer
	}

	if logger == nil {
		logger = slog.Default()
	}

	s := &AsyncSender{
		layer:  layer,
		logger: logger,
		jobs:   make(chan groupSend, buffer),
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.drain(ctx)
	}()

	return s
}

// SendGroupAsync ставит групповую отправку в очередь.
// Возвращает ErrSenderFull, если очередь заданий переполнена.
func (s *AsyncSender) SendGroupAsync(group string, message Message) error {
	select {
	case s.jobs <- groupSend{group: group, message: message}:
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrSenderFull, group)
	}
}

// Close дожидается завершения фоновой горутины.
// Вызывать после отмены ctx, переданного в NewAsyncSender.
func (s *AsyncSender) Close() {
	s.wg.Wait()
}

// drain — цикл фоновой доставки.
func (s *AsyncSender) drain(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			// Дообрабатываем то, что уже принято в очередь
			for {
				select {
				case job := <-s.jobs:
					s.deliver(job)
				default:
					return
				}
			}
		case job := <-s.jobs:
			s.deliver(job)
		}
	}
}

func (s *AsyncSender) deliver(job groupSend) {
	if err := s.layer.SendGroup(context.Background(), job.group, job.message); err != nil {
		s.logger.Error("group send failed",
			"group", job.group,
			"error", err,
		)
	}
}
