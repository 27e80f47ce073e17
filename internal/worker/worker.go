package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/shaiso/Conveyor/internal/channels"
	"github.com/shaiso/Conveyor/internal/routing"
	"github.com/shaiso/Conveyor/internal/telemetry"
)

// Callback вызывается после каждой успешно обработанной доставки.
// Requeue по ErrConsumeLater успешной доставкой не считается.
type Callback func(channel string, message channels.Message)

// Worker владеет одним циклом потребления сообщений.
//
// Цикл: заблокироваться в ReceiveMany на отфильтрованном наборе
// каналов, найти обработчик в таблице маршрутов, выполнить его.
// Обработчик может вернуть ErrConsumeLater — сообщение возвращается
// в тот же канал, callback не вызывается. Любая другая ошибка
// обработчика фатальна для цикла.
//
// Жизненный цикл: Run вызывается ровно один раз и блокирует
// вызывающую горутину до установки terminated или отмены ctx.
type Worker struct {
	layer    channels.Layer
	routes   *routing.Table
	only     []string
	exclude  []string
	callback Callback
	logger   *slog.Logger

	// terminated пишет либо сам воркер, либо координатор остановки
	// из другой горутины; atomic даёт видимость без блокировки.
	terminated atomic.Bool

	// inJob истинен ровно на время выполнения обработчика.
	inJob atomic.Bool

	// cancel прерывает заблокированный ReceiveMany (см. Interrupt).
	cancelMu sync.Mutex
	cancel   context.CancelFunc
}

// Config — конфигурация Worker.
type Config struct {
	// Layer — слой доставки сообщений (обязателен).
	Layer channels.Layer

	// Routes — таблица маршрутов (обязательна).
	Routes *routing.Table

	// OnlyChannels — если задан, слушаются только совпавшие каналы.
	OnlyChannels []string

	// ExcludeChannels — совпавшие каналы исключаются из прослушивания.
	ExcludeChannels []string

	// Callback — опциональный observer успешных доставок.
	Callback Callback

	// Logger
	Logger *slog.Logger
}

// New создаёт новый Worker.
func New(cfg Config) *Worker {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Worker{
		layer:    cfg.Layer,
		routes:   cfg.Routes,
		only:     cfg.OnlyChannels,
		exclude:  cfg.ExcludeChannels,
		callback: cfg.Callback,
		logger:   logger,
	}
}

// Terminate взводит флаг остановки. Воркер заметит его при
// следующей проверке в начале итерации цикла.
func (w *Worker) Terminate() {
	w.terminated.Store(true)
}

// Terminated сообщает, взведён ли флаг остановки.
func (w *Worker) Terminated() bool {
	return w.terminated.Load()
}

// InJob сообщает, выполняется ли сейчас обработчик на этом воркере.
func (w *Worker) InJob() bool {
	return w.inJob.Load()
}

// Interrupt прерывает заблокированный ReceiveMany; Run после этого
// возвращает ErrStopped. До вызова Run — no-op.
func (w *Worker) Interrupt() {
	w.cancelMu.Lock()
	cancel := w.cancel
	w.cancelMu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// Run запускает цикл потребления и блокирует вызывающую горутину.
//
// Возвращает nil, если цикл вышел по флагу terminated, и ErrStopped,
// если заблокированный receive был прерван (Interrupt или отмена
// родительского ctx) — оба исхода означают штатную остановку.
// Любая другая ошибка фатальна: цикл не перезапускается, решение
// о рестарте принимает вызывающий слой.
func (w *Worker) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w.cancelMu.Lock()
	w.cancel = cancel
	w.cancelMu.Unlock()

	// Набор каналов вычисляется один раз на запуск, не на итерацию
	names := ApplyChannelFilters(w.routes.Channels(), w.only, w.exclude)
	if len(names) == 0 {
		return ErrNoChannels
	}

	w.logger.Info("listening on channels", "channels", names)

	for !w.terminated.Load() {
		channel, message, err := w.layer.ReceiveMany(ctx, names, true)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return ErrStopped
			}
			return fmt.Errorf("receive: %w", err)
		}

		// Таймаут блокировки слоя: сообщений нет, перепроверяем terminated
		if channel == "" {
			continue
		}

		handler := w.routes.Match(channel)
		if handler == nil {
			// Канал без маршрута: сообщение отбрасывается
			w.logger.Debug("no route for message, dropping", "channel", channel)
			messagesDropped.WithLabelValues(channel).Inc()
			continue
		}

		if err := w.consume(ctx, channel, handler, message); err != nil {
			return err
		}
	}

	return nil
}

// consume выполняет обработчик для одного сообщения.
func (w *Worker) consume(ctx context.Context, channel string, handler routing.Handler, message channels.Message) error {
	w.inJob.Store(true)
	workersBusy.Inc()
	defer func() {
		w.inJob.Store(false)
		workersBusy.Dec()
	}()

	hctx := telemetry.WithLogger(ctx, telemetry.WithChannel(w.logger, channel))

	err := handler(hctx, message)
	switch {
	case err == nil:
		messagesConsumed.WithLabelValues(channel).Inc()
		if w.callback != nil {
			w.callback(channel, message)
		}
		return nil

	case errors.Is(err, ErrConsumeLater):
		// Обработчик не готов: возвращаем сообщение в тот же канал,
		// callback не вызываем — доставка не состоялась
		messagesRequeued.WithLabelValues(channel).Inc()
		if err := w.layer.Send(ctx, channel, message); err != nil {
			return fmt.Errorf("requeue to %s: %w", channel, err)
		}
		return nil

	default:
		return fmt.Errorf("consume %s: %w", channel, err)
	}
}
