package worker

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/shaiso/Conveyor/internal/channels"
	"github.com/shaiso/Conveyor/internal/routing"
	"github.com/shaiso/Conveyor/internal/telemetry"
)

// Group — пул воркеров: главный воркер на вызывающей горутине
// плюс NThreads sub-воркеров, каждый на собственной горутине.
//
// Остановка координируется асимметрично. Shutdown взводит
// terminated у всех воркеров, но принудительно прерывает только
// заблокированный receive главного воркера, и только когда тот
// свободен. Sub-воркеры дорабатывают опортунистически: каждый
// замечает terminated после возврата своего блокирующего receive,
// поэтому латентность их остановки ограничена receive timeout слоя
// каналов, а не сигналом.
type Group struct {
	layer          channels.Layer
	nThreads       int
	stopGracefully bool
	signalHandlers bool
	logger         *slog.Logger

	main *Worker
	subs []*Worker

	// Join handles горутин sub-воркеров
	wg sync.WaitGroup
}

// GroupConfig — конфигурация Group.
type GroupConfig struct {
	// Layer — слой доставки сообщений (обязателен).
	Layer channels.Layer

	// Routes — общая таблица маршрутов всех воркеров (обязательна).
	Routes *routing.Table

	// NThreads — количество sub-воркеров. Ноль допустим:
	// группа состоит из одного главного воркера.
	NThreads int

	// OnlyChannels / ExcludeChannels — общие фильтры всех воркеров.
	OnlyChannels    []string
	ExcludeChannels []string

	// Callback — общий observer успешных доставок всех воркеров.
	Callback Callback

	// StopGracefully — прерывать ли простаивающий главный воркер при
	// остановке. Занятому воркеру в любом случае дают доработать.
	StopGracefully bool

	// SignalHandlers — ставить ли обработчики SIGINT/SIGTERM.
	// Выключается при embedding, когда сигналами управляет хост-процесс.
	SignalHandlers bool

	// Logger
	Logger *slog.Logger
}

// NewGroup создаёт группу: главный воркер и NThreads sub-воркеров,
// разделяющих слой каналов, таблицу маршрутов, фильтры и callback.
func NewGroup(cfg GroupConfig) *Group {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	nThreads := max(cfg.NThreads, 0)

	g := &Group{
		layer:          cfg.Layer,
		nThreads:       nThreads,
		stopGracefully: cfg.StopGracefully,
		signalHandlers: cfg.SignalHandlers,
		logger:         logger,
	}

	workerCfg := Config{
		Layer:           cfg.Layer,
		Routes:          cfg.Routes,
		OnlyChannels:    cfg.OnlyChannels,
		ExcludeChannels: cfg.ExcludeChannels,
		Callback:        cfg.Callback,
	}

	workerCfg.Logger = telemetry.WithWorkerID(logger, 0)
	g.main = New(workerCfg)

	for i := 1; i <= nThreads; i++ {
		sub := workerCfg
		sub.Logger = telemetry.WithWorkerID(logger, i)
		g.subs = append(g.subs, New(sub))
	}

	return g
}

// Workers возвращает всех воркеров группы, главный — первым.
func (g *Group) Workers() []*Worker {
	workers := make([]*Worker, 0, len(g.subs)+1)
	workers = append(workers, g.main)
	return append(workers, g.subs...)
}

// Run запускает sub-воркеров на отдельных горутинах и цикл главного
// воркера на вызывающей. Возвращается после выхода главного цикла;
// sub-воркеров не дожидается — полного затишья ждут через Wait.
//
// ErrStopped в результате — ожидаемый исход graceful stop
// (простаивавший главный воркер был прерван), не ошибка.
func (g *Group) Run(ctx context.Context) error {
	if g.signalHandlers {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigCh)

		done := make(chan struct{})
		defer close(done)

		go func() {
			select {
			case sig := <-sigCh:
				g.logger.Info("received termination signal", "signal", sig.String())
				g.Shutdown()
			case <-done:
			}
		}()
	}

	g.logger.Info("starting worker group",
		"sub_workers", g.nThreads,
		"graceful_stop", g.stopGracefully,
	)

	for _, sub := range g.subs {
		g.wg.Add(1)
		go func(w *Worker) {
			defer g.wg.Done()
			if err := w.Run(ctx); err != nil && !errors.Is(err, ErrStopped) {
				// Упавший sub-воркер не перезапускается и не маскируется;
				// решение о рестарте — за вызывающим слоем
				w.logger.Error("sub-worker terminated", "error", err)
			}
		}(sub)
	}

	return g.main.Run(ctx)
}

// Shutdown — координатор graceful stop (обработчик SIGTERM).
//
// Взводит terminated у всех воркеров. При StopGracefully, если
// главный воркер свободен, он заведомо заблокирован в ReceiveMany —
// единственный способ вывести его оттуда это прервать ожидание,
// тогда Run вернёт ErrStopped. Если главный воркер занят
// обработчиком, прерывать нечего: обработчик доработает, и цикл
// выйдет сам на ближайшей проверке terminated.
//
// Потокобезопасен и идемпотентен; обычно вызывается из горутины
// обработки сигналов или из хост-процесса при embedding.
func (g *Group) Shutdown() {
	g.logger.Info("stopping worker group", "graceful", g.stopGracefully)

	for _, w := range g.Workers() {
		w.Terminate()
	}

	if !g.stopGracefully {
		return
	}

	if !g.main.InJob() {
		g.main.Interrupt()
	}
}

// Wait блокируется до полного затишья: все горутины sub-воркеров
// завершились. Вызывать после возврата Run; после Wait у каждого
// воркера InJob() == false и живых горутин группы не осталось.
func (g *Group) Wait() {
	g.wg.Wait()
}
