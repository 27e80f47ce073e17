// Conveyor Worker — пул воркеров, потребляющих сообщения из каналов.
//
// Worker:
//   - Слушает каналы через RabbitMQ
//   - Диспетчеризует сообщения по таблице маршрутов
//   - Возвращает сообщения в канал при retry
//   - Останавливается gracefully по SIGINT/SIGTERM
//
// Workers масштабируются горизонтально.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/Conveyor/internal/channels"
	"github.com/shaiso/Conveyor/internal/routing"
	"github.com/shaiso/Conveyor/internal/telemetry"
	"github.com/shaiso/Conveyor/internal/worker"
)

func main() {
	// Инициализируем structured logging
	logger := telemetry.SetupLogger()
	logger.Info("starting conveyor-worker")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// RabbitMQ
	mqURL := os.Getenv("RABBITMQ_URL")
	if mqURL == "" {
		mqURL = channels.DefaultURL()
	}

	conn, err := channels.NewConnection(mqURL, logger)
	if err != nil {
		logger.Error("failed to connect to RabbitMQ", "error", err)
		os.Exit(1)
	}
	defer conn.Close()
	logger.Info("RabbitMQ connected")

	layer := channels.NewAMQPLayer(conn, logger, channels.AMQPConfig{})

	// Таблица маршрутов: каналы из окружения, обработчик логирует
	// сообщение. Реальные обработчики регистрируются при embedding.
	routes := routing.NewTable()
	chans := splitList(os.Getenv("CHANNELS"))
	if len(chans) == 0 {
		chans = []string{"conveyor.jobs"}
	}
	for _, name := range chans {
		routes.Add(name, logConsumer)
	}

	nThreads := 0
	if v := os.Getenv("WORKER_THREADS"); v != "" {
		nThreads, err = strconv.Atoi(v)
		if err != nil {
			logger.Error("invalid WORKER_THREADS", "value", v, "error", err)
			os.Exit(1)
		}
	}

	g := worker.NewGroup(worker.GroupConfig{
		Layer:           layer,
		Routes:          routes,
		NThreads:        nThreads,
		OnlyChannels:    splitList(os.Getenv("ONLY_CHANNELS")),
		ExcludeChannels: splitList(os.Getenv("EXCLUDE_CHANNELS")),
		StopGracefully:  os.Getenv("GRACEFUL_STOP") != "false",
		SignalHandlers:  true,
		Logger:          logger,
	})

	// HTTP mux: /healthz + /metrics
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	port := ":8082"
	if v := os.Getenv("WORKER_PORT"); v != "" {
		port = ":" + v
	}

	go func() {
		logger.Info("listening", "addr", port)
		if err := http.ListenAndServe(port, mux); err != nil {
			logger.Error("http server error", "error", err)
			g.Shutdown()
		}
	}()

	// Главный воркер работает на main-горутине; Run возвращается
	// после остановки группы по сигналу
	err = g.Run(ctx)
	g.Wait()

	if err != nil && !errors.Is(err, worker.ErrStopped) {
		logger.Error("worker group failed", "error", err)
		os.Exit(1)
	}
	logger.Info("conveyor-worker stopped")
}

// logConsumer — обработчик по умолчанию: пишет сообщение в лог.
func logConsumer(ctx context.Context, msg channels.Message) error {
	telemetry.FromContext(ctx).Info("message consumed", "keys", len(msg))
	return nil
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
