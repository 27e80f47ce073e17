package worker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Метрики воркеров; экспортируются на /metrics endpoint в main.
var (
	messagesConsumed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "conveyor_messages_consumed_total",
		Help: "Messages handled successfully, by channel.",
	}, []string{"channel"})

	messagesRequeued = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "conveyor_messages_requeued_total",
		Help: "Messages returned to their channel after a consume-later signal, by channel.",
	}, []string{"channel"})

	messagesDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "conveyor_messages_dropped_total",
		Help: "Messages discarded because no route matched, by channel.",
	}, []string{"channel"})

	workersBusy = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "conveyor_workers_busy",
		Help: "Workers currently executing a handler.",
	})
)
