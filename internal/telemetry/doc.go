// Package telemetry обеспечивает наблюдаемость системы.
//
// Включает structured logging через slog: единый формат для всех
// бинарников (LOG_LEVEL, LOG_FORMAT) и helpers для привязки
// контекстных атрибутов (channel, worker_id) к логгеру.
//
// Prometheus метрики воркеров живут рядом с кодом, который их
// инкрементирует (internal/worker/metrics.go); endpoint /metrics
// поднимается в main.
package telemetry
