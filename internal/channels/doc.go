// Package channels предоставляет слой доставки сообщений
// по именованным логическим каналам.
//
// Структура:
//   - layer.go      — интерфейсы Layer/GroupLayer и тип Message
//   - inmemory.go   — in-memory реализация (тесты, embedded-сценарии)
//   - connection.go — соединение с RabbitMQ (reconnect, graceful shutdown)
//   - amqp.go       — реализация слоя поверх RabbitMQ
//   - channel.go    — handles Channel и BroadcastGroup
//   - async.go      — асинхронная групповая отправка
//
// Имена каналов — непрозрачные строки, по соглашению сегментированные
// точками ("http.request", "metrics.flush"). Слой обязан выдерживать
// конкурентные ReceiveMany/Send из многих горутин; сериализация
// внутреннего состояния — его ответственность.
package channels
