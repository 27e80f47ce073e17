// Package cli реализует инструмент командной строки Conveyor.
//
// # Обзор
//
// CLI — утилита для работы с каналами напрямую через RabbitMQ:
// отправка сообщений и просмотр очередей. Полезна для отладки
// маршрутов и нагрузочных прогонов воркеров.
//
// # Ключевые компоненты
//
// ## Output
//
// Форматирование вывода. Поддерживает два режима:
//   - Таблицы (text/tabwriter) — по умолчанию
//   - JSON (json encoder с отступами) — с флагом --json
//
// Данные выводятся в stdout, сообщения (Success/Error) — в stderr.
// Это позволяет использовать pipe: conveyor peek conveyor.debug --json | jq .
//
// ## Commands
//
//   - send: публикация сообщения в канал (--payload, --count)
//   - peek: неблокирующее чтение сообщений из каналов
//
// Команды создаются фабричными функциями (NewSendCmd, NewPeekCmd),
// принимающими layerFn и outputFn — замыкания для ленивого создания
// слоя каналов и Output после парсинга PersistentFlags.
package cli
