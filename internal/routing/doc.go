// Package routing сопоставляет имена каналов с обработчиками.
//
// Table — упорядоченная таблица маршрутов channel → Handler.
// Воркеры слушают ровно те каналы, которые объявлены в таблице
// (Channels), и для каждого принятого сообщения запрашивают
// обработчик через Match. На одно сообщение вызывается не более
// одного обработчика.
package routing
