package worker

import "errors"

// Ошибки воркера.
var (
	// ErrConsumeLater — сигнал обработчика: сообщение пока не готово
	// к обработке, вернуть в канал и попробовать позже.
	ErrConsumeLater = errors.New("consume later")

	// ErrStopped — цикл воркера прерван остановкой группы, а не
	// ошибкой. Вызывающий код обязан отличать его от фатальной
	// ошибки обработчика и считать штатным завершением.
	ErrStopped = errors.New("worker stopped")

	// ErrNoChannels — после применения фильтров не осталось каналов
	// для прослушивания.
	ErrNoChannels = errors.New("no channels to listen on")
)
