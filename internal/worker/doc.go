// Package worker реализует пул воркеров, разбирающий сообщения
// именованных каналов по зарегистрированным обработчикам.
//
// # Обзор
//
// Три составляющие:
//
//   - ApplyChannelFilters — чистая функция, вычисляющая эффективный
//     набор прослушиваемых каналов по include/exclude glob-паттернам
//   - Worker — один цикл потребления: блокирующий ReceiveMany,
//     поиск обработчика, выполнение, requeue по ErrConsumeLater
//   - Group — главный воркер на вызывающей горутине плюс N
//     sub-воркеров, обработчики сигналов и координация graceful stop
//
// # Использование
//
//	group := worker.NewGroup(worker.GroupConfig{
//	    Layer:          layer,
//	    Routes:         routes,
//	    NThreads:       4,
//	    StopGracefully: true,
//	    SignalHandlers: true,
//	    Logger:         logger,
//	})
//
//	err := group.Run(ctx)
//	if err != nil && !errors.Is(err, worker.ErrStopped) {
//	    log.Fatal(err)
//	}
//	group.Wait()
//
// # Обработка сообщения
//
//  1. Проверка флага terminated, выход из цикла если взведён
//  2. Блокирующий ReceiveMany по отфильтрованным каналам
//     (единственная точка ожидания цикла)
//  3. Поиск обработчика: канал без маршрута — сообщение отбрасывается
//  4. Выполнение обработчика с inJob = true
//  5. ErrConsumeLater → сообщение обратно в тот же канал, callback
//     не вызывается; успех → callback; другая ошибка → фатальна
//
// # Остановка
//
// Остановка асимметрична: принудительно прерывается только
// заблокированный receive главного воркера, и только когда тот
// свободен — тогда Run возвращает ErrStopped. Занятый главный воркер
// дорабатывает обработчик и выходит по флагу terminated. Sub-воркеры
// не прерываются вовсе: каждый замечает terminated после возврата
// собственного блокирующего receive, так что латентность их
// остановки ограничена receive timeout слоя каналов.
//
// Какой воркер заберёт конкретное сообщение — недетерминировано;
// пул размазывает нагрузку, порядок между каналами и воркерами
// не гарантируется.
package worker
