// Package sse раздаёт события прогресса diagnosis run'ов клиентам
// по Server-Sent Events.
//
// Broker хранит историю событий каждого активного run'а и передаёт
// её подписчику снапшотом перед живым потоком — клиент, подключившийся
// в середине run'а, видит все накопленные результаты. Bridge питает
// брокер событиями из fanout-обменника bloaty.events, поэтому схема
// работает и при нескольких API-инстансах.
package sse
