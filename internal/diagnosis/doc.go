// Package diagnosis реализует статистический анализ корреляций
// между ингредиентами и симптомами.
//
// Пайплайн анализа:
//
//  1. Симптомы группируются в эпизоды (cluster.go): записи,
//     начавшиеся в пределах 4 часов друг от друга, считаются
//     одним эпизодом.
//  2. Для каждого ингредиента подсчитываются корреляции по трём
//     временным окнам после приёма пищи (correlate.go):
//     immediate (0–2ч), delayed (4–24ч), cumulative (24–168ч).
//  3. Для пар ингредиентов считается совместная встречаемость:
//     условные вероятности и lift (cooccurrence.go). Пары с
//     P(B|A) > 0.8 или lift > 3.0 — кандидаты в confounders.
//  4. Каждому ингредиенту присваивается confidence score [0..1]
//     (confidence.go) и качественный уровень.
//
// Пакет чистый: не ходит в БД и не вызывает модель. Решение о том,
// какой из скоррелированных ингредиентов является root cause, а какой
// confounded, принимает LLM-классификация в worker на основе этих чисел.
package diagnosis
