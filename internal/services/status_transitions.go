package services

import "practico/internal/models"

// Допустимые переходы статуса аккаунта.
// Успешная оплата применяется из любого статуса (шлюз уже списал деньги),
// переходы вне таблицы только логируются.
var accountTransitions = map[models.StatusKind]map[models.StatusKind]bool{
	models.StatusUnverified:     {models.StatusVerifiedUnpaid: true},
	models.StatusVerifiedUnpaid: {models.StatusPendingPayment: true, models.StatusActiveMember: true},
	models.StatusPendingPayment: {models.StatusPendingPayment: true, models.StatusVerifiedUnpaid: true, models.StatusActiveMember: true},
	models.StatusActiveMember:   {},
}

func canTransition(current, to models.StatusKind) bool {
	return accountTransitions[current][to]
}
