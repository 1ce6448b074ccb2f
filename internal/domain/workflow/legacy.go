// legacy.go — соответствие статусов прежних версий схемы текущему workflow.
// Используется при миграции: каждая строка со старым статусом получает
// ближайший эквивалент, неизвестные значения уходят в первый этап.
package workflow

// LegacyLabels — старый статус → ближайший этап текущего workflow.
var LegacyLabels = map[string]Status{
	// Первая версия (англоязычный workflow из 8 этапов).
	"Accepted Request":  StatusCreatedAccounts,
	"Users Created":     StatusCreatedAccounts,
	"Jira Request Made": StatusJiraTicket,
	"Domain Added":      StatusFinalConfiguration,
	"Quarantine - 1":    StatusFinalConfiguration,
	"Quarantine - 2":    StatusFinalConfiguration,
	"Quarantine - 3":    StatusFinalConfiguration,
	"Completed":         StatusDone,

	// Вторая версия (7 этапов настройки).
	"Створені користувачі": StatusCreatedAccounts,
	"Створені ПК":          StatusJiraTicket,
	"Налаштовано GPO":      StatusFinalConfiguration,
	"Налаштовано політики": StatusFinalConfiguration,
	"Налаштовано LAPS":     StatusFinalConfiguration,
	"Налаштовано MFA":      StatusFinalConfiguration,
	"Завершено":            StatusDone,

	// Третья версия (5 этапов).
	"Заявка в jira":           StatusJiraTicket,
	"Прикінцева конфігурація": StatusFinalConfiguration,
	"finita":                  StatusDone,
	"відхилено":               StatusRejected,
}

// Remap возвращает статус текущего workflow для произвольного значения:
// текущие статусы остаются как есть, известные старые — переводятся по
// LegacyLabels, всё остальное (включая пустую строку) — First().
func Remap(label string) Status {
	if IsValid(label) {
		return Status(label)
	}
	if st, ok := LegacyLabels[label]; ok {
		return st
	}
	return First()
}
