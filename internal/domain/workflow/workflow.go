// Пакет workflow — единый источник истины для статусов подразделения.
// Статусы образуют упорядоченный workflow: заявка проходит этапы
// от создания учётных записей до завершения (или отклонения).
// Отображаемые подписи статусов живут в пакете i18n, не здесь.
package workflow

// Status — этап workflow подразделения.
type Status string

// Этапы workflow в порядке прохождения.
const (
	StatusCreatedAccounts    Status = "Created accounts"
	StatusJiraTicket         Status = "Jira ticket"
	StatusFinalConfiguration Status = "Final configuration"
	StatusDone               Status = "Done"
	StatusRejected           Status = "Rejected"
)

// ordered — все статусы в порядке workflow.
var ordered = []Status{
	StatusCreatedAccounts,
	StatusJiraTicket,
	StatusFinalConfiguration,
	StatusDone,
	StatusRejected,
}

// progress — путь успешного прохождения (без отклонения).
var progress = []Status{
	StatusCreatedAccounts,
	StatusJiraTicket,
	StatusFinalConfiguration,
	StatusDone,
}

// First возвращает первый этап workflow (значение статуса по умолчанию).
func First() Status {
	return ordered[0]
}

// All возвращает копию упорядоченного списка статусов.
func All() []Status {
	out := make([]Status, len(ordered))
	copy(out, ordered)
	return out
}

// Progress возвращает этапы успешного пути в порядке прохождения.
func Progress() []Status {
	out := make([]Status, len(progress))
	copy(out, progress)
	return out
}

// Strings возвращает статусы workflow в виде строк.
func Strings() []string {
	out := make([]string, len(ordered))
	for i, s := range ordered {
		out[i] = string(s)
	}
	return out
}

// IsValid проверяет, входит ли значение в текущий workflow.
func IsValid(s string) bool {
	return Index(Status(s)) >= 0
}

// Index возвращает позицию статуса в workflow или -1.
func Index(s Status) int {
	for i, st := range ordered {
		if st == s {
			return i
		}
	}
	return -1
}

// IsTerminal — статус завершает работу с подразделением.
func (s Status) IsTerminal() bool {
	return s == StatusDone || s == StatusRejected
}

// IsSuccess — работа с подразделением успешно завершена.
func (s Status) IsSuccess() bool {
	return s == StatusDone
}

func (s Status) String() string {
	return string(s)
}
