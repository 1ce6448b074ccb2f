package workflow

import "testing"

// TestFirst проверяет статус по умолчанию.
func TestFirst(t *testing.T) {
	if First() != StatusCreatedAccounts {
		t.Errorf("First() = %q, ожидался %q", First(), StatusCreatedAccounts)
	}
}

// TestIsValid проверяет принадлежность значения workflow.
func TestIsValid(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"Created accounts", true},
		{"Jira ticket", true},
		{"Final configuration", true},
		{"Done", true},
		{"Rejected", true},
		{"done", false},
		{"Completed", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsValid(tt.input); got != tt.want {
			t.Errorf("IsValid(%q) = %v, ожидалось %v", tt.input, got, tt.want)
		}
	}
}

// TestAll_ReturnsCopy проверяет, что изменение результата не меняет workflow.
func TestAll_ReturnsCopy(t *testing.T) {
	all := All()
	if len(all) != 5 {
		t.Fatalf("len(All()) = %d, ожидалось 5", len(all))
	}
	all[0] = "broken"
	if First() != StatusCreatedAccounts {
		t.Error("All() вернул ссылку на внутренний срез")
	}
}

// TestProgress проверяет путь успешного прохождения.
func TestProgress(t *testing.T) {
	p := Progress()
	if len(p) != 4 {
		t.Fatalf("len(Progress()) = %d, ожидалось 4", len(p))
	}
	if p[len(p)-1] != StatusDone {
		t.Errorf("последний этап = %q, ожидался Done", p[len(p)-1])
	}
	for _, st := range p {
		if st == StatusRejected {
			t.Error("Rejected не должен входить в Progress()")
		}
	}
}

// TestTerminal проверяет терминальные статусы.
func TestTerminal(t *testing.T) {
	if !StatusDone.IsTerminal() || !StatusRejected.IsTerminal() {
		t.Error("Done и Rejected должны быть терминальными")
	}
	if StatusJiraTicket.IsTerminal() {
		t.Error("Jira ticket не терминальный")
	}
	if !StatusDone.IsSuccess() || StatusRejected.IsSuccess() {
		t.Error("успешный только Done")
	}
}

// TestRemap проверяет перевод старых статусов.
func TestRemap(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Status
	}{
		{"текущий статус не меняется", "Jira ticket", StatusJiraTicket},
		{"Completed → Done", "Completed", StatusDone},
		{"Accepted Request → первый этап", "Accepted Request", StatusCreatedAccounts},
		{"карантин → финальная конфигурация", "Quarantine - 2", StatusFinalConfiguration},
		{"Завершено → Done", "Завершено", StatusDone},
		{"finita → Done", "finita", StatusDone},
		{"відхилено → Rejected", "відхилено", StatusRejected},
		{"неизвестное значение → первый этап", "что-то новое", StatusCreatedAccounts},
		{"пустая строка → первый этап", "", StatusCreatedAccounts},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Remap(tt.input); got != tt.want {
				t.Errorf("Remap(%q) = %q, ожидался %q", tt.input, got, tt.want)
			}
		})
	}
}

// TestLegacyLabels_TargetsValid проверяет, что все цели маппинга входят в workflow.
func TestLegacyLabels_TargetsValid(t *testing.T) {
	for old, st := range LegacyLabels {
		if !IsValid(string(st)) {
			t.Errorf("LegacyLabels[%q] = %q — вне workflow", old, st)
		}
		if IsValid(old) {
			t.Errorf("старый статус %q совпадает с текущим", old)
		}
	}
}
