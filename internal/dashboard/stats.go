package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/bigkaa/unit-tracker/internal/domain/model"
	"github.com/bigkaa/unit-tracker/internal/domain/workflow"
)

// StageCount — этап workflow на графике статистики.
type StageCount struct {
	Status workflow.Status `json:"status"`
	// Count — подразделения, находящиеся на этапе сейчас
	Count int `json:"count"`
	// Reached — подразделения, дошедшие до этапа или дальше
	Reached int `json:"reached"`
	// Percent — Reached относительно самого заполненного этапа, 0..100
	Percent float64 `json:"percent"`
}

// Statistics — сводка для страницы статистики.
type Statistics struct {
	// Stages — этапы успешного пути в порядке workflow, без пропусков
	Stages          []StageCount `json:"stages"`
	Rejected        int          `json:"rejected"`
	RejectedPercent float64      `json:"rejected_percent"`
	Total           int          `json:"total"`
}

// StatsView строит сводку из сырых счётчиков aggregateByStatus.
// Отсутствующие статусы заполняются нулями. Reached накопительный:
// подразделение на этапе i учитывается на всех этапах 0..i, отклонённые
// учитываются на первых двух этапах (отклонение происходит после заявки).
// Неизвестные статусы входят только в Total.
func StatsView(counts []model.StatusCount) Statistics {
	byStatus := make(map[workflow.Status]int, len(counts))
	total := 0
	for _, c := range counts {
		byStatus[workflow.Status(c.Status)] += c.Count
		total += c.Count
	}

	progress := workflow.Progress()
	stages := make([]StageCount, len(progress))
	for i, st := range progress {
		n := byStatus[st]
		stages[i].Status = st
		stages[i].Count = n
		for j := 0; j <= i; j++ {
			stages[j].Reached += n
		}
	}

	rejected := byStatus[workflow.StatusRejected]
	for j := 0; j < len(stages) && j < 2; j++ {
		stages[j].Reached += rejected
	}

	peak := 0
	for _, st := range stages {
		peak = max(peak, st.Reached)
	}
	for i := range stages {
		stages[i].Percent = percent(stages[i].Reached, peak)
	}

	return Statistics{
		Stages:          stages,
		Rejected:        rejected,
		RejectedPercent: percent(rejected, total),
		Total:           total,
	}
}

func percent(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) * 100 / float64(whole)
}

// RefreshStats запрашивает счётчики по статусам.
func (s *Store) RefreshStats(ctx context.Context) error {
	counts, err := s.api.Stats(ctx)
	if err != nil {
		return fmt.Errorf("загрузка статистики: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts = counts
	s.statsAt = time.Now()
	return nil
}

// Stats возвращает сводку по последним полученным счётчикам.
func (s *Store) Stats() Statistics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return StatsView(s.counts)
}

// StatsUpdatedAt — время последнего обновления статистики.
func (s *Store) StatsUpdatedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statsAt
}
