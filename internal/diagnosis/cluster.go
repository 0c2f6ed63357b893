package diagnosis

import (
	"time"

	"github.com/twm105/bloaty-mcbloatface-sub001/internal/domain"
)

// ClusterWindow — окно группировки симптомов в эпизоды.
// Записи, начавшиеся в пределах этого окна от начала эпизода,
// относятся к тому же эпизоду.
const ClusterWindow = 4 * time.Hour

// Episode — кластер симптомов, рассматриваемый как одно событие.
type Episode struct {
	// Start — начало эпизода (start_time первой записи).
	Start time.Time

	// Symptoms — записи, вошедшие в эпизод.
	Symptoms []domain.Symptom
}

// MaxSeverity возвращает максимальную тяжесть по всем записям эпизода.
func (e *Episode) MaxSeverity() int {
	max := 0
	for i := range e.Symptoms {
		if s := e.Symptoms[i].MaxSeverity(); s > max {
			max = s
		}
	}
	return max
}

// Tags возвращает объединённые теги эпизода.
func (e *Episode) Tags() []domain.SymptomTag {
	var tags []domain.SymptomTag
	for i := range e.Symptoms {
		tags = append(tags, e.Symptoms[i].Tags...)
	}
	return tags
}

// ClusterEpisodes группирует симптомы в эпизоды.
//
// Вход должен быть отсортирован по start_time по возрастанию.
// Запись попадает в текущий эпизод, если её start_time не дальше
// ClusterWindow от начала эпизода; иначе открывается новый эпизод.
// Записи с общим EpisodeID всегда попадают в один эпизод.
func ClusterEpisodes(symptoms []domain.Symptom) []Episode {
	if len(symptoms) == 0 {
		return nil
	}

	var episodes []Episode
	byEpisodeID := make(map[string]int)

	for i := range symptoms {
		s := symptoms[i]

		// Явная привязка к эпизоду имеет приоритет над временным окном
		if s.EpisodeID != nil {
			key := s.EpisodeID.String()
			if idx, ok := byEpisodeID[key]; ok {
				episodes[idx].Symptoms = append(episodes[idx].Symptoms, s)
				continue
			}
			episodes = append(episodes, Episode{Start: s.StartTime, Symptoms: []domain.Symptom{s}})
			byEpisodeID[key] = len(episodes) - 1
			continue
		}

		if len(episodes) > 0 {
			last := &episodes[len(episodes)-1]
			if s.StartTime.Sub(last.Start) <= ClusterWindow {
				last.Symptoms = append(last.Symptoms, s)
				continue
			}
		}
		episodes = append(episodes, Episode{Start: s.StartTime, Symptoms: []domain.Symptom{s}})
	}

	return episodes
}
