// Финальное выравнивание: выбор итогового языка каждого сегмента
// и агрегированная статистика по спикерам
package ai

import "sort"

// AlignerConfig конфигурация финального выравнивания
type AlignerConfig struct {
	MinLanguageConfidence float64 // Порог доверия сегментной/спикерной детекции (0.7)
	FallbackLanguage      string  // Язык последнего уровня ("en")
	FallbackConfidence    float64 // Уверенность последнего уровня (0.5)
}

// DefaultAlignerConfig возвращает конфигурацию по умолчанию
func DefaultAlignerConfig() AlignerConfig {
	return AlignerConfig{
		MinLanguageConfidence: 0.7,
		FallbackLanguage:      "en",
		FallbackConfidence:    0.5,
	}
}

// FinalizeAlignment назначает каждому сегменту итоговый язык по трёхуровневому
// правилу: уверенная детекция самого сегмента, иначе уверенный профиль спикера,
// иначе язык по умолчанию. Каждый сегмент всегда получает язык и уверенность.
// Выход отсортирован по времени начала
func FinalizeAlignment(segments []TranscribedSegment, profiles map[string]SpeakerLanguageProfile, config AlignerConfig) []AlignedSegment {
	aligned := make([]AlignedSegment, 0, len(segments))

	for _, seg := range segments {
		profile := profiles[seg.Speaker]

		var language string
		var confidence float64
		var method AssignmentMethod

		switch {
		case seg.LanguageConfidence >= config.MinLanguageConfidence:
			language = seg.Language
			confidence = seg.LanguageConfidence
			method = AssignSegmentLevel
		case profile.Confidence >= config.MinLanguageConfidence:
			language = profile.PrimaryLanguage
			confidence = profile.Confidence
			method = AssignSpeakerLevel
		default:
			language = config.FallbackLanguage
			confidence = config.FallbackConfidence
			method = AssignFallback
		}

		aligned = append(aligned, AlignedSegment{
			TranscribedSegment: seg,
			FinalLanguage:      language,
			FinalConfidence:    confidence,
			AssignmentMethod:   method,
		})
	}

	// Вход уже упорядочен, но сортируем на случай перемешанных сегментов
	sort.SliceStable(aligned, func(i, j int) bool { return aligned[i].Start < aligned[j].Start })

	return aligned
}

// SpeakerStats агрегированная статистика одного спикера
type SpeakerStats struct {
	Segments               int     // Всего сегментов
	SuccessfulSegments     int     // Успешно обработанных
	FailedSegments         int     // Завершившихся ошибкой или too_short
	HighConfidenceSegments int     // С уверенностью выше порога
	TotalDuration          float64 // Суммарная длительность речи в секундах
	TotalWords             int     // Суммарное число слов
	DurationPercent        float64 // Доля времени речи спикера (0-100)
	WordsPercent           float64 // Доля слов спикера (0-100)
	SuccessPercent         float64 // Доля успешных сегментов (0-100)
	HighConfidencePercent  float64 // Доля уверенных сегментов (0-100)
}

// ComputeSpeakerStats считает статистику по каждому спикеру итогового транскрипта
func ComputeSpeakerStats(segments []AlignedSegment, minConfidence float64) map[string]SpeakerStats {
	stats := make(map[string]SpeakerStats)
	totalDuration := 0.0
	totalWords := 0

	for _, seg := range segments {
		s := stats[seg.Speaker]
		words := seg.WordCount()

		s.Segments++
		s.TotalDuration += seg.Duration
		s.TotalWords += words
		totalDuration += seg.Duration
		totalWords += words

		if seg.Status == StatusSuccess {
			s.SuccessfulSegments++
			if seg.LanguageConfidence >= minConfidence {
				s.HighConfidenceSegments++
			}
		} else {
			s.FailedSegments++
		}

		stats[seg.Speaker] = s
	}

	for speaker, s := range stats {
		if totalDuration > 0 {
			s.DurationPercent = s.TotalDuration / totalDuration * 100
		}
		if totalWords > 0 {
			s.WordsPercent = float64(s.TotalWords) / float64(totalWords) * 100
		}
		if s.Segments > 0 {
			s.SuccessPercent = float64(s.SuccessfulSegments) / float64(s.Segments) * 100
			s.HighConfidencePercent = float64(s.HighConfidenceSegments) / float64(s.Segments) * 100
		}
		stats[speaker] = s
	}

	return stats
}
