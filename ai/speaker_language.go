// Агрегация языковых наблюдений по спикерам: взвешенный основной язык
// стабилизирует сегменты, которые по отдельности слишком коротки или зашумлены
package ai

import "sort"

// AggregationConfig веса и нормировки для агрегации языков спикера
// Константы эмпирические, совпадают с калибровкой пайплайна
type AggregationConfig struct {
	ConfidenceWeight float64 // Вклад уверенности детектора (0.5)
	DurationWeight   float64 // Вклад длительности сегмента (0.3)
	QualityWeight    float64 // Вклад плотности текста (0.2)
	DurationNorm     float64 // Длительность полного веса в секундах (5.0)
	DefaultLanguage  string  // Язык для спикеров без успешных сегментов ("en")
}

// DefaultAggregationConfig возвращает конфигурацию по умолчанию
func DefaultAggregationConfig() AggregationConfig {
	return AggregationConfig{
		ConfidenceWeight: 0.5,
		DurationWeight:   0.3,
		QualityWeight:    0.2,
		DurationNorm:     5.0,
		DefaultLanguage:  "en",
	}
}

// segmentWeight вес одного сегмента в выборе языка спикера:
// баланс уверенности детектора, длины сегмента и плотности распознанного текста
func segmentWeight(seg TranscribedSegment, config AggregationConfig) float64 {
	durationScore := 1.0
	if config.DurationNorm > 0 && seg.Duration < config.DurationNorm {
		durationScore = seg.Duration / config.DurationNorm
	}

	wordsPerSecond := 0.0
	if seg.Duration > 0 {
		wordsPerSecond = float64(seg.WordCount()) / seg.Duration
	}
	if wordsPerSecond > 1 {
		wordsPerSecond = 1
	}

	return config.ConfidenceWeight*seg.LanguageConfidence +
		config.DurationWeight*durationScore +
		config.QualityWeight*wordsPerSecond
}

// AggregateSpeakerLanguages строит языковой профиль каждого спикера по его
// сегментам. Учитываются только успешные сегменты с положительной уверенностью;
// спикер без таких сегментов получает профиль по умолчанию, никогда не nil
func AggregateSpeakerLanguages(segments []TranscribedSegment, config AggregationConfig) map[string]SpeakerLanguageProfile {
	bySpeaker := make(map[string][]TranscribedSegment)
	seen := make(map[string]bool)
	var speakers []string

	for _, seg := range segments {
		if !seen[seg.Speaker] {
			seen[seg.Speaker] = true
			speakers = append(speakers, seg.Speaker)
		}
		if seg.Status == StatusSuccess && seg.LanguageConfidence > 0 {
			bySpeaker[seg.Speaker] = append(bySpeaker[seg.Speaker], seg)
		}
	}
	sort.Strings(speakers)

	profiles := make(map[string]SpeakerLanguageProfile, len(speakers))

	for _, speaker := range speakers {
		analyzed := bySpeaker[speaker]
		if len(analyzed) == 0 {
			profiles[speaker] = SpeakerLanguageProfile{
				Speaker:         speaker,
				PrimaryLanguage: config.DefaultLanguage,
			}
			continue
		}

		weights := make(map[string]float64)
		counts := make(map[string]int)
		var order []string
		total := 0.0

		for _, seg := range analyzed {
			w := segmentWeight(seg, config)
			if counts[seg.Language] == 0 {
				order = append(order, seg.Language)
			}
			weights[seg.Language] += w
			counts[seg.Language]++
			total += w
		}

		// Язык с максимальным суммарным весом; при равенстве - встретившийся раньше
		primary := order[0]
		for _, language := range order[1:] {
			if weights[language] > weights[primary] {
				primary = language
			}
		}

		confidence := 0.0
		if total > 0 {
			confidence = weights[primary] / total
		}
		if confidence > 1 {
			confidence = 1
		}

		profiles[speaker] = SpeakerLanguageProfile{
			Speaker:          speaker,
			PrimaryLanguage:  primary,
			Confidence:       confidence,
			SegmentsAnalyzed: len(analyzed),
			Consistency:      float64(counts[primary]) / float64(len(analyzed)),
		}
	}

	return profiles
}
