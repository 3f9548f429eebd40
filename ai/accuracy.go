// Эвристическая оценка качества прогона. Это диагностика по статистике
// успехов и уверенности, а не сравнение с эталонной разметкой
package ai

import "gonum.org/v1/gonum/stat"

// Нормировка и потолок оценки точности
const (
	// accuracyTextQualityNorm слов в секунду, дающих полный балл качества текста
	accuracyTextQualityNorm = 3.0
	// accuracyCap оценка никогда не заявляет стопроцентную точность
	accuracyCap = 99.0
)

// AccuracyReport агрегированные метрики качества прогона
type AccuracyReport struct {
	TotalSegments          int     // Всего сегментов
	SuccessfulSegments     int     // Успешно обработанных
	FailedSegments         int     // Неуспешных (failed и too_short)
	HighConfidenceSegments int     // С уверенностью выше порога
	SuccessRate            float64 // Доля успешных (0-100)
	HighConfidenceRate     float64 // Доля уверенных (0-100)
	AverageTextQuality     float64 // Средняя плотность текста, слов/сек
	EstimatedAccuracy      float64 // Итоговая оценка точности (0-99)
}

// EstimateAccuracy строит оценку качества по всем сегментам прогона.
// Неуспешные сегменты исключены из метрик текста, но входят в знаменатели
func EstimateAccuracy(segments []TranscribedSegment, minConfidence float64) AccuracyReport {
	report := AccuracyReport{TotalSegments: len(segments)}

	var qualities []float64
	for _, seg := range segments {
		if seg.Status == StatusSuccess {
			report.SuccessfulSegments++
			if seg.Duration > 0 {
				qualities = append(qualities, float64(seg.WordCount())/seg.Duration)
			}
		}
		if seg.LanguageConfidence >= minConfidence {
			report.HighConfidenceSegments++
		}
	}
	report.FailedSegments = report.TotalSegments - report.SuccessfulSegments

	successRate := 0.0
	confidenceRate := 0.0
	if report.TotalSegments > 0 {
		successRate = float64(report.SuccessfulSegments) / float64(report.TotalSegments)
		confidenceRate = float64(report.HighConfidenceSegments) / float64(report.TotalSegments)
	}

	avgQuality := 0.0
	if len(qualities) > 0 {
		avgQuality = stat.Mean(qualities, nil)
	}
	qualityScore := avgQuality / accuracyTextQualityNorm
	if qualityScore > 1 {
		qualityScore = 1
	}

	estimated := (successRate*0.4 + confidenceRate*0.4 + qualityScore*0.2) * 100
	if estimated > accuracyCap {
		estimated = accuracyCap
	}

	report.SuccessRate = successRate * 100
	report.HighConfidenceRate = confidenceRate * 100
	report.AverageTextQuality = avgQuality
	report.EstimatedAccuracy = estimated

	return report
}
