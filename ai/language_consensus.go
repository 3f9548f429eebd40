// Пофрагментное определение языка с консенсусом нескольких попыток детекции
package ai

import "log"

// ConsensusConfig конфигурация обработки сегментов
type ConsensusConfig struct {
	SampleRate            int     // Частота дискретизации входного сигнала
	ConsensusSamples      int     // Число независимых попыток детекции языка (3)
	MinLanguageConfidence float64 // Порог уверенности для подсказки языка движку (0.7)
	MinSliceDuration      float64 // Минимальная длительность фрагмента для оракула (0.3s)
	FallbackLanguage      string  // Язык по умолчанию ("en")
	FallbackConfidence    float64 // Уверенность при свободной детекции движком (0.5)
}

// DefaultConsensusConfig возвращает конфигурацию по умолчанию
func DefaultConsensusConfig() ConsensusConfig {
	return ConsensusConfig{
		SampleRate:            16000,
		ConsensusSamples:      3,
		MinLanguageConfidence: 0.7,
		MinSliceDuration:      0.3,
		FallbackLanguage:      "en",
		FallbackConfidence:    0.5,
	}
}

// SegmentProcessor транскрибирует сегменты с консенсусной детекцией языка
type SegmentProcessor struct {
	oracle TranscriptionOracle
	config ConsensusConfig
}

// NewSegmentProcessor создаёт обработчик сегментов
func NewSegmentProcessor(oracle TranscriptionOracle, config ConsensusConfig) *SegmentProcessor {
	return &SegmentProcessor{oracle: oracle, config: config}
}

// ProcessSegment обрабатывает один очищенный сегмент: вырезает фрагмент из
// полного сигнала, определяет язык консенсусом и транскрибирует.
// Ошибки оракула не прерывают пайплайн - сегмент получает StatusFailed
func (p *SegmentProcessor) ProcessSegment(samples []float32, seg SpeakerSegment) TranscribedSegment {
	slice := p.extractSlice(samples, seg)

	// Слишком короткие фрагменты не отдаём оракулу
	if float64(len(slice))/float64(p.config.SampleRate) < p.config.MinSliceDuration {
		return TranscribedSegment{
			SpeakerSegment: seg,
			Language:       "unknown",
			Status:         StatusTooShort,
		}
	}

	// Несколько независимых попыток детекции: компенсирует шум детектора
	// на коротких и неоднозначных фрагментах
	var attempts []LanguageDetection
	for i := 0; i < p.config.ConsensusSamples; i++ {
		det, err := p.oracle.DetectLanguage(slice)
		if err != nil {
			log.Printf("SegmentProcessor: language detection attempt %d failed for segment %d: %v", i+1, seg.ID, err)
			continue
		}
		attempts = append(attempts, det)
	}

	language, confidence, consensus := resolveConsensus(attempts, p.config)

	// При уверенной детекции подсказываем язык движку - это повышает
	// точность транскрипции; иначе движок определяет язык сам
	var result TranscriptionResult
	var err error
	if confidence >= p.config.MinLanguageConfidence {
		result, err = p.oracle.Transcribe(slice, language)
	} else {
		result, err = p.oracle.Transcribe(slice, "")
		if err == nil {
			if result.Language != "" {
				language = result.Language
			} else {
				language = "unknown"
			}
			confidence = p.config.FallbackConfidence
		}
	}

	if err != nil {
		return TranscribedSegment{
			SpeakerSegment: seg,
			Language:       "unknown",
			Status:         StatusFailed,
			Error:          err.Error(),
			Attempts:       attempts,
		}
	}

	return TranscribedSegment{
		SpeakerSegment:     seg,
		Text:               result.Text,
		Language:           language,
		LanguageConfidence: confidence,
		Status:             StatusSuccess,
		Attempts:           attempts,
		ConsensusReached:   consensus,
	}
}

// extractSlice вырезает фрагмент [Start, End) из полного сигнала
// Фрагмент живёт только в рамках обработки сегмента
func (p *SegmentProcessor) extractSlice(samples []float32, seg SpeakerSegment) []float32 {
	start := int(seg.Start * float64(p.config.SampleRate))
	end := int(seg.End * float64(p.config.SampleRate))

	if start < 0 {
		start = 0
	}
	if end > len(samples) {
		end = len(samples)
	}
	if start >= end {
		return nil
	}
	return samples[start:end]
}

// resolveConsensus сводит несколько зашумлённых детекций к одному языку.
// Строгое большинство (> половины попыток) побеждает, уверенность - среднее
// по согласившимся попыткам. Без большинства берётся самая уверенная попытка
func resolveConsensus(attempts []LanguageDetection, config ConsensusConfig) (string, float64, bool) {
	if len(attempts) == 0 {
		return config.FallbackLanguage, 0, false
	}

	counts := make(map[string]int)
	var order []string
	for _, det := range attempts {
		if counts[det.Language] == 0 {
			order = append(order, det.Language)
		}
		counts[det.Language]++
	}

	// При равенстве счётчиков побеждает язык, встретившийся раньше
	topLanguage := ""
	topCount := 0
	for _, language := range order {
		if counts[language] > topCount {
			topLanguage = language
			topCount = counts[language]
		}
	}

	majority := (config.ConsensusSamples + 1) / 2
	if topCount >= majority {
		sum := 0.0
		for _, det := range attempts {
			if det.Language == topLanguage {
				sum += det.Confidence
			}
		}
		return topLanguage, sum / float64(topCount), true
	}

	best := attempts[0]
	for _, det := range attempts[1:] {
		if det.Confidence > best.Confidence {
			best = det
		}
	}
	return best.Language, best.Confidence, false
}
