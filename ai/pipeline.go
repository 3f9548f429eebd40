// MultilingualPipeline оркестрирует полный прогон: диаризация, очистка
// перекрытий, пофрагментная транскрипция с детекцией языка, агрегация по
// спикерам, финальное выравнивание и оценка качества
package ai

import (
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/google/uuid"
)

// PipelineConfig конфигурация пайплайна
type PipelineConfig struct {
	SampleRate            int     // Частота дискретизации входа (16000)
	MinSpeakers           int     // Минимум спикеров при автоопределении (1)
	MaxSpeakers           int     // Максимум спикеров при автоопределении (10)
	MinLanguageConfidence float64 // Порог уверенности детекции языка (0.7)
	MinSegmentDuration    float64 // Минимальная длительность сегмента в секундах (0.5)
	OverlapThreshold      float64 // Максимальное малое перекрытие в секундах (0.1)
	ConsensusSamples      int     // Число попыток детекции языка на сегмент (3)
}

// DefaultPipelineConfig возвращает конфигурацию по умолчанию
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		SampleRate:            16000,
		MinSpeakers:           1,
		MaxSpeakers:           10,
		MinLanguageConfidence: 0.7,
		MinSegmentDuration:    0.5,
		OverlapThreshold:      0.1,
		ConsensusSamples:      3,
	}
}

// ProcessOptions параметры одного прогона
type ProcessOptions struct {
	NumSpeakers int // Фиксированное число спикеров, 0 = автоопределение
}

// Metadata метаданные прогона
type Metadata struct {
	RunID          string        // Уникальный идентификатор прогона
	Engine         string        // Движок сегментации (embedding_cluster / energy_fallback)
	Transcriber    string        // Имя движка транскрипции
	NumSpeakers    int           // Количество обнаруженных спикеров
	NumSegments    int           // Количество итоговых сегментов
	TotalDuration  float64       // Длительность аудио по сегментам в секундах
	Languages      []string      // Обнаруженные языки (отсортированы)
	Multilingual   bool          // Больше одного языка в записи
	ProcessingTime time.Duration // Время обработки
}

// Result полный результат прогона пайплайна
type Result struct {
	Segments         []AlignedSegment                  // Итоговые сегменты в порядке времени
	Speakers         []string                          // Уникальные метки спикеров (отсортированы)
	SpeakerStats     map[string]SpeakerStats           // Статистика по спикерам
	SpeakerLanguages map[string]SpeakerLanguageProfile // Языковые профили спикеров
	Accuracy         AccuracyReport                    // Оценка качества прогона
	Metadata         Metadata                          // Метаданные прогона
}

// MultilingualPipeline пайплайн мультиязычной диаризации и транскрипции
// Оракулы передаются при создании - никаких глобальных моделей,
// несколько пайплайнов с разными моделями могут работать одновременно
type MultilingualPipeline struct {
	transcriber TranscriptionOracle
	diarizer    *Diarizer
	processor   *SegmentProcessor
	config      PipelineConfig
}

// NewMultilingualPipeline создаёт пайплайн
// transcriber обязателен; embedder и vad могут быть nil - тогда сегментация
// деградирует до энергетической (это фиксируется в метаданных результата)
func NewMultilingualPipeline(transcriber TranscriptionOracle, embedder EmbeddingOracle, vad VoiceActivityOracle, config PipelineConfig) (*MultilingualPipeline, error) {
	if transcriber == nil {
		return nil, fmt.Errorf("transcription oracle is required")
	}

	diarizerConfig := DefaultDiarizerConfig()
	diarizerConfig.SampleRate = config.SampleRate
	diarizerConfig.MinSpeakers = config.MinSpeakers
	diarizerConfig.MaxSpeakers = config.MaxSpeakers

	consensusConfig := DefaultConsensusConfig()
	consensusConfig.SampleRate = config.SampleRate
	consensusConfig.ConsensusSamples = config.ConsensusSamples
	consensusConfig.MinLanguageConfidence = config.MinLanguageConfidence

	return &MultilingualPipeline{
		transcriber: transcriber,
		diarizer:    NewDiarizer(embedder, vad, diarizerConfig),
		processor:   NewSegmentProcessor(transcriber, consensusConfig),
		config:      config,
	}, nil
}

// Process обрабатывает один аудио файл: samples - float32, 16kHz, mono
// Ошибки отдельных сегментов не прерывают прогон; фатальны только пустой
// вход и полное отсутствие речи
func (p *MultilingualPipeline) Process(samples []float32, opts ProcessOptions) (*Result, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("empty audio input")
	}

	started := time.Now()
	runID := uuid.NewString()
	log.Printf("Pipeline %s: processing %.1fs of audio", runID, float64(len(samples))/float64(p.config.SampleRate))

	// 1. Диаризация
	diarization, err := p.diarizer.Diarize(samples, opts.NumSpeakers)
	if err != nil {
		return nil, fmt.Errorf("diarization failed: %w", err)
	}
	log.Printf("Pipeline %s: diarization complete, %d speakers, %d raw segments (engine=%s)",
		runID, diarization.NumSpeakers, len(diarization.Segments), diarization.Engine)

	// 2. Очистка перекрытий: детекция языка на пересекающихся сегментах
	// даёт мусор, поэтому разбиение должно быть строгим
	clean := ResolveOverlaps(diarization.Segments, p.config.MinSegmentDuration, p.config.OverlapThreshold)
	log.Printf("Pipeline %s: overlap resolution %d -> %d segments", runID, len(diarization.Segments), len(clean))
	if len(clean) == 0 {
		return nil, fmt.Errorf("no usable segments after overlap resolution")
	}

	// 3. Пофрагментная обработка: каждый сегмент - отдельное аудио
	transcribed := make([]TranscribedSegment, 0, len(clean))
	for i, seg := range clean {
		result := p.processor.ProcessSegment(samples, seg)
		if result.Status != StatusSuccess {
			log.Printf("Pipeline %s: segment %d/%d (%s) not transcribed: %s %s",
				runID, i+1, len(clean), seg.Speaker, result.Status, result.Error)
		}
		transcribed = append(transcribed, result)
	}

	// 4. Агрегация языков по спикерам
	aggregation := DefaultAggregationConfig()
	profiles := AggregateSpeakerLanguages(transcribed, aggregation)

	// 5. Финальное выравнивание
	alignerConfig := DefaultAlignerConfig()
	alignerConfig.MinLanguageConfidence = p.config.MinLanguageConfidence
	aligned := FinalizeAlignment(transcribed, profiles, alignerConfig)

	// 6. Статистика и оценка качества
	stats := ComputeSpeakerStats(aligned, p.config.MinLanguageConfidence)
	accuracy := EstimateAccuracy(transcribed, p.config.MinLanguageConfidence)

	result := &Result{
		Segments:         aligned,
		Speakers:         speakerList(aligned),
		SpeakerStats:     stats,
		SpeakerLanguages: profiles,
		Accuracy:         accuracy,
		Metadata: Metadata{
			RunID:          runID,
			Engine:         diarization.Engine,
			Transcriber:    p.transcriber.Name(),
			NumSpeakers:    len(speakerList(aligned)),
			NumSegments:    len(aligned),
			TotalDuration:  totalDuration(aligned),
			Languages:      languageList(aligned),
			ProcessingTime: time.Since(started),
		},
	}
	result.Metadata.Multilingual = len(result.Metadata.Languages) > 1

	log.Printf("Pipeline %s: complete in %s, %d speakers, %d segments, estimated accuracy %.1f%%",
		runID, result.Metadata.ProcessingTime.Round(time.Millisecond),
		result.Metadata.NumSpeakers, result.Metadata.NumSegments, accuracy.EstimatedAccuracy)

	return result, nil
}

// speakerList уникальные метки спикеров в отсортированном порядке
func speakerList(segments []AlignedSegment) []string {
	seen := make(map[string]bool)
	var speakers []string
	for _, seg := range segments {
		if !seen[seg.Speaker] {
			seen[seg.Speaker] = true
			speakers = append(speakers, seg.Speaker)
		}
	}
	sort.Strings(speakers)
	return speakers
}

// languageList уникальные итоговые языки в отсортированном порядке
func languageList(segments []AlignedSegment) []string {
	seen := make(map[string]bool)
	var languages []string
	for _, seg := range segments {
		if !seen[seg.FinalLanguage] {
			seen[seg.FinalLanguage] = true
			languages = append(languages, seg.FinalLanguage)
		}
	}
	sort.Strings(languages)
	return languages
}

// totalDuration длительность записи по правой границе последнего сегмента
func totalDuration(segments []AlignedSegment) float64 {
	max := 0.0
	for _, seg := range segments {
		if seg.End > max {
			max = seg.End
		}
	}
	return max
}
