// Диаризация спикеров: скользящее окно + speaker embeddings + кластеризация.
// При недоступной модели эмбеддингов деградирует до энергетической сегментации.
package ai

import (
	"fmt"
	"log"
	"math"
)

// Имена движков сегментации для метаданных результата
const (
	EngineEmbeddingCluster = "embedding_cluster"
	EngineEnergyFallback   = "energy_fallback"
)

// DiarizerConfig конфигурация диаризатора
type DiarizerConfig struct {
	SampleRate      int     // Частота дискретизации входа (16000)
	WindowLength    float64 // Длина окна анализа в секундах (1.5)
	WindowShift     float64 // Шаг окна в секундах (0.5)
	EnergyThreshold float64 // Порог среднего квадрата амплитуды для VAD без модели
	MinSpeakers     int     // Нижняя граница при автоопределении числа спикеров
	MaxSpeakers     int     // Верхняя граница при автоопределении числа спикеров
}

// DefaultDiarizerConfig возвращает конфигурацию по умолчанию
func DefaultDiarizerConfig() DiarizerConfig {
	return DiarizerConfig{
		SampleRate:      16000,
		WindowLength:    1.5,
		WindowShift:     0.5,
		EnergyThreshold: 1e-4,
		MinSpeakers:     1,
		MaxSpeakers:     10,
	}
}

// DiarizationResult результат диаризации
type DiarizationResult struct {
	Segments    []SpeakerSegment // Сегменты в порядке времени (могут пересекаться на границах)
	NumSpeakers int              // Количество обнаруженных спикеров
	Engine      string           // Какой движок отработал (EngineEmbeddingCluster / EngineEnergyFallback)
}

// Diarizer выполняет сегментацию аудио по спикерам
type Diarizer struct {
	config   DiarizerConfig
	embedder EmbeddingOracle     // nil = энергетический fallback
	vad      VoiceActivityOracle // nil = энергетический порог
}

// NewDiarizer создаёт диаризатор. embedder и vad могут быть nil:
// без embedder работает энергетическая сегментация, без vad - порог энергии
func NewDiarizer(embedder EmbeddingOracle, vad VoiceActivityOracle, config DiarizerConfig) *Diarizer {
	if embedder == nil {
		log.Printf("Diarizer: embedding oracle not available, will use energy-based fallback")
	}
	return &Diarizer{
		config:   config,
		embedder: embedder,
		vad:      vad,
	}
}

// Diarize разбивает аудио на сегменты спикеров
// numSpeakers > 0 фиксирует число спикеров, 0 = автоопределение
func (d *Diarizer) Diarize(samples []float32, numSpeakers int) (*DiarizationResult, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("empty audio input")
	}

	if d.embedder != nil {
		result, err := d.diarizeEmbeddings(samples, numSpeakers)
		if err == nil {
			return result, nil
		}
		log.Printf("Diarizer: embedding clustering failed (%v), using energy-based fallback", err)
	}

	return d.diarizeEnergy(samples)
}

// diarizeEmbeddings основной путь: окна -> VAD -> эмбеддинги -> кластеризация
func (d *Diarizer) diarizeEmbeddings(samples []float32, numSpeakers int) (*DiarizationResult, error) {
	frameSamples := int(d.config.WindowLength * float64(d.config.SampleRate))
	shiftSamples := int(d.config.WindowShift * float64(d.config.SampleRate))

	// 1. Скользящее окно: фреймы с таймстемпом начала окна
	var timestamps []float64
	var voiced []bool
	var embeddings [][]float64
	var voicedIndices []int

	for start := 0; start+frameSamples <= len(samples); start += shiftSamples {
		frame := samples[start : start+frameSamples]
		timestamps = append(timestamps, float64(start)/float64(d.config.SampleRate))

		hasVoice := d.frameHasVoice(frame)
		voiced = append(voiced, hasVoice)

		if !hasVoice {
			continue
		}

		// 2. Эмбеддинг только для голосовых фреймов; фреймы без голоса
		// получат метку соседа на этапе заполнения
		emb, err := d.embedder.Embed(frame)
		if err != nil {
			log.Printf("Diarizer: embedding failed for frame at %.2fs: %v", timestamps[len(timestamps)-1], err)
			voiced[len(voiced)-1] = false
			continue
		}

		vec := make([]float64, len(emb))
		for i, x := range emb {
			vec[i] = float64(x)
		}
		embeddings = append(embeddings, vec)
		voicedIndices = append(voicedIndices, len(timestamps)-1)
	}

	if len(timestamps) == 0 {
		return nil, fmt.Errorf("audio shorter than analysis window (%.1fs)", d.config.WindowLength)
	}
	if len(voicedIndices) == 0 {
		return nil, fmt.Errorf("no voiced frames detected")
	}

	// 3. L2-нормализация для косинусной кластеризации
	normalizeRows(embeddings)

	// 4. Число кластеров: задано вызывающим или подбирается по silhouette
	k := numSpeakers
	if k <= 0 {
		k = d.estimateSpeakers(embeddings)
	}

	// 5. Кластеризация; при сбое считаем что спикер один
	voicedLabels := make([]int, len(embeddings))
	if k > 1 && len(embeddings) >= k {
		labels, err := agglomerativeCluster(embeddings, k)
		if err != nil {
			log.Printf("Diarizer: clustering failed (%v), assigning single speaker", err)
		} else {
			voicedLabels = labels
		}
	}

	// 6. Метки на все фреймы: без голоса - метка ближайшего голосового фрейма
	// по индексу (не по времени)
	allLabels := make([]int, len(timestamps))
	for i := range allLabels {
		allLabels[i] = -1
	}
	for i, idx := range voicedIndices {
		allLabels[idx] = voicedLabels[i]
	}
	fillUnvoicedLabels(allLabels, voicedIndices)

	// 7. Перенумерация в порядке первого появления и склейка в сегменты
	allLabels = relabelByFirstAppearance(allLabels)
	segments := d.collapseToSegments(allLabels, timestamps)

	return &DiarizationResult{
		Segments:    segments,
		NumSpeakers: countSpeakers(segments),
		Engine:      EngineEmbeddingCluster,
	}, nil
}

// frameHasVoice проверяет голосовую активность фрейма
func (d *Diarizer) frameHasVoice(frame []float32) bool {
	if d.vad != nil {
		hasVoice, err := d.vad.IsVoice(frame)
		if err == nil {
			return hasVoice
		}
		log.Printf("Diarizer: VAD failed (%v), falling back to energy threshold", err)
	}
	return meanEnergy(frame) > d.config.EnergyThreshold
}

// estimateSpeakers подбирает число спикеров в [MinSpeakers, MaxSpeakers]
func (d *Diarizer) estimateSpeakers(embeddings [][]float64) int {
	k := estimateNumSpeakers(embeddings, d.config.MaxSpeakers)
	if min := d.config.MinSpeakers; min > 1 && k < min {
		k = min
	}
	return k
}

// collapseToSegments склеивает последовательные фреймы с одинаковой меткой
// Сегмент длится от начала первого фрейма до начала последнего плюс длина окна
func (d *Diarizer) collapseToSegments(labels []int, timestamps []float64) []SpeakerSegment {
	var segments []SpeakerSegment
	runStart := 0

	flush := func(from, to int) {
		start := timestamps[from]
		end := timestamps[to] + d.config.WindowLength
		segments = append(segments, SpeakerSegment{
			Start:    start,
			End:      end,
			Duration: end - start,
			Speaker:  speakerLabel(labels[from]),
		})
	}

	for i := 1; i < len(labels); i++ {
		if labels[i] != labels[runStart] {
			flush(runStart, i-1)
			runStart = i
		}
	}
	flush(runStart, len(labels)-1)

	return segments
}

// diarizeEnergy грубая энергетическая сегментация без модели эмбеддингов
// Чередует метки двух спикеров на окнах с энергией выше средней по файлу
func (d *Diarizer) diarizeEnergy(samples []float32) (*DiarizationResult, error) {
	sr := d.config.SampleRate
	windowSamples := sr / 2 // 0.5s
	hopSamples := sr / 4    // 0.25s

	fileEnergy := meanEnergy(samples)

	var segments []SpeakerSegment
	current := 0

	for start := 0; start+windowSamples <= len(samples); start += hopSamples {
		window := samples[start : start+windowSamples]
		if meanEnergy(window) <= fileEnergy {
			continue
		}

		segStart := float64(start) / float64(sr)
		segEnd := float64(start+windowSamples) / float64(sr)
		segments = append(segments, SpeakerSegment{
			Start:    segStart,
			End:      segEnd,
			Duration: segEnd - segStart,
			Speaker:  speakerLabel(current % 2),
		})
		current++
	}

	if len(segments) == 0 {
		return nil, fmt.Errorf("no voiced frames detected in audio")
	}

	merged := mergeAdjacentSegments(segments, 0.5)

	return &DiarizationResult{
		Segments:    merged,
		NumSpeakers: countSpeakers(merged),
		Engine:      EngineEnergyFallback,
	}, nil
}

// fillUnvoicedLabels присваивает фреймам без голоса метку ближайшего
// голосового фрейма по расстоянию индексов
func fillUnvoicedLabels(labels []int, voicedIndices []int) {
	for i := range labels {
		if labels[i] >= 0 {
			continue
		}
		nearest := voicedIndices[0]
		best := math.MaxInt
		for _, idx := range voicedIndices {
			d := idx - i
			if d < 0 {
				d = -d
			}
			if d < best {
				best = d
				nearest = idx
			}
		}
		labels[i] = labels[nearest]
	}
}

// mergeAdjacentSegments объединяет соседние сегменты одного спикера
// с паузой меньше maxGap секунд
func mergeAdjacentSegments(segments []SpeakerSegment, maxGap float64) []SpeakerSegment {
	if len(segments) == 0 {
		return segments
	}

	merged := []SpeakerSegment{segments[0]}
	for _, seg := range segments[1:] {
		last := &merged[len(merged)-1]
		if seg.Speaker == last.Speaker && seg.Start-last.End < maxGap {
			if seg.End > last.End {
				last.End = seg.End
			}
			last.Duration = last.End - last.Start
		} else {
			merged = append(merged, seg)
		}
	}
	return merged
}

// meanEnergy средний квадрат амплитуды
func meanEnergy(samples []float32) float64 {
	if len(samples) == 0 {
		return 0
	}
	sum := 0.0
	for _, s := range samples {
		sum += float64(s) * float64(s)
	}
	return sum / float64(len(samples))
}

// speakerLabel детерминированная метка спикера по номеру кластера
func speakerLabel(cluster int) string {
	return fmt.Sprintf("SPEAKER_%02d", cluster)
}

// countSpeakers подсчитывает уникальных спикеров
func countSpeakers(segments []SpeakerSegment) int {
	speakers := make(map[string]bool)
	for _, seg := range segments {
		speakers[seg.Speaker] = true
	}
	return len(speakers)
}
