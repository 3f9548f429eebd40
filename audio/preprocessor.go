package audio

import (
	"fmt"
	"log"
	"math"
)

// PreprocessorConfig конфигурация предобработки
type PreprocessorConfig struct {
	TargetSampleRate int     // Целевая частота дискретизации (16000)
	TargetPeak       float32 // Целевой пик нормализации (0.95)
	MinDuration      float64 // Минимальная длительность, короче - паддинг нулями (1.0s)
	ApplyFilters     bool    // Применять цепочку фильтров очистки
	Filters          FilterConfig
}

// DefaultPreprocessorConfig возвращает конфигурацию по умолчанию
func DefaultPreprocessorConfig() PreprocessorConfig {
	return PreprocessorConfig{
		TargetSampleRate: 16000,
		TargetPeak:       0.95,
		MinDuration:      1.0,
		ApplyFilters:     false,
		Filters:          DefaultFilterConfig(),
	}
}

// Metrics метрики предобработанного сигнала
type Metrics struct {
	SourceSampleRate int     // Исходная частота дискретизации
	SourceChannels   int     // Количество каналов в источнике
	Duration         float64 // Длительность после предобработки в секундах
	Peak             float32 // Пик после нормализации
	RMS              float32 // Средняя громкость
	DCOffset         float32 // Смещение по постоянному току до коррекции
	Padded           bool    // Сигнал дополнен до минимальной длительности
}

// Preprocessor приводит аудио файлы к формату пайплайна: mono, 16kHz, [-1, 1]
type Preprocessor struct {
	config PreprocessorConfig
}

// NewPreprocessor создаёт новый препроцессор
func NewPreprocessor(config PreprocessorConfig) *Preprocessor {
	return &Preprocessor{config: config}
}

// ProcessFile декодирует WAV или MP3 файл и выполняет предобработку
func (p *Preprocessor) ProcessFile(filePath string) ([]float32, Metrics, error) {
	var channels [][]float32
	var sampleRate int

	switch {
	case IsWAVPath(filePath):
		wav, err := ReadWAV(filePath)
		if err != nil {
			return nil, Metrics{}, err
		}
		channels = wav.Channels
		sampleRate = wav.SampleRate
	case IsMP3Path(filePath):
		reader, err := NewMP3Reader(filePath)
		if err != nil {
			return nil, Metrics{}, err
		}
		left, right, err := reader.ReadAllStereo()
		reader.Close()
		if err != nil {
			return nil, Metrics{}, err
		}
		channels = [][]float32{left, right}
		sampleRate = reader.SampleRate()
	default:
		return nil, Metrics{}, fmt.Errorf("unsupported audio format: %s (expected .wav or .mp3)", filePath)
	}

	return p.Process(channels, sampleRate)
}

// Process выполняет предобработку декодированных каналов:
// выбор/смешивание каналов, ресемплинг, коррекция DC, нормализация, паддинг
func (p *Preprocessor) Process(channels [][]float32, sampleRate int) ([]float32, Metrics, error) {
	if len(channels) == 0 || len(channels[0]) == 0 {
		return nil, Metrics{}, fmt.Errorf("empty audio input")
	}

	metrics := Metrics{
		SourceSampleRate: sampleRate,
		SourceChannels:   len(channels),
	}

	// 1. Сведение в моно. Если один из каналов практически пустой
	// (запись с одним микрофоном в стерео контейнере), берём живой канал,
	// иначе усредняем - среднее двух живых каналов теряет меньше, чем выбор одного
	mono := downmix(channels)

	// 2. Ресемплинг до целевой частоты
	if sampleRate != p.config.TargetSampleRate {
		log.Printf("Preprocessor: resampling %d Hz -> %d Hz", sampleRate, p.config.TargetSampleRate)
		mono = Resample(mono, sampleRate, p.config.TargetSampleRate)
	}

	// 3. Коррекция DC offset
	var sum float64
	for _, s := range mono {
		sum += float64(s)
	}
	dc := float32(sum / float64(len(mono)))
	metrics.DCOffset = dc
	if abs32(dc) > 1e-4 {
		for i := range mono {
			mono[i] -= dc
		}
	}

	// 4. Опциональная цепочка фильтров очистки
	if p.config.ApplyFilters {
		mono = ApplyFilters(mono, p.config.TargetSampleRate, p.config.Filters)
	}

	// 5. Нормализация к целевому пику
	mono = applyNormalization(mono, p.config.TargetPeak)

	// 6. Паддинг до минимальной длительности: слишком короткий вход
	// ломает оконную сегментацию
	minSamples := int(p.config.MinDuration * float64(p.config.TargetSampleRate))
	if len(mono) < minSamples {
		padded := make([]float32, minSamples)
		copy(padded, mono)
		mono = padded
		metrics.Padded = true
	}

	metrics.Duration = float64(len(mono)) / float64(p.config.TargetSampleRate)
	metrics.RMS = RMS(mono)
	metrics.Peak = peak(mono)

	log.Printf("Preprocessor: %d ch @ %d Hz -> mono @ %d Hz, %.2fs (rms=%.4f, peak=%.3f)",
		metrics.SourceChannels, metrics.SourceSampleRate, p.config.TargetSampleRate,
		metrics.Duration, metrics.RMS, metrics.Peak)

	return mono, metrics, nil
}

// downmix сводит каналы в моно
func downmix(channels [][]float32) []float32 {
	if len(channels) == 1 {
		out := make([]float32, len(channels[0]))
		copy(out, channels[0])
		return out
	}

	// Оцениваем громкость каналов: практически пустые каналы не смешиваем
	const silentRMS = 0.003
	var live [][]float32
	for _, ch := range channels {
		if RMS(ch) >= silentRMS {
			live = append(live, ch)
		}
	}
	if len(live) == 0 {
		live = channels
	}
	if len(live) == 1 {
		out := make([]float32, len(live[0]))
		copy(out, live[0])
		return out
	}

	n := len(live[0])
	for _, ch := range live[1:] {
		if len(ch) < n {
			n = len(ch)
		}
	}

	out := make([]float32, n)
	scale := float32(1.0 / float64(len(live)))
	for i := 0; i < n; i++ {
		var s float32
		for _, ch := range live {
			s += ch[i]
		}
		out[i] = s * scale
	}
	return out
}

// peak возвращает пиковую амплитуду
func peak(samples []float32) float32 {
	var maxAbs float32
	for _, s := range samples {
		if a := abs32(s); a > maxAbs {
			maxAbs = a
		}
	}
	if math.IsNaN(float64(maxAbs)) {
		return 0
	}
	return maxAbs
}
