package audio

import (
	"log"
	"math"
)

// FilterConfig конфигурация фильтров для улучшения качества аудио
type FilterConfig struct {
	// Noise Gate - подавление шума ниже порога
	NoiseGateEnabled   bool
	NoiseGateThreshold float32 // Порог RMS ниже которого сигнал приглушается (default: 0.008)

	// Normalization - нормализация громкости
	NormalizationEnabled bool
	TargetPeakLevel      float32 // Целевой уровень пика (default: 0.95)

	// High-Pass Filter - фильтрация низкочастотных помех
	HighPassEnabled bool
	HighPassCutoff  float32 // Частота среза в Hz (default: 80)

	// De-click - удаление щелчков
	DeClickEnabled   bool
	DeClickThreshold float32 // Порог обнаружения щелчка (default: 0.4)
}

// DefaultFilterConfig возвращает конфигурацию по умолчанию
func DefaultFilterConfig() FilterConfig {
	return FilterConfig{
		NoiseGateEnabled:     true,
		NoiseGateThreshold:   0.008, // Очень тихие сигналы - помехи
		NormalizationEnabled: true,
		TargetPeakLevel:      0.95,
		HighPassEnabled:      true,
		HighPassCutoff:       80, // Убираем гул ниже 80 Hz
		DeClickEnabled:       true,
		DeClickThreshold:     0.4, // Резкие скачки амплитуды
	}
}

// ApplyFilters применяет все включённые фильтры к аудио-семплам
// Возвращает обработанные семплы (исходные не изменяются)
func ApplyFilters(samples []float32, sampleRate int, config FilterConfig) []float32 {
	if len(samples) == 0 {
		return samples
	}

	result := make([]float32, len(samples))
	copy(result, samples)

	// 1. High-Pass Filter (сначала, чтобы убрать DC offset и низкочастотный гул)
	if config.HighPassEnabled {
		result = applyHighPassFilter(result, sampleRate, config.HighPassCutoff)
	}

	// 2. De-click (удаление щелчков до нормализации)
	if config.DeClickEnabled {
		result = applyDeClick(result, config.DeClickThreshold)
	}

	// 3. Noise Gate (подавление тихих участков)
	if config.NoiseGateEnabled {
		result = applyNoiseGate(result, sampleRate, config.NoiseGateThreshold)
	}

	// 4. Normalization (в конце, после очистки)
	if config.NormalizationEnabled {
		result = applyNormalization(result, config.TargetPeakLevel)
	}

	return result
}

// applyHighPassFilter применяет фильтр высоких частот (убирает низкочастотный гул)
// Использует простой IIR фильтр первого порядка
func applyHighPassFilter(samples []float32, sampleRate int, cutoffHz float32) []float32 {
	if len(samples) == 0 || cutoffHz <= 0 {
		return samples
	}

	// RC = 1 / (2 * PI * cutoff), alpha = RC / (RC + dt)
	rc := 1.0 / (2.0 * math.Pi * float64(cutoffHz))
	dt := 1.0 / float64(sampleRate)
	alpha := float32(rc / (rc + dt))

	result := make([]float32, len(samples))
	result[0] = samples[0]

	var prevInput float32 = samples[0]
	var prevOutput float32 = samples[0]

	for i := 1; i < len(samples); i++ {
		// y[i] = alpha * (y[i-1] + x[i] - x[i-1])
		result[i] = alpha * (prevOutput + samples[i] - prevInput)
		prevInput = samples[i]
		prevOutput = result[i]
	}

	return result
}

// applyDeClick удаляет резкие щелчки
// Обнаруживает резкие скачки амплитуды и интерполирует их
func applyDeClick(samples []float32, threshold float32) []float32 {
	if len(samples) < 3 {
		return samples
	}

	result := make([]float32, len(samples))
	copy(result, samples)

	clickCount := 0

	for i := 1; i < len(samples)-1; i++ {
		diffPrev := abs32(samples[i] - samples[i-1])
		diffNext := abs32(samples[i] - samples[i+1])

		// Если резкий скачок в обе стороны - это щелчок
		if diffPrev > threshold && diffNext > threshold {
			// Интерполируем значение между соседями
			result[i] = (samples[i-1] + samples[i+1]) / 2
			clickCount++
		}
	}

	if clickCount > 0 {
		log.Printf("AudioFilter: De-click removed %d clicks (threshold=%.2f)", clickCount, threshold)
	}

	return result
}

// applyNoiseGate подавляет сигнал ниже порогового уровня
// Работает по окнам чтобы не создавать артефактов
func applyNoiseGate(samples []float32, sampleRate int, threshold float32) []float32 {
	if len(samples) == 0 {
		return samples
	}

	// Размер окна 10мс
	windowSize := sampleRate / 100
	if windowSize < 1 {
		windowSize = 1
	}

	result := make([]float32, len(samples))
	copy(result, samples)

	for i := 0; i < len(samples); i += windowSize {
		end := i + windowSize
		if end > len(samples) {
			end = len(samples)
		}

		rms := RMS(samples[i:end])
		if rms < threshold {
			// Плавное затухание вместо резкого обнуления
			attenuation := rms / threshold
			if attenuation < 0.1 {
				attenuation = 0.1
			}

			for j := i; j < end; j++ {
				result[j] *= attenuation
			}
		}
	}

	return result
}

// applyNormalization нормализует громкость к целевому пиковому уровню
func applyNormalization(samples []float32, targetPeak float32) []float32 {
	if len(samples) == 0 || targetPeak <= 0 {
		return samples
	}

	var maxAbs float32 = 0
	for _, s := range samples {
		abs := abs32(s)
		if abs > maxAbs {
			maxAbs = abs
		}
	}

	if maxAbs < 0.001 {
		// Сигнал слишком тихий, нормализация усилит шум
		return samples
	}

	gain := targetPeak / maxAbs
	if gain > 20 {
		// Ограничиваем максимальное усиление чтобы не усиливать шум
		gain = 20
	}

	result := make([]float32, len(samples))
	for i, s := range samples {
		result[i] = s * gain
		// Клиппинг
		if result[i] > 1 {
			result[i] = 1
		} else if result[i] < -1 {
			result[i] = -1
		}
	}

	return result
}

// RMS вычисляет Root Mean Square для набора семплов
func RMS(samples []float32) float32 {
	if len(samples) == 0 {
		return 0
	}

	var sum float64
	for _, s := range samples {
		sum += float64(s * s)
	}

	return float32(math.Sqrt(sum / float64(len(samples))))
}

// abs32 возвращает абсолютное значение float32
func abs32(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
