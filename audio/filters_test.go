package audio

import (
	"math"
	"testing"
)

// TestApplyNormalization пик приводится к целевому уровню
func TestApplyNormalization(t *testing.T) {
	samples := []float32{0.1, -0.2, 0.4, -0.1}
	result := applyNormalization(samples, 0.95)

	var maxAbs float32
	for _, s := range result {
		if a := abs32(s); a > maxAbs {
			maxAbs = a
		}
	}
	if math.Abs(float64(maxAbs)-0.95) > 1e-6 {
		t.Errorf("expected peak 0.95, got %.4f", maxAbs)
	}

	// Исходные данные не изменяются
	if samples[2] != 0.4 {
		t.Errorf("input was modified: %v", samples)
	}
}

// TestApplyNormalizationQuietSignal слишком тихий сигнал не усиливается
func TestApplyNormalizationQuietSignal(t *testing.T) {
	samples := []float32{0.0001, -0.0002}
	result := applyNormalization(samples, 0.95)

	if result[0] != samples[0] || result[1] != samples[1] {
		t.Errorf("quiet signal must be left untouched, got %v", result)
	}
}

// TestApplyNormalizationGainLimit усиление ограничено 20x
func TestApplyNormalizationGainLimit(t *testing.T) {
	samples := []float32{0.01, -0.01}
	result := applyNormalization(samples, 0.95)

	if math.Abs(float64(result[0])-0.2) > 1e-6 {
		t.Errorf("expected gain-limited 0.2, got %.4f", result[0])
	}
}

// TestApplyDeClick одиночный выброс интерполируется соседями
func TestApplyDeClick(t *testing.T) {
	samples := []float32{0.1, 0.1, 0.9, 0.1, 0.1}
	result := applyDeClick(samples, 0.4)

	if math.Abs(float64(result[2])-0.1) > 1e-6 {
		t.Errorf("click not removed: %.3f", result[2])
	}
	// Плавный сигнал не трогается
	smooth := []float32{0.1, 0.2, 0.3, 0.2, 0.1}
	result = applyDeClick(smooth, 0.4)
	for i := range smooth {
		if result[i] != smooth[i] {
			t.Errorf("smooth signal modified at %d: %.3f", i, result[i])
		}
	}
}

// TestApplyHighPassRemovesDC фильтр высоких частот убирает постоянную составляющую
func TestApplyHighPassRemovesDC(t *testing.T) {
	sampleRate := 16000
	samples := make([]float32, sampleRate)
	for i := range samples {
		// Синус 1kHz со смещением
		samples[i] = 0.5 + 0.3*float32(math.Sin(2*math.Pi*1000*float64(i)/float64(sampleRate)))
	}

	result := applyHighPassFilter(samples, sampleRate, 80)

	// Среднее после фильтра близко к нулю (смотрим установившийся участок)
	var sum float64
	for _, s := range result[sampleRate/2:] {
		sum += float64(s)
	}
	mean := sum / float64(len(result)-sampleRate/2)
	if math.Abs(mean) > 0.01 {
		t.Errorf("DC offset not removed, mean=%.4f", mean)
	}
}

// TestApplyNoiseGate тихие участки приглушаются, громкие не трогаются
func TestApplyNoiseGate(t *testing.T) {
	sampleRate := 16000
	samples := make([]float32, sampleRate)
	// Первая половина - громкий сигнал, вторая - тихий шум
	for i := 0; i < sampleRate/2; i++ {
		samples[i] = 0.5 * float32(math.Sin(float64(i)*0.2))
	}
	for i := sampleRate / 2; i < sampleRate; i++ {
		samples[i] = 0.001 * float32(math.Sin(float64(i)*0.2))
	}

	result := applyNoiseGate(samples, sampleRate, 0.008)

	loudBefore := RMS(samples[:sampleRate/2])
	loudAfter := RMS(result[:sampleRate/2])
	if math.Abs(float64(loudBefore-loudAfter)) > 1e-6 {
		t.Errorf("loud part changed: %.4f -> %.4f", loudBefore, loudAfter)
	}

	quietBefore := RMS(samples[sampleRate/2:])
	quietAfter := RMS(result[sampleRate/2:])
	if quietAfter >= quietBefore {
		t.Errorf("quiet part not attenuated: %.5f -> %.5f", quietBefore, quietAfter)
	}
}

// TestRMS базовые значения
func TestRMS(t *testing.T) {
	if got := RMS(nil); got != 0 {
		t.Errorf("expected 0 for empty input, got %.4f", got)
	}
	if got := RMS([]float32{0.5, -0.5, 0.5, -0.5}); math.Abs(float64(got)-0.5) > 1e-6 {
		t.Errorf("expected 0.5, got %.4f", got)
	}
}

// TestApplyFiltersChain полная цепочка не ломает сигнал
func TestApplyFiltersChain(t *testing.T) {
	sampleRate := 16000
	samples := make([]float32, sampleRate*2)
	for i := range samples {
		samples[i] = 0.3 * float32(math.Sin(2*math.Pi*440*float64(i)/float64(sampleRate)))
	}

	result := ApplyFilters(samples, sampleRate, DefaultFilterConfig())

	if len(result) != len(samples) {
		t.Fatalf("length changed: %d -> %d", len(samples), len(result))
	}
	for i, s := range result {
		if s > 1 || s < -1 {
			t.Fatalf("sample %d out of range: %.3f", i, s)
		}
	}
	if RMS(result) == 0 {
		t.Error("signal was silenced by the filter chain")
	}
}
