package audio

import (
	"math"
	"testing"
)

func sineChannel(n int, amplitude float32) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = amplitude * float32(math.Sin(float64(i)*0.1))
	}
	return out
}

// TestPreprocessorMono базовый прогон: нормализация, метрики, без паддинга
func TestPreprocessorMono(t *testing.T) {
	p := NewPreprocessor(DefaultPreprocessorConfig())
	samples := sineChannel(32000, 0.3)

	mono, metrics, err := p.Process([][]float32{samples}, 16000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(mono) != len(samples) {
		t.Errorf("expected %d samples, got %d", len(samples), len(mono))
	}
	if math.Abs(float64(metrics.Peak)-0.95) > 1e-3 {
		t.Errorf("expected peak 0.95 after normalization, got %.4f", metrics.Peak)
	}
	if metrics.SourceChannels != 1 || metrics.SourceSampleRate != 16000 {
		t.Errorf("unexpected source metrics: %+v", metrics)
	}
	if metrics.Padded {
		t.Error("2s input must not be padded")
	}
	if math.Abs(metrics.Duration-2.0) > 1e-6 {
		t.Errorf("expected duration 2.0s, got %.3f", metrics.Duration)
	}
}

// TestPreprocessorStereoDownmix два живых канала усредняются
func TestPreprocessorStereoDownmix(t *testing.T) {
	p := NewPreprocessor(DefaultPreprocessorConfig())
	n := 16000
	left := make([]float32, n)
	right := make([]float32, n)
	for i := range left {
		left[i] = 0.4
		right[i] = 0.2
	}

	mono, metrics, err := p.Process([][]float32{left, right}, 16000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if metrics.SourceChannels != 2 {
		t.Errorf("expected 2 source channels, got %d", metrics.SourceChannels)
	}
	// (0.4+0.2)/2=0.3: DC коррекция обнулит константу, поэтому проверяем downmix напрямую
	mixed := downmix([][]float32{left, right})
	if math.Abs(float64(mixed[0])-0.3) > 1e-6 {
		t.Errorf("expected mixed 0.3, got %.4f", mixed[0])
	}
	_ = mono
}

// TestPreprocessorDeadChannelExcluded практически пустой канал не смешивается
func TestPreprocessorDeadChannelExcluded(t *testing.T) {
	n := 16000
	live := sineChannel(n, 0.5)
	dead := sineChannel(n, 0.0001)

	mixed := downmix([][]float32{live, dead})

	for i := 0; i < 100; i++ {
		if math.Abs(float64(mixed[i]-live[i])) > 1e-6 {
			t.Fatalf("sample %d: expected live channel value %.4f, got %.4f", i, live[i], mixed[i])
		}
	}
}

// TestPreprocessorResamples вход 48kHz приводится к 16kHz
func TestPreprocessorResamples(t *testing.T) {
	p := NewPreprocessor(DefaultPreprocessorConfig())
	samples := sineChannel(48000, 0.3)

	mono, metrics, err := p.Process([][]float32{samples}, 48000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(mono) != 16000 {
		t.Errorf("expected 16000 samples after resampling, got %d", len(mono))
	}
	if metrics.SourceSampleRate != 48000 {
		t.Errorf("expected source rate 48000, got %d", metrics.SourceSampleRate)
	}
}

// TestPreprocessorPadsShortInput короткий вход дополняется до минимума
func TestPreprocessorPadsShortInput(t *testing.T) {
	p := NewPreprocessor(DefaultPreprocessorConfig())
	samples := sineChannel(4000, 0.3) // 0.25s

	mono, metrics, err := p.Process([][]float32{samples}, 16000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(mono) != 16000 {
		t.Errorf("expected padding to 16000 samples, got %d", len(mono))
	}
	if !metrics.Padded {
		t.Error("expected padded flag")
	}
	for i := 4000; i < 16000; i++ {
		if mono[i] != 0 {
			t.Fatalf("expected zero padding at %d, got %.4f", i, mono[i])
		}
	}
}

// TestPreprocessorRemovesDCOffset смещение по постоянному току корректируется
func TestPreprocessorRemovesDCOffset(t *testing.T) {
	p := NewPreprocessor(DefaultPreprocessorConfig())
	samples := sineChannel(16000, 0.3)
	for i := range samples {
		samples[i] += 0.1
	}

	mono, metrics, err := p.Process([][]float32{samples}, 16000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if metrics.DCOffset < 0.05 {
		t.Errorf("expected recorded DC offset ~0.1, got %.4f", metrics.DCOffset)
	}

	var sum float64
	for _, s := range mono {
		sum += float64(s)
	}
	mean := sum / float64(len(mono))
	if math.Abs(mean) > 0.01 {
		t.Errorf("DC offset not corrected, mean=%.4f", mean)
	}
}

// TestPreprocessorEmptyInput пустой вход фатален
func TestPreprocessorEmptyInput(t *testing.T) {
	p := NewPreprocessor(DefaultPreprocessorConfig())
	if _, _, err := p.Process(nil, 16000); err == nil {
		t.Error("expected error for empty input")
	}
	if _, _, err := p.Process([][]float32{{}}, 16000); err == nil {
		t.Error("expected error for empty channel")
	}
}

// TestProcessFileUnsupportedFormat неизвестное расширение даёт ошибку
func TestProcessFileUnsupportedFormat(t *testing.T) {
	p := NewPreprocessor(DefaultPreprocessorConfig())
	if _, _, err := p.ProcessFile("audio.flac"); err == nil {
		t.Error("expected error for unsupported format")
	}
}
