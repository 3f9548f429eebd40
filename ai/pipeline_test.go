package ai

import (
	"testing"
)

// TestPipelineEndToEnd полный прогон: два спикера, один язык,
// покрытие таймлайна и согласованные метаданные
func TestPipelineEndToEnd(t *testing.T) {
	oracle := &fakeTranscriber{text: "so we agreed on the plan"}
	pipeline, err := NewMultilingualPipeline(oracle, &fakeEmbedder{}, &fakeVAD{threshold: 0.1}, DefaultPipelineConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	samples := twoSpeakerAudio(10, 16000)
	result, err := pipeline.Process(samples, ProcessOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Speakers) != 2 {
		t.Errorf("expected 2 speakers, got %d: %v", len(result.Speakers), result.Speakers)
	}
	if result.Metadata.Engine != EngineEmbeddingCluster {
		t.Errorf("expected engine %s, got %s", EngineEmbeddingCluster, result.Metadata.Engine)
	}
	if result.Metadata.Transcriber != "fake" {
		t.Errorf("expected transcriber name fake, got %s", result.Metadata.Transcriber)
	}
	if result.Metadata.RunID == "" {
		t.Error("run ID must be set")
	}
	if result.Metadata.NumSegments != len(result.Segments) {
		t.Errorf("metadata segment count %d != %d", result.Metadata.NumSegments, len(result.Segments))
	}

	// Один язык на всю запись
	if len(result.Metadata.Languages) != 1 || result.Metadata.Languages[0] != "en" {
		t.Errorf("expected single language en, got %v", result.Metadata.Languages)
	}
	if result.Metadata.Multilingual {
		t.Error("single-language run must not be flagged multilingual")
	}

	// Сегменты покрывают таймлайн без пересечений и больших дыр
	assertNoOverlaps(t, toSpeakerSegments(result.Segments))
	if result.Segments[0].Start != 0 {
		t.Errorf("first segment must start at 0, got %.2f", result.Segments[0].Start)
	}
	last := result.Segments[len(result.Segments)-1]
	if last.End < 9.5 {
		t.Errorf("segments must cover the clip, last end %.2f", last.End)
	}
	for i := 1; i < len(result.Segments); i++ {
		gap := result.Segments[i].Start - result.Segments[i-1].End
		if gap > 0.5 {
			t.Errorf("gap %.2fs between segments %d and %d exceeds min segment duration", gap, i-1, i)
		}
	}

	// Оба спикера с одинаковым итоговым языком
	for _, seg := range result.Segments {
		if seg.FinalLanguage != "en" {
			t.Errorf("segment %d: expected final language en, got %s", seg.ID, seg.FinalLanguage)
		}
	}

	// Профили и статистика для каждого спикера
	for _, speaker := range result.Speakers {
		if _, ok := result.SpeakerLanguages[speaker]; !ok {
			t.Errorf("missing language profile for %s", speaker)
		}
		if _, ok := result.SpeakerStats[speaker]; !ok {
			t.Errorf("missing stats for %s", speaker)
		}
	}

	// Доли длительности спикеров в сумме дают 100%
	totalShare := 0.0
	for _, stats := range result.SpeakerStats {
		totalShare += stats.DurationPercent
	}
	if totalShare < 99.9 || totalShare > 100.1 {
		t.Errorf("duration shares must sum to 100%%, got %.2f%%", totalShare)
	}

	if result.Accuracy.EstimatedAccuracy <= 0 {
		t.Errorf("expected positive accuracy estimate, got %.1f", result.Accuracy.EstimatedAccuracy)
	}
}

// TestPipelineFallbackProvenance без оракула эмбеддингов метаданные
// фиксируют энергетический движок
func TestPipelineFallbackProvenance(t *testing.T) {
	oracle := &fakeTranscriber{text: "hello"}
	pipeline, err := NewMultilingualPipeline(oracle, nil, nil, DefaultPipelineConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result, err := pipeline.Process(burstAudio(6, 16000), ProcessOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Metadata.Engine != EngineEnergyFallback {
		t.Errorf("expected engine %s, got %s", EngineEnergyFallback, result.Metadata.Engine)
	}
}

// TestPipelineEmptyInput пустой вход фатален
func TestPipelineEmptyInput(t *testing.T) {
	pipeline, err := NewMultilingualPipeline(&fakeTranscriber{}, nil, nil, DefaultPipelineConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := pipeline.Process(nil, ProcessOptions{}); err == nil {
		t.Error("expected error for empty input")
	}
}

// TestPipelineRequiresTranscriber транскрибер обязателен
func TestPipelineRequiresTranscriber(t *testing.T) {
	if _, err := NewMultilingualPipeline(nil, nil, nil, DefaultPipelineConfig()); err == nil {
		t.Error("expected error for nil transcription oracle")
	}
}

// toSpeakerSegments проекция для проверки инварианта непересечения
func toSpeakerSegments(segments []AlignedSegment) []SpeakerSegment {
	out := make([]SpeakerSegment, len(segments))
	for i, seg := range segments {
		out[i] = seg.SpeakerSegment
	}
	return out
}
