package ai

import (
	"math"
	"testing"
)

// TestFinalizeAlignment трёхуровневое правило выбора итогового языка
func TestFinalizeAlignment(t *testing.T) {
	profiles := map[string]SpeakerLanguageProfile{
		"SPEAKER_00": {Speaker: "SPEAKER_00", PrimaryLanguage: "de", Confidence: 0.8},
		"SPEAKER_01": {Speaker: "SPEAKER_01", PrimaryLanguage: "fr", Confidence: 0.4},
	}

	tests := []struct {
		name         string
		segment      TranscribedSegment
		wantLanguage string
		wantConf     float64
		wantMethod   AssignmentMethod
	}{
		{
			name:         "уверенная детекция сегмента",
			segment:      transcribed("SPEAKER_00", "en", 0.9, 0, 3, 5, StatusSuccess),
			wantLanguage: "en",
			wantConf:     0.9,
			wantMethod:   AssignSegmentLevel,
		},
		{
			name:         "неуверенный сегмент, уверенный профиль спикера",
			segment:      transcribed("SPEAKER_00", "en", 0.5, 3, 6, 5, StatusSuccess),
			wantLanguage: "de",
			wantConf:     0.8,
			wantMethod:   AssignSpeakerLevel,
		},
		{
			name:         "неуверенны оба - язык по умолчанию",
			segment:      transcribed("SPEAKER_01", "it", 0.5, 6, 9, 5, StatusSuccess),
			wantLanguage: "en",
			wantConf:     0.5,
			wantMethod:   AssignFallback,
		},
		{
			name:         "неуспешный сегмент без профиля - язык по умолчанию",
			segment:      transcribed("SPEAKER_02", "unknown", 0, 9, 12, 0, StatusFailed),
			wantLanguage: "en",
			wantConf:     0.5,
			wantMethod:   AssignFallback,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			aligned := FinalizeAlignment([]TranscribedSegment{tt.segment}, profiles, DefaultAlignerConfig())
			if len(aligned) != 1 {
				t.Fatalf("expected 1 segment, got %d", len(aligned))
			}
			got := aligned[0]
			if got.FinalLanguage != tt.wantLanguage {
				t.Errorf("expected language %s, got %s", tt.wantLanguage, got.FinalLanguage)
			}
			if math.Abs(got.FinalConfidence-tt.wantConf) > 1e-9 {
				t.Errorf("expected confidence %.2f, got %.2f", tt.wantConf, got.FinalConfidence)
			}
			if got.AssignmentMethod != tt.wantMethod {
				t.Errorf("expected method %s, got %s", tt.wantMethod, got.AssignmentMethod)
			}
		})
	}
}

// TestFinalizeAlignmentAlwaysLabeled каждый сегмент получает язык
// и уверенность в [0, 1]
func TestFinalizeAlignmentAlwaysLabeled(t *testing.T) {
	segments := []TranscribedSegment{
		transcribed("SPEAKER_00", "en", 0.95, 0, 2, 3, StatusSuccess),
		transcribed("SPEAKER_00", "", 0, 2, 4, 0, StatusFailed),
		transcribed("SPEAKER_01", "unknown", 0, 4, 4.2, 0, StatusTooShort),
	}

	aligned := FinalizeAlignment(segments, map[string]SpeakerLanguageProfile{}, DefaultAlignerConfig())

	for i, seg := range aligned {
		if seg.FinalLanguage == "" {
			t.Errorf("segment %d has no final language", i)
		}
		if seg.FinalConfidence < 0 || seg.FinalConfidence > 1 {
			t.Errorf("segment %d confidence out of range: %.3f", i, seg.FinalConfidence)
		}
	}
}

// TestFinalizeAlignmentSortsByStart перемешанный вход сортируется по времени
func TestFinalizeAlignmentSortsByStart(t *testing.T) {
	segments := []TranscribedSegment{
		transcribed("SPEAKER_00", "en", 0.9, 5, 7, 3, StatusSuccess),
		transcribed("SPEAKER_01", "en", 0.9, 0, 2, 3, StatusSuccess),
	}

	aligned := FinalizeAlignment(segments, nil, DefaultAlignerConfig())

	if aligned[0].Start != 0 || aligned[1].Start != 5 {
		t.Errorf("expected segments sorted by start, got %.1f, %.1f", aligned[0].Start, aligned[1].Start)
	}
}

// TestComputeSpeakerStats агрегированная статистика по спикерам
func TestComputeSpeakerStats(t *testing.T) {
	segments := FinalizeAlignment([]TranscribedSegment{
		transcribed("SPEAKER_00", "en", 0.9, 0, 6, 12, StatusSuccess),
		transcribed("SPEAKER_00", "en", 0.5, 6, 8, 4, StatusSuccess),
		transcribed("SPEAKER_01", "en", 0.8, 8, 10, 4, StatusSuccess),
		transcribed("SPEAKER_01", "", 0, 10, 12, 0, StatusFailed),
	}, nil, DefaultAlignerConfig())

	stats := ComputeSpeakerStats(segments, 0.7)

	s0 := stats["SPEAKER_00"]
	if s0.Segments != 2 || s0.SuccessfulSegments != 2 || s0.FailedSegments != 0 {
		t.Errorf("unexpected SPEAKER_00 counts: %+v", s0)
	}
	if s0.HighConfidenceSegments != 1 {
		t.Errorf("expected 1 high-confidence segment, got %d", s0.HighConfidenceSegments)
	}
	if s0.TotalWords != 16 {
		t.Errorf("expected 16 words, got %d", s0.TotalWords)
	}
	// 8s из 12s общей длительности
	if math.Abs(s0.DurationPercent-100.0*8/12) > 1e-6 {
		t.Errorf("expected duration share %.2f%%, got %.2f%%", 100.0*8/12, s0.DurationPercent)
	}

	s1 := stats["SPEAKER_01"]
	if s1.SuccessfulSegments != 1 || s1.FailedSegments != 1 {
		t.Errorf("unexpected SPEAKER_01 counts: %+v", s1)
	}
	if s1.SuccessPercent != 50 {
		t.Errorf("expected 50%% success, got %.1f%%", s1.SuccessPercent)
	}
}
