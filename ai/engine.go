// Package ai предоставляет мультиязычный пайплайн диаризации и транскрипции:
// сегментация аудио по спикерам, пофрагментное определение языка с консенсусом
// и выравнивание итогового транскрипта.
package ai

// TranscriptionResult типизированный результат транскрипции одного фрагмента
type TranscriptionResult struct {
	Text       string  // распознанный текст
	Language   string  // код языка, который определил движок ("" если не определял)
	Confidence float64 // уверенность движка в языке (0.0-1.0)
}

// LanguageDetection результат одной попытки определения языка
type LanguageDetection struct {
	Language   string  // код языка (ISO 639-1: "en", "de", "ru"...)
	Confidence float64 // уверенность (0.0-1.0)
}

// TranscriptionOracle интерфейс движка транскрипции
// Реализации должны быть потокобезопасны и не хранить состояние между вызовами
type TranscriptionOracle interface {
	// Transcribe транскрибирует аудио фрагмент
	// samples - float32, 16kHz, mono; languageHint - код языка или "" для автоопределения
	Transcribe(samples []float32, languageHint string) (TranscriptionResult, error)

	// DetectLanguage определяет язык фрагмента без полной транскрипции
	DetectLanguage(samples []float32) (LanguageDetection, error)

	// Name возвращает имя движка (для логирования и метаданных)
	Name() string

	// Close освобождает ресурсы движка
	Close()
}

// EmbeddingOracle интерфейс модели speaker embedding
type EmbeddingOracle interface {
	// Embed извлекает вектор голоса из аудио фрейма
	Embed(frame []float32) ([]float32, error)

	// Close освобождает ресурсы модели
	Close()
}

// VoiceActivityOracle опциональный интерфейс VAD модели
// Если модель недоступна, сегментация использует энергетический порог
type VoiceActivityOracle interface {
	// IsVoice возвращает true если фрейм содержит речь
	IsVoice(frame []float32) (bool, error)

	// Close освобождает ресурсы модели
	Close()
}

// ProcessingStatus статус обработки сегмента
type ProcessingStatus string

const (
	// StatusSuccess сегмент обработан успешно
	StatusSuccess ProcessingStatus = "success"
	// StatusFailed обработка сегмента завершилась ошибкой (ошибка сохранена в Error)
	StatusFailed ProcessingStatus = "failed"
	// StatusTooShort сегмент короче минимальной длительности, оракул не вызывался
	StatusTooShort ProcessingStatus = "too_short"
)

// AssignmentMethod способ назначения итогового языка сегменту
type AssignmentMethod string

const (
	// AssignSegmentLevel язык взят из детекции самого сегмента
	AssignSegmentLevel AssignmentMethod = "segment_level"
	// AssignSpeakerLevel язык взят из агрегированного профиля спикера
	AssignSpeakerLevel AssignmentMethod = "speaker_level"
	// AssignFallback ни сегмент, ни спикер не дали уверенного языка
	AssignFallback AssignmentMethod = "fallback"
)

// SpeakerSegment сегмент речи одного спикера
type SpeakerSegment struct {
	ID       int     // порядковый номер после очистки перекрытий
	Start    float64 // начало в секундах
	End      float64 // конец в секундах
	Duration float64 // длительность в секундах
	Speaker  string  // метка спикера ("SPEAKER_00", "SPEAKER_01"...)
}

// TranscribedSegment сегмент с текстом и результатом определения языка
// Создаётся один раз на сегмент и далее не изменяется
type TranscribedSegment struct {
	SpeakerSegment

	Text               string              // распознанный текст ("" если не распознан)
	Language           string              // язык сегмента ("unknown" если не определён)
	LanguageConfidence float64             // уверенность в языке (0.0-1.0)
	Status             ProcessingStatus    // статус обработки
	Error              string              // сообщение об ошибке для StatusFailed
	Attempts           []LanguageDetection // все попытки определения языка
	ConsensusReached   bool                // true если строгое большинство попыток совпало
}

// WordCount возвращает количество слов в тексте сегмента
func (s *TranscribedSegment) WordCount() int {
	count := 0
	inWord := false
	for _, r := range s.Text {
		if r == ' ' || r == '\t' || r == '\n' {
			inWord = false
		} else if !inWord {
			inWord = true
			count++
		}
	}
	return count
}

// SpeakerLanguageProfile агрегированный языковой профиль спикера
type SpeakerLanguageProfile struct {
	Speaker          string  // метка спикера
	PrimaryLanguage  string  // основной язык спикера
	Confidence       float64 // доля веса основного языка среди всех языков (0.0-1.0)
	SegmentsAnalyzed int     // количество успешных сегментов в анализе
	Consistency      float64 // доля сегментов, где детекция совпала с основным языком
}

// AlignedSegment итоговый сегмент транскрипта с финальным языком
type AlignedSegment struct {
	TranscribedSegment

	FinalLanguage    string           // итоговый язык (никогда не пустой)
	FinalConfidence  float64          // итоговая уверенность (0.0-1.0)
	AssignmentMethod AssignmentMethod // как был выбран итоговый язык
}
