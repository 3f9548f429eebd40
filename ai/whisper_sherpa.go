// Whisper движок транскрипции и детекции языка через sherpa-onnx
package ai

import (
	"fmt"
	"log"
	"os"
	"runtime"
	"strings"
	"sync"

	sherpa "github.com/k2-fsa/sherpa-onnx-go/sherpa_onnx"
)

// WhisperConfig конфигурация Whisper движка
type WhisperConfig struct {
	EncoderPath         string  // Путь к ONNX энкодеру
	DecoderPath         string  // Путь к ONNX декодеру
	TokensPath          string  // Путь к файлу токенов
	NumThreads          int     // Количество потоков
	Provider            string  // ONNX provider: cpu, cuda, coreml, auto
	DetectionConfidence float64 // Уверенность, приписываемая детекции языка
}

// DefaultWhisperConfig возвращает конфигурацию по умолчанию
// Whisper сообщает язык без вероятности, поэтому уверенность детекции
// задаётся калиброванной константой
func DefaultWhisperConfig(encoderPath, decoderPath, tokensPath string) WhisperConfig {
	return WhisperConfig{
		EncoderPath:         encoderPath,
		DecoderPath:         decoderPath,
		TokensPath:          tokensPath,
		NumThreads:          4,
		Provider:            "auto",
		DetectionConfidence: 0.85,
	}
}

// whisperDetectProvider определяет лучший provider для текущей платформы
func whisperDetectProvider() string {
	// На macOS с Apple Silicon предпочитаем CoreML
	if runtime.GOOS == "darwin" && runtime.GOARCH == "arm64" {
		return "coreml"
	}
	return "cpu"
}

// WhisperEngine мультиязычный движок транскрипции на базе Whisper (sherpa-onnx)
// Распознаватель пересоздаётся при смене языковой подсказки -
// sherpa фиксирует язык Whisper на уровне конфигурации модели
type WhisperEngine struct {
	config     WhisperConfig
	provider   string
	recognizer *sherpa.OfflineRecognizer
	language   string // Язык текущего распознавателя, "" = автоопределение
	slid       *sherpa.SpokenLanguageIdentification

	mu          sync.Mutex
	initialized bool
}

// Проверяем что WhisperEngine реализует TranscriptionOracle
var _ TranscriptionOracle = (*WhisperEngine)(nil)

// NewWhisperEngine создаёт новый Whisper движок
func NewWhisperEngine(config WhisperConfig) (*WhisperEngine, error) {
	// Проверяем существование файлов моделей
	for _, path := range []string{config.EncoderPath, config.DecoderPath, config.TokensPath} {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return nil, fmt.Errorf("model file not found: %s", path)
		}
	}

	provider := config.Provider
	if provider == "auto" || provider == "" {
		provider = whisperDetectProvider()
	}
	log.Printf("WhisperEngine: using provider=%s (requested=%s)", provider, config.Provider)

	engine := &WhisperEngine{
		config:   config,
		provider: provider,
	}

	// Распознаватель с автоопределением языка
	if err := engine.loadRecognizer(""); err != nil {
		return nil, err
	}

	// Отдельная SLID сессия для детекции языка: дешевле полного прогона декодера
	slidConfig := sherpa.SpokenLanguageIdentificationConfig{
		Whisper: sherpa.SpokenLanguageIdentificationWhisperConfig{
			Encoder: config.EncoderPath,
			Decoder: config.DecoderPath,
		},
		NumThreads: config.NumThreads,
		Debug:      0,
		Provider:   provider,
	}
	engine.slid = sherpa.NewSpokenLanguageIdentification(&slidConfig)
	if engine.slid == nil {
		engine.close()
		return nil, fmt.Errorf("failed to create language identification session")
	}

	engine.initialized = true
	log.Printf("Whisper engine initialized: threads=%d, provider=%s", config.NumThreads, provider)
	return engine, nil
}

// loadRecognizer создаёт распознаватель для заданного языка
// Вызывается под mu (кроме конструктора)
func (e *WhisperEngine) loadRecognizer(language string) error {
	recognizerConfig := sherpa.OfflineRecognizerConfig{
		FeatConfig: sherpa.FeatureConfig{
			SampleRate: 16000,
			FeatureDim: 80,
		},
		ModelConfig: sherpa.OfflineModelConfig{
			Whisper: sherpa.OfflineWhisperModelConfig{
				Encoder:  e.config.EncoderPath,
				Decoder:  e.config.DecoderPath,
				Language: language,
				Task:     "transcribe",
			},
			Tokens:     e.config.TokensPath,
			NumThreads: e.config.NumThreads,
			Debug:      0,
			Provider:   e.provider,
			ModelType:  "whisper",
		},
		DecodingMethod: "greedy_search",
	}

	recognizer := sherpa.NewOfflineRecognizer(&recognizerConfig)
	if recognizer == nil {
		// Если аппаратный provider не сработал, пробуем CPU
		if e.provider != "cpu" {
			log.Printf("WhisperEngine: %s provider failed, falling back to CPU", e.provider)
			recognizerConfig.ModelConfig.Provider = "cpu"
			recognizer = sherpa.NewOfflineRecognizer(&recognizerConfig)
			if recognizer == nil {
				return fmt.Errorf("failed to create whisper recognizer (tried %s and cpu)", e.provider)
			}
			e.provider = "cpu"
		} else {
			return fmt.Errorf("failed to create whisper recognizer")
		}
	}

	if e.recognizer != nil {
		sherpa.DeleteOfflineRecognizer(e.recognizer)
	}
	e.recognizer = recognizer
	e.language = language
	return nil
}

// Name возвращает имя движка
func (e *WhisperEngine) Name() string {
	return "whisper-sherpa"
}

// DetectLanguage определяет язык фрагмента аудио
// Уверенность фиксированная: Whisper SLID не сообщает вероятность
func (e *WhisperEngine) DetectLanguage(samples []float32) (LanguageDetection, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.initialized {
		return LanguageDetection{}, fmt.Errorf("whisper engine not initialized")
	}

	stream := e.slid.CreateStream()
	defer sherpa.DeleteOfflineStream(stream)

	stream.AcceptWaveform(16000, samples)

	result := e.slid.Compute(stream)
	if result == nil || result.Lang == "" {
		return LanguageDetection{}, fmt.Errorf("language identification produced no result")
	}

	return LanguageDetection{
		Language:   normalizeLanguageCode(result.Lang),
		Confidence: e.config.DetectionConfidence,
	}, nil
}

// Transcribe транскрибирует фрагмент аудио
// languageHint фиксирует язык декодера; пустая подсказка включает
// автоопределение, определённый язык возвращается в результате
func (e *WhisperEngine) Transcribe(samples []float32, languageHint string) (TranscriptionResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.initialized {
		return TranscriptionResult{}, fmt.Errorf("whisper engine not initialized")
	}

	if languageHint != e.language {
		if err := e.loadRecognizer(languageHint); err != nil {
			return TranscriptionResult{}, err
		}
	}

	stream := sherpa.NewOfflineStream(e.recognizer)
	defer sherpa.DeleteOfflineStream(stream)

	stream.AcceptWaveform(16000, samples)
	e.recognizer.Decode(stream)

	result := stream.GetResult()
	if result == nil {
		return TranscriptionResult{}, fmt.Errorf("decoding produced no result")
	}

	language := languageHint
	if language == "" {
		language = normalizeLanguageCode(result.Lang)
	}

	return TranscriptionResult{
		Text:     strings.TrimSpace(result.Text),
		Language: language,
	}, nil
}

// close освобождает ресурсы без захвата mu
func (e *WhisperEngine) close() {
	if e.recognizer != nil {
		sherpa.DeleteOfflineRecognizer(e.recognizer)
		e.recognizer = nil
	}
	if e.slid != nil {
		sherpa.DeleteSpokenLanguageIdentification(e.slid)
		e.slid = nil
	}
	e.initialized = false
}

// Close освобождает ресурсы
func (e *WhisperEngine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.close()
}

// normalizeLanguageCode приводит язык sherpa к двухбуквенному коду
// Whisper отдаёт токены вида "<|en|>" либо чистые коды
func normalizeLanguageCode(lang string) string {
	lang = strings.TrimSpace(lang)
	lang = strings.TrimPrefix(lang, "<|")
	lang = strings.TrimSuffix(lang, "|>")
	return strings.ToLower(lang)
}
