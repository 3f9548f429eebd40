// Silero VAD движок для определения голосовой активности
package ai

import (
	"fmt"
	"log"
	"os"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// SileroVADConfig конфигурация Silero VAD
type SileroVADConfig struct {
	ModelPath      string  // Путь к ONNX модели
	SampleRate     int     // Частота дискретизации (8000 или 16000)
	Threshold      float32 // Порог вероятности речи (0.0 - 1.0)
	MinVoicedRatio float64 // Минимальная доля речевых чанков в окне
}

// DefaultSileroVADConfig возвращает конфигурацию по умолчанию
func DefaultSileroVADConfig() SileroVADConfig {
	return SileroVADConfig{
		SampleRate:     16000,
		Threshold:      0.5,
		MinVoicedRatio: 0.25,
	}
}

// SileroVAD движок определения голосовой активности на основе Silero VAD
type SileroVAD struct {
	session *ort.DynamicAdvancedSession
	config  SileroVADConfig

	// LSTM состояние (сохраняется между чанками внутри одного окна)
	state []float32

	// Контекст - последние N сэмплов предыдущего чанка
	// 64 сэмпла для 16kHz, 32 для 8kHz
	context []float32

	mu          sync.Mutex
	initialized bool
}

// Проверяем что SileroVAD реализует VoiceActivityOracle
var _ VoiceActivityOracle = (*SileroVAD)(nil)

// NewSileroVAD создаёт новый Silero VAD движок
func NewSileroVAD(config SileroVADConfig) (*SileroVAD, error) {
	// Проверяем существование файла модели
	if _, err := os.Stat(config.ModelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("model file not found: %s", config.ModelPath)
	}

	// Проверяем sample rate
	if config.SampleRate != 8000 && config.SampleRate != 16000 {
		return nil, fmt.Errorf("sample rate must be 8000 or 16000, got %d", config.SampleRate)
	}

	// Инициализируем ONNX Runtime
	if err := initONNXRuntime(); err != nil {
		return nil, fmt.Errorf("failed to initialize ONNX Runtime: %w", err)
	}

	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("failed to create session options: %w", err)
	}
	defer options.Destroy()

	// Silero VAD inputs: input, state, sr
	// Silero VAD outputs: output, stateN
	inputNames := []string{"input", "state", "sr"}
	outputNames := []string{"output", "stateN"}

	session, err := ort.NewDynamicAdvancedSession(
		config.ModelPath,
		inputNames,
		outputNames,
		options,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}

	// Размер контекста: 64 для 16kHz, 32 для 8kHz
	contextSize := 64
	if config.SampleRate == 8000 {
		contextSize = 32
	}

	vad := &SileroVAD{
		session:     session,
		config:      config,
		state:       make([]float32, 2*1*128), // [2, 1, 128] - h и c состояния LSTM
		context:     make([]float32, contextSize),
		initialized: true,
	}

	log.Printf("Silero VAD initialized: sample_rate=%d, threshold=%.2f", config.SampleRate, config.Threshold)
	return vad, nil
}

// resetState сбрасывает LSTM состояние и контекст
// Вызывается перед каждым окном - окна независимы
func (v *SileroVAD) resetState() {
	for i := range v.state {
		v.state[i] = 0
	}
	for i := range v.context {
		v.context[i] = 0
	}
}

// IsVoice определяет, содержит ли окно аудио речь
// Окно разбивается на чанки по 512 сэмплов (256 для 8kHz), решение
// принимается по доле чанков с вероятностью речи выше порога
func (v *SileroVAD) IsVoice(frame []float32) (bool, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.initialized {
		return false, fmt.Errorf("Silero VAD not initialized")
	}

	windowSize := 512
	if v.config.SampleRate == 8000 {
		windowSize = 256
	}

	if len(frame) < windowSize {
		return false, nil
	}

	v.resetState()

	voiced := 0
	total := 0
	for i := 0; i+windowSize <= len(frame); i += windowSize {
		prob, err := v.processChunk(frame[i : i+windowSize])
		if err != nil {
			return false, err
		}
		if prob >= v.config.Threshold {
			voiced++
		}
		total++
	}

	return float64(voiced)/float64(total) >= v.config.MinVoicedRatio, nil
}

// processChunk обрабатывает один чанк аудио и возвращает вероятность речи
// Размер чанка должен быть 512 для 16kHz или 256 для 8kHz
// Вызывается под mu
func (v *SileroVAD) processChunk(samples []float32) (float32, error) {
	contextSize := len(v.context)

	// Создаём входной буфер: context + samples
	// Silero VAD ожидает [batch, context_size + window_size]
	inputData := make([]float32, contextSize+len(samples))
	copy(inputData[:contextSize], v.context)
	copy(inputData[contextSize:], samples)

	// Обновляем контекст для следующего вызова (последние contextSize сэмплов)
	if len(samples) >= contextSize {
		copy(v.context, samples[len(samples)-contextSize:])
	} else {
		copy(v.context, v.context[len(samples):])
		copy(v.context[contextSize-len(samples):], samples)
	}

	// input: [batch, context_size + window_size]
	batchSize := int64(1)
	numSamples := int64(len(inputData))

	inputShape := ort.NewShape(batchSize, numSamples)
	inputTensor, err := ort.NewTensor(inputShape, inputData)
	if err != nil {
		return 0, fmt.Errorf("failed to create input tensor: %w", err)
	}
	defer inputTensor.Destroy()

	// state: [2, batch, 128]
	stateShape := ort.NewShape(2, batchSize, 128)
	stateTensor, err := ort.NewTensor(stateShape, v.state)
	if err != nil {
		return 0, fmt.Errorf("failed to create state tensor: %w", err)
	}
	defer stateTensor.Destroy()

	// sr: scalar (int64)
	srData := []int64{int64(v.config.SampleRate)}
	srShape := ort.NewShape(1)
	srTensor, err := ort.NewTensor(srShape, srData)
	if err != nil {
		return 0, fmt.Errorf("failed to create sr tensor: %w", err)
	}
	defer srTensor.Destroy()

	// Запускаем инференс
	outputs := []ort.Value{nil, nil}
	err = v.session.Run([]ort.Value{inputTensor, stateTensor, srTensor}, outputs)
	if err != nil {
		return 0, fmt.Errorf("failed to run inference: %w", err)
	}
	defer func() {
		for _, out := range outputs {
			if out != nil {
				out.Destroy()
			}
		}
	}()

	outputTensor := outputs[0].(*ort.Tensor[float32])
	outputData := outputTensor.GetData()

	stateNTensor := outputs[1].(*ort.Tensor[float32])
	stateNData := stateNTensor.GetData()

	// Обновляем состояние LSTM
	copy(v.state, stateNData)

	if len(outputData) > 0 {
		return outputData[0], nil
	}
	return 0, nil
}

// Close освобождает ресурсы
func (v *SileroVAD) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.session != nil {
		v.session.Destroy()
		v.session = nil
	}
	v.initialized = false
}
