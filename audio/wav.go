// Package audio предоставляет чтение, запись и предобработку аудио файлов
package audio

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// WAVData декодированный WAV файл
type WAVData struct {
	SampleRate int
	Channels   []([]float32) // По одному срезу на канал
}

// ReadWAV читает WAV файл (PCM 16-bit) и возвращает каналы как float32 [-1, 1]
func ReadWAV(filePath string) (*WAVData, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open WAV file: %w", err)
	}
	defer file.Close()

	// RIFF header
	var riff [12]byte
	if _, err := io.ReadFull(file, riff[:]); err != nil {
		return nil, fmt.Errorf("failed to read RIFF header: %w", err)
	}
	if string(riff[0:4]) != "RIFF" || string(riff[8:12]) != "WAVE" {
		return nil, fmt.Errorf("not a WAV file: %s", filePath)
	}

	var sampleRate int
	var numChannels int
	var bitsPerSample int
	var data []byte

	// Идём по чанкам: fmt и data могут идти в любом порядке,
	// LIST/INFO чанки пропускаем
	for {
		var header [8]byte
		if _, err := io.ReadFull(file, header[:]); err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("failed to read chunk header: %w", err)
		}
		chunkID := string(header[0:4])
		chunkSize := binary.LittleEndian.Uint32(header[4:8])

		switch chunkID {
		case "fmt ":
			fmtData := make([]byte, chunkSize)
			if _, err := io.ReadFull(file, fmtData); err != nil {
				return nil, fmt.Errorf("failed to read fmt chunk: %w", err)
			}
			audioFormat := binary.LittleEndian.Uint16(fmtData[0:2])
			if audioFormat != 1 {
				return nil, fmt.Errorf("unsupported WAV format %d, only PCM is supported", audioFormat)
			}
			numChannels = int(binary.LittleEndian.Uint16(fmtData[2:4]))
			sampleRate = int(binary.LittleEndian.Uint32(fmtData[4:8]))
			bitsPerSample = int(binary.LittleEndian.Uint16(fmtData[14:16]))
		case "data":
			data = make([]byte, chunkSize)
			if _, err := io.ReadFull(file, data); err != nil {
				return nil, fmt.Errorf("failed to read data chunk: %w", err)
			}
		default:
			// Чанки выровнены по чётной границе
			skip := int64(chunkSize)
			if skip%2 == 1 {
				skip++
			}
			if _, err := file.Seek(skip, io.SeekCurrent); err != nil {
				return nil, fmt.Errorf("failed to skip chunk %q: %w", chunkID, err)
			}
		}

		if sampleRate != 0 && data != nil {
			break
		}
	}

	if sampleRate == 0 {
		return nil, fmt.Errorf("fmt chunk not found in %s", filePath)
	}
	if data == nil {
		return nil, fmt.Errorf("data chunk not found in %s", filePath)
	}
	if bitsPerSample != 16 {
		return nil, fmt.Errorf("unsupported bit depth %d, only 16-bit PCM is supported", bitsPerSample)
	}
	if numChannels < 1 {
		return nil, fmt.Errorf("invalid channel count %d", numChannels)
	}

	// Interleaved PCM16 -> раздельные float32 каналы
	bytesPerFrame := numChannels * 2
	numFrames := len(data) / bytesPerFrame

	channels := make([][]float32, numChannels)
	for c := range channels {
		channels[c] = make([]float32, numFrames)
	}
	for i := 0; i < numFrames; i++ {
		for c := 0; c < numChannels; c++ {
			sample := int16(binary.LittleEndian.Uint16(data[i*bytesPerFrame+c*2:]))
			channels[c][i] = float32(sample) / 32768.0
		}
	}

	return &WAVData{SampleRate: sampleRate, Channels: channels}, nil
}

// IsWAVPath возвращает true если путь выглядит как WAV файл
func IsWAVPath(path string) bool {
	return strings.HasSuffix(strings.ToLower(path), ".wav")
}

// WAVWriter писатель WAV файлов (PCM 16-bit)
type WAVWriter struct {
	file           *os.File
	filePath       string
	sampleRate     int
	channels       int
	bitsPerSample  int
	samplesWritten int64
	mu             sync.Mutex
}

// NewWAVWriter создаёт новый WAV writer
func NewWAVWriter(filePath string, sampleRate, channels int) (*WAVWriter, error) {
	file, err := os.Create(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to create WAV file: %w", err)
	}

	w := &WAVWriter{
		file:          file,
		filePath:      filePath,
		sampleRate:    sampleRate,
		channels:      channels,
		bitsPerSample: 16,
	}

	// Записываем placeholder header
	if err := w.writeHeader(); err != nil {
		file.Close()
		return nil, err
	}

	return w, nil
}

// writeHeader записывает WAV header
func (w *WAVWriter) writeHeader() error {
	w.file.Seek(0, io.SeekStart)

	byteRate := w.sampleRate * w.channels * w.bitsPerSample / 8
	blockAlign := w.channels * w.bitsPerSample / 8
	dataSize := uint32(w.samplesWritten * int64(w.bitsPerSample/8))

	// RIFF header
	w.file.WriteString("RIFF")
	binary.Write(w.file, binary.LittleEndian, uint32(36+dataSize))
	w.file.WriteString("WAVE")

	// fmt chunk
	w.file.WriteString("fmt ")
	binary.Write(w.file, binary.LittleEndian, uint32(16))           // chunk size
	binary.Write(w.file, binary.LittleEndian, uint16(1))            // PCM
	binary.Write(w.file, binary.LittleEndian, uint16(w.channels))   // channels
	binary.Write(w.file, binary.LittleEndian, uint32(w.sampleRate)) // sample rate
	binary.Write(w.file, binary.LittleEndian, uint32(byteRate))     // byte rate
	binary.Write(w.file, binary.LittleEndian, uint16(blockAlign))   // block align
	binary.Write(w.file, binary.LittleEndian, uint16(w.bitsPerSample))

	// data chunk
	w.file.WriteString("data")
	binary.Write(w.file, binary.LittleEndian, dataSize)

	return nil
}

// Write записывает float32 семплы в файл (конвертирует в PCM16)
func (w *WAVWriter) Write(samples []float32) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, s := range samples {
		// Clamp
		if s > 1.0 {
			s = 1.0
		} else if s < -1.0 {
			s = -1.0
		}
		sample := int16(s * 32767)
		if err := binary.Write(w.file, binary.LittleEndian, sample); err != nil {
			return err
		}
		w.samplesWritten++
	}

	return nil
}

// SamplesWritten возвращает количество записанных семплов
func (w *WAVWriter) SamplesWritten() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.samplesWritten
}

// Close завершает запись: обновляет header с реальным размером данных
func (w *WAVWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.writeHeader(); err != nil {
		w.file.Close()
		return err
	}
	return w.file.Close()
}

// FilePath возвращает путь к файлу
func (w *WAVWriter) FilePath() string {
	return w.filePath
}

// WriteWAV записывает моно сигнал в WAV файл одним вызовом
func WriteWAV(filePath string, samples []float32, sampleRate int) error {
	writer, err := NewWAVWriter(filePath, sampleRate, 1)
	if err != nil {
		return err
	}
	if err := writer.Write(samples); err != nil {
		writer.Close()
		return err
	}
	return writer.Close()
}
