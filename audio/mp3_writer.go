package audio

import (
	"fmt"
	"os"

	"github.com/braheezy/shine-mp3/pkg/mp3"
)

// MP3 Layer III кодируется блоками по 1152 сэмпла на канал
const mp3BlockSize = 1152

// WriteMP3 кодирует моно сигнал в MP3 файл через shine-mp3 (чистый Go, без FFmpeg)
func WriteMP3(filePath string, samples []float32, sampleRate int) error {
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create MP3 file: %w", err)
	}

	encoder := mp3.NewEncoder(sampleRate, 1)

	// Конвертируем float32 в int16 с дополнением до размера блока
	padded := len(samples)
	if rem := padded % mp3BlockSize; rem != 0 {
		padded += mp3BlockSize - rem
	}

	pcm := make([]int16, padded)
	for i, s := range samples {
		// Clamp
		if s > 1.0 {
			s = 1.0
		} else if s < -1.0 {
			s = -1.0
		}
		pcm[i] = int16(s * 32767)
	}

	if err := encoder.Write(file, pcm); err != nil {
		file.Close()
		return fmt.Errorf("failed to encode MP3: %w", err)
	}

	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close MP3 file: %w", err)
	}
	return nil
}
