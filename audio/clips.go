package audio

import (
	"fmt"
	"log"
	"path/filepath"
)

// Clip временной фрагмент записи для экспорта
type Clip struct {
	Start float64 // Начало в секундах
	End   float64 // Конец в секундах
	Label string  // Метка для имени файла (обычно спикер)
}

// ClipFormat формат экспортируемых клипов
type ClipFormat string

const (
	ClipWAV ClipFormat = "wav"
	ClipMP3 ClipFormat = "mp3"
)

// ExportClips вырезает фрагменты [Start, End) из сигнала и записывает каждый
// в отдельный файл в outDir. Ошибка одного клипа не прерывает остальные;
// возвращаются пути записанных файлов и ошибки по несохранённым клипам
func ExportClips(samples []float32, sampleRate int, clips []Clip, outDir string, format ClipFormat) ([]string, []error) {
	var paths []string
	var errs []error

	for i, clip := range clips {
		start := int(clip.Start * float64(sampleRate))
		end := int(clip.End * float64(sampleRate))
		if start < 0 {
			start = 0
		}
		if end > len(samples) {
			end = len(samples)
		}
		if start >= end {
			errs = append(errs, fmt.Errorf("clip %d (%s): empty range [%.2f, %.2f)", i, clip.Label, clip.Start, clip.End))
			continue
		}

		name := fmt.Sprintf("segment_%03d_%s.%s", i, clip.Label, format)
		path := filepath.Join(outDir, name)

		var err error
		switch format {
		case ClipWAV:
			err = WriteWAV(path, samples[start:end], sampleRate)
		case ClipMP3:
			err = WriteMP3(path, samples[start:end], sampleRate)
		default:
			err = fmt.Errorf("unsupported clip format: %s", format)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("clip %d (%s): %w", i, clip.Label, err))
			continue
		}
		paths = append(paths, path)
	}

	log.Printf("ExportClips: wrote %d/%d clips to %s", len(paths), len(clips), outDir)
	return paths, errs
}
