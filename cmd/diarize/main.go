// Диаризация и мультиязычная транскрипция аудио файла
//
// Запуск: go run ./cmd/diarize -audio meeting.wav \
//   -whisper-encoder models/whisper-encoder.onnx \
//   -whisper-decoder models/whisper-decoder.onnx \
//   -whisper-tokens models/whisper-tokens.txt
//
// Опционально: -encoder (WeSpeaker), -vad (Silero) для кластеризации по
// векторам голоса; без них используется энергетическая сегментация
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"polyvox/ai"
	"polyvox/audio"
	"polyvox/report"
)

func main() {
	audioPath := flag.String("audio", "", "путь к аудио файлу (.wav или .mp3)")
	whisperEncoder := flag.String("whisper-encoder", "", "путь к Whisper encoder ONNX модели")
	whisperDecoder := flag.String("whisper-decoder", "", "путь к Whisper decoder ONNX модели")
	whisperTokens := flag.String("whisper-tokens", "", "путь к файлу токенов Whisper")
	encoderModel := flag.String("encoder", "", "путь к WeSpeaker ONNX модели (опционально)")
	vadModel := flag.String("vad", "", "путь к Silero VAD ONNX модели (опционально)")
	numSpeakers := flag.Int("speakers", 0, "число спикеров (0 = автоопределение)")
	outDir := flag.String("out", ".", "директория для результатов")
	exportClips := flag.Bool("clips", false, "экспортировать клипы сегментов (WAV)")
	applyFilters := flag.Bool("filters", false, "применить фильтры очистки звука")
	flag.Parse()

	if *audioPath == "" || *whisperEncoder == "" || *whisperDecoder == "" || *whisperTokens == "" {
		flag.Usage()
		os.Exit(2)
	}

	// 1. Предобработка: mono, 16kHz, нормализация
	prepConfig := audio.DefaultPreprocessorConfig()
	prepConfig.ApplyFilters = *applyFilters
	preprocessor := audio.NewPreprocessor(prepConfig)

	samples, metrics, err := preprocessor.ProcessFile(*audioPath)
	if err != nil {
		log.Fatalf("Ошибка предобработки: %v", err)
	}
	log.Printf("Аудио: %.1f сек, %d каналов @ %d Hz", metrics.Duration, metrics.SourceChannels, metrics.SourceSampleRate)

	// 2. Оракулы. Whisper обязателен, embedder и VAD опциональны
	transcriber, err := ai.NewWhisperEngine(ai.DefaultWhisperConfig(*whisperEncoder, *whisperDecoder, *whisperTokens))
	if err != nil {
		log.Fatalf("Ошибка инициализации Whisper: %v", err)
	}
	defer transcriber.Close()

	var embedder ai.EmbeddingOracle
	if *encoderModel != "" {
		enc, err := ai.NewSpeakerEncoder(ai.DefaultSpeakerEncoderConfig(*encoderModel))
		if err != nil {
			log.Printf("Speaker encoder недоступен, будет энергетическая сегментация: %v", err)
		} else {
			embedder = enc
			defer enc.Close()
		}
	}

	var vad ai.VoiceActivityOracle
	if *vadModel != "" {
		vadConfig := ai.DefaultSileroVADConfig()
		vadConfig.ModelPath = *vadModel
		v, err := ai.NewSileroVAD(vadConfig)
		if err != nil {
			log.Printf("Silero VAD недоступен, VAD по энергии: %v", err)
		} else {
			vad = v
			defer v.Close()
		}
	}

	// 3. Пайплайн
	pipeline, err := ai.NewMultilingualPipeline(transcriber, embedder, vad, ai.DefaultPipelineConfig())
	if err != nil {
		log.Fatalf("Ошибка создания пайплайна: %v", err)
	}

	result, err := pipeline.Process(samples, ai.ProcessOptions{NumSpeakers: *numSpeakers})
	if err != nil {
		log.Fatalf("Ошибка обработки: %v", err)
	}

	// 4. Отчёты
	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		log.Fatalf("Ошибка создания директории: %v", err)
	}

	base := strings.TrimSuffix(filepath.Base(*audioPath), filepath.Ext(*audioPath))
	transcriptPath := filepath.Join(*outDir, base+"_transcript.txt")
	reportPath := filepath.Join(*outDir, base+"_accuracy_report.txt")

	if err := report.SaveTranscript(transcriptPath, result); err != nil {
		log.Fatalf("Ошибка сохранения транскрипта: %v", err)
	}
	if err := report.SaveAccuracyReport(reportPath, result); err != nil {
		log.Fatalf("Ошибка сохранения отчёта: %v", err)
	}

	// 5. Опциональный экспорт клипов сегментов
	if *exportClips {
		clipsDir := filepath.Join(*outDir, base+"_clips")
		if err := os.MkdirAll(clipsDir, 0o755); err != nil {
			log.Fatalf("Ошибка создания директории клипов: %v", err)
		}
		clips := make([]audio.Clip, 0, len(result.Segments))
		for _, seg := range result.Segments {
			clips = append(clips, audio.Clip{Start: seg.Start, End: seg.End, Label: seg.Speaker})
		}
		_, clipErrs := audio.ExportClips(samples, prepConfig.TargetSampleRate, clips, clipsDir, audio.ClipWAV)
		for _, cerr := range clipErrs {
			log.Printf("Клип не сохранён: %v", cerr)
		}
	}

	// Итоговая сводка
	fmt.Println()
	fmt.Println("=== Результаты ===")
	fmt.Printf("Спикеров: %d\n", result.Metadata.NumSpeakers)
	fmt.Printf("Сегментов: %d\n", result.Metadata.NumSegments)
	fmt.Printf("Языки: %s\n", strings.Join(result.Metadata.Languages, ", "))
	fmt.Printf("Движок сегментации: %s\n", result.Metadata.Engine)
	fmt.Printf("Оценка точности: %.1f%%\n", result.Accuracy.EstimatedAccuracy)
	fmt.Printf("Время обработки: %s\n", result.Metadata.ProcessingTime)
	fmt.Printf("Транскрипт: %s\n", transcriptPath)
	fmt.Printf("Отчёт: %s\n", reportPath)
}
