// Package report форматирует результаты пайплайна в текстовые отчёты
package report

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"polyvox/ai"
)

// languageNames человекочитаемые названия языков для отчётов
var languageNames = map[string]string{
	"en": "English", "de": "German", "fr": "French", "es": "Spanish",
	"it": "Italian", "pt": "Portuguese", "ru": "Russian", "ja": "Japanese",
	"ko": "Korean", "zh": "Chinese", "ar": "Arabic", "hi": "Hindi",
	"tr": "Turkish", "pl": "Polish", "nl": "Dutch", "sv": "Swedish",
	"da": "Danish", "no": "Norwegian", "fi": "Finnish", "cs": "Czech",
	"sk": "Slovak", "hu": "Hungarian", "ro": "Romanian", "bg": "Bulgarian",
	"hr": "Croatian", "sl": "Slovenian", "et": "Estonian", "lv": "Latvian",
	"lt": "Lithuanian", "uk": "Ukrainian", "be": "Belarusian", "mk": "Macedonian",
	"sq": "Albanian", "sr": "Serbian", "ca": "Catalan", "eu": "Basque",
	"gl": "Galician", "cy": "Welsh", "ga": "Irish", "mt": "Maltese",
	"is": "Icelandic", "fo": "Faroese",
}

// LanguageName возвращает название языка по коду; незнакомые коды - верхним регистром
func LanguageName(code string) string {
	if name, ok := languageNames[code]; ok {
		return name
	}
	return strings.ToUpper(code)
}

// confidenceStars возвращает индикатор уверенности для транскрипта
func confidenceStars(confidence float64) string {
	switch {
	case confidence >= 0.9:
		return "★★★"
	case confidence >= 0.7:
		return "★★☆"
	case confidence >= 0.5:
		return "★☆☆"
	default:
		return "☆☆☆"
	}
}

// formatTime форматирует секунды как MM:SS
func formatTime(seconds float64) string {
	total := int(seconds)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

// WriteTranscript пишет транскрипт с метриками качества и индикаторами
// уверенности для каждого сегмента
func WriteTranscript(w io.Writer, result *ai.Result) error {
	var b strings.Builder

	b.WriteString("MULTILINGUAL SPEECH TRANSCRIPT\n")
	b.WriteString(strings.Repeat("=", 60) + "\n\n")

	acc := result.Accuracy
	b.WriteString("ACCURACY METRICS:\n")
	fmt.Fprintf(&b, "Estimated Accuracy: %.1f%%\n", acc.EstimatedAccuracy)
	fmt.Fprintf(&b, "Processing Success Rate: %.1f%%\n", acc.SuccessRate)
	fmt.Fprintf(&b, "High Confidence Rate: %.1f%%\n", acc.HighConfidenceRate)
	fmt.Fprintf(&b, "Average Text Quality: %.2f words/sec\n\n", acc.AverageTextQuality)

	b.WriteString("SPEAKERS AND LANGUAGES:\n")
	for _, speaker := range result.Speakers {
		stats := result.SpeakerStats[speaker]
		profile := result.SpeakerLanguages[speaker]
		fmt.Fprintf(&b, "%s: %s - %.1fs (Success: %.1f%%, High Conf: %.1f%%)\n",
			speaker, LanguageName(profile.PrimaryLanguage), stats.TotalDuration,
			stats.SuccessPercent, stats.HighConfidencePercent)
	}
	b.WriteString("\n" + strings.Repeat("-", 60) + "\n\n")

	b.WriteString("TRANSCRIPT (with confidence indicators):\n\n")
	for _, seg := range result.Segments {
		text := seg.Text
		if seg.Status != ai.StatusSuccess {
			text = fmt.Sprintf("[%s]", seg.Status)
		}
		fmt.Fprintf(&b, "[%s - %s] %s (%s %s): %s\n",
			formatTime(seg.Start), formatTime(seg.End), seg.Speaker,
			LanguageName(seg.FinalLanguage), confidenceStars(seg.FinalConfidence), text)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// WriteAccuracyReport пишет развёрнутый отчёт о качестве прогона
func WriteAccuracyReport(w io.Writer, result *ai.Result) error {
	var b strings.Builder

	b.WriteString("MULTILINGUAL PIPELINE - ACCURACY REPORT\n")
	b.WriteString(strings.Repeat("=", 70) + "\n\n")

	acc := result.Accuracy
	meta := result.Metadata

	b.WriteString("OVERALL ACCURACY ASSESSMENT:\n")
	fmt.Fprintf(&b, "Estimated Accuracy: %.1f%%\n", acc.EstimatedAccuracy)
	b.WriteString("Target Accuracy: >90%\n")
	if acc.EstimatedAccuracy >= 90 {
		b.WriteString("Target Achieved: YES\n\n")
	} else {
		b.WriteString("Target Achieved: NO\n\n")
	}

	b.WriteString("PROCESSING QUALITY:\n")
	fmt.Fprintf(&b, "Total Segments Processed: %d\n", acc.TotalSegments)
	fmt.Fprintf(&b, "Successfully Processed: %d (%.1f%%)\n", acc.SuccessfulSegments, acc.SuccessRate)
	fmt.Fprintf(&b, "Failed Processing: %d\n", acc.FailedSegments)
	fmt.Fprintf(&b, "High Confidence Detections: %d (%.1f%%)\n\n", acc.HighConfidenceSegments, acc.HighConfidenceRate)

	b.WriteString("RUN METADATA:\n")
	fmt.Fprintf(&b, "Run ID: %s\n", meta.RunID)
	fmt.Fprintf(&b, "Segmentation Engine: %s\n", meta.Engine)
	fmt.Fprintf(&b, "Transcription Engine: %s\n", meta.Transcriber)
	fmt.Fprintf(&b, "Speakers: %d\n", meta.NumSpeakers)
	fmt.Fprintf(&b, "Languages: %s\n", strings.Join(meta.Languages, ", "))
	if meta.Multilingual {
		b.WriteString("Multilingual: Yes\n")
	} else {
		b.WriteString("Multilingual: No\n")
	}
	fmt.Fprintf(&b, "Duration: %.1fs\n", meta.TotalDuration)
	fmt.Fprintf(&b, "Processing Time: %s\n\n", meta.ProcessingTime.Round(time.Millisecond))

	b.WriteString("PER-SPEAKER ACCURACY:\n")
	for _, speaker := range result.Speakers {
		stats := result.SpeakerStats[speaker]
		profile := result.SpeakerLanguages[speaker]
		fmt.Fprintf(&b, "\n%s:\n", speaker)
		fmt.Fprintf(&b, "  Language: %s\n", LanguageName(profile.PrimaryLanguage))
		fmt.Fprintf(&b, "  Language Consistency: %.1f%%\n", profile.Consistency*100)
		fmt.Fprintf(&b, "  Processing Success: %.1f%%\n", stats.SuccessPercent)
		fmt.Fprintf(&b, "  High Confidence Rate: %.1f%%\n", stats.HighConfidencePercent)
		fmt.Fprintf(&b, "  Segments: %d total\n", stats.Segments)
		fmt.Fprintf(&b, "  Duration: %.1fs (%.1f%%)\n", stats.TotalDuration, stats.DurationPercent)
		fmt.Fprintf(&b, "  Words: %d (%.1f%%)\n", stats.TotalWords, stats.WordsPercent)
	}

	b.WriteString("\nRECOMMENDATIONS:\n")
	switch {
	case acc.EstimatedAccuracy >= 95:
		b.WriteString("- Excellent accuracy achieved, results are highly reliable\n")
	case acc.EstimatedAccuracy >= 90:
		b.WriteString("- Good accuracy achieved, results are reliable\n")
	case acc.EstimatedAccuracy >= 80:
		b.WriteString("- Moderate accuracy, consider reprocessing with audio filters enabled\n")
		b.WriteString("- Check audio quality and background noise levels\n")
	default:
		b.WriteString("- Low accuracy detected, audio quality issues likely\n")
		b.WriteString("- Strongly recommend reprocessing with audio filters enabled\n")
		b.WriteString("- Consider using higher quality audio recordings\n")
	}
	b.WriteString(strings.Repeat("=", 70) + "\n")

	_, err := io.WriteString(w, b.String())
	return err
}

// SaveTranscript записывает транскрипт в файл
func SaveTranscript(path string, result *ai.Result) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create transcript file: %w", err)
	}
	if err := WriteTranscript(file, result); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// SaveAccuracyReport записывает отчёт о качестве в файл
func SaveAccuracyReport(path string, result *ai.Result) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	if err := WriteAccuracyReport(file, result); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
