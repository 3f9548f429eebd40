package ai

import "sort"

// ResolveOverlaps строит непересекающееся разбиение таймлайна из сырых сегментов
// диаризации. Чистая функция: вход не изменяется, возвращается новый список.
//
// Правила за один проход по отсортированным сегментам:
//   - сегменты короче minDuration отбрасываются как шум до обработки перекрытий;
//   - нет перекрытия - сегмент принимается как есть;
//   - малое перекрытие (<= overlapThreshold) - граница сдвигается в середину зоны
//     перекрытия;
//   - большое перекрытие того же спикера - сегменты объединяются;
//   - большое перекрытие разных спикеров - остаётся более длинный сегмент.
//
// Выход отсортирован по времени начала, сегменты не пересекаются, ID проставлены
// последовательно с нуля. Повторный вызов на собственном выходе возвращает его же.
func ResolveOverlaps(segments []SpeakerSegment, minDuration, overlapThreshold float64) []SpeakerSegment {
	sorted := make([]SpeakerSegment, len(segments))
	copy(sorted, segments)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	var clean []SpeakerSegment

	for _, seg := range sorted {
		// Слишком короткие сегменты - шум
		if seg.Duration < minDuration {
			continue
		}

		if len(clean) > 0 {
			prev := &clean[len(clean)-1]

			if seg.Start < prev.End {
				overlap := prev.End - seg.Start

				if overlap <= overlapThreshold {
					// Малое перекрытие - делим по середине
					midpoint := (prev.End + seg.Start) / 2
					prev.End = midpoint
					prev.Duration = midpoint - prev.Start
					seg.Start = midpoint
					seg.Duration = seg.End - seg.Start
				} else if seg.Speaker == prev.Speaker {
					// Большое перекрытие того же спикера - объединяем
					if seg.End > prev.End {
						prev.End = seg.End
					}
					prev.Duration = prev.End - prev.Start
					continue
				} else {
					// Большое перекрытие разных спикеров - оставляем более длинный
					if seg.Duration > overlap {
						seg.Start = prev.End
						seg.Duration = seg.End - seg.Start
					} else {
						continue
					}
				}
			}
		}

		clean = append(clean, seg)
	}

	// Сдвиг границ мог укоротить сегмент ниже минимума - убираем такие остатки,
	// иначе повторный проход дал бы другой результат
	result := clean[:0]
	for _, seg := range clean {
		if seg.Duration < minDuration {
			continue
		}
		seg.ID = len(result)
		result = append(result, seg)
	}

	return result
}
