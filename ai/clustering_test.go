package ai

import (
	"math"
	"testing"
)

// syntheticClusters генерирует векторы вокруг заданных направлений
// с небольшим детерминированным шумом
func syntheticClusters(centers [][]float64, perCluster int) ([][]float64, []int) {
	var vectors [][]float64
	var truth []int

	for c, center := range centers {
		for i := 0; i < perCluster; i++ {
			v := make([]float64, len(center))
			for j, x := range center {
				// Небольшое детерминированное возмущение
				v[j] = x + 0.02*float64((i*7+j*3)%5-2)
			}
			vectors = append(vectors, v)
			truth = append(truth, c)
		}
	}
	return vectors, truth
}

// TestCosineDistance тестирует косинусное расстояние
func TestCosineDistance(t *testing.T) {
	tests := []struct {
		name     string
		a, b     []float64
		expected float64
	}{
		{"идентичные векторы", []float64{1, 0, 0}, []float64{1, 0, 0}, 0},
		{"сонаправленные разной длины", []float64{1, 1}, []float64{3, 3}, 0},
		{"ортогональные", []float64{1, 0}, []float64{0, 1}, 1},
		{"противоположные", []float64{1, 0}, []float64{-1, 0}, 2},
		{"нулевой вектор", []float64{0, 0}, []float64{1, 0}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cosineDistance(tt.a, tt.b)
			if math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("expected %.6f, got %.6f", tt.expected, got)
			}
		})
	}
}

// TestNormalizeRows векторы получают единичную норму, нулевые не трогаются
func TestNormalizeRows(t *testing.T) {
	vectors := [][]float64{{3, 4}, {0, 0}, {0, 5}}
	normalizeRows(vectors)

	if math.Abs(vectors[0][0]-0.6) > 1e-9 || math.Abs(vectors[0][1]-0.8) > 1e-9 {
		t.Errorf("expected [0.6 0.8], got %v", vectors[0])
	}
	if vectors[1][0] != 0 || vectors[1][1] != 0 {
		t.Errorf("zero vector changed: %v", vectors[1])
	}
	if math.Abs(vectors[2][1]-1.0) > 1e-9 {
		t.Errorf("expected unit norm, got %v", vectors[2])
	}
}

// TestAgglomerativeCluster кластеризация разделимых данных восстанавливает
// плантированные группы
func TestAgglomerativeCluster(t *testing.T) {
	centers := [][]float64{
		{1, 0, 0, 0},
		{0, 1, 0, 0},
		{0, 0, 1, 0},
	}
	vectors, truth := syntheticClusters(centers, 5)
	normalizeRows(vectors)

	labels, err := agglomerativeCluster(vectors, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Все точки одной истинной группы должны получить одну метку,
	// разных групп - разные
	seen := make(map[int]int) // истинная группа -> метка
	for i, label := range labels {
		if prev, ok := seen[truth[i]]; ok {
			if prev != label {
				t.Errorf("point %d: cluster split, expected label %d, got %d", i, prev, label)
			}
		} else {
			seen[truth[i]] = label
		}
	}
	if len(seen) != 3 {
		t.Errorf("expected 3 distinct labels, got %d", len(seen))
	}
}

// TestAgglomerativeClusterFirstAppearance метки нумеруются в порядке появления
func TestAgglomerativeClusterFirstAppearance(t *testing.T) {
	centers := [][]float64{{1, 0}, {0, 1}}
	vectors, _ := syntheticClusters(centers, 3)

	labels, err := agglomerativeCluster(vectors, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if labels[0] != 0 {
		t.Errorf("first point must get label 0, got %d", labels[0])
	}
}

// TestAgglomerativeClusterDegenerate граничные случаи
func TestAgglomerativeClusterDegenerate(t *testing.T) {
	if _, err := agglomerativeCluster(nil, 2); err == nil {
		t.Error("expected error for empty input")
	}
	if _, err := agglomerativeCluster([][]float64{{1, 0}}, 0); err == nil {
		t.Error("expected error for zero clusters")
	}

	// Кластеров больше чем точек - каждая точка свой кластер
	labels, err := agglomerativeCluster([][]float64{{1, 0}, {0, 1}}, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if labels[0] == labels[1] {
		t.Errorf("expected distinct labels, got %v", labels)
	}
}

// TestSilhouetteScore хорошее разбиение даёт score ближе к 1,
// плохое - заметно ниже
func TestSilhouetteScore(t *testing.T) {
	centers := [][]float64{{1, 0, 0}, {0, 1, 0}}
	vectors, truth := syntheticClusters(centers, 4)
	normalizeRows(vectors)

	good, err := silhouetteScore(vectors, truth)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if good < 0.5 {
		t.Errorf("expected high silhouette for separable clusters, got %.3f", good)
	}

	// Перемешанные метки - плохое разбиение
	bad := make([]int, len(truth))
	for i := range bad {
		bad[i] = i % 2
	}
	badScore, err := silhouetteScore(vectors, bad)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if badScore >= good {
		t.Errorf("shuffled labels scored %.3f, not worse than true labels %.3f", badScore, good)
	}
}

// TestSilhouetteScoreErrors вырожденные разбиения
func TestSilhouetteScoreErrors(t *testing.T) {
	vectors := [][]float64{{1, 0}, {0, 1}, {1, 1}}

	if _, err := silhouetteScore(vectors, []int{0, 0, 0}); err == nil {
		t.Error("expected error for single cluster")
	}
	if _, err := silhouetteScore(vectors, []int{0, 1, 2}); err == nil {
		t.Error("expected error for clusters == points")
	}
	if _, err := silhouetteScore(vectors, []int{0, 1}); err == nil {
		t.Error("expected error for length mismatch")
	}
}

// TestEstimateNumSpeakers подбор числа кластеров по silhouette
func TestEstimateNumSpeakers(t *testing.T) {
	tests := []struct {
		name       string
		centers    [][]float64
		perCluster int
		expected   int
	}{
		{
			name:       "два разделимых кластера",
			centers:    [][]float64{{1, 0, 0}, {0, 1, 0}},
			perCluster: 5,
			expected:   2,
		},
		{
			name:       "три разделимых кластера",
			centers:    [][]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}},
			perCluster: 4,
			expected:   3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vectors, _ := syntheticClusters(tt.centers, tt.perCluster)
			normalizeRows(vectors)

			got := estimateNumSpeakers(vectors, 10)
			if got != tt.expected {
				t.Errorf("expected %d speakers, got %d", tt.expected, got)
			}
		})
	}
}

// TestEstimateNumSpeakersFewVectors меньше 4 голосовых фреймов - один спикер
func TestEstimateNumSpeakersFewVectors(t *testing.T) {
	vectors := [][]float64{{1, 0}, {0, 1}, {1, 1}}
	if got := estimateNumSpeakers(vectors, 10); got != 1 {
		t.Errorf("expected 1 speaker for %d vectors, got %d", len(vectors), got)
	}
}

// TestRelabelByFirstAppearance перенумерация меток
func TestRelabelByFirstAppearance(t *testing.T) {
	got := relabelByFirstAppearance([]int{2, 2, 0, 1, 0})
	expected := []int{0, 0, 1, 2, 1}
	for i := range expected {
		if got[i] != expected[i] {
			t.Fatalf("expected %v, got %v", expected, got)
		}
	}
}
