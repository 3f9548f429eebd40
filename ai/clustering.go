package ai

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// cosineDistance возвращает косинусное расстояние (1 - cosine_similarity)
// Диапазон: [0, 2]. 0 - идентичные векторы, 1 - ортогональные, 2 - противоположные
func cosineDistance(a, b []float64) float64 {
	dot := floats.Dot(a, b)
	normA := floats.Norm(a, 2)
	normB := floats.Norm(b, 2)

	if normA == 0 || normB == 0 {
		return 1.0 // Максимальное расстояние при нулевом векторе
	}

	similarity := dot / (normA * normB)
	if similarity > 1.0 {
		similarity = 1.0
	} else if similarity < -1.0 {
		similarity = -1.0
	}

	return 1.0 - similarity
}

// normalizeRows L2-нормализует каждый вектор на месте
// Нулевые векторы остаются нулевыми
func normalizeRows(vectors [][]float64) {
	for _, v := range vectors {
		norm := floats.Norm(v, 2)
		if norm > 0 {
			floats.Scale(1/norm, v)
		}
	}
}

// pairwiseCosineDistances вычисляет матрицу косинусных расстояний
func pairwiseCosineDistances(vectors [][]float64) [][]float64 {
	n := len(vectors)
	dist := make([][]float64, n)
	for i := range dist {
		dist[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := cosineDistance(vectors[i], vectors[j])
			dist[i][j] = d
			dist[j][i] = d
		}
	}
	return dist
}

// agglomerativeCluster выполняет иерархическую кластеризацию (average linkage,
// косинусная метрика) до заданного числа кластеров numClusters.
// Возвращает метку кластера для каждого входного вектора; метки нумеруются
// в порядке первого появления (0, 1, 2...)
func agglomerativeCluster(vectors [][]float64, numClusters int) ([]int, error) {
	n := len(vectors)
	if n == 0 {
		return nil, fmt.Errorf("no vectors to cluster")
	}
	if numClusters < 1 {
		return nil, fmt.Errorf("invalid cluster count: %d", numClusters)
	}
	if numClusters >= n {
		labels := make([]int, n)
		for i := range labels {
			labels[i] = i
		}
		return labels, nil
	}

	dist := pairwiseCosineDistances(vectors)

	// Каждая точка начинает в собственном кластере
	clusters := make([][]int, n)
	for i := range clusters {
		clusters[i] = []int{i}
	}

	// Среднее расстояние между всеми парами точек двух кластеров
	linkage := func(a, b []int) float64 {
		sum := 0.0
		for _, i := range a {
			for _, j := range b {
				sum += dist[i][j]
			}
		}
		return sum / float64(len(a)*len(b))
	}

	for len(clusters) > numClusters {
		bestI, bestJ := -1, -1
		bestDist := math.Inf(1)

		for i := 0; i < len(clusters); i++ {
			for j := i + 1; j < len(clusters); j++ {
				d := linkage(clusters[i], clusters[j])
				if d < bestDist {
					bestDist = d
					bestI, bestJ = i, j
				}
			}
		}

		merged := append(append([]int{}, clusters[bestI]...), clusters[bestJ]...)
		clusters[bestI] = merged
		clusters = append(clusters[:bestJ], clusters[bestJ+1:]...)
	}

	// Метки в порядке первого появления точки
	labels := make([]int, n)
	for i := range labels {
		labels[i] = -1
	}
	for clusterID, members := range clusters {
		for _, idx := range members {
			labels[idx] = clusterID
		}
	}
	return relabelByFirstAppearance(labels), nil
}

// relabelByFirstAppearance перенумеровывает метки в порядке первого появления
// Косметика для детерминированных имён спикеров
func relabelByFirstAppearance(labels []int) []int {
	mapping := make(map[int]int)
	next := 0
	result := make([]int, len(labels))
	for i, label := range labels {
		if label < 0 {
			result[i] = label
			continue
		}
		newLabel, ok := mapping[label]
		if !ok {
			newLabel = next
			mapping[label] = newLabel
			next++
		}
		result[i] = newLabel
	}
	return result
}

// silhouetteScore вычисляет silhouette score по косинусной метрике
// Точки в кластере размера 1 получают score 0 (как в sklearn)
func silhouetteScore(vectors [][]float64, labels []int) (float64, error) {
	n := len(vectors)
	if n != len(labels) {
		return 0, fmt.Errorf("vectors/labels length mismatch: %d != %d", n, len(labels))
	}

	clusterSizes := make(map[int]int)
	for _, label := range labels {
		clusterSizes[label]++
	}
	if len(clusterSizes) < 2 {
		return 0, fmt.Errorf("silhouette requires at least 2 clusters, got %d", len(clusterSizes))
	}
	if len(clusterSizes) >= n {
		return 0, fmt.Errorf("silhouette requires fewer clusters than points")
	}

	dist := pairwiseCosineDistances(vectors)

	total := 0.0
	for i := 0; i < n; i++ {
		own := labels[i]
		if clusterSizes[own] == 1 {
			continue // score 0
		}

		// a: среднее расстояние до своего кластера (без самой точки)
		// b: минимум среднего расстояния до чужих кластеров
		sums := make(map[int]float64)
		for j := 0; j < n; j++ {
			if j == i {
				continue
			}
			sums[labels[j]] += dist[i][j]
		}

		a := sums[own] / float64(clusterSizes[own]-1)
		b := math.Inf(1)
		for label, sum := range sums {
			if label == own {
				continue
			}
			mean := sum / float64(clusterSizes[label])
			if mean < b {
				b = mean
			}
		}

		if denom := math.Max(a, b); denom > 0 {
			total += (b - a) / denom
		}
	}

	return total / float64(n), nil
}

// estimateNumSpeakers подбирает число спикеров перебором кандидатов
// в [2, min(maxSpeakers, n/2)] по лучшему silhouette score
// Если голосовых фреймов меньше 4, возвращает 1
func estimateNumSpeakers(vectors [][]float64, maxSpeakers int) int {
	if len(vectors) < 4 {
		return 1
	}

	maxClusters := maxSpeakers
	if limit := len(vectors) / 2; limit < maxClusters {
		maxClusters = limit
	}

	bestScore := -1.0
	bestK := 1

	for k := 2; k <= maxClusters; k++ {
		labels, err := agglomerativeCluster(vectors, k)
		if err != nil {
			continue
		}
		score, err := silhouetteScore(vectors, labels)
		if err != nil {
			continue
		}
		if score > bestScore {
			bestScore = score
			bestK = k
		}
	}

	return bestK
}
