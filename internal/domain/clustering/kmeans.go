package clustering

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
)

type kmeansFit struct {
	centroids [][]float64
	labels    []int
	inertia   float64
}

// kmeans runs restarts of k-means++ seeded Lloyd iterations from a single
// random source and keeps the lowest-inertia fit; ties keep the earlier run.
func kmeans(data [][]float64, k, restarts, maxIter int, rng *rand.Rand) kmeansFit {
	var best kmeansFit
	for r := 0; r < restarts; r++ {
		fit := lloyd(data, seedCentroids(data, k, rng), maxIter)
		if r == 0 || fit.inertia < best.inertia {
			best = fit
		}
	}
	return best
}

// seedCentroids implements k-means++. When every remaining point already
// coincides with a centre the lowest unused index is taken.
func seedCentroids(data [][]float64, k int, rng *rand.Rand) [][]float64 {
	n := len(data)
	used := make([]bool, n)
	first := rng.Intn(n)
	used[first] = true
	centroids := [][]float64{clone(data[first])}

	dist := make([]float64, n)
	for i := range data {
		dist[i] = sqDist(data[i], centroids[0])
	}

	for len(centroids) < k {
		next := -1
		if total := floats.Sum(dist); total > 0 {
			target := rng.Float64() * total
			acc := 0.0
			for i, d := range dist {
				if d == 0 {
					continue
				}
				acc += d
				next = i
				if acc >= target {
					break
				}
			}
		} else {
			for i := range used {
				if !used[i] {
					next = i
					break
				}
			}
		}
		used[next] = true
		c := clone(data[next])
		centroids = append(centroids, c)
		for i := range data {
			dist[i] = math.Min(dist[i], sqDist(data[i], c))
		}
	}
	return centroids
}

func lloyd(data [][]float64, centroids [][]float64, maxIter int) kmeansFit {
	labels := make([]int, len(data))
	assign(data, centroids, labels)

	for iter := 0; iter < maxIter; iter++ {
		update(data, centroids, labels)
		if !assign(data, centroids, labels) {
			break
		}
	}

	inertia := 0.0
	for i, row := range data {
		inertia += sqDist(row, centroids[labels[i]])
	}
	return kmeansFit{centroids: centroids, labels: labels, inertia: inertia}
}

// assign labels each point with its nearest centroid, lower index on ties,
// and reports whether any label changed.
func assign(data, centroids [][]float64, labels []int) bool {
	changed := false
	for i, row := range data {
		l := nearest(row, centroids)
		if l != labels[i] {
			labels[i] = l
			changed = true
		}
	}
	return changed
}

// update moves each centroid to the mean of its members. An empty cluster
// keeps its previous centroid.
func update(data, centroids [][]float64, labels []int) {
	counts := make([]int, len(centroids))
	sums := make([][]float64, len(centroids))
	for j := range sums {
		sums[j] = make([]float64, len(centroids[j]))
	}
	for i, row := range data {
		floats.Add(sums[labels[i]], row)
		counts[labels[i]]++
	}
	for j := range centroids {
		if counts[j] == 0 {
			continue
		}
		floats.ScaleTo(centroids[j], 1/float64(counts[j]), sums[j])
	}
}

func nearest(v []float64, centroids [][]float64) int {
	best, bestDist := 0, math.Inf(1)
	for j, c := range centroids {
		if d := sqDist(v, c); d < bestDist {
			best, bestDist = j, d
		}
	}
	return best
}

func sqDist(a, b []float64) float64 {
	d := floats.Distance(a, b, 2)
	return d * d
}

func clone(v []float64) []float64 {
	return append([]float64(nil), v...)
}
