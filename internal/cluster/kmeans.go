// Package cluster partitions TF-IDF vectors into topics with k-means and
// labels every topic with its heaviest centroid terms.
//
// Runs are reproducible: k-means++ seeding draws from a math/rand source
// created from Config.Seed, distance ties resolve to the lowest cluster
// index, and empty clusters are re-seeded with the farthest point (lowest
// document index on ties). The same matrix and seed always give the same
// assignments and labels.
package cluster

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/deusflow/newslens/internal/article"
	"github.com/deusflow/newslens/internal/logger"
	"github.com/deusflow/newslens/internal/vectorize"
)

// Defaults applied by New for zero-valued Config fields.
const (
	DefaultK         = 5
	DefaultTopTerms  = 5
	DefaultSeed      = 42
	DefaultMaxIter   = 300
	DefaultTolerance = 1e-4
	DefaultNInit     = 1
)

// ErrEmptyCorpus is returned when there are no documents to cluster.
var ErrEmptyCorpus = errors.New("cannot cluster an empty corpus")

// Config tunes a k-means run. Zero fields take the defaults above, so a
// Seed of 0 runs with DefaultSeed.
type Config struct {
	K         int
	TopTerms  int
	Seed      int64
	MaxIter   int
	Tolerance float64
	NInit     int
}

// Topic is one cluster with its derived label.
type Topic struct {
	ID       int       `json:"id"`
	Label    string    `json:"label"`
	Terms    []string  `json:"terms"`
	Size     int       `json:"size"`
	Centroid []float64 `json:"-"`
}

// Result holds per-document assignments and the topics they point to.
type Result struct {
	K           int
	Assignments []int
	Topics      []Topic
	Inertia     float64
	Iterations  int
}

// Label returns the topic label for cluster id, or "" when out of range.
func (r *Result) Label(id int) string {
	if id < 0 || id >= len(r.Topics) {
		return ""
	}
	return r.Topics[id].Label
}

// Apply returns a copy of c with ClusterID and Topic filled in.
// c must be the corpus the matrix was built from.
func (r *Result) Apply(c article.Corpus) article.Corpus {
	out := c.Clone()
	for i := range out {
		if i >= len(r.Assignments) {
			break
		}
		out[i].ClusterID = r.Assignments[i]
		out[i].Topic = r.Label(r.Assignments[i])
	}
	return out
}

// KMeans clusters vectorized documents.
type KMeans struct {
	cfg Config
}

// New fills defaults into cfg.
func New(cfg Config) *KMeans {
	if cfg.K <= 0 {
		cfg.K = DefaultK
	}
	if cfg.TopTerms <= 0 {
		cfg.TopTerms = DefaultTopTerms
	}
	if cfg.Seed == 0 {
		cfg.Seed = DefaultSeed
	}
	if cfg.MaxIter <= 0 {
		cfg.MaxIter = DefaultMaxIter
	}
	if cfg.Tolerance <= 0 {
		cfg.Tolerance = DefaultTolerance
	}
	if cfg.NInit <= 0 {
		cfg.NInit = DefaultNInit
	}
	return &KMeans{cfg: cfg}
}

// Config returns the effective configuration.
func (km *KMeans) Config() Config { return km.cfg }

// Fit clusters the rows of m. When m has fewer documents than K, K is
// reduced to the document count.
func (km *KMeans) Fit(m *vectorize.Matrix) (*Result, error) {
	n, d := m.Dims()
	if n == 0 {
		return nil, ErrEmptyCorpus
	}
	if d == 0 {
		return nil, vectorize.ErrEmptyVocabulary
	}
	k := km.cfg.K
	if n < k {
		logger.Warn("fewer documents than clusters, reducing k", "documents", n, "requested_k", k)
		k = n
	}

	data := mat.NewDense(n, d, nil)
	for i, row := range m.Rows() {
		data.SetRow(i, row.Dense(d))
	}

	rng := rand.New(rand.NewSource(km.cfg.Seed))
	var best *run
	for i := 0; i < km.cfg.NInit; i++ {
		r := km.lloyd(data, k, rng)
		if best == nil || r.inertia < best.inertia {
			best = r
		}
	}

	res := &Result{
		K:           k,
		Assignments: best.assign,
		Inertia:     best.inertia,
		Iterations:  best.iterations,
		Topics:      make([]Topic, k),
	}
	terms := m.Terms()
	for c := 0; c < k; c++ {
		centroid := make([]float64, d)
		copy(centroid, best.centers.RawRowView(c))
		top := topTerms(centroid, terms, km.cfg.TopTerms)
		res.Topics[c] = Topic{
			ID:       c,
			Label:    fmt.Sprintf("Topic %d: %s", c, strings.Join(top, ", ")),
			Terms:    top,
			Centroid: centroid,
		}
	}
	for _, a := range best.assign {
		res.Topics[a].Size++
	}
	return res, nil
}

type run struct {
	centers    *mat.Dense
	assign     []int
	inertia    float64
	iterations int
}

func (km *KMeans) lloyd(data *mat.Dense, k int, rng *rand.Rand) *run {
	n, _ := data.Dims()
	centers := seedPlusPlus(data, k, rng)
	assign := make([]int, n)
	iter := 0
	for iter < km.cfg.MaxIter {
		iter++
		assignPoints(data, centers, assign)
		next := updateCenters(data, centers, assign, k)

		var shift float64
		for c := 0; c < k; c++ {
			dist := floats.Distance(centers.RawRowView(c), next.RawRowView(c), 2)
			shift += dist * dist
		}
		centers = next
		if shift <= km.cfg.Tolerance {
			break
		}
	}
	inertia := assignPoints(data, centers, assign)
	return &run{centers: centers, assign: assign, inertia: inertia, iterations: iter}
}

// seedPlusPlus picks k initial centers with k-means++ sampling.
func seedPlusPlus(data *mat.Dense, k int, rng *rand.Rand) *mat.Dense {
	n, d := data.Dims()
	centers := mat.NewDense(k, d, nil)
	centers.SetRow(0, data.RawRowView(rng.Intn(n)))

	minDist := make([]float64, n)
	for j := 0; j < n; j++ {
		minDist[j] = sqDist(data.RawRowView(j), centers.RawRowView(0))
	}
	for c := 1; c < k; c++ {
		total := floats.Sum(minDist)
		pick := -1
		if total > 0 {
			target := rng.Float64() * total
			var cum float64
			for j, dist := range minDist {
				if dist == 0 {
					continue
				}
				cum += dist
				pick = j
				if cum >= target {
					break
				}
			}
		}
		if pick < 0 {
			pick = rng.Intn(n)
		}
		centers.SetRow(c, data.RawRowView(pick))
		for j := 0; j < n; j++ {
			if dist := sqDist(data.RawRowView(j), centers.RawRowView(c)); dist < minDist[j] {
				minDist[j] = dist
			}
		}
	}
	return centers
}

// assignPoints writes the nearest center of every row into assign and returns the inertia.
func assignPoints(data, centers *mat.Dense, assign []int) float64 {
	n, _ := data.Dims()
	k, _ := centers.Dims()
	var inertia float64
	for i := 0; i < n; i++ {
		point := data.RawRowView(i)
		bestC, bestD := 0, math.Inf(1)
		for c := 0; c < k; c++ {
			if dist := sqDist(point, centers.RawRowView(c)); dist < bestD {
				bestC, bestD = c, dist
			}
		}
		assign[i] = bestC
		inertia += bestD
	}
	return inertia
}

// updateCenters averages the members of each cluster. A cluster left empty
// takes the point farthest from its current center.
func updateCenters(data, centers *mat.Dense, assign []int, k int) *mat.Dense {
	n, d := data.Dims()
	next := mat.NewDense(k, d, nil)
	counts := make([]int, k)
	for i := 0; i < n; i++ {
		c := assign[i]
		floats.Add(next.RawRowView(c), data.RawRowView(i))
		counts[c]++
	}

	used := make(map[int]bool)
	for c := 0; c < k; c++ {
		if counts[c] > 0 {
			floats.Scale(1/float64(counts[c]), next.RawRowView(c))
			continue
		}
		far, farD := -1, -1.0
		for i := 0; i < n; i++ {
			if used[i] {
				continue
			}
			if dist := sqDist(data.RawRowView(i), centers.RawRowView(assign[i])); dist > farD {
				far, farD = i, dist
			}
		}
		if far >= 0 {
			used[far] = true
			next.SetRow(c, data.RawRowView(far))
		}
	}
	return next
}

func topTerms(centroid []float64, terms []string, n int) []string {
	idx := make([]int, len(centroid))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return centroid[idx[a]] > centroid[idx[b]]
	})
	if n > len(idx) {
		n = len(idx)
	}
	out := make([]string, n)
	for i := 0; i < n; i++ {
		out[i] = terms[idx[i]]
	}
	return out
}

func sqDist(a, b []float64) float64 {
	dist := floats.Distance(a, b, 2)
	return dist * dist
}
