package clustering

import (
	"context"
	"fmt"
	"log"
	"math"
	"math/rand"
	"sort"

	"paperbot/types"
)

// Method selects the clustering algorithm
type Method string

const (
	// MethodPartition uses centroid-based k-means partitioning
	MethodPartition Method = "partition"
	// MethodHierarchical uses bottom-up agglomerative merging (average linkage)
	MethodHierarchical Method = "hierarchical"
)

const (
	maxKMeansIterations = 100
	kmeansSeed          = 42
)

// PaperCluster is the ephemeral result of grouping papers by topic.
// It is owned by the caller for the duration of one analysis pass.
type PaperCluster struct {
	ID          int            `json:"id"`
	Papers      []*types.Paper `json:"papers"`
	Keywords    []string       `json:"keywords"`
	Centroid    []float32      `json:"-"`
	Size        int            `json:"size"`
	AvgNovelty  float64        `json:"avg_novelty"`
	AvgHotScore float64        `json:"avg_hot_score"`
}

// Snapshot converts the cluster to its persistable summary form
func (c *PaperCluster) Snapshot() types.ClusterSnapshot {
	return types.ClusterSnapshot{
		Keywords:    append([]string(nil), c.Keywords...),
		Size:        c.Size,
		AvgNovelty:  c.AvgNovelty,
		AvgHotScore: c.AvgHotScore,
	}
}

// Similarity pairs a paper with its cosine similarity to a target
type Similarity struct {
	Paper *types.Paper `json:"paper"`
	Score float64      `json:"score"`
}

// Clusterer groups papers into semantic clusters using text embeddings.
// The embedder is injected so tests can substitute a fast stub.
type Clusterer struct {
	embedder Embedder
}

// NewClusterer creates a clusterer backed by the given embedder
func NewClusterer(embedder Embedder) (*Clusterer, error) {
	if embedder == nil {
		return nil, fmt.Errorf("embedder cannot be nil")
	}
	return &Clusterer{embedder: embedder}, nil
}

// Cluster groups papers by embedding similarity into at most targetK clusters.
// targetK is clamped to [1, len(papers)]; empty groups are dropped, so the
// returned count may be lower than requested. Every input paper appears in
// exactly one returned cluster.
func (c *Clusterer) Cluster(ctx context.Context, papers []*types.Paper, targetK int, method Method) ([]*PaperCluster, error) {
	if len(papers) == 0 {
		return nil, nil
	}

	if targetK > len(papers) {
		targetK = len(papers)
	}
	if targetK < 1 {
		targetK = 1
	}

	texts := make([]string, len(papers))
	for i, p := range papers {
		texts[i] = p.Text()
	}

	embeddings, err := c.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to embed papers: %w", err)
	}
	if len(embeddings) != len(papers) {
		return nil, fmt.Errorf("embedding count mismatch: got %d for %d papers", len(embeddings), len(papers))
	}

	var labels []int
	switch method {
	case MethodHierarchical:
		labels = agglomerative(embeddings, targetK)
	default:
		labels = kmeans(embeddings, targetK)
	}

	clusters := buildClusters(papers, embeddings, texts, labels, targetK)
	log.Printf("Created %d clusters from %d papers", len(clusters), len(papers))
	return clusters, nil
}

// FindSimilar returns the topK papers from pool most similar to target,
// excluding the target itself. Results are sorted non-increasing by score.
func (c *Clusterer) FindSimilar(ctx context.Context, target *types.Paper, pool []*types.Paper, topK int) ([]Similarity, error) {
	if target == nil || len(pool) == 0 || topK <= 0 {
		return nil, nil
	}

	targetVecs, err := c.embedder.Embed(ctx, []string{target.Text()})
	if err != nil {
		return nil, fmt.Errorf("failed to embed target paper: %w", err)
	}
	if len(targetVecs) != 1 {
		return nil, fmt.Errorf("expected one target embedding, got %d", len(targetVecs))
	}

	texts := make([]string, len(pool))
	for i, p := range pool {
		texts[i] = p.Text()
	}
	poolVecs, err := c.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to embed pool papers: %w", err)
	}

	similarities := make([]Similarity, 0, len(pool))
	for i, p := range pool {
		if p.ID == target.ID {
			continue
		}
		similarities = append(similarities, Similarity{
			Paper: p,
			Score: cosineSimilarity(targetVecs[0], poolVecs[i]),
		})
	}

	sort.SliceStable(similarities, func(i, j int) bool {
		return similarities[i].Score > similarities[j].Score
	})

	if len(similarities) > topK {
		similarities = similarities[:topK]
	}
	return similarities, nil
}

// buildClusters assembles PaperCluster values from assignment labels, dropping
// empty groups and renumbering ids sequentially.
func buildClusters(papers []*types.Paper, embeddings [][]float32, texts []string, labels []int, k int) []*PaperCluster {
	clusters := make([]*PaperCluster, 0, k)

	for label := 0; label < k; label++ {
		var members []*types.Paper
		var memberVecs [][]float32
		var memberTexts []string

		for i, l := range labels {
			if l != label {
				continue
			}
			members = append(members, papers[i])
			memberVecs = append(memberVecs, embeddings[i])
			memberTexts = append(memberTexts, texts[i])
		}

		if len(members) == 0 {
			continue
		}

		var noveltySum, hotSum float64
		for _, p := range members {
			noveltySum += p.NoveltyScore
			hotSum += p.HotScore
		}

		clusters = append(clusters, &PaperCluster{
			ID:          len(clusters),
			Papers:      members,
			Keywords:    ExtractKeywords(memberTexts),
			Centroid:    meanVector(memberVecs),
			Size:        len(members),
			AvgNovelty:  noveltySum / float64(len(members)),
			AvgHotScore: hotSum / float64(len(members)),
		})
	}

	return clusters
}

// kmeans partitions vectors into k groups with a fixed seed so repeated
// analysis passes over the same pool produce the same assignment.
func kmeans(vectors [][]float32, k int) []int {
	n := len(vectors)
	labels := make([]int, n)
	if k <= 1 {
		return labels
	}

	rnd := rand.New(rand.NewSource(kmeansSeed))

	// k-means++ style seeding: first centroid random, the rest weighted by
	// squared distance to the nearest chosen centroid
	centroids := make([][]float32, 0, k)
	centroids = append(centroids, vectors[rnd.Intn(n)])
	for len(centroids) < k {
		dists := make([]float64, n)
		var total float64
		for i, v := range vectors {
			best := math.Inf(1)
			for _, c := range centroids {
				if d := squaredDistance(v, c); d < best {
					best = d
				}
			}
			dists[i] = best
			total += best
		}

		if total == 0 {
			// All remaining points coincide with existing centroids
			centroids = append(centroids, vectors[rnd.Intn(n)])
			continue
		}

		target := rnd.Float64() * total
		var cum float64
		pick := n - 1
		for i, d := range dists {
			cum += d
			if cum >= target {
				pick = i
				break
			}
		}
		centroids = append(centroids, vectors[pick])
	}

	for iter := 0; iter < maxKMeansIterations; iter++ {
		changed := false
		for i, v := range vectors {
			best := 0
			bestDist := math.Inf(1)
			for j, c := range centroids {
				if d := squaredDistance(v, c); d < bestDist {
					bestDist = d
					best = j
				}
			}
			if labels[i] != best {
				labels[i] = best
				changed = true
			}
		}

		if !changed && iter > 0 {
			break
		}

		for j := 0; j < k; j++ {
			var members [][]float32
			for i, l := range labels {
				if l == j {
					members = append(members, vectors[i])
				}
			}
			if len(members) > 0 {
				centroids[j] = meanVector(members)
			}
		}
	}

	return labels
}

// agglomerative merges the closest pair of clusters (average linkage over
// centroids) until exactly k remain.
func agglomerative(vectors [][]float32, k int) []int {
	n := len(vectors)
	labels := make([]int, n)

	type group struct {
		members []int
		sum     []float64
	}

	groups := make([]*group, n)
	for i, v := range vectors {
		sum := make([]float64, len(v))
		for j, x := range v {
			sum[j] = float64(x)
		}
		groups[i] = &group{members: []int{i}, sum: sum}
	}

	centroid := func(g *group) []float32 {
		out := make([]float32, len(g.sum))
		for i, s := range g.sum {
			out[i] = float32(s / float64(len(g.members)))
		}
		return out
	}

	for len(groups) > k {
		bestI, bestJ := 0, 1
		bestDist := math.Inf(1)
		for i := 0; i < len(groups); i++ {
			ci := centroid(groups[i])
			for j := i + 1; j < len(groups); j++ {
				if d := squaredDistance(ci, centroid(groups[j])); d < bestDist {
					bestDist = d
					bestI, bestJ = i, j
				}
			}
		}

		merged := groups[bestI]
		other := groups[bestJ]
		merged.members = append(merged.members, other.members...)
		for i := range merged.sum {
			merged.sum[i] += other.sum[i]
		}
		groups = append(groups[:bestJ], groups[bestJ+1:]...)
	}

	for label, g := range groups {
		for _, idx := range g.members {
			labels[idx] = label
		}
	}
	return labels
}

// cosineSimilarity returns 0 when either vector has zero norm
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func squaredDistance(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum
}

func meanVector(vectors [][]float32) []float32 {
	if len(vectors) == 0 {
		return nil
	}
	out := make([]float32, len(vectors[0]))
	for _, v := range vectors {
		for i, x := range v {
			out[i] += x
		}
	}
	for i := range out {
		out[i] /= float32(len(vectors))
	}
	return out
}
