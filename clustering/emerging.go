package clustering

import (
	"sort"

	"paperbot/config"
	"paperbot/types"
)

// EmergingTopicType classifies an emerging topic
type EmergingTopicType string

const (
	// TopicNew marks a cluster with no matching historical cluster
	TopicNew EmergingTopicType = "new"
	// TopicGrowing marks a cluster whose matched topic grew past the threshold
	TopicGrowing EmergingTopicType = "growing"
)

// EmergingTopic describes one new or growing topic detected against a
// historical baseline
type EmergingTopic struct {
	Type        EmergingTopicType `json:"type"`
	Keywords    []string          `json:"keywords"`
	Size        int               `json:"size"`
	GrowthRate  float64           `json:"growth_rate,omitempty"`
	AvgNovelty  float64           `json:"avg_novelty"`
	AvgHotScore float64           `json:"avg_hot_score"`
}

// sortKey is growth rate for growing topics and size for new ones; the
// combined result list is ordered descending by this key
func (t EmergingTopic) sortKey() float64 {
	if t.Type == TopicGrowing {
		return t.GrowthRate
	}
	return float64(t.Size)
}

// DetectEmergingTopics compares current clusters against historical snapshots
// by Jaccard similarity of keyword sets. A cluster with no historical match
// above the match threshold is reported as new; a matched cluster whose size
// grew by more than growthThreshold relative to its largest match is reported
// as growing. Pass growthThreshold <= 0 to use the default.
func DetectEmergingTopics(current []*PaperCluster, historical []types.ClusterSnapshot, growthThreshold float64) []EmergingTopic {
	if growthThreshold <= 0 {
		growthThreshold = config.EmergingGrowthThreshold
	}

	var emerging []EmergingTopic

	for _, cluster := range current {
		maxMatchedSize := 0
		matched := false

		for _, snapshot := range historical {
			if jaccard(cluster.Keywords, snapshot.Keywords) <= config.EmergingMatchThreshold {
				continue
			}
			matched = true
			if snapshot.Size > maxMatchedSize {
				maxMatchedSize = snapshot.Size
			}
		}

		if !matched {
			emerging = append(emerging, EmergingTopic{
				Type:        TopicNew,
				Keywords:    cluster.Keywords,
				Size:        cluster.Size,
				AvgNovelty:  cluster.AvgNovelty,
				AvgHotScore: cluster.AvgHotScore,
			})
			continue
		}

		growthRate := 1.0
		if maxMatchedSize > 0 {
			growthRate = float64(cluster.Size-maxMatchedSize) / float64(maxMatchedSize)
		}

		if growthRate > growthThreshold {
			emerging = append(emerging, EmergingTopic{
				Type:        TopicGrowing,
				Keywords:    cluster.Keywords,
				Size:        cluster.Size,
				GrowthRate:  growthRate,
				AvgNovelty:  cluster.AvgNovelty,
				AvgHotScore: cluster.AvgHotScore,
			})
		}
	}

	sort.SliceStable(emerging, func(i, j int) bool {
		return emerging[i].sortKey() > emerging[j].sortKey()
	})
	return emerging
}

// jaccard computes keyword-set similarity; two empty sets are not similar
func jaccard(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}

	setA := make(map[string]struct{}, len(a))
	for _, k := range a {
		setA[k] = struct{}{}
	}

	intersection := 0
	setB := make(map[string]struct{}, len(b))
	for _, k := range b {
		if _, dup := setB[k]; dup {
			continue
		}
		setB[k] = struct{}{}
		if _, ok := setA[k]; ok {
			intersection++
		}
	}

	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// TrendReport summarizes one clustering pass
type TrendReport struct {
	TotalClusters         int              `json:"total_clusters"`
	TotalPapers           int              `json:"total_papers"`
	LargestClusterID      int              `json:"largest_cluster,omitempty"`
	HighestNoveltyCluster int              `json:"highest_novelty_cluster,omitempty"`
	HottestClusterID      int              `json:"hottest_cluster,omitempty"`
	Clusters              []ClusterSummary `json:"cluster_summary"`
}

// ClusterSummary is the per-cluster line in a TrendReport
type ClusterSummary struct {
	ID          int      `json:"cluster_id"`
	Size        int      `json:"size"`
	Keywords    []string `json:"keywords"`
	AvgNovelty  float64  `json:"avg_novelty"`
	AvgHotScore float64  `json:"avg_hot_score"`
}

// Summarize builds a TrendReport for a set of clusters
func Summarize(clusters []*PaperCluster) *TrendReport {
	report := &TrendReport{
		TotalClusters: len(clusters),
		Clusters:      make([]ClusterSummary, 0, len(clusters)),
	}

	var largest, mostNovel, hottest *PaperCluster
	for _, c := range clusters {
		report.TotalPapers += c.Size
		if largest == nil || c.Size > largest.Size {
			largest = c
		}
		if mostNovel == nil || c.AvgNovelty > mostNovel.AvgNovelty {
			mostNovel = c
		}
		if hottest == nil || c.AvgHotScore > hottest.AvgHotScore {
			hottest = c
		}
		report.Clusters = append(report.Clusters, ClusterSummary{
			ID:          c.ID,
			Size:        c.Size,
			Keywords:    c.Keywords,
			AvgNovelty:  c.AvgNovelty,
			AvgHotScore: c.AvgHotScore,
		})
	}

	if largest != nil {
		report.LargestClusterID = largest.ID
		report.HighestNoveltyCluster = mostNovel.ID
		report.HottestClusterID = hottest.ID
	}
	return report
}
