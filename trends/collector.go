package trends

import (
	"context"
	"log"
	"sync"
	"time"

	readability "github.com/go-shiori/go-readability"

	"paperbot/types"
)

const (
	workerCount      = 5
	perSourceLimit   = 25
	extractorTimeout = 30 * time.Second
)

// Collector gathers social mentions for papers across all configured sources
// and turns them into hot scores
type Collector struct {
	sources  []Source
	deepScan bool
}

// NewCollector creates a collector over the given sources. With deepScan
// enabled, linked discussion pages are fetched and scanned for arXiv ids when
// the post text alone names no paper.
func NewCollector(sources []Source, deepScan bool) *Collector {
	return &Collector{sources: sources, deepScan: deepScan}
}

// CollectForPaper queries every source for the paper and returns mentions
// grouped by platform. A failing source is logged and skipped; the remaining
// sources still contribute.
func (c *Collector) CollectForPaper(ctx context.Context, paper *types.Paper) map[string][]types.Mention {
	grouped := make(map[string][]types.Mention)

	for _, source := range c.sources {
		mentions, err := source.Search(ctx, paper.ID, perSourceLimit)
		if err != nil {
			log.Printf("Mention search on %s failed for %s: %v", source.Name(), paper.ID, err)
			continue
		}

		// Fall back to the title when nobody cites the paper by id
		if len(mentions) == 0 && paper.Title != "" {
			mentions, err = source.Search(ctx, "\""+paper.Title+"\"", perSourceLimit)
			if err != nil {
				log.Printf("Title search on %s failed for %s: %v", source.Name(), paper.ID, err)
				continue
			}
		}

		if c.deepScan {
			c.scanLinkedPages(mentions)
		}

		grouped[source.Name()] = append(grouped[source.Name()], mentions...)
	}
	return grouped
}

// scanLinkedPages extracts readable text from each mention's linked page and
// fills in paper ids the post text did not carry
func (c *Collector) scanLinkedPages(mentions []types.Mention) {
	for i := range mentions {
		m := &mentions[i]
		if len(m.PaperMentions) > 0 || m.URL == "" {
			continue
		}
		page, err := readability.FromURL(m.URL, extractorTimeout)
		if err != nil {
			log.Printf("Failed to extract %s: %v", m.URL, err)
			continue
		}
		m.PaperMentions = extractPaperIDs(page.TextContent)
	}
}

// UpdateHotScores collects mentions and refreshes the hot score for every
// paper using a worker pool. Papers whose collection fails keep their current
// score.
func (c *Collector) UpdateHotScores(ctx context.Context, papers []*types.Paper) {
	var wg sync.WaitGroup
	paperChan := make(chan *types.Paper, len(papers))

	for i := 0; i < workerCount; i++ {
		go func() {
			for paper := range paperChan {
				grouped := c.CollectForPaper(ctx, paper)
				paper.HotScore = HotScore(grouped)
				log.Printf("✓ Hot score %.1f for %s", paper.HotScore, paper.ID)
				wg.Done()
			}
		}()
	}

	for _, paper := range papers {
		wg.Add(1)
		paperChan <- paper
	}

	wg.Wait()
	close(paperChan)
}
