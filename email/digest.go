package email

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"paperbot/types"
)

// DigestItem is one paper entry in a rendered digest
type DigestItem struct {
	Title  string
	Score  float64
	Reason string
	URL    string
}

// digestData feeds the digest template
type digestData struct {
	Title   string
	Message string
	Papers  []DigestItem
	Date    string
}

var digestTemplate = template.Must(template.New("digest").Parse(`<html>
<body>
	<h2>{{.Title}}</h2>
	<p>{{.Message}}</p>
	<ul>
	{{range .Papers}}
		<li>
			<strong>{{.Title}}</strong><br/>
			<span>Score: {{printf "%.1f" .Score}}</span><br/>
			<span>{{.Reason}}</span><br/>
			<a href="{{.URL}}">Read more</a>
		</li>
	{{end}}
	</ul>
	<p><small>{{.Date}}</small></p>
</body>
</html>
`))

// RenderDigest produces the HTML body for one digest email
func RenderDigest(title, message string, items []DigestItem) ([]byte, error) {
	var buf bytes.Buffer
	err := digestTemplate.Execute(&buf, digestData{
		Title:   title,
		Message: message,
		Papers:  items,
		Date:    time.Now().UTC().Format("2006-01-02"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render digest: %w", err)
	}
	return buf.Bytes(), nil
}

// itemsFromRecommendations converts persisted recommendations to digest
// entries, resolving titles and links through the given paper lookup
func itemsFromRecommendations(recs []*types.Recommendation, lookup func(paperID string) *types.Paper) []DigestItem {
	items := make([]DigestItem, 0, len(recs))
	for _, rec := range recs {
		item := DigestItem{
			Score:  rec.OverallScore,
			Reason: rec.Reason,
		}
		if paper := lookup(rec.PaperID); paper != nil {
			item.Title = paper.Title
			item.URL = paper.EntryURL
		} else {
			item.Title = rec.PaperID
		}
		if item.URL == "" {
			item.URL = "https://arxiv.org/abs/" + rec.PaperID
		}
		items = append(items, item)
	}
	return items
}
