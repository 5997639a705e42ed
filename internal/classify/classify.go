package classify

import (
	"context"
	"sort"
	"strings"

	"github.com/accelml/livingreview/internal/paper"
)

// maxCategories caps how many similarity-scored categories a paper keeps.
// Keyword overrides come on top.
const maxCategories = 2

// Assignment is one classifier verdict for a paper.
type Assignment struct {
	Categories []paper.CategoryScore `json:"categories"`
	Confidence float64               `json:"confidence"` // top category score
}

// Classifier assigns taxonomy categories to a paper.
type Classifier interface {
	Classify(ctx context.Context, p *paper.Paper) (Assignment, error)
}

// Thresholds control how an assignment is routed.
type Thresholds struct {
	High float64 `yaml:"high" json:"high"` // apply directly at or above
	Low  float64 `yaml:"low" json:"low"`   // below this, uncategorized
}

// DefaultThresholds routes mid-confidence assignments to human review.
var DefaultThresholds = Thresholds{High: 0.60, Low: 0.25}

// Route says what happens to a classified paper.
type Route int

const (
	// RouteApply applies the categories directly.
	RouteApply Route = iota
	// RouteReview sends the paper to the curation ledger with the
	// categories as a proposal.
	RouteReview
	// RouteUncategorized keeps the paper with the uncategorized flag set.
	RouteUncategorized
)

func (r Route) String() string {
	switch r {
	case RouteApply:
		return "apply"
	case RouteReview:
		return "review"
	case RouteUncategorized:
		return "uncategorized"
	}
	return "unknown"
}

// Routing decides the route for an assignment under the given thresholds.
func Routing(a Assignment, t Thresholds) Route {
	switch {
	case a.Confidence >= t.High:
		return RouteApply
	case a.Confidence >= t.Low:
		return RouteReview
	default:
		return RouteUncategorized
	}
}

// ApplyAssignment writes an assignment onto the paper. A changed category
// set pushes the previous one into the audit trail.
func ApplyAssignment(p *paper.Paper, a Assignment) {
	if sameCategories(p.Categories, a.Categories) {
		return
	}
	if len(p.Categories) > 0 {
		p.PreviousCategories = append(p.PreviousCategories, p.Categories)
	}
	p.Categories = a.Categories
	p.Uncategorized = false
}

func sameCategories(a, b []paper.CategoryScore) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Label != b[i].Label {
			return false
		}
	}
	return true
}

// paperText is the lowercased text the classifiers score: title plus
// abstract.
func paperText(p *paper.Paper) string {
	return strings.ToLower(p.Title + ". " + p.Abstract)
}

func containsAny(text string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(text, t) {
			return true
		}
	}
	return false
}

// finalize applies the shared tail of both classifiers: top-k cut, keyword
// overrides, dedup by best score, and the Others fallback.
func finalize(cats []paper.CategoryScore, lowtxt string) Assignment {
	sort.SliceStable(cats, func(i, j int) bool { return cats[i].Score > cats[j].Score })
	if len(cats) > maxCategories {
		cats = cats[:maxCategories]
	}

	if containsAny(lowtxt, reviewTerms) {
		cats = append(cats, paper.CategoryScore{Label: "Reviews", Score: 1.0})
	}
	if strings.Contains(lowtxt, "surrogate model") {
		cats = append(cats, paper.CategoryScore{Label: "Surrogate Models", Score: 1.0})
	}
	if containsAny(lowtxt, toolTerms) {
		cats = append(cats, paper.CategoryScore{Label: "Tools & Libraries", Score: 1.0})
	}

	best := make(map[string]float64)
	var order []string
	for _, c := range cats {
		if s, ok := best[c.Label]; !ok {
			best[c.Label] = c.Score
			order = append(order, c.Label)
		} else if c.Score > s {
			best[c.Label] = c.Score
		}
	}

	out := make([]paper.CategoryScore, 0, len(order))
	conf := 0.0
	for _, label := range order {
		out = append(out, paper.CategoryScore{Label: label, Score: best[label]})
		if best[label] > conf {
			conf = best[label]
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })

	if len(out) == 0 {
		return Assignment{
			Categories: []paper.CategoryScore{{Label: OthersLabel, Score: 0.0}},
			Confidence: 0.0,
		}
	}
	return Assignment{Categories: out, Confidence: conf}
}
