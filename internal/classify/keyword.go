package classify

import (
	"context"
	"strings"

	"github.com/accelml/livingreview/internal/paper"
)

// categoryTerms are the per-category trigger terms for the keyword
// classifier. Scores grow with the number of distinct terms hit, so a
// single incidental mention routes to review instead of being applied.
var categoryTerms = map[string][]string{
	"Statistics & Trends":                         {"bibliometric", "publication trends", "literature statistics", "citation analysis"},
	"Optimization & Control":                      {"bayesian optimization", "optimization algorithm", "feedback control", "tuning", "model predictive control"},
	"Anomaly Detection & Fault Prediction":        {"anomaly detection", "fault prediction", "predictive maintenance", "fault detection", "failure prediction"},
	"Reinforcement Learning & Autonomous Systems": {"reinforcement learning", "autonomous agent", "self-driving accelerator", "policy gradient", "agentic"},
	"Beamline Design & Simulation":                {"beamline design", "lattice design", "accelerator design", "start-to-end simulation", "tracking simulation"},
	"Beam Dynamics":                               {"beam dynamics", "emittance", "instabilit", "collective effects", "space charge", "beam optics"},
	"Operations & Control":                        {"accelerator operation", "control room", "automation", "orbit correction", "stability feedback"},
	"RF Systems":                                  {"rf cavity", "superconducting rf", "srf", "klystron", "cryomodule", "quench"},
	"Beam Diagnostics":                            {"beam diagnostic", "beam position monitor", "bpm", "beam instrumentation", "beam loss monitor"},
	"Surrogate Models":                            {"surrogate", "digital twin", "emulator", "reduced order model"},
	"Novel Applications":                          {"cross-disciplinary", "novel application", "medical accelerator", "isotope production"},
	"Data Management":                             {"data pipeline", "data management", "fair data", "feature store", "data infrastructure"},
	"By Facility Type":                            {"lhc", "fcc", "xfel", "spiral2", "light source", "european spallation"},
	"Tools & Libraries":                           {"open-source", "toolkit", "software framework", "python package"},
}

// Per-hit scoring for the keyword classifier. One hit lands mid-confidence
// (review); two or more distinct hits clear the default apply threshold.
const (
	baseScore    = 0.30
	perHitScore  = 0.15
	maxTermScore = 0.90
)

// KeywordClassifier scores papers by taxonomy trigger terms. It is pure
// and needs no model or network, so it is the fallback when no embedding
// provider is configured.
type KeywordClassifier struct{}

// NewKeywordClassifier creates the keyword classifier.
func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{}
}

// Classify scores the paper against every category's trigger terms.
func (k *KeywordClassifier) Classify(_ context.Context, p *paper.Paper) (Assignment, error) {
	lowtxt := paperText(p)

	var cats []paper.CategoryScore
	for _, c := range Taxonomy {
		terms := categoryTerms[c.Label]
		if len(terms) == 0 {
			continue
		}
		hits := 0
		for _, term := range terms {
			if strings.Contains(lowtxt, term) {
				hits++
			}
		}
		if hits == 0 {
			continue
		}
		score := baseScore + perHitScore*float64(hits)
		if score > maxTermScore {
			score = maxTermScore
		}
		cats = append(cats, paper.CategoryScore{Label: c.Label, Score: score})
	}

	return finalize(cats, lowtxt), nil
}
