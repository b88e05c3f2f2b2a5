package report

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/hupe1980/dinofilter/internal/logging"
	"github.com/hupe1980/dinofilter/internal/output"
	"github.com/hupe1980/dinofilter/internal/query"
	"github.com/hupe1980/dinofilter/internal/selector"
	"github.com/hupe1980/dinofilter/internal/species"
)

// Threshold search of the name matcher.
const (
	StartThreshold = 0.90
	ThresholdDrop  = 0.05
	MinThreshold   = 0.49
)

const (
	// cleanWeight is the share of the score computed against the wanted name
	// with bracketed variant markers removed.
	cleanWeight = 0.3

	variantBonus   = 0.064
	variantPenalty = 0.025
)

// variantDifficulty maps variant tags to the difficulty word lists use.
var variantDifficulty = map[string]string{
	"Alpha": "Hard",
	"Beta":  "Medium",
	"Gamma": "Easy",
}

var bracketVariant = regexp.MustCompile(`\((Beta|Medium|Easy|Gamma|Alpha|Hard)\)`)

// Candidate is a creature proposed for a wanted name.
type Candidate struct {
	Name    string  `json:"name"`
	ClassID string  `json:"classId"`
	Score   float64 `json:"score"`
}

// Percent formats the score the way match listings show it.
func (c Candidate) Percent() string {
	return fmt.Sprintf("%.0f%%", math.Round(c.Score*100))
}

// MatchReport maps each wanted name to its candidates.
type MatchReport struct {
	Report[[]Candidate]
}

// Similarity scores how well a creature called name, carrying variants,
// matches wanted. The score is the character ratio of both names, blended
// with the ratio against wanted stripped of "(Alpha)"-style markers when
// wanted has brackets, then raised for every variant wanted mentions and
// lowered for every variant it does not. It is capped at 1.
func Similarity(name string, variants []string, wanted string) float64 {
	ratio := charRatio(name, wanted)

	if strings.Contains(wanted, "(") && strings.Contains(wanted, ")") {
		cleaned := bracketVariant.ReplaceAllString(wanted, "")
		ratio = ratio*(1-cleanWeight) + charRatio(name, cleaned)*cleanWeight
	}

	penalty := 0.0

	for _, v := range variants {
		alias, ok := variantDifficulty[v]
		if !ok {
			alias = v
		}

		if strings.Contains(wanted, v) || strings.Contains(wanted, alias) {
			penalty -= variantBonus
		} else {
			penalty += variantPenalty
		}
	}

	return math.Min(1, ratio-penalty)
}

func charRatio(a, b string) float64 {
	return difflib.NewMatcher(strings.Split(a, ""), strings.Split(b, "")).Ratio()
}

// Match proposes creatures for every wanted name. The threshold starts at
// [StartThreshold] and drops by [ThresholdDrop] until some creature scores
// above it or it falls below [MinThreshold]; names without candidates map to
// an empty list.
func Match(ctx context.Context, eng *selector.Engine, ds *species.Dataset, wanted []string) (*MatchReport, error) {
	log := logging.FromContext(ctx)

	ents, err := sorted(eng, ds.Species)
	if err != nil {
		return nil, err
	}

	names := make(map[*species.Entity]string, len(ents))

	for _, ent := range ents {
		name, err := eng.DescriptiveName(ent)
		if err != nil {
			return nil, err
		}

		names[ent] = name
	}

	out := &MatchReport{
		Report: Report[[]Candidate]{Version: ds.Version, Entries: NewKeyed[[]Candidate]()},
	}

	for _, w := range wanted {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		scores := make(map[*species.Entity]float64, len(ents))
		for _, ent := range ents {
			scores[ent] = Similarity(names[ent], ent.Variants(), w)
		}

		score := query.Where(func(e *species.Entity) interface{} { return scores[e] })
		candidates := []Candidate{}

		for step := 0; len(candidates) == 0; step++ {
			threshold := StartThreshold - float64(step)*ThresholdDrop
			if threshold < MinThreshold {
				break
			}

			for ent := range query.Query(ents, score.GreaterThan(threshold)) {
				id, _ := eng.Resolver().Cached(ent)
				candidates = append(candidates, Candidate{Name: names[ent], ClassID: id, Score: scores[ent]})
			}
		}

		log.Debug("name matched", "wanted", w, "candidates", len(candidates))
		out.Entries.Set(w, candidates)
	}

	return out, nil
}

// Tables renders one row per candidate.
func (r *MatchReport) Tables() []output.Table {
	var rows [][]string

	for wanted, cs := range r.Entries.All() {
		if len(cs) == 0 {
			rows = append(rows, []string{wanted, "-", "-", "-"})
			continue
		}

		for _, c := range cs {
			rows = append(rows, []string{wanted, c.Name, c.ClassID, c.Percent()})
		}
	}

	return []output.Table{
		{Title: "Name matches", Columns: []string{"Wanted", "Creature", "Class", "Score"}, Rows: rows},
	}
}
