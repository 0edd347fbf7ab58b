package bias

import (
	"math"
	"sort"
	"strings"
)

// Direction is the discretized reading of the aggregate score.
type Direction string

const (
	Bullish Direction = "BULLISH"
	Bearish Direction = "BEARISH"
	Neutral Direction = "NEUTRAL"
)

// Discretization thresholds.
const (
	bullishFloor = 60
	bearishCeil  = 40
)

// Component is one included category's contribution, kept for
// explainability.
type Component struct {
	Name     string
	Subscore float64 // 0-100
	Weight   float64 // renormalized, included weights sum to 1
	Raw      string  // human-readable raw value
}

// Result is the fused directional read.
type Result struct {
	Score      int // 0-100, 50 = neutral
	Direction  Direction
	Components []Component // included categories only, presentation order
}

// Compute fuses the available signals into a single Result. Pure and
// side-effect free. With zero included categories it returns the fixed
// neutral default rather than dividing by zero.
func Compute(in Inputs) Result {
	cats := in.categories()

	var totalWeight float64
	for _, c := range cats {
		if c.included {
			totalWeight += nominalWeights[c.name]
		}
	}

	if totalWeight == 0 {
		return Result{Score: 50, Direction: Neutral}
	}

	var sum float64
	components := make([]Component, 0, len(cats))
	for _, c := range cats {
		if !c.included {
			continue
		}
		w := nominalWeights[c.name] / totalWeight
		sum += c.subscore * w
		components = append(components, Component{
			Name:     c.name,
			Subscore: c.subscore,
			Weight:   w,
			Raw:      c.raw,
		})
	}

	score := int(math.Round(sum))
	if score < 0 {
		score = 0
	} else if score > 100 {
		score = 100
	}

	return Result{
		Score:      score,
		Direction:  discretize(float64(score)),
		Components: components,
	}
}

// Status is a discretized per-category reading used for change detection.
type Status string

const (
	StatusBullish Status = "bullish"
	StatusBearish Status = "bearish"
	StatusNeutral Status = "neutral"
	StatusNoData  Status = "no_data"
)

// Statuses returns the discretized status of every category, including the
// excluded ones (no_data).
func Statuses(in Inputs) map[string]Status {
	out := make(map[string]Status, 6)
	for _, c := range in.categories() {
		if !c.included {
			out[c.name] = StatusNoData
			continue
		}
		switch discretize(c.subscore) {
		case Bullish:
			out[c.name] = StatusBullish
		case Bearish:
			out[c.name] = StatusBearish
		default:
			out[c.name] = StatusNeutral
		}
	}
	return out
}

// Fingerprint is a stable serialization of the discretized statuses — raw
// values deliberately excluded, so insignificant wiggle does not defeat
// refresh gating.
func Fingerprint(in Inputs) string {
	statuses := Statuses(in)

	names := make([]string, 0, len(statuses))
	for name := range statuses {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for i, name := range names {
		if i > 0 {
			b.WriteByte('|')
		}
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(string(statuses[name]))
	}
	return b.String()
}

func discretize(score float64) Direction {
	switch {
	case score >= bullishFloor:
		return Bullish
	case score <= bearishCeil:
		return Bearish
	default:
		return Neutral
	}
}
