package bias

import "fmt"

// Category names, in presentation order.
const (
	CategoryFlow             = "options_flow"
	CategoryDarkPool         = "dark_pool"
	CategoryPriceVsRef       = "price_vs_reference"
	CategoryVolumePressure   = "volume_pressure"
	CategoryMomentum         = "momentum"
	CategoryRelativeStrength = "relative_strength"
)

// Nominal category weights. Renormalized over the included subset at
// compute time.
var nominalWeights = map[string]float64{
	CategoryFlow:             0.30,
	CategoryDarkPool:         0.20,
	CategoryPriceVsRef:       0.20,
	CategoryVolumePressure:   0.15,
	CategoryMomentum:         0.10,
	CategoryRelativeStrength: 0.05,
}

// deltaScale maps a percent distance onto score points for the delta-like
// categories (a +1% distance moves the subscore 60 points off center).
const deltaScale = 60.0

// sweepNudge is the bounded corroborating adjustment applied to the flow
// subscore when aggressive sweep activity is present.
const sweepNudge = 5.0

// FlowSignal summarizes options-flow activity. Only meaningful when at
// least one trade backs the ratio.
type FlowSignal struct {
	CallPremiumPercent float64 // share of premium on the call side, 0-100
	TradeCount         int
	SweepActivity      bool
}

// DarkPoolSignal summarizes off-exchange print activity.
type DarkPoolSignal struct {
	BuyPercent float64 // share of dark prints on the buy side, 0-100
	Prints     int
}

// PriceVsRefSignal is the percent distance of price from its reference
// level (typically VWAP).
type PriceVsRefSignal struct {
	DistancePercent float64
}

// VolumePressureSignal is the buy share of tape volume.
type VolumePressureSignal struct {
	BuyVolumePercent float64 // 0-100
	TotalVolume      int64
}

// MomentumSignal is the short-horizon percent price change.
type MomentumSignal struct {
	ChangePercent float64
}

// RelativeStrengthSignal is the percent performance gap vs the benchmark.
type RelativeStrengthSignal struct {
	VsBenchmarkPercent float64
}

// Inputs carries every signal category; nil means the source produced no
// observation.
type Inputs struct {
	Flow             *FlowSignal
	DarkPool         *DarkPoolSignal
	PriceVsRef       *PriceVsRefSignal
	VolumePressure   *VolumePressureSignal
	Momentum         *MomentumSignal
	RelativeStrength *RelativeStrengthSignal
}

// category is the uniform view Compute iterates over.
type category struct {
	name     string
	included bool
	subscore float64
	raw      string
}

// categories applies presence + confidence predicates and the per-category
// monotone transforms, in presentation order.
func (in Inputs) categories() []category {
	out := make([]category, 0, 6)

	c := category{name: CategoryFlow}
	if in.Flow != nil && in.Flow.TradeCount > 0 {
		c.included = true
		c.subscore = clamp(in.Flow.CallPremiumPercent)
		if in.Flow.SweepActivity {
			c.subscore = clamp(c.subscore + sweepNudge)
		}
		c.raw = fmt.Sprintf("%.0f%% call premium across %d trades", in.Flow.CallPremiumPercent, in.Flow.TradeCount)
	}
	out = append(out, c)

	c = category{name: CategoryDarkPool}
	if in.DarkPool != nil && in.DarkPool.Prints > 0 {
		c.included = true
		c.subscore = clamp(in.DarkPool.BuyPercent)
		c.raw = fmt.Sprintf("%.0f%% buy-side across %d prints", in.DarkPool.BuyPercent, in.DarkPool.Prints)
	}
	out = append(out, c)

	c = category{name: CategoryPriceVsRef}
	if in.PriceVsRef != nil {
		c.included = true
		c.subscore = centered(in.PriceVsRef.DistancePercent)
		c.raw = fmt.Sprintf("%+.2f%% vs reference", in.PriceVsRef.DistancePercent)
	}
	out = append(out, c)

	c = category{name: CategoryVolumePressure}
	if in.VolumePressure != nil && in.VolumePressure.TotalVolume > 0 {
		c.included = true
		c.subscore = clamp(in.VolumePressure.BuyVolumePercent)
		c.raw = fmt.Sprintf("%.0f%% buy volume", in.VolumePressure.BuyVolumePercent)
	}
	out = append(out, c)

	c = category{name: CategoryMomentum}
	if in.Momentum != nil {
		c.included = true
		c.subscore = centered(in.Momentum.ChangePercent)
		c.raw = fmt.Sprintf("%+.2f%% momentum", in.Momentum.ChangePercent)
	}
	out = append(out, c)

	c = category{name: CategoryRelativeStrength}
	if in.RelativeStrength != nil {
		c.included = true
		c.subscore = centered(in.RelativeStrength.VsBenchmarkPercent)
		c.raw = fmt.Sprintf("%+.2f%% vs benchmark", in.RelativeStrength.VsBenchmarkPercent)
	}
	out = append(out, c)

	return out
}

// centered linearly maps a percent delta onto 0-100 around a 50 midpoint.
func centered(deltaPercent float64) float64 {
	return clamp(50 + deltaPercent*deltaScale)
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
