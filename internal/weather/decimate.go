package weather

// Strategy reduces an ordered sequence of samples to at most maxItem samples.
type Strategy func(samples []Sample, maxItem int) []Sample

// StrategySimple is the name of the systematic subsampling strategy.
const StrategySimple = "simple"

// Systematic keeps one sample every ceil(len/maxItem), starting at index 0.
// It selects, never interpolates: the result may hold fewer than maxItem samples.
func Systematic(samples []Sample, maxItem int) []Sample {
	if maxItem <= 0 || len(samples) <= maxItem {
		return samples
	}

	stride := (len(samples) + maxItem - 1) / maxItem

	out := make([]Sample, 0, (len(samples)+stride-1)/stride)
	for i := 0; i < len(samples); i += stride {
		out = append(out, samples[i])
	}
	return out
}
