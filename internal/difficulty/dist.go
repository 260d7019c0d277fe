package difficulty

import "fmt"

// Dist is a probability vector over the three tiers.
type Dist struct {
	Easy   float64 `json:"easy"`
	Medium float64 `json:"medium"`
	Hard   float64 `json:"hard"`
}

// Uniform returns the equal-weight distribution.
func Uniform() Dist {
	return Dist{Easy: 1.0 / 3, Medium: 1.0 / 3, Hard: 1.0 / 3}
}

// Get returns the probability mass for l, or 0 for an invalid level.
func (d Dist) Get(l Level) float64 {
	switch l {
	case Easy:
		return d.Easy
	case Medium:
		return d.Medium
	case Hard:
		return d.Hard
	}
	return 0
}

// Set assigns the mass for l. Invalid levels are ignored.
func (d *Dist) Set(l Level, v float64) {
	switch l {
	case Easy:
		d.Easy = v
	case Medium:
		d.Medium = v
	case Hard:
		d.Hard = v
	}
}

// Scale multiplies the mass for l by f.
func (d *Dist) Scale(l Level, f float64) {
	d.Set(l, d.Get(l)*f)
}

// Sum returns the total mass.
func (d Dist) Sum() float64 {
	return d.Easy + d.Medium + d.Hard
}

// Normalize rescales the vector to sum to 1. A vector with no positive mass
// becomes uniform.
func (d Dist) Normalize() Dist {
	total := d.Sum()
	if !(total > 0) {
		return Uniform()
	}
	return Dist{Easy: d.Easy / total, Medium: d.Medium / total, Hard: d.Hard / total}
}

// Blend returns (1-w)*d + w*other.
func (d Dist) Blend(other Dist, w float64) Dist {
	return Dist{
		Easy:   d.Easy*(1-w) + other.Easy*w,
		Medium: d.Medium*(1-w) + other.Medium*w,
		Hard:   d.Hard*(1-w) + other.Hard*w,
	}
}

// Band is an inclusive [Min, Max] range for a single tier's mass.
type Band struct {
	Min, Max float64
}

// Clamp bounds each tier's mass to its band.
func (d Dist) Clamp(bands PerLevel[Band]) Dist {
	c := func(v float64, b Band) float64 {
		if v < b.Min {
			return b.Min
		}
		if v > b.Max {
			return b.Max
		}
		return v
	}
	return Dist{
		Easy:   c(d.Easy, bands.Easy),
		Medium: c(d.Medium, bands.Medium),
		Hard:   c(d.Hard, bands.Hard),
	}
}

// Sample walks the cumulative mass in Easy, Medium, Hard order and returns the
// first tier whose cumulative probability reaches u. If rounding leaves u above
// the total, Easy is returned.
func (d Dist) Sample(u float64) Level {
	c := 0.0
	for _, l := range Levels {
		c += d.Get(l)
		if u <= c {
			return l
		}
	}
	return Easy
}

// Empirical returns the share of each tier in levels. Empty input yields the
// zero vector.
func Empirical(levels []Level) Dist {
	var d Dist
	if len(levels) == 0 {
		return d
	}
	for _, l := range levels {
		d.Set(l, d.Get(l)+1)
	}
	n := float64(len(levels))
	return Dist{Easy: d.Easy / n, Medium: d.Medium / n, Hard: d.Hard / n}
}

func (d Dist) String() string {
	return fmt.Sprintf("Easy %.1f%% / Medium %.1f%% / Hard %.1f%%", d.Easy*100, d.Medium*100, d.Hard*100)
}
