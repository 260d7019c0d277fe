package adaptive

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/abhisek/pal/internal/difficulty"
	"github.com/abhisek/pal/internal/profile"
)

// Chain walks predictors in priority order. A failing tier is logged and
// skipped; the terminal Baseline always answers.
type Chain struct {
	tiers    []Predictor
	terminal *Baseline
	log      *zap.Logger
	active   Predictor
}

// NewChain builds a chain over tiers, highest priority first. Nil entries are
// skipped at call time.
func NewChain(terminal *Baseline, log *zap.Logger, tiers ...Predictor) *Chain {
	if log == nil {
		log = zap.NewNop()
	}
	if terminal == nil {
		terminal = NewBaseline(nil)
	}
	return &Chain{tiers: tiers, terminal: terminal, log: log}
}

func (c *Chain) Name() string { return "chain" }

// Active returns the predictor that produced the latest decision.
func (c *Chain) Active() Predictor { return c.active }

// Tiers returns the configured tiers followed by the terminal sampler.
func (c *Chain) Tiers() []Predictor {
	return append(append([]Predictor(nil), c.tiers...), c.terminal)
}

// NextDifficulty returns the first successful tier's decision. It never
// returns an error.
func (c *Chain) NextDifficulty(st *profile.State) (difficulty.Level, error) {
	for _, p := range c.tiers {
		if p == nil {
			continue
		}
		level, err := guardNext(p, st)
		if err != nil {
			c.log.Warn("predictor failed, falling back",
				zap.String("tier", p.Name()), zap.Error(err))
			continue
		}
		c.active = p
		return level, nil
	}
	c.active = c.terminal
	level, _ := c.terminal.NextDifficulty(st)
	return level, nil
}

// Update forwards the answer to the tier that made the latest decision.
// Failures are logged and swallowed.
func (c *Chain) Update(st *profile.State, ans Answer) error {
	p := c.active
	if p == nil {
		p = c.firstAvailable()
	}
	if err := guardUpdate(p, st, ans); err != nil {
		c.log.Warn("predictor update failed",
			zap.String("tier", p.Name()), zap.Error(err))
	}
	return nil
}

func (c *Chain) firstAvailable() Predictor {
	for _, p := range c.tiers {
		if p != nil {
			return p
		}
	}
	return c.terminal
}

// Explain reports the active tier's latest decision.
func (c *Chain) Explain() (Explanation, bool) {
	if e, ok := c.active.(Explainer); ok {
		return e.Explain()
	}
	return Explanation{}, false
}

// guardNext calls p.NextDifficulty, turning panics and invalid levels into
// errors.
func guardNext(p Predictor, st *profile.State) (level difficulty.Level, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s panicked: %v", p.Name(), r)
		}
	}()
	level, err = p.NextDifficulty(st)
	if err == nil && !level.Valid() {
		err = fmt.Errorf("%s returned invalid difficulty %q", p.Name(), level)
	}
	return level, err
}

func guardUpdate(p Predictor, st *profile.State, ans Answer) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s update panicked: %v", p.Name(), r)
		}
	}()
	return p.Update(st, ans)
}

// Variant names a predictor stack.
type Variant string

const (
	VariantHybrid      Variant = "hybrid"
	VariantRL          Variant = "rl"
	VariantStatistical Variant = "statistical"
	VariantBaseline    Variant = "baseline"
)

// Variants lists the supported stacks.
var Variants = []Variant{VariantHybrid, VariantRL, VariantStatistical, VariantBaseline}

// ParseVariant accepts a variant name case-insensitively.
func ParseVariant(s string) (Variant, error) {
	v := Variant(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Variants {
		if v == known {
			return v, nil
		}
	}
	return "", fmt.Errorf("unknown variant %q", s)
}

// Config collects every predictor's tunables.
type Config struct {
	Statistical StatisticalConfig `mapstructure:"statistical"`
	RL          RLConfig          `mapstructure:"rl"`
	Hybrid      HybridConfig      `mapstructure:"hybrid"`
}

// DefaultConfig returns the default tunables of every predictor.
func DefaultConfig() Config {
	return Config{
		Statistical: DefaultStatisticalConfig(),
		RL:          DefaultRLConfig(),
		Hybrid:      DefaultHybridConfig(),
	}
}

// Engine is a per-session predictor stack.
type Engine struct {
	*Chain
	Variant     Variant
	Statistical *Statistical
	RL          *RL
	Hybrid      *Hybrid
	Baseline    *Baseline
}

// NewEngine builds fresh predictor instances for one session. Every
// predictor shares rng, so a seeded source replays a session exactly.
func NewEngine(variant Variant, cfg Config, rng Rand, opts ...Option) (*Engine, error) {
	o := buildOptions(opts)
	if rng == nil {
		rng = NewRand(uint64(o.now().UnixNano()))
	}
	e := &Engine{Variant: variant, Baseline: NewBaseline(rng, opts...)}
	log := o.logger.With(zap.String("variant", string(variant)))

	switch variant {
	case VariantHybrid:
		e.Statistical = NewStatistical(cfg.Statistical, rng, opts...)
		e.RL = NewRL(cfg.RL, rng, opts...)
		e.Hybrid = NewHybrid(cfg.Hybrid, e.Statistical, e.RL, rng, opts...)
		e.Chain = NewChain(e.Baseline, log, e.Hybrid, e.RL, e.Statistical)
	case VariantRL:
		e.Statistical = NewStatistical(cfg.Statistical, rng, opts...)
		e.RL = NewRL(cfg.RL, rng, opts...)
		e.Chain = NewChain(e.Baseline, log, e.RL, e.Statistical)
	case VariantStatistical:
		e.Statistical = NewStatistical(cfg.Statistical, rng, opts...)
		e.Chain = NewChain(e.Baseline, log, e.Statistical)
	case VariantBaseline:
		e.Chain = NewChain(e.Baseline, log)
	default:
		return nil, fmt.Errorf("new engine: unknown variant %q", variant)
	}
	return e, nil
}
