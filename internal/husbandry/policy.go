// Package husbandry schedules litter care tasks and renders them as reminder
// messages. All functions take the reference day explicitly.
package husbandry

import "fmt"

// Window holds day offsets from a reference date. Trigger gates whether a need
// is shown, Target is the due date displayed, Warn escalates priority.
type Window struct {
	Trigger int `yaml:"trigger"`
	Target  int `yaml:"target"`
	Warn    int `yaml:"warn"`
}

func (w Window) validate(name string) error {
	if w.Trigger < 0 || w.Target < w.Trigger || w.Warn < w.Target {
		return fmt.Errorf("%s window must satisfy 0 <= trigger <= target <= warn, got %d/%d/%d", name, w.Trigger, w.Target, w.Warn)
	}
	return nil
}

// Policy configures the needs scheduler.
type Policy struct {
	DateMated Window `yaml:"date_mated"`
	PupCheck  Window `yaml:"pup_check"`
	ToeClip   Window `yaml:"toe_clip"`
	Genotype  Window `yaml:"genotype"`
	Wean      Window `yaml:"wean"`
	// IncludeToeClip adds the toe clip need to the automatic needs message.
	IncludeToeClip bool `yaml:"include_toe_clip"`
	// IncludeGenotype adds the genotype need to the automatic needs message.
	IncludeGenotype bool `yaml:"include_genotype"`
}

// DefaultPolicy returns the canonical schedule.
func DefaultPolicy() Policy {
	return Policy{
		DateMated:      Window{Trigger: 0, Target: 0, Warn: 1},
		PupCheck:       Window{Trigger: 20, Target: 25, Warn: 35},
		ToeClip:        Window{Trigger: 0, Target: 7, Warn: 14},
		Genotype:       Window{Trigger: 0, Target: 17, Warn: 20},
		Wean:           Window{Trigger: 19, Target: 21, Warn: 22},
		IncludeToeClip: true,
	}
}

// Validate checks that every window is ordered.
func (p Policy) Validate() error {
	for _, w := range []struct {
		name string
		w    Window
	}{
		{"date mated", p.DateMated},
		{"pup check", p.PupCheck},
		{"toe clip", p.ToeClip},
		{"genotype", p.Genotype},
		{"wean", p.Wean},
	} {
		if err := w.w.validate(w.name); err != nil {
			return err
		}
	}
	return nil
}
