package husbandry

import (
	"fmt"
	"strings"
	"time"

	"mousecolony/internal/colony"
	"mousecolony/pkg/domain"
)

// Task identifies a scheduled husbandry task.
type Task string

// Tasks in evaluation order.
const (
	TaskDateMated Task = "specify date mated"
	TaskPupCheck  Task = "pup check"
	TaskToeClip   Task = "toe clip"
	TaskGenotype  Task = "genotype"
	TaskWean      Task = "wean"
)

// Need is one scheduled task with its threshold dates.
type Need struct {
	Task    Task
	Trigger time.Time
	Target  time.Time
	Warn    time.Time
}

// Active reports whether the need is due for display on the given day.
func (n Need) Active(today time.Time) bool {
	return !n.Trigger.After(colony.Day(today))
}

// Overdue reports whether the warn threshold has passed.
func (n Need) Overdue(today time.Time) bool {
	return !n.Warn.After(colony.Day(today))
}

// Message renders "<task> on MM/DD".
func (n Need) Message() string {
	return fmt.Sprintf("%s on %s", n.Task, n.Target.Format("01/02"))
}

func schedule(task Task, ref time.Time, w Window) Need {
	return Need{
		Task:    task,
		Trigger: colony.AddDays(ref, w.Trigger),
		Target:  colony.AddDays(ref, w.Target),
		Warn:    colony.AddDays(ref, w.Warn),
	}
}

// NeedsDateMated asks for the mating date while neither mating nor birth is recorded.
func (p Policy) NeedsDateMated(l domain.Litter, today time.Time) (Need, bool) {
	if l.DateMated != nil || l.DOB != nil {
		return Need{}, false
	}
	return schedule(TaskDateMated, today, p.DateMated), true
}

// NeedsPupCheck schedules the pup check after mating until birth is recorded.
func (p Policy) NeedsPupCheck(l domain.Litter, _ time.Time) (Need, bool) {
	if l.DateMated == nil || l.DOB != nil {
		return Need{}, false
	}
	return schedule(TaskPupCheck, *l.DateMated, p.PupCheck), true
}

// NeedsToeClip schedules toe clipping after birth until it is recorded.
func (p Policy) NeedsToeClip(l domain.Litter, _ time.Time) (Need, bool) {
	if l.DOB == nil || l.DateToeClipped != nil {
		return Need{}, false
	}
	return schedule(TaskToeClip, *l.DOB, p.ToeClip), true
}

// NeedsGenotype schedules genotyping after birth until toe clipping is recorded.
func (p Policy) NeedsGenotype(l domain.Litter, _ time.Time) (Need, bool) {
	if l.DOB == nil || l.DateToeClipped != nil {
		return Need{}, false
	}
	return schedule(TaskGenotype, *l.DOB, p.Genotype), true
}

// NeedsWean schedules weaning after birth until it is recorded.
func (p Policy) NeedsWean(l domain.Litter, _ time.Time) (Need, bool) {
	if l.DOB == nil || l.DateWeaned != nil {
		return Need{}, false
	}
	return schedule(TaskWean, *l.DOB, p.Wean), true
}

// Needs evaluates the tasks enabled by the policy in order and returns those
// that have information, whether or not they are triggered yet.
func (p Policy) Needs(l domain.Litter, today time.Time) []Need {
	checks := []func(domain.Litter, time.Time) (Need, bool){p.NeedsDateMated, p.NeedsPupCheck}
	if p.IncludeToeClip {
		checks = append(checks, p.NeedsToeClip)
	}
	if p.IncludeGenotype {
		checks = append(checks, p.NeedsGenotype)
	}
	checks = append(checks, p.NeedsWean)

	var out []Need
	for _, check := range checks {
		if n, ok := check(l, today); ok {
			out = append(out, n)
		}
	}
	return out
}

// Style marks how a message is emphasised.
type Style int

// Message styles.
const (
	StyleNormal Style = iota
	StyleUrgent
	StyleDone
)

// NeedMessage is one line of a needs message.
type NeedMessage struct {
	Text  string
	Style Style
}

// AutoNeeds returns the triggered needs of a litter, urgent once overdue.
func (p Policy) AutoNeeds(l domain.Litter, today time.Time) []NeedMessage {
	var out []NeedMessage
	for _, n := range p.Needs(l, today) {
		if !n.Active(today) {
			continue
		}
		msg := NeedMessage{Text: n.Message()}
		if n.Overdue(today) {
			msg.Style = StyleUrgent
		}
		out = append(out, msg)
	}
	return out
}

// RequestMessages renders special requests as "requestee: message". Open
// requests are urgent, completed ones are struck.
func RequestMessages(c colony.CageAggregate) []NeedMessage {
	out := make([]NeedMessage, 0, len(c.SpecialRequests))
	for _, sr := range c.SpecialRequests {
		msg := NeedMessage{Text: fmt.Sprintf("%s: %s", c.PersonName(sr.RequesteeID), sr.Message), Style: StyleUrgent}
		if !sr.Open() {
			msg.Style = StyleDone
		}
		out = append(out, msg)
	}
	return out
}

// CageNeeds returns the special requests of the cage followed by its litter's
// automatic needs.
func (p Policy) CageNeeds(c colony.CageAggregate, today time.Time) []NeedMessage {
	out := RequestMessages(c)
	if c.Litter != nil {
		out = append(out, p.AutoNeeds(c.Litter.Litter, today)...)
	}
	return out
}

// TextFormatter renders one line per message for terminals. Urgent lines are
// marked with "!" and completed requests are suffixed with "(done)".
type TextFormatter struct{}

// Format joins the rendered messages with newlines.
func (TextFormatter) Format(msgs []NeedMessage) string {
	parts := make([]string, 0, len(msgs))
	for _, m := range msgs {
		switch m.Style {
		case StyleUrgent:
			parts = append(parts, "! "+m.Text)
		case StyleDone:
			parts = append(parts, "  "+m.Text+" (done)")
		default:
			parts = append(parts, "  "+m.Text)
		}
	}
	return strings.Join(parts, "\n")
}
