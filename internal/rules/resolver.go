package rules

import (
	"github.com/shiplane/shiplane/internal/core"
)

// Entry is one scheduled (rule, goal set) pair in resolution order.
type Entry struct {
	Rule Rule
}

// Dropped records a matched rule that was removed from the schedule because
// the rule it depends on did not match this push. Its dependency can never be
// satisfied, which is a configuration smell worth warning about.
type Dropped struct {
	Name      string
	DependsOn string
}

// Resolution is the outcome of matching the rule table against one push. It
// is a pure value: not-matched (no entries), matched-open (ordered entries),
// or matched-locked (a single terminal entry and no further evaluation).
type Resolution struct {
	Entries  []Entry
	Locked   bool
	LockedBy string
	Dropped  []Dropped
}

// Empty reports whether nothing at all was scheduled for the push.
func (r *Resolution) Empty() bool {
	for _, e := range r.Entries {
		if len(e.Rule.Goals) > 0 {
			return false
		}
	}
	return true
}

// Resolve evaluates every rule's predicate against the push and builds the
// dependency-ordered schedule.
//
// Lock takes precedence over everything: the first locked rule (in declaration
// order) that matches fixes the push's goal set permanently, even when other
// rules also matched. An empty locked goal set is how "push explicitly
// excluded" is expressed.
//
// For the open case, matched rules whose dependency did not match are dropped
// (recorded in Dropped), and the remainder is topologically ordered with
// declaration order as the deterministic tie-break.
func (s *Set) Resolve(push *core.PushEvent) *Resolution {
	matched := make([]Rule, 0, len(s.rules))
	for _, r := range s.rules {
		if r.When.Eval(push.Files) {
			matched = append(matched, r)
		}
	}

	for _, r := range matched {
		if r.Lock {
			return &Resolution{
				Entries:  []Entry{{Rule: r}},
				Locked:   true,
				LockedBy: r.Name,
			}
		}
	}

	res := &Resolution{}

	// Drop rules whose dependency never matched, transitively: dropping a
	// rule can orphan its own dependents.
	inSchedule := make(map[string]bool, len(matched))
	for _, r := range matched {
		inSchedule[r.Name] = true
	}
	for changed := true; changed; {
		changed = false
		for _, r := range matched {
			if !inSchedule[r.Name] || r.DependsOn == "" {
				continue
			}
			if !inSchedule[r.DependsOn] {
				inSchedule[r.Name] = false
				res.Dropped = append(res.Dropped, Dropped{Name: r.Name, DependsOn: r.DependsOn})
				changed = true
			}
		}
	}

	// Kahn-style ordering over the surviving rules. Each step schedules the
	// ready rule with the lowest declaration index, so unrelated rules keep
	// their declared relative order and a dependent rule runs as soon as its
	// dependency is placed, ahead of unrelated rules declared after it.
	// Cycles are rejected at construction, so every step finds a ready rule.
	remaining := 0
	for _, r := range matched {
		if inSchedule[r.Name] {
			remaining++
		}
	}
	scheduled := make(map[string]bool, remaining)
	for len(res.Entries) < remaining {
		for _, r := range matched {
			if !inSchedule[r.Name] || scheduled[r.Name] {
				continue
			}
			if r.DependsOn != "" && !scheduled[r.DependsOn] {
				continue
			}
			res.Entries = append(res.Entries, Entry{Rule: r})
			scheduled[r.Name] = true
			break
		}
	}

	return res
}
