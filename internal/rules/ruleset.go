package rules

import (
	"fmt"

	"github.com/shiplane/shiplane/internal/core"
)

// Rule binds a predicate to the goal set it triggers. DependsOn optionally
// names another rule whose goal set must succeed first; Lock marks the rule's
// goal set as the terminal action for any push it matches.
type Rule struct {
	Name      string
	When      Predicate
	Goals     core.GoalSet
	DependsOn string
	Lock      bool
}

// Set is the immutable rule table, built once at process start and validated
// before the server accepts traffic. Declaration order is preserved and used
// as the deterministic tie-break during resolution.
type Set struct {
	rules []Rule
	index map[string]int
}

// NewSet validates the rules and builds the table. Validation failures are
// configuration errors: duplicate or empty names, malformed predicates,
// dependsOn references to undefined rules, and dependency cycles all surface
// here, never at push time.
func NewSet(rules ...Rule) (*Set, error) {
	index := make(map[string]int, len(rules))
	for i, r := range rules {
		if r.Name == "" {
			return nil, fmt.Errorf("rule at position %d has an empty name", i)
		}
		if _, dup := index[r.Name]; dup {
			return nil, fmt.Errorf("duplicate rule name %q", r.Name)
		}
		if err := r.When.validate(); err != nil {
			return nil, fmt.Errorf("rule %q has an invalid predicate: %w", r.Name, err)
		}
		index[r.Name] = i
	}

	for _, r := range rules {
		if r.DependsOn == "" {
			continue
		}
		if _, ok := index[r.DependsOn]; !ok {
			return nil, fmt.Errorf("rule %q depends on undefined rule %q", r.Name, r.DependsOn)
		}
		if r.DependsOn == r.Name {
			return nil, fmt.Errorf("rule %q depends on itself", r.Name)
		}
	}

	if cycle := findCycle(rules, index); cycle != "" {
		return nil, fmt.Errorf("rule dependency cycle through %q", cycle)
	}

	set := &Set{rules: make([]Rule, len(rules)), index: index}
	copy(set.rules, rules)
	return set, nil
}

// Rules returns the rules in declaration order.
func (s *Set) Rules() []Rule {
	out := make([]Rule, len(s.rules))
	copy(out, s.rules)
	return out
}

// findCycle walks the dependsOn chain from every rule. Chains are single
// edges per rule, so a cycle shows up as revisiting a rule on the same walk.
func findCycle(rules []Rule, index map[string]int) string {
	for _, r := range rules {
		seen := map[string]bool{r.Name: true}
		cur := r.DependsOn
		for cur != "" {
			if seen[cur] {
				return cur
			}
			seen[cur] = true
			cur = rules[index[cur]].DependsOn
		}
	}
	return ""
}
