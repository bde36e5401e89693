// Package rules implements the push-matching rule table: boolean predicates
// over repository snapshots, startup validation of rule wiring, and the
// resolver that turns a push into an ordered set of goal sets.
package rules

import (
	"fmt"
	"strings"

	"github.com/shiplane/shiplane/internal/core"
)

type predicateOp int

const (
	opHasFile predicateOp = iota
	opHasExtension
	opAnd
	opOr
	opNot
)

// Predicate is a tagged boolean expression tree over a repository snapshot.
// Modeling predicates as data rather than closures lets the rule table be
// statically validated and tested in isolation.
type Predicate struct {
	op       predicateOp
	arg      string
	children []Predicate
}

// HasFile matches snapshots containing a file with exactly this path.
func HasFile(name string) Predicate {
	return Predicate{op: opHasFile, arg: name}
}

// HasFileWithExtension matches snapshots containing any file whose name ends
// with the extension. A missing leading dot is tolerated.
func HasFileWithExtension(ext string) Predicate {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return Predicate{op: opHasExtension, arg: ext}
}

// And is a conjunction that short-circuits on the first false child.
func And(ps ...Predicate) Predicate {
	return Predicate{op: opAnd, children: ps}
}

// Or is a disjunction that short-circuits on the first true child.
func Or(ps ...Predicate) Predicate {
	return Predicate{op: opOr, children: ps}
}

// Not negates a predicate.
func Not(p Predicate) Predicate {
	return Predicate{op: opNot, children: []Predicate{p}}
}

// Eval evaluates the predicate against a materialized snapshot. Evaluation is
// pure and total: it performs no I/O and never fails for a well-formed tree.
func (p Predicate) Eval(snap core.Snapshot) bool {
	switch p.op {
	case opHasFile:
		return snap.HasFile(p.arg)
	case opHasExtension:
		return snap.HasFileWithExtension(p.arg)
	case opAnd:
		for _, c := range p.children {
			if !c.Eval(snap) {
				return false
			}
		}
		return true
	case opOr:
		for _, c := range p.children {
			if c.Eval(snap) {
				return true
			}
		}
		return false
	case opNot:
		return !p.children[0].Eval(snap)
	default:
		return false
	}
}

// validate checks that the tree is well-formed: leaf tests carry a non-empty
// argument and combinators carry the right number of children.
func (p Predicate) validate() error {
	switch p.op {
	case opHasFile:
		if p.arg == "" {
			return fmt.Errorf("hasFile predicate with empty file name")
		}
	case opHasExtension:
		if p.arg == "" || p.arg == "." {
			return fmt.Errorf("hasFileWithExtension predicate with empty extension")
		}
	case opAnd, opOr:
		if len(p.children) == 0 {
			return fmt.Errorf("boolean combinator with no operands")
		}
	case opNot:
		if len(p.children) != 1 {
			return fmt.Errorf("not predicate must have exactly one operand")
		}
	}
	for _, c := range p.children {
		if err := c.validate(); err != nil {
			return err
		}
	}
	return nil
}

// String renders the predicate for logs and the dry-run CLI.
func (p Predicate) String() string {
	switch p.op {
	case opHasFile:
		return fmt.Sprintf("hasFile(%s)", p.arg)
	case opHasExtension:
		return fmt.Sprintf("hasFileWithExtension(%s)", p.arg)
	case opAnd:
		return combinatorString("and", p.children)
	case opOr:
		return combinatorString("or", p.children)
	case opNot:
		return fmt.Sprintf("not(%s)", p.children[0].String())
	default:
		return "unknown"
	}
}

func combinatorString(name string, children []Predicate) string {
	parts := make([]string, len(children))
	for i, c := range children {
		parts[i] = c.String()
	}
	return fmt.Sprintf("%s(%s)", name, strings.Join(parts, ", "))
}
