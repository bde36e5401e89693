// Package version computes the unique build version applied to a commit
// before its build goal runs.
package version

import (
	"context"
	"strings"
	"time"

	"github.com/shiplane/shiplane/internal/core"
)

// Service computes a unique, sortable build version for a push.
type Service interface {
	Compute(push *core.PushEvent, now time.Time) string
}

type timestampService struct {
	base string
}

// NewService returns a Service deriving versions from a base semantic
// version, the push branch and a UTC timestamp, e.g.
// "0.1.0-main.20260823143000".
func NewService(base string) Service {
	if base == "" {
		base = "0.1.0"
	}
	return &timestampService{base: base}
}

func (s *timestampService) Compute(push *core.PushEvent, now time.Time) string {
	branch := sanitizeBranch(push.Branch)
	stamp := now.UTC().Format("20060102150405")
	if branch == "" {
		return s.base + "-" + stamp
	}
	return s.base + "-" + branch + "." + stamp
}

// sanitizeBranch keeps version strings valid: anything outside alphanumerics
// becomes an underscore.
func sanitizeBranch(branch string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, branch)
}

// Listener adapts a Service into the pre-action listener attached to the
// build goal. The computed version is recorded on the goal's progress log
// before the main action starts.
func Listener(s Service) core.GoalListener {
	return func(_ context.Context, gc *core.GoalContext) error {
		v := s.Compute(gc.Push, time.Now())
		gc.Log.Append("build version %s", v)
		return nil
	}
}
