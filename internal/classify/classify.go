// Package classify derives runner and cost categories from a job's runner labels.
package classify

import (
	"strings"

	"github.com/waabox/runnerstat/internal/domain"
)

var (
	hostedImages  = []string{"ubuntu-latest", "windows-latest", "macos-latest"}
	largeMarkers  = []string{"large", "xl", "xxl", "4-core", "8-core", "16-core"}
	selfHostedTag = "self-hosted"
)

// RunnerType returns the runner category for labels. The first matching rule wins.
func RunnerType(labels []string) domain.RunnerType {
	s := normalize(labels)
	switch {
	case strings.Contains(s, selfHostedTag):
		return domain.RunnerSelfHosted
	case containsAny(s, hostedImages):
		return domain.RunnerGitHubHosted
	case strings.Contains(s, "ubuntu"):
		return domain.RunnerUbuntu
	case strings.Contains(s, "windows"):
		return domain.RunnerWindows
	case strings.Contains(s, "macos"):
		return domain.RunnerMacOS
	case strings.Contains(s, "linux"):
		return domain.RunnerLinux
	default:
		return domain.RunnerUnknown
	}
}

// CostCategory returns the billing bucket for labels. The first matching rule wins.
func CostCategory(labels []string) domain.CostCategory {
	s := normalize(labels)
	switch {
	case strings.Contains(s, selfHostedTag):
		return domain.CostSelfHosted
	case containsAny(s, largeMarkers):
		return domain.CostLargeInstance
	case containsAny(s, hostedImages):
		return domain.CostStandardGitHubHosted
	default:
		return domain.CostStandard
	}
}

// normalize matches on the lower-cased, space-joined label set so a marker may
// appear anywhere inside any label.
func normalize(labels []string) string {
	return strings.ToLower(strings.Join(labels, " "))
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
