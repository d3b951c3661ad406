package domain

import (
	"fmt"
	"strings"
)

// GroupField names the JobRecord attribute a report is grouped by.
type GroupField string

const (
	GroupNone         GroupField = "none"
	GroupRepo         GroupField = "repo"
	GroupLabel        GroupField = "label"
	GroupStatus       GroupField = "status"
	GroupWorkflow     GroupField = "workflow"
	GroupBranch       GroupField = "branch"
	GroupRunnerType   GroupField = "runner_type"
	GroupCostCategory GroupField = "cost_category"
)

// GroupFields lists every field a report can be grouped by, in display order.
var GroupFields = []GroupField{
	GroupRepo,
	GroupLabel,
	GroupStatus,
	GroupWorkflow,
	GroupBranch,
	GroupRunnerType,
	GroupCostCategory,
}

// ParseGroupField maps a configured group-by value to a GroupField.
// An empty value means no grouping. Unknown values are rejected.
func ParseGroupField(s string) (GroupField, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if v == "" || v == string(GroupNone) {
		return GroupNone, nil
	}
	for _, f := range GroupFields {
		if v == string(f) {
			return f, nil
		}
	}
	names := make([]string, 0, len(GroupFields)+1)
	names = append(names, string(GroupNone))
	for _, f := range GroupFields {
		names = append(names, string(f))
	}
	return GroupNone, &ConfigurationError{
		Field:  "group_by",
		Reason: fmt.Sprintf("unknown value %q (expected one of %s)", s, strings.Join(names, ", ")),
	}
}

// Title is the field name as shown in the "Group Type" column: "Repo",
// "Runner_Type", "Cost_Category" and so on.
func (f GroupField) Title() string {
	parts := strings.Split(string(f), "_")
	for i, p := range parts {
		if p != "" {
			parts[i] = strings.ToUpper(p[:1]) + p[1:]
		}
	}
	return strings.Join(parts, "_")
}

// GroupSummary holds the statistics for every JobRecord sharing one group key.
type GroupSummary struct {
	Key             string
	GroupBy         GroupField
	Total           int
	Successful      int
	Failed          int
	SuccessRate     string
	AverageDuration string
	SampleRepo      string
}

// Report is the aggregator's output. Flat reports carry Jobs; grouped reports
// carry Groups.
type Report struct {
	GroupBy GroupField
	Jobs    []JobRecord
	Groups  []GroupSummary
}

// Grouped reports whether the report holds group summaries instead of jobs.
func (r Report) Grouped() bool {
	return r.GroupBy != "" && r.GroupBy != GroupNone
}

// Len returns the number of rows the report renders.
func (r Report) Len() int {
	if r.Grouped() {
		return len(r.Groups)
	}
	return len(r.Jobs)
}

// TotalJobs returns the number of jobs the report accounts for.
func (r Report) TotalJobs() int {
	if !r.Grouped() {
		return len(r.Jobs)
	}
	total := 0
	for _, g := range r.Groups {
		total += g.Total
	}
	return total
}
