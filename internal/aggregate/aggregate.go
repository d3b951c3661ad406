// Package aggregate folds job records into per-group summary statistics.
package aggregate

import (
	"fmt"

	"github.com/waabox/runnerstat/internal/domain"
)

const unknownKey = "Unknown"

// keyFuncs maps each grouping field to the record attribute it buckets on.
var keyFuncs = map[domain.GroupField]func(domain.JobRecord) string{
	domain.GroupRepo:         func(r domain.JobRecord) string { return r.Repo },
	domain.GroupLabel:        func(r domain.JobRecord) string { return r.RunnerLabels() },
	domain.GroupStatus:       func(r domain.JobRecord) string { return r.Status },
	domain.GroupWorkflow:     func(r domain.JobRecord) string { return r.WorkflowName },
	domain.GroupBranch:       func(r domain.JobRecord) string { return r.Branch },
	domain.GroupRunnerType:   func(r domain.JobRecord) string { return string(r.RunnerType) },
	domain.GroupCostCategory: func(r domain.JobRecord) string { return string(r.CostCategory) },
}

// Aggregate builds the report for records. With GroupNone (or an empty field) the
// records are returned unchanged as a flat report. Otherwise they are partitioned
// by field and summarized, one group per distinct key in first-seen order. A field
// outside the known set puts every record in the "Unknown" group.
func Aggregate(records []domain.JobRecord, field domain.GroupField) domain.Report {
	if field == "" || field == domain.GroupNone {
		return domain.Report{GroupBy: domain.GroupNone, Jobs: records}
	}

	keyOf, ok := keyFuncs[field]
	if !ok {
		keyOf = func(domain.JobRecord) string { return unknownKey }
	}

	var order []string
	buckets := make(map[string][]domain.JobRecord)
	for _, r := range records {
		k := keyOf(r)
		if _, seen := buckets[k]; !seen {
			order = append(order, k)
		}
		buckets[k] = append(buckets[k], r)
	}

	groups := make([]domain.GroupSummary, 0, len(order))
	for _, k := range order {
		groups = append(groups, Summarize(k, field, buckets[k]))
	}
	return domain.Report{GroupBy: field, Groups: groups}
}

// Summarize computes the statistics for one group of records.
func Summarize(key string, field domain.GroupField, records []domain.JobRecord) domain.GroupSummary {
	s := domain.GroupSummary{
		Key:        key,
		GroupBy:    field,
		Total:      len(records),
		SampleRepo: unknownKey,
	}
	if len(records) > 0 {
		s.SampleRepo = records[0].Repo
	}

	var sum, known int64
	for _, r := range records {
		switch r.Status {
		case "completed":
			s.Successful++
		case "failure":
			s.Failed++
		}
		if secs, ok := r.Elapsed.Seconds(); ok {
			sum += secs
			known++
		}
	}

	s.SuccessRate = SuccessRate(s.Successful, s.Total)
	s.AverageDuration = domain.UnknownDuration
	if known > 0 {
		s.AverageDuration = domain.FormatMinutesSeconds(sum / known)
	}
	return s
}

// SuccessRate renders successful/total as a percentage with one decimal, or "0%"
// when total is zero.
func SuccessRate(successful, total int) string {
	if total == 0 {
		return "0%"
	}
	return fmt.Sprintf("%.1f%%", float64(successful)/float64(total)*100)
}
