package compliance

import (
	"time"

	"github.com/google/uuid"

	"github.com/harvestlane/agri-export-compliance-backend/internal/domain/compliance"
)

// buildTimeline seeds the milestone DAG from certification, testing and
// documentation lead times: preparation first, the work streams in parallel
// behind it, clearance behind everything.
func buildTimeline(record *compliance.ComplianceRecord, policy TimelinePolicy, now time.Time) compliance.Timeline {
	var milestones []compliance.Milestone

	prep := compliance.Milestone{
		ID:           uuid.New(),
		Name:         "Regulatory review and registration",
		Kind:         compliance.MilestonePreparation,
		DurationDays: policy.PreparationDays,
		Status:       compliance.MilestoneUpcoming,
	}
	milestones = append(milestones, prep)

	var workIDs []uuid.UUID
	for _, cert := range record.Certifications {
		m := compliance.Milestone{
			ID:           uuid.New(),
			Name:         "Obtain " + cert.Scheme + " certification",
			Kind:         compliance.MilestoneCertification,
			RefID:        cert.ID,
			DependsOn:    []uuid.UUID{prep.ID},
			DurationDays: cert.EstimatedLeadDays,
			Status:       compliance.MilestoneUpcoming,
			Critical:     cert.Mandatory,
		}
		milestones = append(milestones, m)
		workIDs = append(workIDs, m.ID)
	}

	if len(record.TestingRequirements) > 0 {
		maxTurnaround := 0
		for _, t := range record.TestingRequirements {
			if t.TurnaroundDays > maxTurnaround {
				maxTurnaround = t.TurnaroundDays
			}
		}
		m := compliance.Milestone{
			ID:           uuid.New(),
			Name:         "Complete laboratory testing",
			Kind:         compliance.MilestoneTesting,
			DependsOn:    []uuid.UUID{prep.ID},
			DurationDays: maxTurnaround + policy.SamplingBuffer,
			Status:       compliance.MilestoneUpcoming,
			Critical:     true,
		}
		milestones = append(milestones, m)
		workIDs = append(workIDs, m.ID)
	}

	if len(record.Documentation) > 0 {
		maxPrep := 0
		for _, d := range record.Documentation {
			if d.EstimatedPrepDays > maxPrep {
				maxPrep = d.EstimatedPrepDays
			}
		}
		m := compliance.Milestone{
			ID:           uuid.New(),
			Name:         "Assemble documentation package",
			Kind:         compliance.MilestoneDocumentation,
			DependsOn:    []uuid.UUID{prep.ID},
			DurationDays: maxPrep,
			Status:       compliance.MilestoneUpcoming,
		}
		milestones = append(milestones, m)
		workIDs = append(workIDs, m.ID)
	}

	clearance := compliance.Milestone{
		ID:           uuid.New(),
		Name:         "Final export clearance",
		Kind:         compliance.MilestoneClearance,
		DependsOn:    workIDs,
		DurationDays: policy.ClearanceDays,
		Status:       compliance.MilestoneUpcoming,
		Critical:     true,
	}
	if len(workIDs) == 0 {
		clearance.DependsOn = []uuid.UUID{prep.ID}
	}
	milestones = append(milestones, clearance)

	timeline := compliance.Timeline{Milestones: milestones}
	schedulePlannedDates(&timeline, now)
	timeline.CriticalPath = criticalPath(&timeline)
	timeline.Completion = completionPercentage(&timeline, policy)
	return timeline
}

// schedulePlannedDates walks the DAG in topological order; each milestone's
// planned date is the latest dependency finish plus its own duration.
func schedulePlannedDates(t *compliance.Timeline, start time.Time) {
	var resolve func(id uuid.UUID) time.Time
	resolved := make(map[uuid.UUID]time.Time)

	resolve = func(id uuid.UUID) time.Time {
		if end, ok := resolved[id]; ok {
			return end
		}
		m := t.Milestone(id)
		begin := start
		for _, dep := range m.DependsOn {
			if depEnd := resolve(dep); depEnd.After(begin) {
				begin = depEnd
			}
		}
		end := begin.AddDate(0, 0, m.DurationDays)
		m.PlannedDate = end
		resolved[id] = end
		return end
	}

	for i := range t.Milestones {
		resolve(t.Milestones[i].ID)
	}
}

// criticalPath returns the longest dependency chain by planned duration.
func criticalPath(t *compliance.Timeline) []uuid.UUID {
	type pathInfo struct {
		days int
		path []uuid.UUID
	}
	memo := make(map[uuid.UUID]pathInfo)

	var longest func(id uuid.UUID) pathInfo
	longest = func(id uuid.UUID) pathInfo {
		if info, ok := memo[id]; ok {
			return info
		}
		m := t.Milestone(id)
		best := pathInfo{}
		for _, dep := range m.DependsOn {
			if info := longest(dep); info.days > best.days {
				best = info
			}
		}
		info := pathInfo{
			days: best.days + m.DurationDays,
			path: append(append([]uuid.UUID{}, best.path...), id),
		}
		memo[id] = info
		return info
	}

	best := pathInfo{}
	for i := range t.Milestones {
		if info := longest(t.Milestones[i].ID); info.days > best.days {
			best = info
		}
	}
	return best.path
}

// completionPercentage is the weighted share of completed milestones;
// critical milestones weigh more.
func completionPercentage(t *compliance.Timeline, policy TimelinePolicy) float64 {
	if len(t.Milestones) == 0 {
		return 0
	}

	total := 0.0
	done := 0.0
	for _, m := range t.Milestones {
		w := 1.0
		if m.Critical {
			w = policy.CriticalWeight
		}
		total += w
		if m.Status == compliance.MilestoneCompleted {
			done += w
		}
	}
	if total == 0 {
		return 0
	}
	return done / total * 100
}

// refreshTimeline syncs milestone completion from the sub-ledgers, then marks
// slipped milestones delayed and accrues delay records. Milestones are never
// removed.
func refreshTimeline(record *compliance.ComplianceRecord, policy TimelinePolicy, now time.Time) {
	t := &record.Timeline

	for i := range t.Milestones {
		m := &t.Milestones[i]
		if m.Status == compliance.MilestoneCompleted {
			continue
		}

		if milestoneSatisfied(record, m) {
			m.Status = compliance.MilestoneCompleted
			if m.ActualDate == nil {
				actual := now
				m.ActualDate = &actual
			}
			continue
		}

		if milestoneStarted(record, m) {
			m.Status = compliance.MilestoneInProgress
		}

		if now.After(m.PlannedDate) {
			m.Status = compliance.MilestoneDelayed
			if !t.HasDelay(m.ID) {
				t.Delays = append(t.Delays, compliance.ComplianceDelay{
					MilestoneID: m.ID,
					Milestone:   m.Name,
					PlannedDate: m.PlannedDate,
					DetectedAt:  now,
					DelayDays:   int(now.Sub(m.PlannedDate).Hours() / 24),
				})
			}
		}
	}

	t.Completion = completionPercentage(t, policy)
}

func milestoneSatisfied(record *compliance.ComplianceRecord, m *compliance.Milestone) bool {
	switch m.Kind {
	case compliance.MilestonePreparation:
		for _, item := range record.Checklist {
			if item.Source == compliance.ChecklistSourceRegulation && item.Mandatory && !item.IsComplete() {
				return false
			}
		}
		return true
	case compliance.MilestoneCertification:
		cert := record.FindCertification(m.RefID)
		return cert != nil && cert.IsApproved()
	case compliance.MilestoneTesting:
		for _, t := range record.TestingRequirements {
			if !t.IsCompliant() {
				return false
			}
		}
		return true
	case compliance.MilestoneDocumentation:
		for _, d := range record.Documentation {
			if !d.IsApproved() {
				return false
			}
		}
		return true
	case compliance.MilestoneClearance:
		for _, other := range record.Timeline.Milestones {
			if other.Kind == compliance.MilestoneClearance {
				continue
			}
			if other.Status != compliance.MilestoneCompleted {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func milestoneStarted(record *compliance.ComplianceRecord, m *compliance.Milestone) bool {
	switch m.Kind {
	case compliance.MilestonePreparation:
		for _, item := range record.Checklist {
			if item.Status != compliance.ChecklistNotStarted {
				return true
			}
		}
	case compliance.MilestoneCertification:
		cert := record.FindCertification(m.RefID)
		return cert != nil && cert.Status != compliance.CertificationNotStarted
	case compliance.MilestoneTesting:
		for _, t := range record.TestingRequirements {
			if t.Status != compliance.TestingNotScheduled {
				return true
			}
		}
	case compliance.MilestoneDocumentation:
		for _, d := range record.Documentation {
			if d.Status != compliance.DocumentationNotStarted {
				return true
			}
		}
	}
	return false
}
