package compliance

import (
	"time"

	"github.com/harvestlane/agri-export-compliance-backend/internal/domain/compliance"
	domainerrors "github.com/harvestlane/agri-export-compliance-backend/internal/domain/errors"
)

// The four trackers apply their ledger's commands against a record already
// held under the per-record lock. They never create items; item sets are
// fixed at build time, so an unknown id fails the whole update.

func applyChecklistUpdates(record *compliance.ComplianceRecord, updates []ChecklistUpdate, now time.Time) error {
	for _, cmd := range updates {
		item := record.FindChecklistItem(cmd.ItemID)
		if item == nil {
			return domainerrors.NewUnknownItemError("checklist", cmd.ItemID.String())
		}
		if err := item.Transition(cmd.Status, cmd.Actor, now); err != nil {
			return err
		}
		if cmd.Notes != "" {
			item.Notes = cmd.Notes
		}
	}
	return nil
}

func applyCertificationUpdates(record *compliance.ComplianceRecord, updates []CertificationUpdate, now time.Time) error {
	for _, cmd := range updates {
		cert := record.FindCertification(cmd.CertificationID)
		if cert == nil {
			return domainerrors.NewUnknownItemError("certification", cmd.CertificationID.String())
		}

		var err error
		if cmd.Status == compliance.CertificationRejected {
			err = cert.Reject(cmd.Reason, now)
		} else {
			err = cert.Transition(cmd.Status, cmd.CertificateNumber, now)
		}
		if err != nil {
			return err
		}

		if cmd.ActualCost != nil {
			cert.ActualCost = *cmd.ActualCost
		}
	}
	return nil
}

func applyTestUpdates(record *compliance.ComplianceRecord, stages []TestStageUpdate, results []TestResultSubmission, now time.Time) error {
	for _, cmd := range stages {
		req := record.FindTestingRequirement(cmd.RequirementID)
		if req == nil {
			return domainerrors.NewUnknownItemError("testing", cmd.RequirementID.String())
		}
		if err := req.Advance(cmd.Stage, now); err != nil {
			return err
		}
	}

	for _, cmd := range results {
		req := record.FindTestingRequirement(cmd.RequirementID)
		if req == nil {
			return domainerrors.NewUnknownItemError("testing", cmd.RequirementID.String())
		}
		if err := req.SubmitResult(cmd.Parameter, cmd.Value, cmd.ReportedBy, now); err != nil {
			return err
		}
		if cmd.ActualCost != nil {
			req.ActualCost = *cmd.ActualCost
		}
	}
	return nil
}

func applyDocumentUpdates(record *compliance.ComplianceRecord, updates []DocumentUpdate, now time.Time) error {
	for _, cmd := range updates {
		doc := record.FindDocument(cmd.DocumentID)
		if doc == nil {
			return domainerrors.NewUnknownItemError("documentation", cmd.DocumentID.String())
		}

		if cmd.Verify {
			if err := doc.MarkVerified(now); err != nil {
				return err
			}
		}
		if cmd.Status != nil {
			if err := doc.Transition(*cmd.Status, now); err != nil {
				return err
			}
		}
		if cmd.ActualCost != nil {
			doc.ActualCost = *cmd.ActualCost
		}
	}
	return nil
}
