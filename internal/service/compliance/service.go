package compliance

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/harvestlane/agri-export-compliance-backend/internal/catalog"
	"github.com/harvestlane/agri-export-compliance-backend/internal/domain/compliance"
	domainerrors "github.com/harvestlane/agri-export-compliance-backend/internal/domain/errors"
)

// Engine is the export-compliance tracking engine. Different records may be
// worked on concurrently; mutation within one record is serialized under a
// per-record mutex so read-validate-write sequences never interleave.
type Engine struct {
	logger   *zap.Logger
	catalog  catalog.Catalog
	store    compliance.RecordStore
	clock    compliance.Clock
	policies Policies
	metrics  *Metrics

	locks sync.Map // record id -> *sync.Mutex
}

// NewEngine wires the engine. metrics may be nil.
func NewEngine(logger *zap.Logger, cat catalog.Catalog, store compliance.RecordStore, clock compliance.Clock, policies Policies, metrics *Metrics) *Engine {
	if clock == nil {
		clock = compliance.RealClock{}
	}
	return &Engine{
		logger:   logger,
		catalog:  cat,
		store:    store,
		clock:    clock,
		policies: policies,
		metrics:  metrics,
	}
}

func (e *Engine) lock(id uuid.UUID) func() {
	v, _ := e.locks.LoadOrStore(id, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// Initialize builds and stores a new compliance record for a (batch, market,
// buyer) triple. Fail-closed: a catalog miss fails the whole operation and no
// record is persisted. A live record for the same triple is a conflict;
// an expired one is replaced.
func (e *Engine) Initialize(ctx context.Context, req InitializeRequest) (*compliance.ComplianceRecord, error) {
	if req.Batch.ID == "" || req.Batch.CropType == "" || req.Market == "" || req.BuyerID == "" {
		return nil, domainerrors.NewValidationError("MISSING_FIELDS",
			"batch id, crop type, market and buyer id are required")
	}

	now := e.clock.Now()

	existing, err := e.store.GetByTriple(ctx, req.Batch.ID, req.Market, req.BuyerID)
	if err != nil && !domainerrors.IsType(err, domainerrors.ErrorTypeNotFound) {
		return nil, err
	}
	if existing != nil && !existing.IsExpired(now) {
		return nil, domainerrors.NewConflictError(
			"a live compliance record already exists for this batch, market and buyer")
	}

	record, err := e.buildRecord(ctx, req, now)
	if err != nil {
		e.logger.Warn("record initialization failed",
			zap.String("batch_id", req.Batch.ID),
			zap.String("market", req.Market),
			zap.Error(err),
		)
		return nil, err
	}

	if err := e.store.Put(ctx, record); err != nil {
		return nil, err
	}

	e.metrics.recordInitialized()
	return record, nil
}

// ApplyUpdate applies one atomic batch of tracker commands to a record,
// then recomputes score, status, costs and timeline. Any failing command
// rejects the whole update; the stored record is unchanged.
func (e *Engine) ApplyUpdate(ctx context.Context, recordID uuid.UUID, req UpdateRequest) (*compliance.ComplianceRecord, error) {
	if req.IsEmpty() {
		return nil, domainerrors.NewValidationError("EMPTY_UPDATE", "update request carries no commands")
	}

	unlock := e.lock(recordID)
	defer unlock()

	record, err := e.store.Get(ctx, recordID)
	if err != nil {
		return nil, err
	}

	now := e.clock.Now()
	if record.IsExpired(now) {
		return nil, domainerrors.NewExpiredRecordError(recordID.String())
	}

	if err := e.applyCommands(record, req, now); err != nil {
		e.metrics.updateFailed(errorCode(err))
		e.logger.Warn("update rejected",
			zap.String("record_id", recordID.String()),
			zap.Error(err),
		)
		return nil, err
	}

	e.recompute(record, now)
	record.UpdatedAt = now

	if err := e.store.Put(ctx, record); err != nil {
		return nil, err
	}

	e.metrics.updateApplied("checklist", len(req.ChecklistUpdates))
	e.metrics.updateApplied("certification", len(req.CertificationUpdates))
	e.metrics.updateApplied("testing", len(req.TestStageUpdates)+len(req.TestResults))
	e.metrics.updateApplied("documentation", len(req.DocumentUpdates))

	e.logger.Info("update applied",
		zap.String("record_id", recordID.String()),
		zap.Int("score", record.Score),
		zap.String("status", record.Status.String()),
	)
	return record, nil
}

func (e *Engine) applyCommands(record *compliance.ComplianceRecord, req UpdateRequest, now time.Time) error {
	record.RefreshExpiries(now)

	if err := applyChecklistUpdates(record, req.ChecklistUpdates, now); err != nil {
		return err
	}
	if err := applyCertificationUpdates(record, req.CertificationUpdates, now); err != nil {
		return err
	}
	if err := applyTestUpdates(record, req.TestStageUpdates, req.TestResults, now); err != nil {
		return err
	}
	if err := applyDocumentUpdates(record, req.DocumentUpdates, now); err != nil {
		return err
	}
	return nil
}

// recompute refreshes every derived value on the record: score, status,
// cost actuals and the timeline.
func (e *Engine) recompute(record *compliance.ComplianceRecord, now time.Time) {
	start := time.Now()

	record.Costs.Refresh(record)
	refreshTimeline(record, e.policies.Timeline, now)
	record.Score = computeScore(record, e.policies.Scoring)
	record.Status = statusForScore(record.Score, e.policies.Scoring)

	e.metrics.observeRecompute(time.Since(start).Seconds())
}

// RecomputeRisk re-runs the risk assessment on demand. Risk changes slowly
// and the assessment is comparatively expensive, so it is not refreshed on
// every tracker update.
func (e *Engine) RecomputeRisk(ctx context.Context, recordID uuid.UUID) (*compliance.ComplianceRecord, error) {
	unlock := e.lock(recordID)
	defer unlock()

	record, err := e.store.Get(ctx, recordID)
	if err != nil {
		return nil, err
	}

	now := e.clock.Now()
	record.Risk = assessRisk(record, e.policies.Risk, now)
	record.UpdatedAt = now

	if err := e.store.Put(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

// GetRecord returns a record with lazily-derived state (certification expiry,
// timeline delays, score) refreshed against the current clock. The refresh is
// not persisted.
func (e *Engine) GetRecord(ctx context.Context, recordID uuid.UUID) (*compliance.ComplianceRecord, error) {
	record, err := e.store.Get(ctx, recordID)
	if err != nil {
		return nil, err
	}
	e.refreshDerived(record)
	return record, nil
}

func (e *Engine) refreshDerived(record *compliance.ComplianceRecord) {
	now := e.clock.Now()
	record.RefreshExpiries(now)
	e.recompute(record, now)
}

// GenerateComplianceReport derives the report for a record. The report is
// computed, never stored; an expired record still reports but is flagged.
func (e *Engine) GenerateComplianceReport(ctx context.Context, recordID uuid.UUID) (*Report, error) {
	record, err := e.store.Get(ctx, recordID)
	if err != nil {
		return nil, err
	}

	now := e.clock.Now()
	record.RefreshExpiries(now)
	record.Costs.Refresh(record)
	refreshTimeline(record, e.policies.Timeline, now)

	return buildReport(record, e.policies, now), nil
}

// ValidateExportReadiness runs the point-based readiness gate and, on
// success, issues an advisory export authorization.
func (e *Engine) ValidateExportReadiness(ctx context.Context, recordID uuid.UUID) (*ReadinessResult, error) {
	record, err := e.store.Get(ctx, recordID)
	if err != nil {
		return nil, err
	}

	now := e.clock.Now()
	record.RefreshExpiries(now)

	result := validateReadiness(record, e.policies, now)
	result.Score = computeScore(record, e.policies.Scoring)
	result.Status = statusForScore(result.Score, e.policies.Scoring).String()

	e.metrics.readinessChecked(result.Ready)
	e.logger.Info("readiness validated",
		zap.String("record_id", recordID.String()),
		zap.Bool("ready", result.Ready),
		zap.Int("points", result.Points),
		zap.Int("critical_issues", len(result.CriticalIssues)),
	)
	return result, nil
}

func errorCode(err error) string {
	var appErr *domainerrors.AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return "UNKNOWN"
}
