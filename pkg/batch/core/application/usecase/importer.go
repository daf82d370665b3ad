package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"go.uber.org/fx"

	port "github.com/tigerroll/sheetload/pkg/batch/core/application/port"
	model "github.com/tigerroll/sheetload/pkg/batch/core/domain/model"
	metrics "github.com/tigerroll/sheetload/pkg/batch/core/metrics"
	"github.com/tigerroll/sheetload/pkg/batch/engine/keyresolve"
	"github.com/tigerroll/sheetload/pkg/batch/engine/normalize"
	"github.com/tigerroll/sheetload/pkg/batch/engine/report"
	"github.com/tigerroll/sheetload/pkg/batch/engine/split"
	"github.com/tigerroll/sheetload/pkg/batch/engine/step/item"
	"github.com/tigerroll/sheetload/pkg/batch/support/util/exception"
	"github.com/tigerroll/sheetload/pkg/batch/support/util/logger"
)

const moduleName = "importer"

var (
	// ErrInvalidProfile is wrapped when the entity profile fails validation.
	ErrInvalidProfile = errors.New("invalid entity profile")
	// ErrMissingActor is wrapped when a profile stamps the current user but the request carries none.
	ErrMissingActor = errors.New("the import requires the id of the current user")
	// ErrSnapshotFailed is wrapped when the existing records could not be read.
	ErrSnapshotFailed = errors.New("failed to read existing records")
	// ErrImportCancelled is returned together with the report of an import cut short by its context.
	ErrImportCancelled = errors.New("import cancelled")
)

func init() {
	exception.RegisterErrorType("usecase.ErrInvalidProfile", ErrInvalidProfile)
	exception.RegisterErrorType("usecase.ErrMissingActor", ErrMissingActor)
	exception.RegisterErrorType("usecase.ErrSnapshotFailed", ErrSnapshotFailed)
	exception.RegisterErrorType("usecase.ErrImportCancelled", ErrImportCancelled)
}

// ImportRequest is one import of already parsed rows.
type ImportRequest struct {
	// Rows are numbered from 0 in input order.
	Rows []model.RawRow
	// UserID is stamped into the profile's creator and updater columns.
	UserID string
}

// Importer runs the import pipeline for any entity profile.
type Importer struct {
	store          port.RecordStore
	chunkListeners []port.ChunkListener
	reportSinks    []port.ReportSink
	runRecorder    port.RunRecorder
	metricRecorder metrics.MetricRecorder
	tracer         metrics.Tracer
	now            func() time.Time
}

// NewImporter creates an Importer writing to store.
func NewImporter(store port.RecordStore) *Importer {
	return &Importer{
		store:          store,
		metricRecorder: metrics.NewNoOpMetricRecorder(),
		tracer:         metrics.NewNoOpTracer(),
		now:            time.Now,
	}
}

// ImporterParams defines the dependencies for NewImporterProvider.
type ImporterParams struct {
	fx.In
	Store          port.RecordStore
	ChunkListeners []port.ChunkListener   `group:"chunk_listeners"`
	ReportSinks    []port.ReportSink      `group:"report_sinks"`
	RunRecorder    port.RunRecorder       `optional:"true"`
	MetricRecorder metrics.MetricRecorder `optional:"true"`
	Tracer         metrics.Tracer         `optional:"true"`
}

// NewImporterProvider is an Fx provider for *Importer.
func NewImporterProvider(p ImporterParams) *Importer {
	imp := NewImporter(p.Store)
	for _, l := range p.ChunkListeners {
		if l != nil {
			imp.RegisterChunkListener(l)
		}
	}
	for _, s := range p.ReportSinks {
		if s != nil {
			imp.RegisterReportSink(s)
		}
	}
	imp.SetRunRecorder(p.RunRecorder)
	imp.SetMetricRecorder(p.MetricRecorder)
	imp.SetTracer(p.Tracer)
	return imp
}

// RegisterChunkListener adds a listener to every ChunkWriter the importer creates.
func (i *Importer) RegisterChunkListener(l port.ChunkListener) {
	i.chunkListeners = append(i.chunkListeners, l)
}

// RegisterReportSink adds a sink receiving every finished report.
func (i *Importer) RegisterReportSink(s port.ReportSink) {
	i.reportSinks = append(i.reportSinks, s)
}

// SetRunRecorder sets the recorder of import runs. nil disables it.
func (i *Importer) SetRunRecorder(r port.RunRecorder) {
	i.runRecorder = r
}

// SetMetricRecorder sets the MetricRecorder.
func (i *Importer) SetMetricRecorder(recorder metrics.MetricRecorder) {
	if recorder != nil {
		i.metricRecorder = recorder
	}
}

// SetTracer sets the Tracer.
func (i *Importer) SetTracer(tracer metrics.Tracer) {
	if tracer != nil {
		i.tracer = tracer
	}
}

// Import normalizes req.Rows against profile, inserts the records whose business
// key is new and updates the others.
//
// Row problems never fail the import: they are listed in the report. The error
// is a *exception.BatchError wrapping ErrInvalidProfile, ErrMissingActor or
// ErrSnapshotFailed when nothing could be written, and ErrImportCancelled when
// ctx ended between two chunks. In the latter case the report is still complete.
func (i *Importer) Import(ctx context.Context, profile model.EntityProfile, req ImportRequest) (model.ImportReport, error) {
	startedAt := i.now()
	profile = profile.WithDefaults()

	if err := profile.Validate(); err != nil {
		return emptyReport(), exception.NewBatchError(moduleName,
			fmt.Sprintf("entity '%s' cannot be imported", profile.Name), fmt.Errorf("%w: %w", ErrInvalidProfile, err), false, false)
	}
	if profile.RequiresActor() && req.UserID == "" {
		return emptyReport(), exception.NewBatchError(moduleName,
			fmt.Sprintf("entity '%s' cannot be imported", profile.Name), ErrMissingActor, false, false)
	}

	ctx, endSpan := i.tracer.StartImportSpan(ctx, profile.Name, len(req.Rows))
	defer endSpan()
	logger.Infof("Importer: importing %d rows into '%s'.", len(req.Rows), profile.Name)

	records, validationErrs := normalize.NewNormalizer(profile.Fields).NormalizeAll(req.Rows)
	records, duplicateErrs := keyresolve.DetectDuplicates(records, profile.KeyFields, profile.DuplicateMessage)
	validationErrs = append(validationErrs, duplicateErrs...)
	i.metricRecorder.RecordRowsNormalized(ctx, profile.Name, len(records), len(req.Rows)-len(records))
	logger.Debugf("Importer '%s': %d valid records, %d validation errors.", profile.Name, len(records), len(validationErrs))

	existing, err := i.store.LoadExisting(ctx, profile.Target(), profile.KeyFields)
	if err != nil {
		i.tracer.RecordError(ctx, moduleName, err)
		return emptyReport(), exception.NewBatchError(moduleName,
			fmt.Sprintf("entity '%s': nothing was written", profile.Name), fmt.Errorf("%w: %w", ErrSnapshotFailed, err), false, true)
	}
	index := keyresolve.BuildKeyIndex(existing, profile.KeyFields)
	plan := split.Split(records, index, split.OptionsFor(profile, req.UserID))
	logger.Debugf("Importer '%s': %d inserts, %d updates planned against %d existing records.",
		profile.Name, len(plan.Inserts), len(plan.Updates), len(existing))

	writer := i.newWriter(profile)
	outcomes, writeErr := writer.WriteInserts(ctx, plan.Inserts)
	updated, updateErr := writer.WriteUpdates(ctx, plan.Updates)
	outcomes = append(outcomes, updated...)
	if writeErr == nil {
		writeErr = updateErr
	}

	summary := report.Aggregate(validationErrs, outcomes)
	result := summary.Report()

	run := model.ImportRun{
		ID:         uuid.NewString(),
		Entity:     profile.Name,
		Actor:      req.UserID,
		TotalRows:  len(req.Rows),
		Inserted:   result.Inserted,
		Updated:    result.Updated,
		Failed:     result.Failed(),
		Status:     runStatus(result, writeErr),
		StartedAt:  startedAt,
		FinishedAt: i.now(),
	}
	i.metricRecorder.RecordDuration(ctx, profile.Name, "import", run.FinishedAt.Sub(run.StartedAt))
	i.publish(context.WithoutCancel(ctx), run, result)

	logger.Infof("Importer: '%s' finished with status %s (run %s): %d inserted, %d updated, %d failed of %d rows.",
		profile.Name, run.Status, run.ID, run.Inserted, run.Updated, run.Failed, run.TotalRows)

	if writeErr != nil {
		return result, exception.NewBatchError(moduleName,
			fmt.Sprintf("entity '%s': import stopped before every row was written", profile.Name), fmt.Errorf("%w: %w", ErrImportCancelled, writeErr), false, false)
	}
	return result, nil
}

func (i *Importer) newWriter(profile model.EntityProfile) *item.ChunkWriter {
	w := item.NewChunkWriter(i.store, profile.Target(), profile.Name, profile.ChunkSize)
	w.SetMetricRecorder(i.metricRecorder)
	w.SetTracer(i.tracer)
	for _, l := range i.chunkListeners {
		w.RegisterChunkListener(l)
	}
	return w
}

// publish hands the finished run to the sinks and the run recorder.
// Their failures are logged only.
func (i *Importer) publish(ctx context.Context, run model.ImportRun, result model.ImportReport) {
	var sinkErrs *multierror.Error
	for _, s := range i.reportSinks {
		if err := s.Consume(ctx, run, result); err != nil {
			sinkErrs = multierror.Append(sinkErrs, err)
		}
	}
	if err := sinkErrs.ErrorOrNil(); err != nil {
		logger.Warnf("Importer '%s': report sinks failed for run %s: %v", run.Entity, run.ID, err)
	}

	if i.runRecorder == nil {
		return
	}
	if err := i.runRecorder.SaveRun(ctx, run); err != nil {
		logger.Errorf("Importer '%s': failed to record run %s: %v", run.Entity, run.ID, err)
	}
}

func runStatus(result model.ImportReport, writeErr error) model.RunStatus {
	switch {
	case writeErr != nil:
		return model.RunCancelled
	case result.Succeeded():
		return model.RunCompleted
	default:
		return model.RunCompletedWithError
	}
}

func emptyReport() model.ImportReport {
	return model.ImportReport{Errors: []model.RowError{}}
}
