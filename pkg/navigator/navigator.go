// Package navigator walks the clinical UI patient by patient: login, search,
// clinical history (one detail surface per qualifying row) and management plan.
//
// One browser session is shared by the whole batch and is driven from a single
// goroutine. Every wait is bounded by a per-step timeout; a timeout fails the
// current patient only, except during login where it aborts the batch.
package navigator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/synaptica-ai/chart-extractor/pkg/assembler"
	"github.com/synaptica-ai/chart-extractor/pkg/classifier"
	"github.com/synaptica-ai/chart-extractor/pkg/common/config"
	"github.com/synaptica-ai/chart-extractor/pkg/common/logger"
	"github.com/synaptica-ai/chart-extractor/pkg/common/models"
	"github.com/synaptica-ai/chart-extractor/pkg/parser"
)

// Failure is a patient skipped after a scoped error.
type Failure struct {
	PatientID string `json:"patient_id"`
	Kind      string `json:"kind"`
	Err       error  `json:"-"`
	Message   string `json:"message"`
}

// Result holds every record extracted before Run returned, even when it aborted.
type Result struct {
	Records  []*models.PatientRecord
	Failures []Failure
}

type Navigator struct {
	driver     Driver
	sel        Selectors
	parser     *parser.Parser
	classifier *classifier.Classifier
	assembler  *assembler.Assembler

	baseURL        string
	user           string
	password       string
	stepTimeout    time.Duration
	emergencyClose time.Duration
	poll           time.Duration
	attempts       int
	diagnosticsDir string
	now            func() time.Time

	machine machine
}

type Option func(*Navigator)

func WithClock(now func() time.Time) Option {
	return func(n *Navigator) { n.now = now }
}

func New(driver Driver, cfg *config.Config, p *parser.Parser, c *classifier.Classifier, a *assembler.Assembler, opts ...Option) *Navigator {
	n := &Navigator{
		driver:         driver,
		sel:            DefaultSelectors(),
		parser:         p,
		classifier:     c,
		assembler:      a,
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		user:           cfg.User,
		password:       cfg.Password,
		stepTimeout:    cfg.StepTimeout,
		emergencyClose: cfg.EmergencyCloseTimeout,
		poll:           cfg.PollInterval,
		attempts:       cfg.PatientAttempts,
		diagnosticsDir: cfg.DiagnosticsDir,
		now:            time.Now,
	}
	if n.attempts < 1 {
		n.attempts = 1
	}
	if n.poll <= 0 {
		n.poll = 250 * time.Millisecond
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

func (n *Navigator) State() State {
	return n.machine.Current()
}

// Run extracts every identifier in order. Scoped failures are recorded and the
// batch continues; a fatal error captures diagnostics and is returned together
// with whatever was extracted so far.
func (n *Navigator) Run(ctx context.Context, ids []string) (*Result, error) {
	res := &Result{Records: []*models.PatientRecord{}, Failures: []Failure{}}

	if err := n.Login(ctx); err != nil {
		n.captureDiagnostics(ctx, err)
		return res, err
	}

	for i, id := range ids {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		log := logger.ForPatient(id).WithField("position", fmt.Sprintf("%d/%d", i+1, len(ids)))
		log.Info("Extracting patient")

		rec, err := n.extractWithRetry(ctx, id, log)
		if err == nil {
			res.Records = append(res.Records, rec)
			continue
		}
		if IsFatal(err) || ctx.Err() != nil {
			n.captureDiagnostics(ctx, err)
			return res, err
		}
		log.WithError(err).WithField("kind", KindOf(err)).Error("Patient skipped")
		res.Failures = append(res.Failures, Failure{PatientID: id, Kind: KindOf(err), Err: err, Message: err.Error()})
	}
	return res, nil
}

func (n *Navigator) extractWithRetry(ctx context.Context, id string, log *logrus.Entry) (*models.PatientRecord, error) {
	var lastErr error
	for attempt := 1; attempt <= n.attempts; attempt++ {
		rec, err := n.Extract(ctx, id)
		if resetErr := n.Reset(ctx); resetErr != nil {
			if IsFatal(resetErr) {
				return nil, resetErr
			}
			log.WithError(resetErr).Warn("Return to desk failed")
		}
		if err == nil {
			return rec, nil
		}
		if IsFatal(err) {
			return nil, err
		}
		lastErr = err
		if attempt < n.attempts {
			log.WithError(err).WithField("attempt", attempt).Warn("Patient extraction failed, retrying")
		}
	}
	return nil, lastErr
}

// Login authenticates the shared session. Any failure here is ErrAuthentication
// unless the driver itself is gone.
func (n *Navigator) Login(ctx context.Context) error {
	err := n.step(ctx, "", "login", ErrAuthentication, func(ctx context.Context) error {
		if err := n.driver.Navigate(ctx, n.baseURL+n.sel.LoginPath); err != nil {
			return err
		}
		if err := n.driver.WaitVisible(ctx, n.sel.Email); err != nil {
			return err
		}
		if err := n.driver.SendKeys(ctx, n.sel.Email, n.user); err != nil {
			return err
		}
		if err := n.driver.SendKeys(ctx, n.sel.Password, n.password); err != nil {
			return err
		}
		if err := n.driver.Click(ctx, n.sel.Submit); err != nil {
			return err
		}
		return n.driver.WaitVisible(ctx, n.sel.Desk)
	})
	if err != nil {
		return err
	}
	logger.Log.Info("Logged in")
	return n.machine.To(StateLoggedIn)
}

// Reset returns to the desk screen so no overlay or tab state leaks into the
// next patient.
func (n *Navigator) Reset(ctx context.Context) error {
	err := n.step(ctx, "", "reset", ErrNavigationTimeout, func(ctx context.Context) error {
		if err := n.driver.Navigate(ctx, n.baseURL); err != nil {
			return err
		}
		return n.driver.WaitVisible(ctx, n.sel.Desk)
	})
	if err != nil {
		return err
	}
	return n.machine.To(StateLoggedIn)
}

// Extract reads one patient from the desk screen.
func (n *Navigator) Extract(ctx context.Context, id string) (*models.PatientRecord, error) {
	if n.machine.Current() != StateLoggedIn {
		if err := n.Reset(ctx); err != nil {
			return nil, err
		}
	}
	if err := n.machine.To(StateSearchPending); err != nil {
		return nil, err
	}

	err := n.step(ctx, id, "search", ErrNavigationTimeout, func(ctx context.Context) error {
		if err := n.driver.WaitVisible(ctx, n.sel.SearchInput); err != nil {
			return err
		}
		return n.driver.SendKeys(ctx, n.sel.SearchInput, id)
	})
	if err != nil {
		return nil, err
	}

	err = n.step(ctx, id, "search-result", ErrPatientNotFound, func(ctx context.Context) error {
		result := n.sel.SearchResultFor(id)
		if err := n.driver.WaitVisible(ctx, result); err != nil {
			return err
		}
		return n.driver.Click(ctx, result)
	})
	if err != nil {
		return nil, err
	}

	err = n.step(ctx, id, "patient-load", ErrNavigationTimeout, func(ctx context.Context) error {
		return n.waitLocation(ctx, n.sel.PatientPath)
	})
	if err != nil {
		return nil, err
	}
	if err := n.machine.To(StatePatientLoaded); err != nil {
		return nil, err
	}

	rec := models.NewPatientRecord(id, n.displayName(ctx, id))

	if err := n.readHistory(ctx, rec); err != nil {
		return nil, err
	}
	if err := n.readPlan(ctx, rec); err != nil {
		return nil, err
	}
	if err := n.machine.To(StateIdle); err != nil {
		return nil, err
	}

	logger.ForPatient(id).WithFields(map[string]interface{}{
		"medical":         len(rec.Encounters[models.KindMedical]),
		"pharmacological": len(rec.Encounters[models.KindPharmacological]),
		"prescriptions":   len(rec.Plan.Prescriptions),
		"warnings":        len(rec.Warnings),
	}).Info("Patient extracted")
	return rec, nil
}

func (n *Navigator) displayName(ctx context.Context, id string) string {
	var markup string
	err := n.step(ctx, id, "patient-header", ErrNavigationTimeout, func(ctx context.Context) error {
		var err error
		markup, err = n.driver.HTML(ctx, n.sel.PatientHeader)
		return err
	})
	if err != nil {
		logger.ForPatient(id).WithError(err).Warn("Patient header not readable")
	}
	return assembler.ParseDisplayName(markup, id)
}

func (n *Navigator) readHistory(ctx context.Context, rec *models.PatientRecord) error {
	id := rec.Identifier
	err := n.step(ctx, id, "history-tab", ErrNavigationTimeout, func(ctx context.Context) error {
		return n.driver.Click(ctx, n.sel.HistoryTab)
	})
	if err != nil {
		return err
	}
	if err := n.machine.To(StateHistoryTab); err != nil {
		return err
	}

	var markup string
	err = n.step(ctx, id, "history-rows", ErrNavigationTimeout, func(ctx context.Context) error {
		if err := n.driver.WaitVisible(ctx, n.sel.HistoryRows); err != nil {
			return err
		}
		var err error
		markup, err = n.driver.HTML(ctx, n.sel.HistoryTable)
		return err
	})
	if err != nil {
		if IsFatal(err) {
			return err
		}
		rec.Warn("clinical history has no rows")
		logger.ForPatient(id).WithError(err).Warn("No clinical history rows found")
		return nil
	}

	rows, err := assembler.ParseHistoryRows(markup)
	if err != nil {
		rec.Warn(fmt.Sprintf("clinical history not parseable: %v", err))
		return nil
	}

	for _, row := range rows {
		kind := n.classifier.Classify(row.SubActivity)
		if kind == models.KindUnclassified {
			continue
		}
		log := logger.ForPatient(id).WithFields(map[string]interface{}{"row": row.Index, "kind": kind})
		if !row.HasDetail {
			rec.Warn(fmt.Sprintf("row %d (%s) has no detail control", row.Index, row.SubActivity))
			log.Warn("Qualifying row without detail control skipped")
			continue
		}
		if err := n.readEncounter(ctx, rec, kind, row); err != nil {
			if IsFatal(err) || errors.Is(err, ErrDetailSurfaceStuck) {
				return err
			}
			rec.Warn(fmt.Sprintf("row %d: %v", row.Index, err))
			log.WithError(err).Warn("Encounter skipped")
		}
	}
	return nil
}

// readEncounter opens the detail surface of row, parses it and closes it. A
// surface that survives both the close and one emergency close is reported as
// ErrDetailSurfaceStuck.
func (n *Navigator) readEncounter(ctx context.Context, rec *models.PatientRecord, kind models.ProfessionalKind, row assembler.HistoryRow) error {
	id := rec.Identifier
	err := n.step(ctx, id, "open-detail", ErrNavigationTimeout, func(ctx context.Context) error {
		if err := n.driver.Click(ctx, n.sel.DetailButtonFor(row.Index)); err != nil {
			return err
		}
		return n.driver.WaitVisible(ctx, n.sel.Modal)
	})
	if err != nil {
		if IsFatal(err) {
			return err
		}
		if closeErr := n.emergencyCloseDetail(ctx, id); closeErr != nil {
			return closeErr
		}
		return err
	}
	if err := n.machine.To(StateModalOpen); err != nil {
		return err
	}

	var markup string
	readErr := n.step(ctx, id, "read-detail", ErrNavigationTimeout, func(ctx context.Context) error {
		var err error
		markup, err = n.driver.HTML(ctx, n.sel.Modal)
		return err
	})
	if readErr != nil && IsFatal(readErr) {
		return readErr
	}

	closeErr := n.step(ctx, id, "close-detail", ErrDetailSurfaceStuck, func(ctx context.Context) error {
		if err := n.driver.Click(ctx, n.sel.ModalClose); err != nil {
			return err
		}
		return n.driver.WaitNotPresent(ctx, n.sel.Modal)
	})
	if closeErr != nil {
		if IsFatal(closeErr) {
			return closeErr
		}
		logger.ForPatient(id).WithError(closeErr).WithField("row", row.Index).Warn("Detail surface did not close")
		if err := n.emergencyCloseDetail(ctx, id); err != nil {
			return err
		}
	}
	if err := n.machine.To(StateModalClosed); err != nil {
		return err
	}

	if readErr != nil {
		return readErr
	}
	sections, err := n.parser.ParseSections(markup)
	if err != nil {
		return err
	}
	n.assembler.AppendEncounter(rec, kind, row, sections)
	return nil
}

// emergencyCloseDetail is attempted exactly once per failing row. It succeeds
// when no detail surface remains, whether or not the close control was found.
func (n *Navigator) emergencyCloseDetail(ctx context.Context, id string) error {
	clickCtx, cancelClick := context.WithTimeout(ctx, n.emergencyClose)
	clickErr := n.driver.Click(clickCtx, n.sel.EmergencyClose)
	cancelClick()
	if errors.Is(clickErr, ErrSessionLost) {
		return &StepError{Kind: ErrSessionLost, Step: "emergency-close", PatientID: id, Err: clickErr}
	}

	checkCtx, cancelCheck := context.WithTimeout(ctx, n.emergencyClose)
	defer cancelCheck()
	goneErr := n.driver.WaitNotPresent(checkCtx, n.sel.Modal)
	if goneErr == nil {
		return nil
	}
	kind := ErrDetailSurfaceStuck
	if errors.Is(goneErr, ErrSessionLost) {
		kind = ErrSessionLost
	}
	return &StepError{Kind: kind, Step: "emergency-close", PatientID: id, Err: errors.Join(clickErr, goneErr)}
}

func (n *Navigator) readPlan(ctx context.Context, rec *models.PatientRecord) error {
	id := rec.Identifier
	var markup string
	err := n.step(ctx, id, "plan-tab", ErrNavigationTimeout, func(ctx context.Context) error {
		if err := n.driver.Click(ctx, n.sel.PlanTab); err != nil {
			return err
		}
		if err := n.driver.WaitVisible(ctx, n.sel.PlanTables); err != nil {
			return err
		}
		var err error
		markup, err = n.driver.PageHTML(ctx)
		return err
	})
	if err != nil {
		if IsFatal(err) {
			return err
		}
		rec.Warn(fmt.Sprintf("management plan not read: %v", err))
		logger.ForPatient(id).WithError(err).Warn("Management plan not read")
		return n.machine.To(StatePlanTab)
	}
	if err := n.machine.To(StatePlanTab); err != nil {
		return err
	}

	plan, err := assembler.ParsePlan(markup)
	if err != nil {
		rec.Warn(fmt.Sprintf("management plan not parseable: %v", err))
		return nil
	}
	n.assembler.SetPlan(rec, plan)
	return nil
}

// step runs fn under its own timeout and classifies any failure as kind, unless
// the session is gone or the run itself was cancelled.
func (n *Navigator) step(ctx context.Context, patientID, name string, kind error, fn func(context.Context) error) error {
	stepCtx, cancel := context.WithTimeout(ctx, n.stepTimeout)
	defer cancel()

	logger.Log.WithFields(map[string]interface{}{
		"patient_id": patientID,
		"step":       name,
		"state":      n.machine.Current().String(),
	}).Debug("Navigation step")

	err := fn(stepCtx)
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrSessionLost) {
		kind = ErrSessionLost
	} else if ctx.Err() != nil {
		return ctx.Err()
	}
	return &StepError{Kind: kind, Step: name, PatientID: patientID, Err: err}
}

func (n *Navigator) waitLocation(ctx context.Context, fragment string) error {
	ticker := time.NewTicker(n.poll)
	defer ticker.Stop()
	for {
		loc, err := n.driver.Location(ctx)
		if err != nil {
			return err
		}
		if strings.Contains(loc, fragment) {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
