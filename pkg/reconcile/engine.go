// Package reconcile keeps the local mirror and the remote task store in sync.
// A run executes exactly one mode: full replace, compare-only or push.
package reconcile

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/harrisonrobin/plannersync/pkg/colors"
	"github.com/harrisonrobin/plannersync/pkg/fetch"
	"github.com/harrisonrobin/plannersync/pkg/index"
	"github.com/harrisonrobin/plannersync/pkg/log"
	"github.com/harrisonrobin/plannersync/pkg/mirror"
	"github.com/harrisonrobin/plannersync/pkg/model"
	"github.com/harrisonrobin/plannersync/pkg/planner"
)

// Fetcher produces a remote snapshot.
type Fetcher interface {
	Fetch(ctx context.Context) (*fetch.Result, error)
}

// Updater performs conditional task writes on the remote store.
type Updater interface {
	UpdateTask(ctx context.Context, taskID string, patch planner.TaskPatch, etag string) (string, error)
}

// EngineConfig is the configuration of the Engine.
type EngineConfig struct {
	Fetcher Fetcher
	Remote  Updater
	Mirror  mirror.Mirror
	Logger  log.Logger
	// NewSessionID defaults to a ULID generator.
	NewSessionID func() string
}

func (c *EngineConfig) defaults() error {
	if c.Fetcher == nil {
		return fmt.Errorf("fetcher is required")
	}
	if c.Remote == nil {
		return fmt.Errorf("remote is required")
	}
	if c.Mirror == nil {
		return fmt.Errorf("mirror is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	if c.NewSessionID == nil {
		c.NewSessionID = func() string {
			return ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
		}
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "reconcile.Engine"})
	return nil
}

// Engine orchestrates sync runs.
type Engine struct {
	fetcher      Fetcher
	remote       Updater
	mirror       mirror.Mirror
	logger       log.Logger
	newSessionID func() string
}

// NewEngine returns a new Engine.
func NewEngine(cfg EngineConfig) (*Engine, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &Engine{
		fetcher:      cfg.Fetcher,
		remote:       cfg.Remote,
		mirror:       cfg.Mirror,
		logger:       cfg.Logger,
		newSessionID: cfg.NewSessionID,
	}, nil
}

// session is the ephemeral view of one run. Nothing in it outlives the run.
type session struct {
	id      string
	mode    Mode
	logger  log.Logger
	remote  *fetch.Result
	header  *mirror.Header
	records []model.MirrorRecord
	rows    *index.RowIndex
	report  *Report
}

// Run validates mode and executes it. Unknown modes fail with
// model.ErrUnknownMode before any remote or mirror access. The report is
// returned alongside aborting errors whenever partial progress was made.
func (e *Engine) Run(ctx context.Context, mode string) (*Report, error) {
	m, err := ParseMode(mode)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	s := &session{
		id:     e.newSessionID(),
		mode:   m,
		report: &Report{Mode: m},
	}
	s.report.SessionID = s.id
	ctx = e.logger.SetValuesOnCtx(ctx, log.Kv{"session": s.id, "mode": string(m)})
	s.logger = e.logger.WithCtxValues(ctx)
	s.logger.Infof("sync run starting")

	switch m {
	case ModeFull:
		err = e.full(ctx, s)
	case ModeCompare:
		err = e.compare(ctx, s)
	case ModePush:
		err = e.push(ctx, s)
	}

	s.report.Duration = time.Since(start)
	if err != nil {
		s.logger.Errorf("sync run aborted: %v", err)
		return s.report, err
	}
	s.logger.Infof("sync run finished in %s", s.report.Duration)
	return s.report, nil
}

// fetchRemote loads the remote snapshot into the session.
func (e *Engine) fetchRemote(ctx context.Context, s *session) error {
	res, err := e.fetcher.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("could not fetch remote state: %w", err)
	}
	s.remote = res
	s.report.Fetched = len(res.Tasks)
	s.report.SkippedNodes = len(res.Failures)
	s.report.Errors = append(s.report.Errors, res.Failures...)
	return nil
}

// loadHeader reads the mirror header and extends it with the base columns and
// every dynamic tag column of the snapshot. It reports whether the header
// differs from what the mirror holds.
func (e *Engine) loadHeader(ctx context.Context, s *session) (bool, error) {
	cols, err := e.mirror.ReadHeader(ctx)
	if err != nil {
		return false, fmt.Errorf("%w: could not read header: %w", model.ErrMirrorIO, err)
	}

	s.header = mirror.NewHeader(cols)
	changed := s.header.Extend(mirror.BaseColumns...)

	if s.remote != nil {
		var dynamic []string
		for _, k := range s.remote.TagKeys {
			if mirror.IsFieldColumn(k) {
				continue
			}
			if _, ok := s.header.Index(k); !ok {
				dynamic = append(dynamic, k)
			}
		}
		if s.header.Extend(dynamic...) {
			s.report.ColumnsAdded = dynamic
			changed = true
		}
	}

	return changed, nil
}

// loadRows reads the mirror data rows and indexes them by task id.
func (e *Engine) loadRows(ctx context.Context, s *session) error {
	rows, err := e.mirror.ReadRows(ctx)
	if err != nil {
		return fmt.Errorf("%w: could not read rows: %w", model.ErrMirrorIO, err)
	}

	s.rows = index.NewRowIndex()
	s.records = make([]model.MirrorRecord, 0, len(rows))
	for i, cells := range rows {
		rec := s.header.Record(i, cells)
		s.records = append(s.records, rec)
		s.rows.Add(rec.ID, i)
	}
	s.logger.Debugf("indexed %d of %d mirror rows", s.rows.Len(), len(rows))
	for id, dups := range s.rows.Duplicates() {
		s.logger.Warningf("task %s appears in %d extra rows %v, only the first is synced", id, len(dups), dups)
	}
	return nil
}

// full replaces the mirror with the remote snapshot: remote wins, no conflict
// detection, unpushed local edits are discarded.
func (e *Engine) full(ctx context.Context, s *session) error {
	if err := e.fetchRemote(ctx, s); err != nil {
		return err
	}
	if _, err := e.loadHeader(ctx, s); err != nil {
		return err
	}

	if err := e.mirror.ReplaceHeader(ctx, s.header.Columns()); err != nil {
		return fmt.Errorf("%w: could not write header: %w", model.ErrMirrorIO, err)
	}

	data := make([][]string, 0, len(s.remote.Tasks))
	for _, t := range s.remote.Tasks {
		data = append(data, s.header.Row(t))
	}
	if err := e.mirror.ReplaceData(ctx, data); err != nil {
		return fmt.Errorf("%w: could not write rows: %w", model.ErrMirrorIO, err)
	}
	s.report.RowsWritten = len(data)

	s.logger.Infof("full sync wrote %d rows", len(data))
	return nil
}

// compare classifies every mirror row that has a remote counterpart and
// highlights it. Task data is never modified.
func (e *Engine) compare(ctx context.Context, s *session) error {
	if err := e.fetchRemote(ctx, s); err != nil {
		return err
	}
	changed, err := e.loadHeader(ctx, s)
	if err != nil {
		return err
	}
	if err := e.loadRows(ctx, s); err != nil {
		return err
	}

	if changed {
		if err := e.mirror.ReplaceHeader(ctx, s.header.Columns()); err != nil {
			return fmt.Errorf("%w: could not write header: %w", model.ErrMirrorIO, err)
		}
	}

	for _, t := range s.remote.Tasks {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("compare cancelled: %w", err)
		}

		row, ok := s.rows.Get(t.ID)
		if !ok {
			s.report.Unmatched++
			continue
		}

		class := classify(t, s.records[row])
		if err := e.mirror.SetRowColor(ctx, row, colors.ForClassification(class)); err != nil {
			return fmt.Errorf("%w: could not highlight row %d: %w", model.ErrMirrorIO, row, err)
		}
		s.report.count(class)
		s.logger.Debugf("task %s classified as %s", t.ID, class)
	}

	s.logger.Infof("compare: %d in sync, %d remote newer, %d local newer, %d conflicts",
		s.report.InSync, s.report.RemoteNewer, s.report.LocalNewer, s.report.Conflicts)
	return nil
}

// classify compares a remote task with its mirror row. The remote side changed
// when the version token moved; the local side changed when title or status
// differ. Tag columns are not compared.
func classify(t model.RemoteTask, rec model.MirrorRecord) model.Classification {
	remoteChanged := t.VersionToken != rec.VersionToken
	localChanged := rec.Title != t.Title || rec.Status != t.Status()
	return model.Classify(remoteChanged, localChanged)
}

// push writes title and status of every identified mirror row back to the
// remote store, guarded by the row's stored version token. Stale tokens mark
// the row as conflict; other row failures are counted and skipped.
func (e *Engine) push(ctx context.Context, s *session) error {
	if _, err := e.loadHeader(ctx, s); err != nil {
		return err
	}
	if err := e.loadRows(ctx, s); err != nil {
		return err
	}

	for _, rec := range s.records {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("push cancelled: %w", err)
		}

		if row, ok := s.rows.Get(rec.ID); !ok || row != rec.Row || rec.VersionToken == "" {
			s.report.SkippedRows++
			continue
		}

		err := e.pushRow(ctx, s, rec)
		switch {
		case err == nil:
			s.report.Pushed++
		case errors.Is(err, model.ErrMirrorIO), errors.Is(err, model.ErrAuthUnavailable):
			return err
		case errors.Is(err, model.ErrPreconditionFailed):
			s.logger.Warningf("task %s changed remotely, row %d marked as conflict", rec.ID, rec.Row)
			if err := e.mirror.SetRowColor(ctx, rec.Row, colors.Conflict); err != nil {
				return fmt.Errorf("%w: could not highlight row %d: %w", model.ErrMirrorIO, rec.Row, err)
			}
			s.report.Conflicted++
		default:
			s.logger.Warningf("could not push task %s: %v", rec.ID, err)
			s.report.Errored++
			s.report.Errors = append(s.report.Errors, fmt.Errorf("task %s: %w", rec.ID, err))
		}
	}

	s.logger.Infof("push: %d pushed, %d conflicts, %d errors", s.report.Pushed, s.report.Conflicted, s.report.Errored)
	return nil
}

func (e *Engine) pushRow(ctx context.Context, s *session, rec model.MirrorRecord) error {
	title := rec.Title
	percent := rec.Status.Percent()
	patch := planner.TaskPatch{Title: &title, PercentComplete: &percent}

	newTag, err := e.remote.UpdateTask(ctx, rec.ID, patch, rec.VersionToken)
	if err != nil {
		return err
	}
	if newTag == "" || newTag == rec.VersionToken {
		return nil
	}

	if err := e.mirror.SetCell(ctx, mirror.ColumnETag, rec.Row, newTag); err != nil {
		return fmt.Errorf("%w: could not store new token for row %d: %w", model.ErrMirrorIO, rec.Row, err)
	}
	return nil
}
