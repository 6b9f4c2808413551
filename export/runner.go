package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Runner orchestrates export execution.
type Runner struct {
	Sources     *SourceRegistry
	Renderers   *RendererRegistry
	Output      OutputStore
	Tracker     ProgressTracker
	Logger      Logger
	Now         func() time.Time
	IDGenerator func() string

	// MaxBytes caps documents whose request leaves RenderOptions.MaxBytes
	// unset. Zero means unlimited.
	MaxBytes int64
}

// NewRunner creates a runner with the built-in data renderers registered.
// The HTML report renderer and entry sources live in adapter packages and
// are registered by the caller.
func NewRunner() *Runner {
	renderers := NewRendererRegistry()
	_ = renderers.Register(FormatCSV, CSVRenderer{})
	_ = renderers.Register(FormatJSON, JSONRenderer{Mode: JSONModeArray})
	_ = renderers.Register(FormatNDJSON, JSONRenderer{Mode: JSONModeLines})
	_ = renderers.Register(FormatXLSX, XLSXRenderer{})

	return &Runner{
		Sources:     NewSourceRegistry(),
		Renderers:   renderers,
		Logger:      NopLogger{},
		Now:         time.Now,
		IDGenerator: uuid.NewString,
	}
}

// Run executes one export: open the store, render every eligible entry into
// memory, then persist the finished document. Nothing is written when any
// step before persistence fails.
func (r *Runner) Run(ctx context.Context, req ExportRequest) (ExportResult, error) {
	if r == nil {
		return ExportResult{}, NewError(KindInternal, "runner is nil", nil)
	}
	if r.Sources == nil || r.Renderers == nil {
		return ExportResult{}, NewError(KindInternal, "runner registries are not configured", nil)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	r.applyDefaults()

	req, err := normalizeRequest(req)
	if err != nil {
		return ExportResult{}, err
	}
	if req.RenderOptions.MaxBytes <= 0 {
		req.RenderOptions.MaxBytes = r.MaxBytes
	}
	if req.Output == nil && r.Output == nil {
		return ExportResult{}, NewError(KindInternal, "output store is not configured", nil)
	}

	renderer, ok := r.Renderers.Resolve(req.Format)
	if !ok {
		return ExportResult{}, NewError(KindNotFound, fmt.Sprintf("renderer %q not registered", req.Format), nil)
	}
	factory, ok := r.Sources.Resolve(req.SourceKey)
	if !ok {
		return ExportResult{}, NewError(KindNotFound, fmt.Sprintf("source %q not registered", req.SourceKey), nil)
	}

	exportID := r.IDGenerator()
	if r.Tracker != nil {
		id, err := r.Tracker.Start(ctx, ExportRecord{
			ID:         exportID,
			StorePath:  req.StorePath,
			OutputPath: req.OutputPath,
			Format:     req.Format,
			State:      StateRunning,
			CreatedAt:  r.Now(),
		})
		if err != nil {
			return ExportResult{}, NewError(KindInternal, "export tracker start failed", err)
		}
		if id != "" {
			exportID = id
		}
	}

	startedAt := r.Now()
	r.Logger.Debugf("export %s: store=%s output=%s format=%s", exportID, req.StorePath, req.OutputPath, req.Format)

	result, err := r.run(ctx, exportID, req, factory, renderer)
	if err != nil {
		r.fail(ctx, exportID, err)
		return ExportResult{}, err
	}

	if r.Tracker != nil {
		if err := r.Tracker.Complete(ctx, exportID, RenderStats{Rows: result.Rows, Bytes: result.Bytes}); err != nil {
			r.Logger.Errorf("export %s: tracker complete failed: %v", exportID, err)
		}
	}
	r.Logger.Infof("export %s: wrote %d entries (%d bytes) to %s in %s",
		exportID, result.Rows, result.Bytes, outputLabel(req), r.Now().Sub(startedAt))
	return result, nil
}

func (r *Runner) run(ctx context.Context, exportID string, req ExportRequest, factory SourceFactory, renderer Renderer) (ExportResult, error) {
	source, err := factory(req)
	if err != nil {
		return ExportResult{}, err
	}

	iterator, err := source.Open(ctx, SourceSpec{Location: req.StorePath, Request: req})
	if err != nil {
		return ExportResult{}, err
	}
	release := closeOnce(iterator)
	defer func() {
		if err := release(); err != nil {
			r.Logger.Errorf("export %s: close source: %v", exportID, err)
		}
	}()

	buffer := NewLimitedBuffer(req.RenderOptions.MaxBytes)
	stats, err := renderer.Render(ctx, iterator, buffer, req.RenderOptions)
	if err != nil {
		return ExportResult{}, err
	}
	if err := release(); err != nil {
		r.Logger.Errorf("export %s: close source: %v", exportID, err)
	}

	written, err := r.persist(ctx, req, buffer.Bytes())
	if err != nil {
		return ExportResult{}, err
	}

	return ExportResult{
		ID:         exportID,
		Format:     req.Format,
		StorePath:  req.StorePath,
		OutputPath: req.OutputPath,
		Rows:       stats.Rows,
		Bytes:      written,
	}, nil
}

func (r *Runner) persist(ctx context.Context, req ExportRequest, document []byte) (int64, error) {
	if req.Output != nil {
		cw := &CountingWriter{W: req.Output}
		if _, err := io.Copy(cw, bytes.NewReader(document)); err != nil {
			return cw.Count, NewError(KindOutputWrite, "output write failed", err)
		}
		return cw.Count, nil
	}

	written, err := r.Output.Write(ctx, req.OutputPath, bytes.NewReader(document))
	if err != nil {
		var exportErr *ExportError
		if errors.As(err, &exportErr) {
			return written, err
		}
		return written, NewError(KindOutputWrite, fmt.Sprintf("write %s failed", req.OutputPath), err)
	}
	return written, nil
}

func (r *Runner) fail(ctx context.Context, exportID string, err error) {
	r.Logger.Errorf("export %s failed (%s): %v", exportID, KindFromError(err), err)
	if r.Tracker == nil {
		return
	}
	if trackErr := r.Tracker.Fail(ctx, exportID, err); trackErr != nil {
		r.Logger.Errorf("export %s: tracker fail failed: %v", exportID, trackErr)
	}
}

func (r *Runner) applyDefaults() {
	if r.Now == nil {
		r.Now = time.Now
	}
	if r.Logger == nil {
		r.Logger = NopLogger{}
	}
	if r.IDGenerator == nil {
		r.IDGenerator = uuid.NewString
	}
}

func normalizeRequest(req ExportRequest) (ExportRequest, error) {
	req.StorePath = strings.TrimSpace(req.StorePath)
	req.OutputPath = strings.TrimSpace(req.OutputPath)
	if req.StorePath == "" {
		return req, NewError(KindValidation, "store location is required", nil)
	}
	if req.OutputPath == "" && req.Output == nil {
		return req, NewError(KindValidation, "output path is required", nil)
	}
	req.Format = ResolveFormat(req)
	if req.SourceKey == "" {
		req.SourceKey = DefaultSourceKey
	}
	return req, nil
}

func outputLabel(req ExportRequest) string {
	if req.OutputPath != "" {
		return req.OutputPath
	}
	return "writer"
}

func closeOnce(it EntryIterator) func() error {
	var once sync.Once
	var err error
	return func() error {
		once.Do(func() {
			err = it.Close()
		})
		return err
	}
}

// NopLogger is a no-op logger.
type NopLogger struct{}

func (NopLogger) Debugf(string, ...any) {}
func (NopLogger) Infof(string, ...any)  {}
func (NopLogger) Errorf(string, ...any) {}
