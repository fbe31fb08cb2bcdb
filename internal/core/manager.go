package core

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/absfs/absfs"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/illarion/icmsf/internal/crypto"
	"github.com/illarion/icmsf/internal/format"
	"github.com/illarion/icmsf/internal/logging"
	"github.com/illarion/icmsf/internal/profile"
)

const (
	FilePermSecure   = 0600 // File: owner rw only
	FileExtension    = ".icmsf"
	MaxContainerSize = 16 << 20

	tracerName = "github.com/illarion/icmsf/internal/core"
)

// Manager reads and writes profile containers on a filesystem.
type Manager struct {
	fs     absfs.FileSystem
	logger *logrus.Logger
	tracer trace.Tracer
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithLogger sets the logger. The default discards output.
func WithLogger(l *logrus.Logger) ManagerOption {
	return func(m *Manager) {
		m.logger = l
	}
}

// WithTracer sets the tracer. The default comes from the global provider.
func WithTracer(t trace.Tracer) ManagerOption {
	return func(m *Manager) {
		m.tracer = t
	}
}

// NewManager creates a Manager over fs.
func NewManager(fs absfs.FileSystem, opts ...ManagerOption) *Manager {
	m := &Manager{fs: fs}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = logging.Discard()
	}
	if m.tracer == nil {
		m.tracer = otel.Tracer(tracerName)
	}
	return m
}

// ExportResult describes a written container.
type ExportResult struct {
	Location string
	Version  format.Version
	Size     int
}

// Export seals p under password and writes it to location with mode 0600.
// Nothing is written when sealing fails.
func (m *Manager) Export(ctx context.Context, p *profile.Profile, password []byte, location string) (*ExportResult, error) {
	ctx, span := m.tracer.Start(ctx, "icmsf.export", trace.WithAttributes(
		attribute.String("icmsf.location", location),
	))
	defer span.End()

	data, err := Seal(p, password)
	if err != nil {
		return nil, m.fail(span, "export", location, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, m.fail(span, "export", location, err)
	}

	if err := m.writeFile(location, data); err != nil {
		return nil, m.fail(span, "export", location, err)
	}

	result := &ExportResult{
		Location: location,
		Version:  format.VersionCurrent,
		Size:     len(data),
	}
	span.SetAttributes(
		attribute.String("icmsf.version", result.Version.String()),
		attribute.Int("icmsf.size", result.Size),
	)
	span.SetStatus(codes.Ok, "")
	m.logger.WithFields(logrus.Fields{
		"location": location,
		"version":  result.Version.String(),
		"size":     result.Size,
	}).Info("Exported profile")

	return result, nil
}

func (m *Manager) writeFile(location string, data []byte) error {
	f, err := m.fs.OpenFile(location, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, FilePermSecure)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", location, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", location, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", location, err)
	}

	// OpenFile keeps the mode of a file that already existed.
	if err := m.fs.Chmod(location, FilePermSecure); err != nil {
		m.logger.WithError(err).WithField("location", location).Warn("Could not restrict file permissions")
	}
	return nil
}

// Import reads the container at location and opens it with password.
func (m *Manager) Import(ctx context.Context, location string, password []byte, opts ...OpenOption) (*profile.Profile, error) {
	ctx, span := m.tracer.Start(ctx, "icmsf.import", trace.WithAttributes(
		attribute.String("icmsf.location", location),
	))
	defer span.End()

	data, err := m.readFile(location)
	if err != nil {
		return nil, m.fail(span, "import", location, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, m.fail(span, "import", location, err)
	}

	p, err := Open(data, password, opts...)
	if err != nil {
		return nil, m.fail(span, "import", location, err)
	}

	span.SetAttributes(attribute.Int("icmsf.size", len(data)))
	span.SetStatus(codes.Ok, "")
	m.logger.WithFields(logrus.Fields{
		"location": location,
		"size":     len(data),
	}).Info("Imported profile")

	return p, nil
}

// InspectFile reports the header of the container at location.
func (m *Manager) InspectFile(ctx context.Context, location string, opts ...OpenOption) (*format.Header, error) {
	_, span := m.tracer.Start(ctx, "icmsf.inspect", trace.WithAttributes(
		attribute.String("icmsf.location", location),
	))
	defer span.End()

	data, err := m.readFile(location)
	if err != nil {
		return nil, m.fail(span, "inspect", location, err)
	}
	h, err := Inspect(data, opts...)
	if err != nil {
		return nil, m.fail(span, "inspect", location, err)
	}
	span.SetAttributes(attribute.String("icmsf.version", h.Version.String()))
	return h, nil
}

func (m *Manager) readFile(location string) ([]byte, error) {
	f, err := m.fs.Open(location)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", location, err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, MaxContainerSize+1))
	if err != nil {
		crypto.ClearBytes(data)
		return nil, fmt.Errorf("failed to read %s: %w", location, err)
	}
	if len(data) > MaxContainerSize {
		return nil, fmt.Errorf("%w: file exceeds %d bytes", ErrMalformedContainer, MaxContainerSize)
	}
	return data, nil
}

func (m *Manager) fail(span trace.Span, op, location string, err error) error {
	kind := KindOf(err)
	span.RecordError(err)
	span.SetStatus(codes.Error, kind.String())
	m.logger.WithFields(logrus.Fields{
		"op":       op,
		"location": location,
		"kind":     kind.String(),
	}).Warn("Operation failed")
	return err
}
