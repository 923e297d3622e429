package cache

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/xitongsys/parquet-go/writer"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gopkg.in/yaml.v2"

	"powerstats/internal/config"
	apperrors "powerstats/internal/errors"
	"powerstats/internal/files"
	"powerstats/internal/infrastructure"
)

const parallelism = 4

// Lookup results, also used as metric labels
const (
	ResultHit   = "hit"
	ResultMiss  = "miss"
	ResultStale = "stale"
)

// Manifest describes the snapshot it sits next to
type Manifest struct {
	Kind        string    `yaml:"kind"`
	Policy      string    `yaml:"policy"`
	Fingerprint string    `yaml:"fingerprint,omitempty"`
	Files       int       `yaml:"files"`
	Rows        int       `yaml:"rows"`
	CreatedAt   time.Time `yaml:"created_at"`
}

// Options configures a Store
type Options struct {
	// Dir is the dataset source directory; snapshots live next to the data
	Dir string
	// Name is the fixed snapshot name, e.g. "hconsum"
	Name string
	// Kind labels the dataset in logs, metrics and the manifest
	Kind    string
	Policy  string
	Logger  *slog.Logger
	Metrics *infrastructure.LoadMetrics
}

// Store persists the rows of one table as a parquet snapshot. R is the
// parquet row type and must carry parquet struct tags.
//
// Whether a snapshot may be reused is decided by the policy:
//   - presence: any existing snapshot is reused; delete it to rebuild
//   - modtime: reused while the source files keep their names, sizes and
//     modification times
//   - content: reused while the source files keep their names and bytes
type Store[R any] struct {
	opts  Options
	files *files.Manager
	tr    trace.Tracer
}

// NewStore creates a store. An unknown policy is an UnsupportedModeError.
func NewStore[R any](opts Options) (*Store[R], error) {
	switch opts.Policy {
	case "":
		opts.Policy = config.CachePolicyModTime
	case config.CachePolicyPresence, config.CachePolicyModTime, config.CachePolicyContent:
	default:
		return nil, apperrors.NewUnsupportedModeError("cache policy", opts.Policy)
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Kind == "" {
		opts.Kind = opts.Name
	}
	return &Store[R]{
		opts:  opts,
		files: files.NewManager(opts.Logger),
		tr:    otel.Tracer(infrastructure.TracerName),
	}, nil
}

// Path returns the snapshot file path
func (s *Store[R]) Path() string {
	return filepath.Join(s.opts.Dir, s.opts.Name+".parquet")
}

// ManifestPath returns the manifest file path
func (s *Store[R]) ManifestPath() string {
	return filepath.Join(s.opts.Dir, s.opts.Name+".manifest.yaml")
}

// Load returns the snapshot rows when the snapshot is valid for sources.
// hit is false when there is no usable snapshot. A snapshot that exists but
// cannot be decoded is reported as a StorageError with hit false.
func (s *Store[R]) Load(ctx context.Context, sources []files.FileInfo) (rows []R, hit bool, err error) {
	ctx, span := s.tr.Start(ctx, "cache.load",
		trace.WithAttributes(
			attribute.String("dataset", s.opts.Kind),
			attribute.String("policy", s.opts.Policy),
		))
	defer func() {
		span.SetAttributes(attribute.Bool("hit", hit))
		span.End()
	}()

	result, manifest := s.check(sources)
	s.opts.Metrics.CacheLookup(s.opts.Kind, result)
	if result != ResultHit {
		s.opts.Logger.InfoContext(ctx, "Snapshot not usable, rebuilding",
			slog.String("dataset", s.opts.Kind),
			slog.String("result", result))
		return nil, false, nil
	}

	rows, err = s.read(s.Path())
	if err != nil {
		return nil, false, apperrors.NewStorageError("failed to read snapshot "+s.Path(), err)
	}
	if manifest != nil && manifest.Rows != len(rows) {
		return nil, false, apperrors.NewStorageError(
			fmt.Sprintf("snapshot %s has %d rows, manifest says %d", s.Path(), len(rows), manifest.Rows), nil)
	}

	s.opts.Logger.InfoContext(ctx, "Loaded snapshot",
		slog.String("dataset", s.opts.Kind),
		slog.String("path", s.Path()),
		slog.Int("rows", len(rows)))
	return rows, true, nil
}

func (s *Store[R]) check(sources []files.FileInfo) (string, *Manifest) {
	if !s.files.FileExists(s.Path()) {
		return ResultMiss, nil
	}
	if s.opts.Policy == config.CachePolicyPresence {
		return ResultHit, nil
	}

	manifest, err := s.readManifest()
	if err != nil {
		s.opts.Logger.Warn("Unreadable snapshot manifest",
			slog.String("path", s.ManifestPath()),
			slog.String("error", err.Error()))
		return ResultMiss, nil
	}
	if manifest == nil {
		return ResultMiss, nil
	}
	if manifest.Policy != s.opts.Policy || manifest.Kind != s.opts.Kind {
		return ResultStale, manifest
	}

	fingerprint, err := s.fingerprint(sources)
	if err != nil || fingerprint != manifest.Fingerprint {
		return ResultStale, manifest
	}
	return ResultHit, manifest
}

// Save replaces the snapshot with rows built from sources. The old manifest
// is removed first and the new one written last, so an interrupted save
// leaves no manifest and the next Load rebuilds. An empty table removes any
// existing snapshot instead.
func (s *Store[R]) Save(ctx context.Context, sources []files.FileInfo, rows []R) error {
	_, span := s.tr.Start(ctx, "cache.save",
		trace.WithAttributes(
			attribute.String("dataset", s.opts.Kind),
			attribute.Int("rows", len(rows)),
		))
	defer span.End()

	if len(rows) == 0 {
		s.opts.Logger.DebugContext(ctx, "Empty table, no snapshot written",
			slog.String("dataset", s.opts.Kind))
		return s.Invalidate()
	}

	manifest := Manifest{
		Kind:      s.opts.Kind,
		Policy:    s.opts.Policy,
		Files:     len(sources),
		Rows:      len(rows),
		CreatedAt: time.Now().UTC(),
	}
	if s.opts.Policy != config.CachePolicyPresence {
		fingerprint, err := s.fingerprint(sources)
		if err != nil {
			return apperrors.NewStorageError("failed to fingerprint sources", err)
		}
		manifest.Fingerprint = fingerprint
	}

	if err := s.files.RemoveIfExists(s.ManifestPath()); err != nil {
		return apperrors.NewStorageError("failed to remove manifest", err)
	}

	if err := s.files.ReplaceAtomic(s.Path(), func(tmp string) error {
		return s.write(tmp, rows)
	}); err != nil {
		return apperrors.NewStorageError("failed to write snapshot "+s.Path(), err)
	}

	data, err := yaml.Marshal(&manifest)
	if err != nil {
		return apperrors.NewStorageError("failed to encode manifest", err)
	}
	if err := s.files.ReplaceAtomic(s.ManifestPath(), func(tmp string) error {
		return os.WriteFile(tmp, data, 0644)
	}); err != nil {
		return apperrors.NewStorageError("failed to write manifest", err)
	}

	s.opts.Logger.InfoContext(ctx, "Saved snapshot",
		slog.String("dataset", s.opts.Kind),
		slog.String("path", s.Path()),
		slog.Int("rows", len(rows)))
	return nil
}

// Invalidate deletes the snapshot and its manifest
func (s *Store[R]) Invalidate() error {
	for _, path := range []string{s.ManifestPath(), s.Path()} {
		if err := s.files.RemoveIfExists(path); err != nil {
			return apperrors.NewStorageError("failed to invalidate snapshot", err)
		}
	}
	return nil
}

func (s *Store[R]) fingerprint(sources []files.FileInfo) (string, error) {
	mode := files.FingerprintModTime
	if s.opts.Policy == config.CachePolicyContent {
		mode = files.FingerprintContent
	}
	return files.Fingerprint(sources, mode)
}

func (s *Store[R]) readManifest() (*Manifest, error) {
	data, err := os.ReadFile(s.ManifestPath())
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *Store[R]) write(path string, rows []R) (err error) {
	// The library panics on some malformed rows instead of returning.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parquet writer panicked: %v", r)
		}
	}()

	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return fmt.Errorf("failed to create parquet file: %w", err)
	}
	defer func() {
		if cerr := fw.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	pw, err := writer.NewParquetWriter(fw, new(R), parallelism)
	if err != nil {
		return fmt.Errorf("failed to create parquet writer: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for i := range rows {
		if err := pw.Write(rows[i]); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}

	if err := pw.WriteStop(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}

func (s *Store[R]) read(path string) (rows []R, err error) {
	fr, err := local.NewLocalFileReader(path)
	if err != nil {
		return nil, err
	}
	defer fr.Close()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parquet reader panicked: %v", r)
		}
	}()

	pr, err := reader.NewParquetReader(fr, new(R), parallelism)
	if err != nil {
		return nil, err
	}
	defer pr.ReadStop()

	n := int(pr.GetNumRows())
	rows = make([]R, n)
	if n == 0 {
		return rows, nil
	}
	if err := pr.Read(&rows); err != nil {
		return nil, err
	}
	return rows, nil
}
