package ingestion

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/Benny93/nlvr-graph/internal/graph"
	"github.com/Benny93/nlvr-graph/internal/scene"
	"github.com/Benny93/nlvr-graph/internal/storage"
)

// LoadResult summarizes a load run.
type LoadResult struct {
	Files        int     `json:"files"`
	Records      int     `json:"records"`
	Stored       int     `json:"stored"`
	Invalid      int     `json:"invalid"`
	DurationSecs float64 `json:"duration_secs"`

	// Sources maps each file to the identifiers it stored.
	Sources map[string][]string `json:"-"`
}

// ProgressCallback is called with a phase name and progress (0.0-1.0).
type ProgressCallback func(phase string, progress float64)

// Loader validates dataset records and stores the ones that build.
type Loader struct {
	store     storage.SceneStore
	log       *logrus.Logger
	panelSize int
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithLoaderPanelSize sets the panel size used to validate scenes.
func WithLoaderPanelSize(size int) LoaderOption {
	return func(l *Loader) { l.panelSize = size }
}

// NewLoader creates a loader writing to store. A nil log discards output.
func NewLoader(store storage.SceneStore, log *logrus.Logger, opts ...LoaderOption) *Loader {
	if log == nil {
		log = logrus.New()
		log.SetLevel(logrus.PanicLevel)
	}
	l := &Loader{store: store, log: log, panelSize: scene.DefaultPanelSize}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load walks every path, then reads, validates and stores the records of
// each dataset file found.
func (l *Loader) Load(ctx context.Context, paths []string, progress ProgressCallback) (*LoadResult, error) {
	start := time.Now()

	if progress != nil {
		progress("Walking files", 0.0)
	}

	var files []string
	for _, p := range paths {
		found, err := WalkDataset(p)
		if err != nil {
			return nil, err
		}
		files = append(files, found...)
	}

	if progress != nil {
		progress("Walking files", 1.0)
	}

	result, err := l.LoadFiles(ctx, files, progress)
	if err != nil {
		return nil, err
	}
	result.DurationSecs = time.Since(start).Seconds()
	return result, nil
}

// LoadFiles reads, validates and stores the records of the given files.
// A record whose scene does not build is logged and skipped; an unreadable
// file aborts the run.
func (l *Loader) LoadFiles(ctx context.Context, files []string, progress ProgressCallback) (*LoadResult, error) {
	start := time.Now()
	result := &LoadResult{Files: len(files), Sources: make(map[string][]string, len(files))}

	for i, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		records, err := ReadFile(file)
		if err != nil {
			return nil, err
		}
		result.Records += len(records)

		valid, err := l.validate(ctx, records)
		if err != nil {
			return nil, err
		}
		result.Invalid += len(records) - len(valid)

		if err := l.store.PutRecords(ctx, valid); err != nil {
			return nil, fmt.Errorf("storing records from %s: %w", file, err)
		}
		result.Stored += len(valid)
		result.Sources[file] = identifiers(valid)

		l.log.WithFields(logrus.Fields{
			"file":    file,
			"records": len(records),
			"stored":  len(valid),
		}).Debug("loaded dataset file")

		if progress != nil {
			progress("Loading records", float64(i+1)/float64(len(files)))
		}
	}

	result.DurationSecs = time.Since(start).Seconds()
	return result, nil
}

// validate keeps the records whose scene builds into a graph, in input
// order. Graphs are independent, so records are built in parallel.
func (l *Loader) validate(ctx context.Context, records []storage.SceneRecord) ([]storage.SceneRecord, error) {
	ok := make([]bool, len(records))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, rec := range records {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if _, err := graph.Build(rec.StructuredRep, rec.Identifier, graph.WithPanelSize(l.panelSize)); err != nil {
				l.log.WithField("identifier", rec.Identifier).WithError(err).Warn("skipping invalid scene")
				return nil
			}
			ok[i] = true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	valid := make([]storage.SceneRecord, 0, len(records))
	for i, rec := range records {
		if ok[i] {
			valid = append(valid, rec)
		}
	}
	return valid, nil
}

func identifiers(records []storage.SceneRecord) []string {
	ids := make([]string, len(records))
	for i, rec := range records {
		ids[i] = rec.Identifier
	}
	return ids
}
