package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/circuitdag/pkg/cache"
	"github.com/matzehuels/circuitdag/pkg/circuit"
	"github.com/matzehuels/circuitdag/pkg/convert"
	"github.com/matzehuels/circuitdag/pkg/dag"
	apperr "github.com/matzehuels/circuitdag/pkg/errors"
	"github.com/matzehuels/circuitdag/pkg/graph"
	pkgio "github.com/matzehuels/circuitdag/pkg/io"
	"github.com/matzehuels/circuitdag/pkg/observability"
)

// Runner executes the pipeline with caching. Both the CLI and the API use it.
//
// The Runner holds no per-run state, so multiple goroutines can share one
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// cachedExport is the cache payload of one run.
type cachedExport struct {
	Program string `json:"program"`
	Stats   Stats  `json:"stats"`
	Output  []byte `json:"output"`
}

// Execute loads, converts and exports a program. A cached export for the
// same source and options is returned without converting unless
// opts.Refresh is set; a refreshed export replaces the cached one.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	result := &Result{RunID: uuid.NewString()}
	logger := opts.Logger.With("run", result.RunID[:8])

	loadStart := time.Now()
	c, src, err := r.Load(ctx, opts)
	if err != nil {
		return nil, err
	}
	result.Program = c.Name
	result.SourceHash = cache.Hash(src)
	result.Stats.Instructions = c.Len()
	result.Stats.LoadTime = time.Since(loadStart)

	logger.Debug("loaded program",
		"program", c.Name,
		"format", opts.Format,
		"instructions", c.Len(),
		"duration", result.Stats.LoadTime)

	key := r.Keyer.GraphKey(result.SourceHash, opts.GraphKeyOpts(c.Name))
	if !opts.Refresh {
		if hit, ok := r.lookup(ctx, key); ok {
			result.CacheHit = true
			result.Output = hit.Output
			loadTime := result.Stats.LoadTime
			result.Stats = hit.Stats
			result.Stats.LoadTime = loadTime
			logger.Info("cache hit", "program", c.Name, "size", hit.Stats.Size)
			return result, nil
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	convertStart := time.Now()
	g, err := r.Convert(ctx, c, opts)
	if err != nil {
		return nil, err
	}
	result.Graph = g
	result.Stats.ConvertTime = time.Since(convertStart)
	result.Stats.Nodes = g.NodeCount()
	result.Stats.Edges = g.EdgeCount()
	result.Stats.Size = g.Size()
	result.Stats.Depth = g.Depth()
	result.Stats.Width = g.Width()

	logger.Info("converted program",
		"program", c.Name,
		"nodes", result.Stats.Nodes,
		"edges", result.Stats.Edges,
		"depth", result.Stats.Depth,
		"duration", result.Stats.ConvertTime)

	exportStart := time.Now()
	out, err := r.Export(ctx, g, opts.Output)
	if err != nil {
		return nil, err
	}
	result.Output = out
	result.Stats.ExportTime = time.Since(exportStart)

	r.store(ctx, key, cachedExport{Program: c.Name, Stats: result.Stats, Output: out}, logger)
	return result, nil
}

// Load decodes the program named by opts: inline source when present,
// otherwise the file at opts.Path.
func (r *Runner) Load(ctx context.Context, opts Options) (*circuit.Circuit, []byte, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, nil, err
	}

	hooks := observability.Pipeline()
	hooks.OnLoadStart(ctx, opts.Format)
	start := time.Now()

	var (
		c   *circuit.Circuit
		src []byte
		err error
	)
	if opts.Source != "" {
		src = []byte(opts.Source)
		c, err = pkgio.Parse(src, opts.format)
	} else {
		c, src, err = pkgio.Load(opts.Path, opts.format)
	}
	if err == nil && opts.Name != "" {
		c.Name = opts.Name
	}

	n := 0
	if c != nil {
		n = c.Len()
	}
	hooks.OnLoadComplete(ctx, opts.Format, n, time.Since(start), err)
	if err != nil {
		return nil, nil, err
	}
	return c, src, nil
}

// Convert builds the dependency graph of c with the ownership and
// recursion settings of opts. Failures carry ErrCodeConversion and still
// match the dag sentinels with errors.Is.
func (r *Runner) Convert(ctx context.Context, c *circuit.Circuit, opts Options) (*dag.DAGCircuit, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	hooks := observability.Pipeline()
	hooks.OnConvertStart(ctx, c.Name, c.Len())
	start := time.Now()

	g, err := convert.CircuitToDAG(c, opts.ConvertOptions())
	if err != nil {
		err = apperr.Wrap(apperr.ErrCodeConversion, err, "convert %s", programName(c))
		hooks.OnConvertComplete(ctx, c.Name, 0, time.Since(start), err)
		return nil, err
	}
	hooks.OnConvertComplete(ctx, c.Name, g.NodeCount(), time.Since(start), nil)
	return g, nil
}

// Export serializes g in the given output format.
func (r *Runner) Export(ctx context.Context, g *dag.DAGCircuit, output string) ([]byte, error) {
	start := time.Now()
	var (
		out []byte
		err error
	)
	switch output {
	case OutputJSON:
		out, err = graph.MarshalDAG(g)
	case OutputText:
		var buf bytes.Buffer
		err = graph.WriteSchedule(g, &buf)
		out = buf.Bytes()
	default:
		err = apperr.New(apperr.ErrCodeInvalidFormat, "invalid output %q", output)
	}
	if err != nil && apperr.GetCode(err) == "" {
		err = apperr.Wrap(apperr.ErrCodeInternal, err, "export graph")
	}
	observability.Pipeline().OnExportComplete(ctx, output, len(out), time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) lookup(ctx context.Context, key string) (cachedExport, bool) {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.Logger.Warn("cache read failed", "err", err)
	}
	if err != nil || !hit {
		observability.Cache().OnCacheMiss(ctx, "graph")
		return cachedExport{}, false
	}
	var entry cachedExport
	if err := json.Unmarshal(data, &entry); err != nil {
		r.Logger.Warn("discarding corrupt cache entry", "key", key, "err", err)
		observability.Cache().OnCacheMiss(ctx, "graph")
		return cachedExport{}, false
	}
	observability.Cache().OnCacheHit(ctx, "graph")
	return entry, true
}

func (r *Runner) store(ctx context.Context, key string, entry cachedExport, logger *log.Logger) {
	data, err := json.Marshal(entry)
	if err != nil {
		logger.Warn("cache encode failed", "err", err)
		return
	}
	if err := r.Cache.Set(ctx, key, data, TTLGraph); err != nil {
		logger.Warn("cache write failed", "err", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, "graph", len(data))
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

func programName(c *circuit.Circuit) string {
	if c.Name == "" {
		return "program"
	}
	return c.Name
}
