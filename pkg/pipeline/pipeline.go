// Package pipeline runs the load → convert → export pipeline shared by the
// CLI and the HTTP API.
//
// # Stages
//
//  1. Load: decode a program from OpenQASM 2, TOML or JSON source
//  2. Convert: build the dependency graph with package convert
//  3. Export: serialize the graph as JSON or as a text schedule
//
// Exports are cached under a key derived from the hash of the source and
// every option that changes the output, so repeated requests for the same
// program skip conversion entirely.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Path:    "teleport.qasm",
//	    Recurse: true,
//	})
//	if err != nil {
//	    return err
//	}
//	os.Stdout.Write(result.Output)
package pipeline

import (
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/circuitdag/pkg/cache"
	"github.com/matzehuels/circuitdag/pkg/convert"
	"github.com/matzehuels/circuitdag/pkg/dag"
	apperr "github.com/matzehuels/circuitdag/pkg/errors"
	pkgio "github.com/matzehuels/circuitdag/pkg/io"
)

// =============================================================================
// Default Values
// =============================================================================

// Output constants for export formats.
const (
	OutputJSON = "json"
	OutputText = "text"
)

const (
	// DefaultOutput is the export format used when none is given.
	DefaultOutput = OutputJSON

	// DefaultSourceFormat is assumed for inline source without a format.
	DefaultSourceFormat = pkgio.FormatQASM

	// TTLGraph is how long an exported graph stays cached.
	TTLGraph = 7 * 24 * time.Hour
)

// ValidOutputs is the set of supported export formats.
var ValidOutputs = map[string]bool{
	OutputJSON: true,
	OutputText: true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options configures one pipeline run. It doubles as the API request body.
type Options struct {
	// Source is inline program text. It takes precedence over Path.
	Source string `json:"source,omitempty"`
	Path   string `json:"-"`
	Name   string `json:"name,omitempty"`
	Format string `json:"format,omitempty"`

	Ownership string `json:"ownership,omitempty"`
	Recurse   bool   `json:"recurse,omitempty"`
	Output    string `json:"output,omitempty"`
	Refresh   bool   `json:"refresh,omitempty"`

	Logger *log.Logger `json:"-"`

	format    pkgio.Format
	ownership convert.Ownership
	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// RunID identifies this run in logs and API responses.
	RunID string

	// Program is the name of the loaded program.
	Program string

	// SourceHash is the content hash of the program source.
	SourceHash string

	// Graph is the converted graph. It is nil when the export came from
	// the cache.
	Graph *dag.DAGCircuit

	// Output is the exported graph.
	Output []byte

	Stats    Stats
	CacheHit bool
}

// Stats contains sizes and timings of a run. Timings are zero for stages
// skipped by a cache hit.
type Stats struct {
	Instructions int `json:"instructions"`
	Nodes        int `json:"nodes"`
	Edges        int `json:"edges"`
	Size         int `json:"size"`
	Depth        int `json:"depth"`
	Width        int `json:"width"`

	LoadTime    time.Duration `json:"-"`
	ConvertTime time.Duration `json:"-"`
	ExportTime  time.Duration `json:"-"`
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks the options and applies defaults. It is
// idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if strings.TrimSpace(o.Source) == "" && o.Path == "" {
		return apperr.New(apperr.ErrCodeInvalidInput, "source or path is required")
	}

	switch {
	case o.Format != "":
		f, err := pkgio.ParseFormat(o.Format)
		if err != nil {
			return err
		}
		o.format = f
	case strings.TrimSpace(o.Source) != "":
		o.format = DefaultSourceFormat
	default:
		f, err := pkgio.FormatFromPath(o.Path)
		if err != nil {
			return err
		}
		o.format = f
	}
	o.Format = string(o.format)

	own, err := convert.ParseOwnership(o.Ownership)
	if err != nil {
		return apperr.Wrap(apperr.ErrCodeInvalidOwnership, err, "invalid ownership")
	}
	o.ownership = own
	o.Ownership = own.String()

	if o.Output == "" {
		o.Output = DefaultOutput
	}
	o.Output = strings.ToLower(o.Output)
	if !ValidOutputs[o.Output] {
		return apperr.New(apperr.ErrCodeInvalidFormat, "invalid output %q (must be one of: json, text)", o.Output)
	}

	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// ConvertOptions returns the converter options selected by o.
func (o *Options) ConvertOptions() convert.Options {
	return convert.Options{Ownership: o.ownership, Recurse: o.Recurse}
}

// GraphKeyOpts returns cache key options for the exported graph of the
// named program. The name is exported with the graph, so it is part of the
// key.
func (o *Options) GraphKeyOpts(program string) cache.GraphKeyOpts {
	return cache.GraphKeyOpts{
		Name:      program,
		Format:    o.Format,
		Ownership: o.ownership.String(),
		Recurse:   o.Recurse,
		Output:    o.Output,
	}
}
