package action

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"facetflow/internal/config"
	"facetflow/internal/datamap"
	"facetflow/internal/direction"
	"facetflow/internal/fileutil"
)

// ErrInputShape indicates that declared input datamaps have incompatible
// cardinality for a pairing operation. It surfaces at BuildDatamaps time,
// before any external tool is invoked.
var ErrInputShape = errors.New("input datamap shape mismatch")

// Phase tracks an action's setup progress.
type Phase int

const (
	PhaseConstructed Phase = iota
	PhaseDatamapsBuilt
	PhaseControlFilesWritten
	PhaseReady
)

// Action is one stage's unit of work: build datamaps, emit control files,
// later collect results. Execution belongs to the stage driver.
type Action interface {
	// Name identifies the action kind.
	Name() string
	// WorkingDir is the deterministic scratch directory for this invocation.
	WorkingDir() string
	// ParsetFile is the control file handed to the stage driver.
	ParsetFile() string
	// Phase reports setup progress.
	Phase() Phase
	// BuildDatamaps persists the input/output datamaps. Referentially
	// transparent: a re-run with identical inputs produces an identical
	// output handle and content.
	BuildDatamaps() error
	// EmitControlFiles renders the control record into the working dir.
	EmitControlFiles() error
	// OutputDatamap is the handle recorded by BuildDatamaps, empty until
	// then and always empty for side-effecting actions.
	OutputDatamap() string
	// CollectResults re-reads the output datamap after stage driver
	// execution, sets skip flags for artifacts that never materialized,
	// and returns the corrected handle. Side-effecting actions with no
	// output datamap return an empty handle.
	CollectResults() (string, error)
	// Timeout suggests an execution deadline to the stage driver; zero
	// means none.
	Timeout() time.Duration
}

// Setup drives an action to readiness: datamaps first, then control
// files. Safe to re-run if a prior attempt was interrupted before the
// stage driver ran.
func Setup(a Action) error {
	if err := a.BuildDatamaps(); err != nil {
		return fmt.Errorf("%s: build datamaps: %w", a.Name(), err)
	}
	if err := a.EmitControlFiles(); err != nil {
		return fmt.Errorf("%s: emit control files: %w", a.Name(), err)
	}
	return nil
}

// Options are the optional identity knobs shared by all action kinds.
type Options struct {
	// Prefix overrides the kind-specific datamap name prefix.
	Prefix string
	// Direction scopes the action to one facet.
	Direction *direction.Direction
	// Band scopes the action to one frequency band.
	Band string
	// Index disambiguates repeated invocations of the same kind within
	// one direction.
	Index int
	// Clean permits scratch file removal after the stage driver has
	// consumed this action's outputs.
	Clean bool
	// Checker is the artifact materialization oracle; defaults to the
	// real filesystem.
	Checker fileutil.Checker
}

type base struct {
	cfg     *config.Config
	imager  Imager
	op      string
	name    string
	prefix  string
	dir     *direction.Direction
	band    string
	index   int
	clean   bool
	checker fileutil.Checker

	phase      Phase
	workingDir string
	parsetFile string

	inputHandle  string
	outputHandle string
	timeout      time.Duration
}

func newBase(cfg *config.Config, op, name, defaultPrefix string, opts Options) (base, error) {
	imager, err := ParseImager(cfg.Imaging.Imager)
	if err != nil {
		return base{}, err
	}

	prefix := opts.Prefix
	if prefix == "" {
		prefix = defaultPrefix
	}

	workingDir := filepath.Join(cfg.ModelDir(), op, name)
	if opts.Direction != nil {
		workingDir = filepath.Join(workingDir, opts.Direction.Name)
	}
	if opts.Band != "" {
		workingDir = filepath.Join(workingDir, opts.Band)
	}
	if err := os.MkdirAll(workingDir, 0o755); err != nil {
		return base{}, fmt.Errorf("create working directory: %w", err)
	}

	checker := opts.Checker
	if checker == nil {
		checker = fileutil.OSChecker{}
	}

	return base{
		cfg:        cfg,
		imager:     imager,
		op:         op,
		name:       name,
		prefix:     prefix,
		dir:        opts.Direction,
		band:       opts.Band,
		index:      opts.Index,
		clean:      opts.Clean,
		checker:    checker,
		workingDir: workingDir,
		parsetFile: filepath.Join(workingDir, prefix+".parset"),
	}, nil
}

func (b *base) Name() string { return b.name }

func (b *base) WorkingDir() string { return b.workingDir }

func (b *base) ParsetFile() string { return b.parsetFile }

func (b *base) Phase() Phase { return b.phase }

func (b *base) Timeout() time.Duration { return b.timeout }

// OutputDatamap returns the handle recorded by BuildDatamaps, empty until
// then.
func (b *base) OutputDatamap() string { return b.outputHandle }

func (b *base) writeOpts() datamap.WriteOptions {
	opts := datamap.WriteOptions{Index: b.index}
	if b.dir != nil {
		opts.Direction = b.dir.Name
	}
	return opts
}

func (b *base) writeDatamap(role string, paths, hosts []string) (string, error) {
	return datamap.Write(b.cfg.DatamapDir(), b.prefix+"_"+role, paths, hosts, b.writeOpts())
}

func (b *base) requireDatamapsBuilt() error {
	if b.phase < PhaseDatamapsBuilt {
		return errors.New("datamaps not built")
	}
	return nil
}

// writeParset marshals the control record as TOML into the working dir.
// The record maps option names to resolved values; a templating
// collaborator renders tool-internal scripts from it.
func (b *base) writeParset(record any) error {
	data, err := toml.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode parset: %w", err)
	}
	if err := fileutil.WriteAtomic(b.parsetFile, data, 0o644); err != nil {
		return err
	}
	b.phase = PhaseControlFilesWritten
	return nil
}

// ready marks the terminal setup phase. Execution and failure handling of
// the external tool belong to the stage driver from here on.
func (b *base) ready() { b.phase = PhaseReady }

// collectOutput is the generic result accessor: it re-reads the output
// datamap, flags entries whose artifact never materialized, re-persists,
// and returns the handle. Missing artifacts propagate as data, never as
// an error.
func (b *base) collectOutput() (string, error) {
	if b.outputHandle == "" {
		return "", errors.New("output datamap not built")
	}
	dm, err := datamap.Read(b.outputHandle)
	if err != nil {
		return "", err
	}
	flags := make([]bool, dm.Len())
	for i, path := range dm.Paths() {
		flags[i] = !b.checker.Exists(path)
	}
	if err := datamap.SetSkipFlags(b.outputHandle, flags); err != nil {
		return "", err
	}
	return b.outputHandle, nil
}

// outputBasenames maps input artifact paths to output paths inside
// workingDir, replacing each input's extension with suffix. Entry order is
// preserved 1:1.
func outputBasenames(workingDir string, inputs []string, suffix string) []string {
	out := make([]string, len(inputs))
	for i, input := range inputs {
		name := filepath.Base(input)
		name = strings.TrimSuffix(name, filepath.Ext(name))
		out[i] = filepath.Join(workingDir, name+suffix)
	}
	return out
}
