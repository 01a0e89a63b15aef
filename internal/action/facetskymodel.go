package action

import (
	"errors"

	"facetflow/internal/config"
	"facetflow/internal/datamap"
)

// FacetSkymodelParams configure a FacetSkymodel action.
type FacetSkymodelParams struct {
	NCPU int
	// CalOnly restricts the extracted model to the calibrator; when false
	// the whole facet's model is returned.
	CalOnly bool
}

// FacetSkymodel cuts per-facet sky models out of a map of full sky
// models. It requires a direction: the facet boundary, position, and
// calibration radius all come from it. A facet with no sources produces
// no model file; that is recorded as a skip flag, not an error.
type FacetSkymodel struct {
	base
	params FacetSkymodelParams
}

// NewFacetSkymodel constructs the action for the full sky models listed in
// the datamap at inputHandle. opts.Direction is required.
func NewFacetSkymodel(cfg *config.Config, op, inputHandle string, params FacetSkymodelParams, opts Options) (*FacetSkymodel, error) {
	if opts.Direction == nil {
		return nil, errors.New("facet skymodel requires a direction")
	}
	b, err := newBase(cfg, op, "facet_skymodel", "make_facet_skymodel", opts)
	if err != nil {
		return nil, err
	}
	if params.NCPU == 0 {
		params.NCPU = cfg.Imaging.MaxCPU
	}
	b.inputHandle = inputHandle
	return &FacetSkymodel{base: b, params: params}, nil
}

func (a *FacetSkymodel) BuildDatamaps() error {
	dm, err := datamap.Read(a.inputHandle)
	if err != nil {
		return err
	}

	outputs := outputBasenames(a.workingDir, dm.Paths(), "_facet.skymodel")
	if a.outputHandle, err = a.writeDatamap("output", outputs, dm.Hosts()); err != nil {
		return err
	}
	a.phase = PhaseDatamapsBuilt
	return nil
}

type facetSkymodelParset struct {
	Action        string       `toml:"action"`
	NCPU          int          `toml:"ncpu"`
	CalOnly       bool         `toml:"cal_only"`
	RA            float64      `toml:"ra"`
	Dec           float64      `toml:"dec"`
	CalRadiusDeg  float64      `toml:"cal_radius_deg"`
	Vertices      [][2]float64 `toml:"vertices,omitempty"`
	OutputDir     string       `toml:"output_dir"`
	InputDatamap  string       `toml:"input_datamap"`
	OutputDatamap string       `toml:"output_datamap"`
}

func (a *FacetSkymodel) EmitControlFiles() error {
	if err := a.requireDatamapsBuilt(); err != nil {
		return err
	}
	record := facetSkymodelParset{
		Action:        a.name,
		NCPU:          a.params.NCPU,
		CalOnly:       a.params.CalOnly,
		RA:            a.dir.RA,
		Dec:           a.dir.Dec,
		CalRadiusDeg:  a.dir.CalRadiusDeg,
		Vertices:      a.dir.Vertices,
		OutputDir:     a.workingDir,
		InputDatamap:  a.inputHandle,
		OutputDatamap: a.outputHandle,
	}
	if err := a.writeParset(record); err != nil {
		return err
	}
	a.ready()
	return nil
}

// CollectResults checks each declared model file itself rather than
// deferring to the generic accessor: facets with no sources legitimately
// produce nothing, and the per-entry flags are the signal downstream
// stages use to skip them.
func (a *FacetSkymodel) CollectResults() (string, error) {
	dm, err := datamap.Read(a.outputHandle)
	if err != nil {
		return "", err
	}
	flags := make([]bool, dm.Len())
	for i, path := range dm.Paths() {
		if !a.checker.Exists(path) {
			flags[i] = true
		}
	}
	if err := datamap.SetSkipFlags(a.outputHandle, flags); err != nil {
		return "", err
	}
	return a.outputHandle, nil
}
