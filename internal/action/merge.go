package action

import (
	"fmt"
	"path/filepath"
	"strings"

	"facetflow/internal/config"
	"facetflow/internal/datamap"
)

// MergeParams configure a MergeSkymodels action.
type MergeParams struct {
	NCPU int
}

// MergeSkymodels pairs two maps of sky models positionally and merges
// each pair into one model. The two input maps must have equal length;
// a mismatch fails before any output datamap is written.
type MergeSkymodels struct {
	base
	input1 string
	input2 string
	params MergeParams
}

// NewMergeSkymodels constructs the action for the positionally paired
// datamaps at handle1 and handle2.
func NewMergeSkymodels(cfg *config.Config, op, handle1, handle2 string, params MergeParams, opts Options) (*MergeSkymodels, error) {
	b, err := newBase(cfg, op, "merge_skymodels", "merge_skymodel", opts)
	if err != nil {
		return nil, err
	}
	if params.NCPU == 0 {
		params.NCPU = cfg.Imaging.MaxCPU
	}
	return &MergeSkymodels{base: b, input1: handle1, input2: handle2, params: params}, nil
}

func (a *MergeSkymodels) BuildDatamaps() error {
	dm1, err := datamap.Read(a.input1)
	if err != nil {
		return err
	}
	dm2, err := datamap.Read(a.input2)
	if err != nil {
		return err
	}
	if dm1.Len() != dm2.Len() {
		return fmt.Errorf("%w: %d entries vs %d entries", ErrInputShape, dm1.Len(), dm2.Len())
	}

	// Output names derive from the first map's basenames.
	outputs := make([]string, dm1.Len())
	for i, path := range dm1.Paths() {
		name := filepath.Base(path)
		name = strings.TrimSuffix(name, filepath.Ext(name))
		outputs[i] = filepath.Join(a.workingDir, name+"_merged.skymodel")
	}

	if a.outputHandle, err = a.writeDatamap("output", outputs, dm1.Hosts()); err != nil {
		return err
	}
	a.phase = PhaseDatamapsBuilt
	return nil
}

type mergeParset struct {
	Action           string `toml:"action"`
	NCPU             int    `toml:"ncpu"`
	OutputDir        string `toml:"output_dir"`
	Skymodel1Datamap string `toml:"skymodel1_datamap"`
	Skymodel2Datamap string `toml:"skymodel2_datamap"`
	OutputDatamap    string `toml:"output_datamap"`
}

func (a *MergeSkymodels) EmitControlFiles() error {
	if err := a.requireDatamapsBuilt(); err != nil {
		return err
	}
	record := mergeParset{
		Action:           a.name,
		NCPU:             a.params.NCPU,
		OutputDir:        a.workingDir,
		Skymodel1Datamap: a.input1,
		Skymodel2Datamap: a.input2,
		OutputDatamap:    a.outputHandle,
	}
	if err := a.writeParset(record); err != nil {
		return err
	}
	a.ready()
	return nil
}

func (a *MergeSkymodels) CollectResults() (string, error) {
	return a.collectOutput()
}
