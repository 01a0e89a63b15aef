package action

import (
	"facetflow/internal/config"
	"facetflow/internal/datamap"
)

// SkymodelParams configure a SkymodelFromImage action.
type SkymodelParams struct {
	// NCPU bounds the external tool's CPU use; zero means the configured
	// imaging maximum.
	NCPU int
}

// SkymodelFromImage extracts sky models from a map of model images. The
// input artifact names depend on the imaging tool that produced them:
// wsclean writes fits images (one per spectral term) that need conversion,
// the casa-based tools write .model images directly.
type SkymodelFromImage struct {
	base
	input  string
	params SkymodelParams
}

// NewSkymodelFromImage constructs the action for the model images listed
// in the datamap at inputHandle.
func NewSkymodelFromImage(cfg *config.Config, op, inputHandle string, params SkymodelParams, opts Options) (*SkymodelFromImage, error) {
	b, err := newBase(cfg, op, "skymodel_from_image", "make_skymodel", opts)
	if err != nil {
		return nil, err
	}
	if params.NCPU == 0 {
		params.NCPU = cfg.Imaging.MaxCPU
	}
	return &SkymodelFromImage{base: b, input: inputHandle, params: params}, nil
}

func (a *SkymodelFromImage) BuildDatamaps() error {
	dm, err := datamap.Read(a.input)
	if err != nil {
		return err
	}
	basenames := dm.Paths()
	hosts := dm.Hosts()

	var inputs []string
	if a.imager == ImagerWSClean {
		suffix := "-model.fits"
		if a.cfg.Imaging.NTerms > 1 {
			suffix = "-MFS-model.fits"
		}
		inputs = make([]string, len(basenames))
		for i, bn := range basenames {
			inputs[i] = bn + suffix
		}
	} else {
		inputs = make([]string, len(basenames))
		for i, bn := range basenames {
			inputs[i] = bn + ".model"
		}
	}

	outputs := outputBasenames(a.workingDir, basenames, ".skymodel")

	if a.inputHandle, err = a.writeDatamap("input", inputs, hosts); err != nil {
		return err
	}
	if a.outputHandle, err = a.writeDatamap("output", outputs, hosts); err != nil {
		return err
	}
	a.phase = PhaseDatamapsBuilt
	return nil
}

type skymodelParset struct {
	Action        string `toml:"action"`
	Imager        string `toml:"imager"`
	NCPU          int    `toml:"ncpu"`
	NTerms        int    `toml:"nterms"`
	ConvertFits   bool   `toml:"convert_fits"`
	OutputDir     string `toml:"output_dir"`
	InputDatamap  string `toml:"input_datamap"`
	OutputDatamap string `toml:"output_datamap"`
}

func (a *SkymodelFromImage) EmitControlFiles() error {
	if err := a.requireDatamapsBuilt(); err != nil {
		return err
	}
	record := skymodelParset{
		Action:        a.name,
		Imager:        string(a.imager),
		NCPU:          a.params.NCPU,
		NTerms:        a.cfg.Imaging.NTerms,
		ConvertFits:   a.imager == ImagerWSClean,
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

func (a *SkymodelFromImage) CollectResults() (string, error) {
	return a.collectOutput()
}
