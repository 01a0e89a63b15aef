package action

import (
	"path/filepath"
	"time"

	"facetflow/internal/config"
	"facetflow/internal/datamap"
)

// casaFFTTimeout is the suggested execution deadline passed to the stage
// driver when the target tool is casapy, the slowest of the supported
// imagers for this operation.
const casaFFTTimeout = 20 * time.Minute

// FFTParams configure an FFT action.
type FFTParams struct {
	NCPU int
	// ImSize is the model image size in pixels used to derive the
	// w-projection plane count. Zero falls back to the direction's facet
	// image size.
	ImSize int
	// WPlanes overrides the derived plane count when positive.
	WPlanes int
}

// FFT transforms model images into a visibility column of existing data
// artifacts. The stage is side-effecting: it writes into the vis data
// named by the input maps and produces no output datamap of its own.
type FFT struct {
	base
	visInput   string
	modelInput string
	params     FFTParams
	wplanes    int
}

// NewFFT constructs the action for the vis data at visHandle and the
// model basenames at modelHandle.
func NewFFT(cfg *config.Config, op, visHandle, modelHandle string, params FFTParams, opts Options) (*FFT, error) {
	b, err := newBase(cfg, op, "fft", "fft", opts)
	if err != nil {
		return nil, err
	}
	if params.NCPU == 0 {
		params.NCPU = cfg.Imaging.MaxCPU
	}

	imsize := params.ImSize
	if imsize == 0 && opts.Direction != nil {
		imsize = opts.Direction.FieldImsize
	}
	wplanes := params.WPlanes
	if wplanes <= 0 {
		wplanes = WPlanes(imsize)
	}

	if b.imager == ImagerCASA {
		b.timeout = casaFFTTimeout
	}

	return &FFT{
		base:       b,
		visInput:   visHandle,
		modelInput: modelHandle,
		params:     params,
		wplanes:    wplanes,
	}, nil
}

// WPlaneCount returns the resolved w-projection plane count.
func (a *FFT) WPlaneCount() int { return a.wplanes }

// BuildDatamaps validates the declared inputs. FFT writes into existing
// artifacts, so there is no output datamap to construct.
func (a *FFT) BuildDatamaps() error {
	if _, err := datamap.Read(a.visInput); err != nil {
		return err
	}
	if _, err := datamap.Read(a.modelInput); err != nil {
		return err
	}
	a.phase = PhaseDatamapsBuilt
	return nil
}

type fftParset struct {
	Action       string  `toml:"action"`
	Imager       string  `toml:"imager"`
	ImagerRoot   string  `toml:"imager_root,omitempty"`
	NCPU         int     `toml:"ncpu"`
	WPlanes      int     `toml:"wplanes"`
	CellDeg      float64 `toml:"cell_deg,omitempty"`
	OutputDir    string  `toml:"output_dir"`
	VisDatamap   string  `toml:"vis_datamap"`
	ModelDatamap string  `toml:"model_datamap"`
	TaskXMLFile  string  `toml:"task_xml_file,omitempty"`
	TaskPyFile   string  `toml:"task_py_file,omitempty"`
}

func (a *FFT) EmitControlFiles() error {
	if err := a.requireDatamapsBuilt(); err != nil {
		return err
	}
	record := fftParset{
		Action:       a.name,
		Imager:       string(a.imager),
		ImagerRoot:   a.cfg.Imaging.ImagerRoot,
		NCPU:         a.params.NCPU,
		WPlanes:      a.wplanes,
		OutputDir:    a.workingDir,
		VisDatamap:   a.visInput,
		ModelDatamap: a.modelInput,
	}
	switch a.imager {
	case ImagerWSClean:
		record.CellDeg = a.cfg.Imaging.CellArcsec / 3600.0
	case ImagerCASA:
		// casapy needs a custom task definition alongside the parset.
		record.TaskXMLFile = filepath.Join(a.workingDir, "ftw.xml")
		record.TaskPyFile = filepath.Join(a.workingDir, "task_ftw.py")
	}
	if err := a.writeParset(record); err != nil {
		return err
	}
	a.ready()
	return nil
}

// CollectResults returns no handle: the stage's only effect is the data
// written into the vis artifacts named by its inputs.
func (a *FFT) CollectResults() (string, error) {
	return "", nil
}
