package direction

import (
	"os"
	"path/filepath"
	"strings"
)

// Params are the fixed per-direction parameters supplied by the caller's
// configuration layer.
type Params struct {
	RA  float64
	Dec float64

	AtrousDo      bool
	MscaleFieldDo bool

	CalImsize   int
	FieldImsize int
	SolintP     int
	SolintA     int

	// DynamicRange is "LD" (low) or "HD" (high).
	DynamicRange string

	// RegionSelfcal and RegionField are clean-mask region files; the
	// literal value "empty" means none.
	RegionSelfcal string
	RegionField   string

	// PeelSkymodel is the sky model used for peeling; "empty" means none.
	PeelSkymodel string

	OutlierDo      bool
	MakeFinalImage bool

	// CalRadiusDeg is derived from CalImsize and CellArcsec when zero.
	CalRadiusDeg float64
	CalFluxJy    float64

	// CellArcsec is the pixel scale used for the radius derivation.
	CellArcsec float64

	// Vertices is the facet boundary polygon as (RA, Dec) pairs in
	// degrees.
	Vertices [][2]float64

	// MaxResidualJy is the facet subtract convergence threshold.
	MaxResidualJy float64
}

// Direction is one region's processing context. Exported fields are
// persisted by SaveState.
type Direction struct {
	Name string `json:"name"`

	RA  float64 `json:"ra"`
	Dec float64 `json:"dec"`

	AtrousDo      bool `json:"atrous_do"`
	MscaleFieldDo bool `json:"mscale_field_do"`

	CalImsize   int `json:"cal_imsize"`
	FieldImsize int `json:"field_imsize"`
	SolintP     int `json:"solint_p"`
	SolintA     int `json:"solint_a"`

	DynamicRange  string `json:"dynamic_range"`
	RegionSelfcal string `json:"region_selfcal,omitempty"`
	RegionField   string `json:"region_field,omitempty"`
	PeelSkymodel  string `json:"peel_skymodel,omitempty"`

	OutlierDo      bool `json:"outlier_do"`
	MakeFinalImage bool `json:"make_final_image"`

	Vertices [][2]float64 `json:"vertices,omitempty"`

	CalRadiusDeg    float64 `json:"cal_radius_deg"`
	ApparentFluxMJy float64 `json:"apparent_flux_mjy,omitempty"`
	NChannels       int     `json:"nchannels"`

	CompletedOperations []string `json:"completed_operations"`
	Improving           bool     `json:"improving"`
	LoopAmpSelfcal      bool     `json:"loop_amp_selfcal"`
	MaxResidualJy       float64  `json:"max_residual_jy"`

	workingDir  string
	stateFile   string
	pipelineDir string
}

// New constructs a Direction with default progress state rooted at
// workingDir. The caller persists it explicitly via SaveState.
func New(name string, p Params, workingDir string) *Direction {
	d := &Direction{
		Name:           name,
		RA:             p.RA,
		Dec:            p.Dec,
		AtrousDo:       p.AtrousDo,
		MscaleFieldDo:  p.MscaleFieldDo,
		CalImsize:      p.CalImsize,
		FieldImsize:    p.FieldImsize,
		SolintP:        p.SolintP,
		SolintA:        p.SolintA,
		DynamicRange:   p.DynamicRange,
		RegionSelfcal:  noneIfEmpty(p.RegionSelfcal),
		RegionField:    noneIfEmpty(p.RegionField),
		PeelSkymodel:   noneIfEmpty(p.PeelSkymodel),
		OutlierDo:      p.OutlierDo,
		MakeFinalImage: p.MakeFinalImage,
		Vertices:       p.Vertices,
		NChannels:      1,
		Improving:      true,
		MaxResidualJy:  p.MaxResidualJy,

		workingDir:  workingDir,
		stateFile:   filepath.Join(workingDir, "state", name+".json"),
		pipelineDir: filepath.Join(workingDir, "pipeline"),
	}

	d.CalRadiusDeg = p.CalRadiusDeg
	if d.CalRadiusDeg == 0 && p.CellArcsec > 0 {
		// Radius of the calibrator image in degrees, in 1.5 arcsec pixels.
		d.CalRadiusDeg = float64(p.CalImsize) * p.CellArcsec / 3600.0 / 1.5
	}
	if p.CalFluxJy > 0 {
		d.ApparentFluxMJy = p.CalFluxJy * 1000.0
	}
	if d.MaxResidualJy == 0 {
		d.MaxResidualJy = 0.5
	}
	return d
}

// StateFile returns the path of this direction's persisted snapshot.
func (d *Direction) StateFile() string { return d.stateFile }

// RecordCompletion marks an operation as finished for this direction.
// Recording the same operation twice is a no-op.
func (d *Direction) RecordCompletion(operation string) {
	if d.IsComplete(operation) {
		return
	}
	d.CompletedOperations = append(d.CompletedOperations, operation)
}

// IsComplete reports whether the named operation already finished.
func (d *Direction) IsComplete(operation string) bool {
	for _, op := range d.CompletedOperations {
		if op == operation {
			return true
		}
	}
	return false
}

// Reset removes the named operations from the completion record, deletes
// their on-disk pipeline output scoped to this direction only, and
// persists the result. Resetting an operation that never completed is a
// no-op for that entry.
func (d *Direction) Reset(operations []string) error {
	for _, op := range operations {
		d.removeCompletion(op)

		actionDirs, err := filepath.Glob(filepath.Join(d.pipelineDir, op, "*"))
		if err != nil {
			continue
		}
		for _, actionDir := range actionDirs {
			facetDir := filepath.Join(actionDir, d.Name)
			if _, err := os.Stat(facetDir); err == nil {
				_ = os.RemoveAll(facetDir)
			}
		}
	}
	return d.SaveState()
}

func (d *Direction) removeCompletion(operation string) {
	kept := d.CompletedOperations[:0]
	for _, op := range d.CompletedOperations {
		if op != operation {
			kept = append(kept, op)
		}
	}
	d.CompletedOperations = kept
}

func noneIfEmpty(value string) string {
	if strings.EqualFold(strings.TrimSpace(value), "empty") {
		return ""
	}
	return strings.TrimSpace(value)
}
