package action_test

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"facetflow/internal/action"
	"facetflow/internal/config"
	"facetflow/internal/datamap"
	"facetflow/internal/direction"
	"facetflow/internal/fileutil"
	"facetflow/internal/testsupport"
)

func writeInputMap(t *testing.T, cfg *config.Config, prefix string, paths []string) string {
	t.Helper()
	hosts := make([]string, len(paths))
	for i := range hosts {
		hosts[i] = "node01"
	}
	handle, err := datamap.Write(cfg.DatamapDir(), prefix, paths, hosts, datamap.WriteOptions{})
	if err != nil {
		t.Fatalf("write input datamap: %v", err)
	}
	return handle
}

func testDirection(t *testing.T, cfg *config.Config, name string) *direction.Direction {
	t.Helper()
	return direction.New(name, direction.Params{
		RA:           123.5,
		Dec:          52.1,
		CalImsize:    512,
		FieldImsize:  2048,
		CellArcsec:   cfg.Imaging.CellArcsec,
		Vertices:     [][2]float64{{123.0, 52.0}, {124.0, 52.0}, {123.5, 52.5}},
		DynamicRange: "LD",
	}, cfg.Paths.WorkingDir)
}

func allExist() fileutil.Checker {
	return fileutil.CheckerFunc(func(string) bool { return true })
}

func TestSkymodelFromImageBuildsDerivedMaps(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Imaging.Imager = "wsclean"
	cfg.Imaging.NTerms = 1
	input := writeInputMap(t, cfg, "model_images", []string{"/img/facet1", "/img/facet2"})

	act, err := action.NewSkymodelFromImage(cfg, "facetselfcal", input, action.SkymodelParams{}, action.Options{Checker: allExist()})
	if err != nil {
		t.Fatalf("NewSkymodelFromImage failed: %v", err)
	}
	if err := action.Setup(act); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	if act.Phase() != action.PhaseReady {
		t.Fatalf("expected PhaseReady, got %v", act.Phase())
	}

	out, err := datamap.Read(act.OutputDatamap())
	if err != nil {
		t.Fatalf("read output datamap: %v", err)
	}
	if out.Len() != 2 {
		t.Fatalf("expected 2 output entries, got %d", out.Len())
	}
	for _, path := range out.Paths() {
		if !strings.HasSuffix(path, ".skymodel") {
			t.Fatalf("unexpected output path %s", path)
		}
		if !strings.HasPrefix(path, act.WorkingDir()) {
			t.Fatalf("output %s not under working dir %s", path, act.WorkingDir())
		}
	}
	if !reflect.DeepEqual(out.Hosts(), []string{"node01", "node01"}) {
		t.Fatalf("host affinity not preserved: %v", out.Hosts())
	}

	if _, err := os.Stat(act.ParsetFile()); err != nil {
		t.Fatalf("parset not written: %v", err)
	}
}

func TestSkymodelFromImageMultiTermNames(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Imaging.Imager = "wsclean"
	cfg.Imaging.NTerms = 2
	input := writeInputMap(t, cfg, "model_images", []string{"/img/facet1"})

	act, err := action.NewSkymodelFromImage(cfg, "facetselfcal", input, action.SkymodelParams{}, action.Options{Checker: allExist()})
	if err != nil {
		t.Fatal(err)
	}
	if err := act.BuildDatamaps(); err != nil {
		t.Fatalf("BuildDatamaps failed: %v", err)
	}

	derivedInput := filepath.Join(cfg.DatamapDir(), "make_skymodel_input.datamap")
	dm, err := datamap.Read(derivedInput)
	if err != nil {
		t.Fatalf("read derived input datamap: %v", err)
	}
	if dm.Paths()[0] != "/img/facet1-MFS-model.fits" {
		t.Fatalf("unexpected multi-term input name %s", dm.Paths()[0])
	}
}

func TestSkymodelFromImageCASANames(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Imaging.Imager = "casapy"
	input := writeInputMap(t, cfg, "model_images", []string{"/img/facet1"})

	act, err := action.NewSkymodelFromImage(cfg, "facetselfcal", input, action.SkymodelParams{}, action.Options{Checker: allExist()})
	if err != nil {
		t.Fatal(err)
	}
	if err := act.BuildDatamaps(); err != nil {
		t.Fatal(err)
	}

	dm, err := datamap.Read(filepath.Join(cfg.DatamapDir(), "make_skymodel_input.datamap"))
	if err != nil {
		t.Fatal(err)
	}
	if dm.Paths()[0] != "/img/facet1.model" {
		t.Fatalf("unexpected casa input name %s", dm.Paths()[0])
	}
}

func TestBuildDatamapsIsIdempotent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	input := writeInputMap(t, cfg, "model_images", []string{"/img/facet1", "/img/facet2"})

	act, err := action.NewSkymodelFromImage(cfg, "facetselfcal", input, action.SkymodelParams{}, action.Options{Checker: allExist()})
	if err != nil {
		t.Fatal(err)
	}
	if err := act.BuildDatamaps(); err != nil {
		t.Fatal(err)
	}
	first, err := os.ReadFile(act.OutputDatamap())
	if err != nil {
		t.Fatal(err)
	}
	handle := act.OutputDatamap()

	if err := act.BuildDatamaps(); err != nil {
		t.Fatal(err)
	}
	if act.OutputDatamap() != handle {
		t.Fatalf("output handle changed on re-run: %s vs %s", act.OutputDatamap(), handle)
	}
	second, err := os.ReadFile(act.OutputDatamap())
	if err != nil {
		t.Fatal(err)
	}
	if string(first) != string(second) {
		t.Fatal("output datamap content changed on re-run")
	}
}

func TestEmitControlFilesRequiresDatamaps(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	input := writeInputMap(t, cfg, "model_images", []string{"/img/facet1"})

	act, err := action.NewSkymodelFromImage(cfg, "facetselfcal", input, action.SkymodelParams{}, action.Options{})
	if err != nil {
		t.Fatal(err)
	}
	if err := act.EmitControlFiles(); err == nil {
		t.Fatal("expected error emitting control files before datamaps are built")
	}
}

func TestFacetSkymodelRequiresDirection(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if _, err := action.NewFacetSkymodel(cfg, "facetselfcal", "in.datamap", action.FacetSkymodelParams{}, action.Options{}); err == nil {
		t.Fatal("expected error without direction")
	}
}

func TestFacetSkymodelFlagsMissingArtifacts(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	dir := testDirection(t, cfg, "facet_patch_1")
	input := writeInputMap(t, cfg, "full_models", []string{"/models/band1.skymodel", "/models/band2.skymodel", "/models/band3.skymodel"})

	act, err := action.NewFacetSkymodel(cfg, "facetselfcal", input, action.FacetSkymodelParams{CalOnly: true}, action.Options{Direction: dir})
	if err != nil {
		t.Fatal(err)
	}
	if err := action.Setup(act); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}

	// Materialize every declared output except the second.
	out, err := datamap.Read(act.OutputDatamap())
	if err != nil {
		t.Fatal(err)
	}
	for i, path := range out.Paths() {
		if i == 1 {
			continue
		}
		testsupport.TouchFile(t, path)
	}

	handle, err := act.CollectResults()
	if err != nil {
		t.Fatalf("CollectResults failed: %v", err)
	}
	got, err := datamap.Read(handle)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got.Skip, []bool{false, true, false}) {
		t.Fatalf("unexpected skip flags %v", got.Skip)
	}
}

func TestMergeSkymodelsPairedOutput(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	in1 := writeInputMap(t, cfg, "cal_models", []string{"/m/a.skymodel", "/m/b.skymodel", "/m/c.skymodel"})
	in2 := writeInputMap(t, cfg, "field_models", []string{"/m/x.skymodel", "/m/y.skymodel", "/m/z.skymodel"})

	act, err := action.NewMergeSkymodels(cfg, "facetsub", in1, in2, action.MergeParams{}, action.Options{Checker: allExist()})
	if err != nil {
		t.Fatal(err)
	}
	if err := action.Setup(act); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}

	handle, err := act.CollectResults()
	if err != nil {
		t.Fatalf("CollectResults failed: %v", err)
	}
	out, err := datamap.Read(handle)
	if err != nil {
		t.Fatal(err)
	}
	if out.Len() != 3 {
		t.Fatalf("expected 3 merged entries, got %d", out.Len())
	}
	for i, path := range out.Paths() {
		if !strings.HasSuffix(path, "_merged.skymodel") {
			t.Fatalf("unexpected merged name %s", path)
		}
		if out.Skip[i] {
			t.Fatalf("entry %d unexpectedly skipped", i)
		}
	}
	if out.Paths()[0] != filepath.Join(act.WorkingDir(), "a_merged.skymodel") {
		t.Fatalf("merged names should derive from the first map, got %s", out.Paths()[0])
	}
}

func TestMergeSkymodelsShapeMismatch(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	in1 := writeInputMap(t, cfg, "cal_models", []string{"/m/a.skymodel", "/m/b.skymodel", "/m/c.skymodel"})
	in2 := writeInputMap(t, cfg, "field_models", []string{"/m/w.skymodel", "/m/x.skymodel", "/m/y.skymodel", "/m/z.skymodel"})

	act, err := action.NewMergeSkymodels(cfg, "facetsub", in1, in2, action.MergeParams{}, action.Options{})
	if err != nil {
		t.Fatal(err)
	}
	err = act.BuildDatamaps()
	if !errors.Is(err, action.ErrInputShape) {
		t.Fatalf("expected ErrInputShape, got %v", err)
	}
	if act.OutputDatamap() != "" {
		t.Fatal("output datamap written despite shape mismatch")
	}
	if _, statErr := os.Stat(filepath.Join(cfg.DatamapDir(), "merge_skymodel_output.datamap")); !os.IsNotExist(statErr) {
		t.Fatal("output datamap file exists despite shape mismatch")
	}
}

func TestFFTDerivesWPlanesFromDirection(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	dir := testDirection(t, cfg, "facet_patch_1") // field imsize 2048
	vis := writeInputMap(t, cfg, "vis", []string{"/data/band1.ms"})
	models := writeInputMap(t, cfg, "model_basenames", []string{"/img/facet1"})

	act, err := action.NewFFT(cfg, "facetsub", vis, models, action.FFTParams{}, action.Options{Direction: dir})
	if err != nil {
		t.Fatal(err)
	}
	if act.WPlaneCount() != 384 {
		t.Fatalf("expected 384 wplanes for imsize 2048, got %d", act.WPlaneCount())
	}
}

func TestFFTWPlanesOverride(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	vis := writeInputMap(t, cfg, "vis", []string{"/data/band1.ms"})
	models := writeInputMap(t, cfg, "model_basenames", []string{"/img/facet1"})

	act, err := action.NewFFT(cfg, "facetsub", vis, models, action.FFTParams{ImSize: 4096, WPlanes: 32}, action.Options{})
	if err != nil {
		t.Fatal(err)
	}
	if act.WPlaneCount() != 32 {
		t.Fatalf("explicit wplanes not honored, got %d", act.WPlaneCount())
	}
}

func TestFFTCASATimeout(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Imaging.Imager = "casapy"
	vis := writeInputMap(t, cfg, "vis", []string{"/data/band1.ms"})
	models := writeInputMap(t, cfg, "model_basenames", []string{"/img/facet1"})

	act, err := action.NewFFT(cfg, "facetsub", vis, models, action.FFTParams{ImSize: 1024}, action.Options{})
	if err != nil {
		t.Fatal(err)
	}
	if act.Timeout() != 20*time.Minute {
		t.Fatalf("expected extended casapy timeout, got %v", act.Timeout())
	}

	if err := action.Setup(act); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	data, err := os.ReadFile(act.ParsetFile())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "task_ftw.py") {
		t.Fatalf("casapy parset missing task file declaration: %s", data)
	}

	handle, err := act.CollectResults()
	if err != nil || handle != "" {
		t.Fatalf("FFT should produce no output datamap, got %q err %v", handle, err)
	}
}

func TestFFTNoTimeoutForOtherImagers(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	vis := writeInputMap(t, cfg, "vis", []string{"/data/band1.ms"})
	models := writeInputMap(t, cfg, "model_basenames", []string{"/img/facet1"})

	act, err := action.NewFFT(cfg, "facetsub", vis, models, action.FFTParams{ImSize: 1024}, action.Options{})
	if err != nil {
		t.Fatal(err)
	}
	if act.Timeout() != 0 {
		t.Fatalf("expected no timeout for wsclean, got %v", act.Timeout())
	}
}

func TestWorkingDirScopedByDirectionAndIndex(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	dir := testDirection(t, cfg, "facet_patch_1")
	input := writeInputMap(t, cfg, "full_models", []string{"/m/a.skymodel"})

	act1, err := action.NewFacetSkymodel(cfg, "facetselfcal", input, action.FacetSkymodelParams{}, action.Options{Direction: dir, Index: 1})
	if err != nil {
		t.Fatal(err)
	}
	act2, err := action.NewFacetSkymodel(cfg, "facetselfcal", input, action.FacetSkymodelParams{}, action.Options{Direction: dir, Index: 2})
	if err != nil {
		t.Fatal(err)
	}
	if err := act1.BuildDatamaps(); err != nil {
		t.Fatal(err)
	}
	if err := act2.BuildDatamaps(); err != nil {
		t.Fatal(err)
	}
	if act1.OutputDatamap() == act2.OutputDatamap() {
		t.Fatal("repeated invocations share an output datamap handle")
	}
	if !strings.Contains(act1.WorkingDir(), "facet_patch_1") {
		t.Fatalf("working dir not direction scoped: %s", act1.WorkingDir())
	}
}
