package config

const (
	defaultWorkingDir    = "~/facetflow"
	defaultLogDir        = "~/facetflow/logs"
	defaultImager        = "wsclean"
	defaultCellArcsec    = 1.5
	defaultNTerms        = 1
	defaultMaxCPU        = 8
	defaultMaxResidualJy = 0.5
	defaultLogFormat     = "console"
	defaultLogLevel      = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkingDir: defaultWorkingDir,
			LogDir:     defaultLogDir,
		},
		Imaging: Imaging{
			Imager:     defaultImager,
			CellArcsec: defaultCellArcsec,
			NTerms:     defaultNTerms,
			MaxCPU:     defaultMaxCPU,
		},
		Selfcal: Selfcal{
			MaxResidualJy: defaultMaxResidualJy,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
