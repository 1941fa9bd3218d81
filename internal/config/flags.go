package config

import "flag"

var (
	flagConfig       = flag.String("config", "", "Path to config file")
	flagDebug        = flag.Bool("debug", false, "Enable debug logging")
	flagPixelSize    = flag.Float64("pixel-size", 0, "Pixel edge length in mm")
	flagHeight       = flag.Float64("height", 0, "Color layer height in mm")
	flagBase         = flag.Float64("base", -1, "Backing plate height in mm (0 disables)")
	flagConnectivity = flag.Int("connectivity", -1, "Region connectivity: 0, 4 or 8")
	flagStrategy     = flag.String("strategy", "", "Mesh strategy: pixel, rectangle or polygon")
	flagTrim         = flag.Bool("trim", false, "Remove pixels without an edge neighbor")
	flagWorkers      = flag.Int("workers", 0, "Parallel region workers (0 = one per CPU)")
	flagOutput       = flag.String("o", "", "Output STL path")
	flagSplit        = flag.Bool("split", false, "Write one STL file per object")
)

// ParseFlags parses command-line flags from args, typically the arguments
// after the subcommand. Call this early in main().
func ParseFlags(args []string) error {
	return flag.CommandLine.Parse(args)
}

// Args returns the positional arguments left after ParseFlags.
func Args() []string {
	return flag.Args()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagPixelSize > 0 {
		cfg.Input.PixelSize = *flagPixelSize
	}
	if *flagHeight > 0 {
		cfg.Mesh.ColorHeight = *flagHeight
	}
	if *flagBase >= 0 {
		cfg.Mesh.BaseHeight = *flagBase
	}
	if *flagConnectivity >= 0 {
		cfg.Mesh.Connectivity = *flagConnectivity
	}
	if *flagStrategy != "" {
		cfg.Mesh.Strategy = *flagStrategy
	}
	if *flagTrim {
		cfg.Mesh.TrimWeak = true
	}
	if *flagWorkers > 0 {
		cfg.Mesh.Workers = *flagWorkers
	}
	if *flagOutput != "" {
		cfg.Output.Path = *flagOutput
	}
	if *flagSplit {
		cfg.Output.Split = true
	}
}
