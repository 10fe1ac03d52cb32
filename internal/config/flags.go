package config

import "flag"

// Flags holds the command-line overrides shared by meshtool commands.
// Zero values leave the loaded configuration untouched.
type Flags struct {
	Config     string
	Debug      bool
	Epsilon    float64
	MaxEntries int
	Encoding   string
	LogFile    string
}

// BindFlags registers the common flags on fs.
func BindFlags(fs *flag.FlagSet) *Flags {
	f := &Flags{}
	fs.StringVar(&f.Config, "config", "", "Path to config file")
	fs.BoolVar(&f.Debug, "debug", false, "Enable debug logging")
	fs.Float64Var(&f.Epsilon, "epsilon", 0, "T-vertex distance tolerance")
	fs.IntVar(&f.MaxEntries, "max-entries", 0, "R-tree node fan-out")
	fs.StringVar(&f.Encoding, "encoding", "", "Text encoding of OBJ names and STL headers")
	fs.StringVar(&f.LogFile, "log-file", "", "Also log to this file")
	return f
}

// Apply writes the set flags over cfg.
func (f *Flags) Apply(cfg *Config) {
	if f == nil {
		return
	}
	if f.Debug {
		cfg.Logging.Level = "debug"
	}
	if f.Epsilon > 0 {
		cfg.TVertex.Epsilon = f.Epsilon
	}
	if f.MaxEntries > 0 {
		cfg.Index.MaxEntries = f.MaxEntries
	}
	if f.Encoding != "" {
		cfg.Formats.ObjNameEncoding = f.Encoding
	}
	if f.LogFile != "" {
		cfg.Logging.LogFile = f.LogFile
	}
}
