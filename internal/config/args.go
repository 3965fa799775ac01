package config

// Args is the set of values the CLI layer (cmd/logview, built on cobra)
// parses out of flags and the positional file argument. Setup merges it
// in last, giving flags the highest precedence of the four config
// sources (file, env, flags over defaults).
type Args struct {
	FilePath     string
	ConfigFile   string
	LogLevel     string
	LogDir       string
	ProfilePort  int
	DateFormat   string
	Neighbourhood int
	NoColor      bool

	// set tracks which fields were explicitly passed on the command
	// line, so Setup only overrides a value when the flag was actually
	// given (cobra flags otherwise carry zero-value defaults that would
	// incorrectly stomp the file/env layers).
	set map[string]bool
}

// NewArgs returns an Args with an initialized override-tracking set.
func NewArgs() *Args {
	return &Args{set: make(map[string]bool)}
}

// MarkSet records that a flag by this name was explicitly provided.
func (a *Args) MarkSet(name string) {
	if a.set == nil {
		a.set = make(map[string]bool)
	}
	a.set[name] = true
}

// IsSet reports whether MarkSet was called for name.
func (a *Args) IsSet(name string) bool {
	return a.set[name]
}

// Setup builds a final Config by layering defaults, an optional config
// file, environment variables, and finally this Args (highest
// precedence), mirroring dtail's initializer.parseConfig/transformConfig
// sequence (internal/config/initializer.go).
func Setup(args *Args) (Config, error) {
	cfg := Defaults()

	if err := LoadFile(&cfg, args.ConfigFile); err != nil {
		return cfg, err
	}

	ApplyEnv(&cfg)

	cfg.FilePath = args.FilePath
	if args.IsSet("log-level") {
		cfg.LogLevel = args.LogLevel
	}
	if args.IsSet("log-dir") {
		cfg.LogDir = args.LogDir
	}
	if args.IsSet("profile-port") {
		cfg.ProfilePort = args.ProfilePort
	}
	if args.IsSet("date-format") {
		cfg.DateFormat = args.DateFormat
	}
	if args.IsSet("neighbourhood") {
		cfg.DefaultNeighbourhood = args.Neighbourhood
	}
	if args.IsSet("no-color") {
		cfg.NoColor = args.NoColor
	}

	return cfg, nil
}
