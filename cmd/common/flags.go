package common

import "flag"

// CommonFlags contains flags that are shared across the commands
type CommonFlags struct {
	ConfigFile *string
	EnvFile    *string
	Start      *string
	End        *string
	LogLevel   *string
	Version    *bool
}

// RegisterCommonFlags registers common flags with the default flag set
func RegisterCommonFlags() *CommonFlags {
	return &CommonFlags{
		ConfigFile: flag.String("config", "", "YAML configuration file (defaults apply when empty)"),
		EnvFile:    flag.String("env", "", "Environment file path (.env is tried when empty)"),
		Start:      flag.String("start", "", "Window start date (YYYY-MM-DD)"),
		End:        flag.String("end", "", "Window end date (YYYY-MM-DD)"),
		LogLevel:   flag.String("log-level", "", "Log level override (debug, info, warn, error)"),
		Version:    flag.Bool("version", false, "Show version information"),
	}
}
