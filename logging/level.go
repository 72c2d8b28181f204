package logging

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// levelAliases maps npm-style level names onto zerolog levels so LOG_LEVEL
// values written for other runtimes keep working.
var levelAliases = map[string]zerolog.Level{
	"verbose": zerolog.DebugLevel,
	"http":    zerolog.InfoLevel,
	"silly":   zerolog.TraceLevel,
	"warning": zerolog.WarnLevel,
}

// ParseLevel converts a level name into a Level.
//
// Accepted values: trace, debug, info, warn, error, fatal, panic, disabled,
// plus the aliases verbose, http, silly and warning. Matching is
// case-insensitive and an empty string means info.
func ParseLevel(s string) (Level, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "" {
		return zerolog.InfoLevel, nil
	}

	if level, ok := levelAliases[name]; ok {
		return level, nil
	}

	level, err := zerolog.ParseLevel(name)
	if err != nil || level == zerolog.NoLevel {
		return zerolog.NoLevel, fmt.Errorf("logging: invalid level %q", s)
	}
	return level, nil
}
