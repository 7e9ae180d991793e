// Package envconfig reads the BPE_* environment variables. Every getter re-reads the
// environment, so tests can change values with t.Setenv.
package envconfig

import (
	"log/slog"
	"os"
	"runtime"
	"strconv"
	"strings"
)

// LogLevel returns the log level. BPE_DEBUG=1 (or any true value) selects debug; an integer
// n selects level -4n, so BPE_DEBUG=2 enables the most verbose output.
func LogLevel() slog.Level {
	level := slog.LevelInfo
	if s := Var("BPE_DEBUG"); s != "" {
		if b, _ := strconv.ParseBool(s); b {
			level = slog.LevelDebug
		} else if i, _ := strconv.ParseInt(s, 10, 64); i != 0 {
			level = slog.Level(i * -4)
		}
	}

	return level
}

// LookupTable returns the default lookup-table path.
func LookupTable() string {
	if s := Var("BPE_LOOKUP_TABLE"); s != "" {
		return s
	}
	return "lookup_table.txt"
}

var (
	// MinPairCount is the smallest count a pair needs to be merged.
	MinPairCount = Uint("BPE_MIN_PAIR_COUNT", 2)
	// MaxMerges caps the number of merges per run. 0 means no cap.
	MaxMerges = Uint("BPE_MAX_MERGES", 0)
	// NumParallel bounds how many dataset records are encoded at once.
	NumParallel = Uint("BPE_NUM_PARALLEL", uint(runtime.NumCPU()))
	// InputSize is the width of the fixed-size feature vectors.
	InputSize = Uint("BPE_INPUT_SIZE", 64)
)

// Uint returns a getter for a uint variable that falls back to defaultValue when the
// variable is unset or invalid.
func Uint(key string, defaultValue uint) func() uint {
	return func() uint {
		if s := Var(key); s != "" {
			if n, err := strconv.ParseUint(s, 10, 64); err != nil {
				slog.Warn("invalid environment variable, using default", "key", key, "value", s, "default", defaultValue)
			} else {
				return uint(n)
			}
		}
		return defaultValue
	}
}

type EnvVar struct {
	Name        string
	Value       any
	Description string
}

func AsMap() map[string]EnvVar {
	return map[string]EnvVar{
		"BPE_DEBUG":          {"BPE_DEBUG", LogLevel(), "Show additional debug information (e.g. BPE_DEBUG=1)"},
		"BPE_LOOKUP_TABLE":   {"BPE_LOOKUP_TABLE", LookupTable(), "Lookup table path (default \"lookup_table.txt\")"},
		"BPE_MIN_PAIR_COUNT": {"BPE_MIN_PAIR_COUNT", MinPairCount(), "Smallest pair count worth merging (default 2)"},
		"BPE_MAX_MERGES":     {"BPE_MAX_MERGES", MaxMerges(), "Maximum number of merges per run, 0 for no limit"},
		"BPE_NUM_PARALLEL":   {"BPE_NUM_PARALLEL", NumParallel(), "Maximum number of dataset records encoded in parallel"},
		"BPE_INPUT_SIZE":     {"BPE_INPUT_SIZE", InputSize(), "Width of padded feature vectors (default 64)"},
	}
}

// Values returns the current configuration rendered as strings.
func Values() map[string]string {
	vals := make(map[string]string)
	for k, v := range AsMap() {
		vals[k] = fmtValue(v.Value)
	}
	return vals
}

func fmtValue(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case uint:
		return strconv.FormatUint(uint64(v), 10)
	case slog.Level:
		return v.String()
	default:
		return ""
	}
}

// Var returns an environment variable stripped of leading and trailing quotes or spaces.
func Var(key string) string {
	return strings.Trim(strings.TrimSpace(os.Getenv(key)), "\"'")
}
