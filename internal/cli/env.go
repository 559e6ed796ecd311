package cli

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// EnvFileVar names an env var that, when set, wins over the --env flag.
const EnvFileVar = "LOCALWIRE_ENV_FILE"

// EnvLoader loads one .env file chosen from the --env flag and its fallbacks.
type EnvLoader struct {
	value       *string
	defaultPath string
}

// AddEnvFlag registers an --env flag and returns an EnvLoader.
func AddEnvFlag(fs *flag.FlagSet, defaultPath, description string) *EnvLoader {
	if fs == nil {
		fs = flag.CommandLine
	}
	if defaultPath == "" {
		defaultPath = ".env"
	}
	if description == "" {
		description = "Path to the .env file"
	}

	return &EnvLoader{
		value:       fs.String("env", defaultPath, description),
		defaultPath: defaultPath,
	}
}

type envSource struct {
	path  string
	label string
}

// sources lists candidate files in precedence order: EnvFileVar, the
// requested path, its basename in the working directory, then the default.
func (l *EnvLoader) sources() (string, []envSource) {
	requested := l.defaultPath
	if l.value != nil && strings.TrimSpace(*l.value) != "" {
		requested = strings.TrimSpace(*l.value)
	}

	var out []envSource
	if custom := strings.TrimSpace(os.Getenv(EnvFileVar)); custom != "" {
		out = append(out, envSource{path: custom, label: EnvFileVar})
	}
	out = append(out, envSource{path: requested, label: "--env"})
	if base := filepath.Base(requested); base != "" && base != requested {
		out = append(out, envSource{path: base, label: "basename fallback"})
	}
	if requested != l.defaultPath {
		out = append(out, envSource{path: l.defaultPath, label: "default"})
	}
	return requested, out
}

// Load overloads the process environment from the first readable source and
// returns its path.
func (l *EnvLoader) Load() (string, error) {
	if l == nil {
		return "", fmt.Errorf("env loader is nil")
	}

	log.SetOutput(os.Stderr)

	requested, sources := l.sources()
	for _, src := range sources {
		if err := godotenv.Overload(src.path); err != nil {
			if src.label == EnvFileVar {
				log.Printf("Warning: failed to load %s=%s", EnvFileVar, src.path)
			}
			continue
		}
		log.Printf("Loaded environment from %s: %s", src.label, src.path)
		return src.path, nil
	}

	return "", fmt.Errorf("failed to load env file from %s", requested)
}
