package macro

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
)

// FromEnviron converts KEY=VALUE pairs as returned by os.Environ.
func FromEnviron(environ []string) map[string]string {
	vars := map[string]string{}
	for _, kv := range environ {
		i := strings.Index(kv, "=")
		if i <= 0 {
			continue
		}
		vars[kv[:i]] = kv[i+1:]
	}
	return vars
}

// ParseAssignments parses KEY=VALUE arguments given on the command line.
func ParseAssignments(assignments []string) (map[string]string, error) {
	vars := map[string]string{}
	for _, a := range assignments {
		i := strings.Index(a, "=")
		if i <= 0 {
			return nil, fmt.Errorf("invalid variable assignment %q: expected KEY=VALUE", a)
		}
		vars[a[:i]] = a[i+1:]
	}
	return vars, nil
}

// ReadEnvFiles loads dotenv files. Later files win.
func ReadEnvFiles(paths ...string) (map[string]string, error) {
	vars := map[string]string{}
	for _, p := range paths {
		m, err := godotenv.Read(p)
		if err != nil {
			return nil, fmt.Errorf("reading env file %q: %w", p, err)
		}
		for k, v := range m {
			vars[k] = v
		}
	}
	return vars, nil
}

// Merge merges variable layers by overwrite.
func Merge(layers ...map[string]string) map[string]string {
	res := map[string]string{}
	for _, l := range layers {
		for k, v := range l {
			res[k] = v
		}
	}
	return res
}
