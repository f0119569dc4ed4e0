package catalog

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/dreadnode/robopages-go/internal/command"
)

// argPattern recognizes ${ name } and ${ name or default }, name matching
// [A-Za-z0-9_.]+, with required whitespace around "or" that gets stripped.
// (?s) is not used: multi-line content inside a default is matched by the
// default's own ([^}]+) without needing dotall, since newlines are valid
// non-'}' bytes already.
var argPattern = regexp.MustCompile(`(?m)\$\{\s*([A-Za-z0-9_.]+)(?:\s+or\s+([^}]+))?\s*\}`)

// ValidateArguments checks provided against fn's parameter schema: every
// required parameter must be present, and every provided name must be
// known. Returns ErrMissingArgument or ErrUnknownArgument on violation.
func ValidateArguments(fn *Function, provided map[string]string) error {
	for _, name := range fn.SortedParameterNames() {
		param := fn.Parameters[name]
		if param.Required {
			if _, ok := provided[name]; !ok {
				return fmt.Errorf("%w: %s", ErrMissingArgument, name)
			}
		}
	}

	for name := range provided {
		if _, ok := fn.Parameters[name]; !ok {
			return fmt.Errorf("%w: %s", ErrUnknownArgument, name)
		}
	}

	return nil
}

// ResolveCommand renders fn's argv by interpolating every ${name},
// ${name or default}, and ${env.NAME} placeholder against provided and the
// process environment, then constructs a command.Command from the result.
// Every ${env.*} lookup that hits the environment is also recorded in the
// returned Command's environment overlay, per §4.5.
func ResolveCommand(fn *Function, provided map[string]string) (*command.Command, error) {
	argv, err := fn.Argv()
	if err != nil {
		return nil, err
	}

	overlay := make(map[string]string)
	resolved := make([]string, len(argv))

	for i, arg := range argv {
		rendered, err := resolveElement(arg, provided, overlay)
		if err != nil {
			return nil, err
		}
		resolved[i] = rendered
	}

	return command.FromArgvWithEnv(resolved, overlay)
}

func resolveElement(arg string, provided map[string]string, overlay map[string]string) (string, error) {
	var firstErr error

	result := argPattern.ReplaceAllStringFunc(arg, func(match string) string {
		if firstErr != nil {
			return match
		}

		groups := argPattern.FindStringSubmatch(match)
		name := groups[1]
		var defaultValue *string
		if groups[2] != "" {
			d := groups[2]
			defaultValue = &d
		}

		value, err := resolvePlaceholder(name, defaultValue, provided, overlay)
		if err != nil {
			firstErr = err
			return match
		}
		return value
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

func resolvePlaceholder(name string, defaultValue *string, provided map[string]string, overlay map[string]string) (string, error) {
	if strings.HasPrefix(name, "env.") || strings.HasPrefix(name, "ENV.") {
		envName := name[len("env."):]
		if value, ok := os.LookupEnv(envName); ok {
			overlay[envName] = value
			return value, nil
		}
		if defaultValue != nil {
			return *defaultValue, nil
		}
		return "", fmt.Errorf("%w: %s", ErrEnvVarMissing, envName)
	}

	value, ok := provided[name]
	if !ok {
		if defaultValue != nil {
			return *defaultValue, nil
		}
		return "", fmt.Errorf("%w: %s", ErrArgumentNotProvided, name)
	}
	if value == "" && defaultValue != nil {
		return *defaultValue, nil
	}
	return value, nil
}
