package catalog

import (
	"errors"
	"testing"
)

func paramFn(argv []string, params map[string]*Parameter) *Function {
	return &Function{
		Description: "test",
		Parameters:  params,
		CommandLine: argv,
	}
}

func TestValidateArgumentsMissingRequired(t *testing.T) {
	fn := paramFn(nil, map[string]*Parameter{
		"host": {Type: "string", Required: true},
	})

	if err := ValidateArguments(fn, map[string]string{}); !errors.Is(err, ErrMissingArgument) {
		t.Fatalf("expected ErrMissingArgument, got %v", err)
	}
}

func TestValidateArgumentsUnknown(t *testing.T) {
	fn := paramFn(nil, map[string]*Parameter{
		"host": {Type: "string", Required: true},
	})

	err := ValidateArguments(fn, map[string]string{"host": "x", "extra": "y"})
	if !errors.Is(err, ErrUnknownArgument) {
		t.Fatalf("expected ErrUnknownArgument, got %v", err)
	}
}

func TestValidateArgumentsOptionalMayBeOmitted(t *testing.T) {
	fn := paramFn(nil, map[string]*Parameter{
		"host":    {Type: "string", Required: true},
		"timeout": {Type: "string", Required: false},
	})

	if err := ValidateArguments(fn, map[string]string{"host": "x"}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestResolveCommandHappyPath(t *testing.T) {
	fn := paramFn([]string{"ping", "-c", "1", "${host}"}, map[string]*Parameter{
		"host": {Type: "string", Required: true},
	})

	cmd, err := ResolveCommand(fn, map[string]string{"host": "example.com"})
	if err != nil {
		t.Fatalf("ResolveCommand: %v", err)
	}
	wantArgs := []string{"-c", "1", "example.com"}
	if len(cmd.Args) != len(wantArgs) {
		t.Fatalf("got args %v, want %v", cmd.Args, wantArgs)
	}
	for i, a := range wantArgs {
		if cmd.Args[i] != a {
			t.Fatalf("arg[%d] = %q, want %q", i, cmd.Args[i], a)
		}
	}
}

func TestResolveCommandDefaultValue(t *testing.T) {
	fn := paramFn([]string{"ping", "-c", "${count or 1}", "${host}"}, map[string]*Parameter{
		"host":  {Type: "string", Required: true},
		"count": {Type: "string", Required: false},
	})

	cmd, err := ResolveCommand(fn, map[string]string{"host": "example.com"})
	if err != nil {
		t.Fatalf("ResolveCommand: %v", err)
	}
	if cmd.Args[1] != "1" {
		t.Fatalf("expected default '1' for count, got %q", cmd.Args[1])
	}
}

func TestResolveCommandMissingArgumentNoDefault(t *testing.T) {
	fn := paramFn([]string{"ping", "${host}"}, map[string]*Parameter{
		"host": {Type: "string", Required: true},
	})

	if _, err := ResolveCommand(fn, map[string]string{}); !errors.Is(err, ErrArgumentNotProvided) {
		t.Fatalf("expected ErrArgumentNotProvided, got %v", err)
	}
}

func TestResolveCommandEnvLookup(t *testing.T) {
	t.Setenv("ROBOPAGES_TEST_TOKEN", "secret123")

	fn := paramFn([]string{"curl", "-H", "Authorization: ${env.ROBOPAGES_TEST_TOKEN}"}, nil)

	cmd, err := ResolveCommand(fn, map[string]string{})
	if err != nil {
		t.Fatalf("ResolveCommand: %v", err)
	}
	if cmd.Args[1] != "Authorization: secret123" {
		t.Fatalf("unexpected rendered arg: %q", cmd.Args[1])
	}
	if cmd.Env["ROBOPAGES_TEST_TOKEN"] != "secret123" {
		t.Fatalf("expected env overlay to record the lookup, got %v", cmd.Env)
	}
}

func TestResolveCommandEnvMissingNoDefault(t *testing.T) {
	fn := paramFn([]string{"curl", "-H", "Authorization: ${env.ROBOPAGES_DOES_NOT_EXIST}"}, nil)

	if _, err := ResolveCommand(fn, map[string]string{}); !errors.Is(err, ErrEnvVarMissing) {
		t.Fatalf("expected ErrEnvVarMissing, got %v", err)
	}
}

func TestResolveCommandEnvMissingWithDefault(t *testing.T) {
	fn := paramFn([]string{"curl", "-H", "Authorization: ${env.ROBOPAGES_DOES_NOT_EXIST or none}"}, nil)

	cmd, err := ResolveCommand(fn, map[string]string{})
	if err != nil {
		t.Fatalf("ResolveCommand: %v", err)
	}
	if cmd.Args[1] != "Authorization: none" {
		t.Fatalf("unexpected rendered arg: %q", cmd.Args[1])
	}
}

func TestResolveCommandEmptyProvidedFallsBackToDefault(t *testing.T) {
	fn := paramFn([]string{"ping", "-c", "${count or 1}"}, map[string]*Parameter{
		"count": {Type: "string", Required: false},
	})

	cmd, err := ResolveCommand(fn, map[string]string{"count": ""})
	if err != nil {
		t.Fatalf("ResolveCommand: %v", err)
	}
	if cmd.Args[1] != "1" {
		t.Fatalf("expected default '1' when provided value is empty, got %q", cmd.Args[1])
	}
}

func TestResolveCommandUnsupportedPlatform(t *testing.T) {
	fn := &Function{
		Description: "test",
		Platforms:   map[string][]string{"plan9": {"true"}},
	}

	if _, err := ResolveCommand(fn, map[string]string{}); !errors.Is(err, ErrPlatformUnsupported) {
		t.Fatalf("expected ErrPlatformUnsupported, got %v", err)
	}
}
