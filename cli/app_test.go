package cli

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"confit/converter"
	"confit/validator"
)

const testSpec = `
temperature:
  - int
  - 105
  - Cooking temperature
doneness:
  - {rare: 200, medium: 350, well-done: 500}
  - medium
  - How done the dish should be
  - medium
`

func testApp(main func(*validator.Configuration) error) *App {
	return &App{
		Name:    "testapp",
		Version: "1.0.0",
		Spec:    []byte(testSpec),
		Main:    main,
	}
}

func runCommand(t *testing.T, a *App, args ...string) (string, error) {
	t.Helper()
	cmd := a.Command()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeSettings(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "settings.yml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestCommand_Template(t *testing.T) {
	a := testApp(func(config *validator.Configuration) error {
		t.Error("Main should not run in template mode")
		return nil
	})

	out, err := runCommand(t, a, "--template")
	if err != nil {
		t.Fatalf("template run failed: %v", err)
	}

	if !strings.HasPrefix(out, "%YAML 1.2\n---\n") {
		t.Errorf("template does not start with the YAML header:\n%s", out)
	}
	for _, want := range []string{
		"# Cooking temperature",
		"temperature: 105",
		"# One of: rare, medium, well-done",
		"doneness: medium",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("template missing %q:\n%s", want, out)
		}
	}
}

func TestCommand_RunsMainWithValidatedConfig(t *testing.T) {
	path := writeSettings(t, "temperature: 107\n")

	var got *validator.Configuration
	a := testApp(func(config *validator.Configuration) error {
		got = config
		return nil
	})

	if _, err := runCommand(t, a, "--config", path); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if got == nil {
		t.Fatal("Main never ran")
	}
	if v, _ := got.Get("temperature"); v != 107 {
		t.Errorf("temperature = %v, want 107", v)
	}
	if v, _ := got.Get("doneness"); v != 350 {
		t.Errorf("doneness = %v, want 350", v)
	}
	if got.Original.Has("doneness") {
		t.Error("defaulted doneness should not appear among supplied settings")
	}
}

func TestCommand_AppliesOverrides(t *testing.T) {
	path := writeSettings(t, "temperature: 107\n")

	var got *validator.Configuration
	a := testApp(func(config *validator.Configuration) error {
		got = config
		return nil
	})

	if _, err := runCommand(t, a, "--config", path, "--override", "doneness: rare"); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if v, _ := got.Get("doneness"); v != 200 {
		t.Errorf("doneness = %v, want 200", v)
	}
}

func TestCommand_RejectsUnknownOverride(t *testing.T) {
	path := writeSettings(t, "temperature: 107\n")

	a := testApp(func(config *validator.Configuration) error { return nil })
	_, err := runCommand(t, a, "--config", path, "--override", "temprature: 99")
	if err == nil {
		t.Fatal("expected an error for an unrecognized override")
	}
	if !strings.Contains(err.Error(), `"temprature"`) {
		t.Errorf("error = %q, want it to name the bad key", err)
	}
}

func TestCommand_MissingConfigFile(t *testing.T) {
	a := testApp(func(config *validator.Configuration) error { return nil })
	_, err := runCommand(t, a, "--config", filepath.Join(t.TempDir(), "nope.yml"))
	if err == nil {
		t.Fatal("expected an error for a missing settings file")
	}
	if !strings.Contains(err.Error(), "does not exist") {
		t.Errorf("error = %q, want it to say the file does not exist", err)
	}
}

func TestCommand_BadSetting(t *testing.T) {
	path := writeSettings(t, "temperature: warm\n")

	a := testApp(func(config *validator.Configuration) error { return nil })
	_, err := runCommand(t, a, "--config", path)

	var conversion *validator.ConversionError
	if !errors.As(err, &conversion) {
		t.Fatalf("error = %v, want a ConversionError", err)
	}
	if conversion.Key != "temperature" {
		t.Errorf("Key = %q, want temperature", conversion.Key)
	}
}

func TestCommand_FlagConstraints(t *testing.T) {
	a := testApp(func(config *validator.Configuration) error { return nil })

	if _, err := runCommand(t, a); err == nil {
		t.Error("expected an error when neither --template nor --config is given")
	}
	if _, err := runCommand(t, a, "--template", "--config", "x.yml"); err == nil {
		t.Error("expected an error when --template and --config are combined")
	}
}

func TestCommand_CustomConverters(t *testing.T) {
	spec := []byte("level:\n  - loudness\n  - quiet\n  - Output level\n")
	path := writeSettings(t, "level: loud\n")

	var got any
	a := &App{
		Name: "testapp",
		Spec: spec,
		Converters: converter.Registry{
			"loudness": func(v any) (any, error) {
				s, ok := v.(string)
				if !ok {
					return nil, fmt.Errorf("%v: %w", v, converter.ErrWrongType)
				}
				return strings.ToUpper(s), nil
			},
		},
		Main: func(config *validator.Configuration) error {
			got, _ = config.Get("level")
			return nil
		},
	}

	if _, err := runCommand(t, a, "--config", path); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if got != "LOUD" {
		t.Errorf("level = %v, want LOUD", got)
	}
}

func TestCatches(t *testing.T) {
	errApp := errors.New("application failure")
	a := &App{Catch: []Matcher{Matches(errApp)}}

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"listed application error", errApp, true},
		{"wrapped application error", fmt.Errorf("while cooking: %w", errApp), true},
		{"missing config", &validator.MissingConfigError{Key: "x"}, true},
		{"conversion failure", &validator.ConversionError{Key: "x", Err: errors.New("bad")}, true},
		{"unlisted error", errors.New("disk on fire"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := a.catches(tt.err); got != tt.want {
				t.Errorf("catches(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestExecute_ExitCodes(t *testing.T) {
	errApp := errors.New("application failure")
	path := writeSettings(t, "temperature: 107\n")

	tests := []struct {
		name string
		main func(*validator.Configuration) error
		args []string
		want int
	}{
		{
			name: "success",
			main: func(*validator.Configuration) error { return nil },
			args: []string{"--config", path},
			want: 0,
		},
		{
			name: "caught application error",
			main: func(*validator.Configuration) error { return errApp },
			args: []string{"--config", path},
			want: 1,
		},
		{
			name: "unexpected failure",
			main: func(*validator.Configuration) error { return errors.New("disk on fire") },
			args: []string{"--config", path},
			want: 70,
		},
	}

	savedArgs := os.Args
	defer func() { os.Args = savedArgs }()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := testApp(tt.main)
			a.Catch = []Matcher{Matches(errApp)}
			os.Args = append([]string{"testapp"}, tt.args...)
			if got := a.Execute(); got != tt.want {
				t.Errorf("Execute() = %d, want %d", got, tt.want)
			}
		})
	}
}
