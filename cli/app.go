// Package cli is the boundary layer between a schema-validated
// program and its command line. It wires a specification, a converter
// registry and a program main into a command with template, config and
// override flags, and turns recognized errors into single-line
// messages and a non-zero exit.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"confit/converter"
	"confit/schema"
	"confit/source"
	"confit/validator"
)

// Matcher reports whether an error is one the boundary should catch
// and present to the user.
type Matcher func(error) bool

// Matches builds a Matcher that catches errors matching any of the
// given targets, in the errors.Is sense.
func Matches(targets ...error) Matcher {
	return func(err error) bool {
		for _, target := range targets {
			if errors.Is(err, target) {
				return true
			}
		}
		return false
	}
}

// App describes a program whose configuration is validated against a
// schema before its main function runs.
type App struct {
	Name    string
	Version string

	// Spec is the schema specification document.
	Spec []byte

	// Converters supplies named conversion functions referenced by the
	// specification, merged over the built-ins.
	Converters converter.Registry

	// Catch lists the application error kinds the boundary presents as
	// user-facing messages. Errors from Main outside this closed list
	// are reported as unexpected failures. Schema, missing-config and
	// conversion errors are always caught.
	Catch []Matcher

	// Main runs the program against a validated configuration.
	Main func(config *validator.Configuration) error

	log zerolog.Logger
}

// unexpectedError wraps a Main failure outside the configured catch
// list.
type unexpectedError struct {
	err error
}

func (e *unexpectedError) Error() string { return e.err.Error() }
func (e *unexpectedError) Unwrap() error { return e.err }

// Command builds the cobra command for the app: a single command with
// mutually exclusive --template and --config flags plus --override.
func (a *App) Command() *cobra.Command {
	var (
		template   bool
		configPath string
		override   string
	)

	cmd := &cobra.Command{
		Use:           a.Name,
		Version:       a.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, template, configPath, override)
		},
	}

	cmd.Flags().BoolVarP(&template, "template", "t", false, "print a template settings file and exit")
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "settings file to validate and run with")
	cmd.Flags().StringVarP(&override, "override", "o", "", "override settings from the config file")
	cmd.MarkFlagsMutuallyExclusive("template", "config")
	cmd.MarkFlagsOneRequired("template", "config")

	return cmd
}

// Execute runs the app and returns its exit code: 0 on success, 1 for
// caught configuration or application errors, 70 for unexpected
// failures.
func (a *App) Execute() int {
	a.log = newLogger()

	err := a.Command().Execute()
	if err == nil {
		return 0
	}

	var unexpected *unexpectedError
	if errors.As(err, &unexpected) {
		a.log.Error().Err(unexpected.err).Msg("unexpected failure")
		return 70
	}
	a.log.Error().Msg(err.Error())
	return 1
}

func (a *App) run(cmd *cobra.Command, template bool, configPath, override string) error {
	s, err := schema.Parse(a.Spec, a.Converters)
	if err != nil {
		return err
	}

	if template {
		sample, err := validator.Sample(s)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), sample)
		return nil
	}

	a.log.Info().Str("version", a.Version).Msg(a.Name)

	cfg, err := source.LoadFile(configPath)
	if err != nil {
		return err
	}
	if override != "" {
		o, err := source.ParseOverride(override)
		if err != nil {
			return err
		}
		if err := source.Apply(cfg, o, s); err != nil {
			return err
		}
	}

	config, err := validator.Validate(s, cfg)
	if err != nil {
		return err
	}

	if err := a.Main(config); err != nil {
		if !a.catches(err) {
			return &unexpectedError{err: err}
		}
		return err
	}
	return nil
}

// catches reports whether err is in the closed list of error kinds the
// boundary presents to the user.
func (a *App) catches(err error) bool {
	var schemaErr *schema.Error
	var missing *validator.MissingConfigError
	var conversion *validator.ConversionError
	if errors.As(err, &schemaErr) || errors.As(err, &missing) || errors.As(err, &conversion) {
		return true
	}
	for _, match := range a.Catch {
		if match(err) {
			return true
		}
	}
	return false
}

// newLogger builds a console logger on stderr with the level taken
// from LOG_LEVEL.
func newLogger() zerolog.Logger {
	level := zerolog.InfoLevel
	switch os.Getenv("LOG_LEVEL") {
	case "debug":
		level = zerolog.DebugLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()
}
