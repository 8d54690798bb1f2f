package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/vk/shaderplan/internal/app"
	"github.com/vk/shaderplan/internal/publish"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("shaderplan", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
shaderplan - Compiles declarative shader scenes into render plans.

Usage:
  shaderplan [options] [SCENE_PATH]

Arguments:
  SCENE_PATH
    Path to a single .hcl file or a directory containing .hcl files.

Options:
`)
		flagSet.PrintDefaults()
	}

	sceneFlag := flagSet.String("scene", "", "Path to the scene file or directory.")
	sFlag := flagSet.String("s", "", "Path to the scene file or directory (shorthand).")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	formatFlag := flagSet.String("format", app.FormatJSON, "Plan output format. Options: 'json' or 'text'.")
	verifyFlag := flagSet.Bool("verify", true, "Check every plan for slot collisions before writing it.")
	httpPortFlag := flagSet.Int("http-port", 0, "Port for the HTTP server exposing /health and /plan. 0 is disabled.")
	watchFlag := flagSet.Duration("watch", 0, "Poll the scene for changes at this interval. 0 compiles once.")
	publishURLFlag := flagSet.String("publish-url", "", "Socket.IO endpoint of the render backend. Empty disables publishing.")
	publishNSFlag := flagSet.String("publish-namespace", publish.DefaultNamespace, "Socket.IO namespace for published plans.")
	publishEventFlag := flagSet.String("publish-event", publish.DefaultEvent, "Event name carrying the plan.")
	publishAckFlag := flagSet.String("publish-ack", "", "Event the backend sends once a plan is accepted. Empty skips waiting.")
	publishTimeoutFlag := flagSet.Duration("publish-timeout", publish.DefaultTimeout, "Upper bound for connecting and publishing one plan.")
	publishInsecureFlag := flagSet.Bool("publish-insecure", false, "Skip TLS certificate verification when publishing.")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	path := ""
	if *sceneFlag != "" {
		path = *sceneFlag
	} else if *sFlag != "" {
		path = *sFlag
	} else if flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	}
	slog.Debug("Scene path determined.", "path", path)

	if path == "" {
		slog.Debug("No scene path provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	var pub publish.Options
	if *publishURLFlag != "" {
		pub = publish.Options{
			URL:                *publishURLFlag,
			Namespace:          *publishNSFlag,
			Event:              *publishEventFlag,
			AckEvent:           *publishAckFlag,
			Timeout:            *publishTimeoutFlag,
			InsecureSkipVerify: *publishInsecureFlag,
		}
	}
	slog.Debug("CLI parameter validation complete.")

	config, err := app.NewConfig(app.Config{
		ScenePath: path,
		LogFormat: logFormat,
		LogLevel:  logLevel,
		Format:    strings.ToLower(*formatFlag),
		Verify:    *verifyFlag,
		HTTPPort:  *httpPortFlag,
		Watch:     *watchFlag,
		Publish:   pub,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}
