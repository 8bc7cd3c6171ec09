package command

import (
	"crypto/tls"
	"fmt"
	"io"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/seqlink-go/internal/cli/config"
	"github.com/yndnr/seqlink-go/internal/cli/connection"
	"github.com/yndnr/seqlink-go/internal/cli/output"
	"github.com/yndnr/seqlink-go/internal/infra/buildinfo"
	"github.com/yndnr/seqlink-go/internal/infra/tlsroots"
)

const settingsKey = "settings"

// App creates the CLI application.
func App() *cli.App {
	app := &cli.App{
		Name:    "seqlink-cli",
		Usage:   "Talk to a seqlink server over an encrypted, sequenced session",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			ChatCommand(),
			ConversationCommand(),
			HealthCommand(),
			KeygenCommand(),
		},
		Before: func(c *cli.Context) error {
			s, err := loadSettings(c)
			if err != nil {
				return err
			}
			c.App.Metadata[settingsKey] = s
			return nil
		},
	}

	return app
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "seqlink server URL (e.g., http://localhost:5380)",
			EnvVars: []string{"SEQLINK_SERVER"},
		},
		&cli.StringFlag{
			Name:  "ca-file",
			Usage: "PEM file with extra CA certificates for https servers",
		},
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "CLI config file (default ~/.seqlink/cli.yaml)",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: text, json, yaml",
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "Per-request timeout",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"V"},
			Usage:   "Print request details and sequence numbers",
		},
	}
}

// Settings is the resolved configuration for one invocation.
type Settings struct {
	Server      string
	TLS         *tls.Config
	Output      output.Format
	Timeout     time.Duration
	Cipher      string
	Compress    bool
	HistoryFile string
	Verbose     bool
}

func loadSettings(c *cli.Context) (*Settings, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	if c.IsSet("server") {
		cfg.Server = c.String("server")
	}
	if c.IsSet("output") {
		cfg.Output = c.String("output")
	}
	if c.IsSet("timeout") {
		cfg.Timeout = c.Duration("timeout")
	}
	if c.IsSet("ca-file") {
		cfg.CAFile = c.String("ca-file")
	}

	format, err := output.ParseFormat(cfg.Output)
	if err != nil {
		return nil, err
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = connection.DefaultTimeout
	}
	tlsCfg, err := tlsroots.LoadClientConfig(cfg.CAFile)
	if err != nil {
		return nil, err
	}

	return &Settings{
		Server:      cfg.Server,
		TLS:         tlsCfg,
		Output:      format,
		Timeout:     cfg.Timeout,
		Cipher:      cfg.Cipher,
		Compress:    cfg.Compress,
		HistoryFile: cfg.HistoryFile,
		Verbose:     c.Bool("verbose"),
	}, nil
}

// GetSettings retrieves the resolved settings from context.
func GetSettings(c *cli.Context) *Settings {
	if s, ok := c.App.Metadata[settingsKey].(*Settings); ok {
		return s
	}
	return &Settings{
		Server:  config.Default().Server,
		Output:  output.FormatText,
		Timeout: connection.DefaultTimeout,
	}
}

// NewClient returns an API client for the configured server.
func NewClient(c *cli.Context) *connection.Client {
	s := GetSettings(c)
	return connection.NewClient(s.Server, s.Timeout, connection.WithTLSConfig(s.TLS))
}

// Print writes data to the app writer in the configured format.
func Print(c *cli.Context, data any) error {
	return output.NewFormatter(GetSettings(c).Output).Format(c.App.Writer, data)
}

// PrintError prints an error message to the app's error writer.
func PrintError(c *cli.Context, format string, args ...any) {
	w := c.App.ErrWriter
	if w == nil {
		w = io.Discard
	}
	fmt.Fprintf(w, "error: "+format+"\n", args...)
}
