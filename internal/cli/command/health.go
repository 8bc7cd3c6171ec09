package command

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/seqlink-go/internal/cli/connection"
)

// HealthCommand returns the health command.
func HealthCommand() *cli.Command {
	return &cli.Command{
		Name:   "health",
		Usage:  "Check server liveness, readiness and conversation policy",
		Action: healthAction,
	}
}

// HealthReport combines the probe results with the server's policy.
type HealthReport struct {
	Server string                 `json:"server" yaml:"server"`
	Health string                 `json:"health" yaml:"health"`
	Ready  string                 `json:"ready" yaml:"ready"`
	Info   *connection.ServerInfo `json:"info,omitempty" yaml:"info,omitempty"`
}

func healthAction(c *cli.Context) error {
	settings := GetSettings(c)
	client := NewClient(c)

	ctx, cancel := context.WithTimeout(c.Context, settings.Timeout)
	defer cancel()

	report := &HealthReport{Server: client.BaseURL()}

	health, err := client.Health(ctx)
	if err != nil {
		return fmt.Errorf("server unhealthy: %w", err)
	}
	report.Health = health.Status

	ready, err := client.Ready(ctx)
	if err != nil {
		report.Ready = "not ready"
		if settings.Verbose {
			PrintError(c, "readiness: %v", err)
		}
	} else {
		report.Ready = ready.Status
	}

	if info, err := client.Info(ctx); err == nil {
		report.Info = info
	} else if settings.Verbose {
		PrintError(c, "info: %v", err)
	}

	return Print(c, report)
}
