package command

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"
)

// ConversationCommand returns the conversation subcommand group.
func ConversationCommand() *cli.Command {
	return &cli.Command{
		Name:    "conversation",
		Aliases: []string{"conv"},
		Usage:   "Inspect or close conversations held by the server",
		Subcommands: []*cli.Command{
			{
				Name:      "show",
				Usage:     "Show server-side diagnostics for a conversation",
				ArgsUsage: "<conversation-id>",
				Action:    conversationShow,
			},
			{
				Name:      "close",
				Usage:     "Drop a conversation on the server",
				ArgsUsage: "<conversation-id>",
				Action:    conversationClose,
			},
		},
	}
}

func conversationID(c *cli.Context) (string, error) {
	if c.NArg() != 1 {
		return "", fmt.Errorf("expected exactly one conversation id, got %d arguments", c.NArg())
	}
	return c.Args().First(), nil
}

func conversationShow(c *cli.Context) error {
	id, err := conversationID(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Context, GetSettings(c).Timeout)
	defer cancel()

	info, err := NewClient(c).Describe(ctx, id)
	if err != nil {
		return err
	}
	return Print(c, info)
}

func conversationClose(c *cli.Context) error {
	id, err := conversationID(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Context, GetSettings(c).Timeout)
	defer cancel()

	if err := NewClient(c).Close(ctx, id); err != nil {
		return err
	}
	return Print(c, map[string]any{"conversation_id": id, "closed": true})
}
