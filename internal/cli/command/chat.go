package command

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/seqlink-go/internal/cli/connection"
	"github.com/yndnr/seqlink-go/internal/cli/output"
	"github.com/yndnr/seqlink-go/internal/cli/repl"
	"github.com/yndnr/seqlink-go/internal/core/domain"
	"github.com/yndnr/seqlink-go/internal/core/service"
	"github.com/yndnr/seqlink-go/internal/core/transform"
	"github.com/yndnr/seqlink-go/internal/storage"
	"github.com/yndnr/seqlink-go/internal/storage/memory"
	"github.com/yndnr/seqlink-go/internal/telemetry/logger"
	"github.com/yndnr/seqlink-go/pkg/crypto/adaptive"
)

// ChatCommand returns the chat command.
func ChatCommand() *cli.Command {
	return &cli.Command{
		Name:  "chat",
		Usage: "Open a conversation and exchange messages",
		Description: "Runs a handshake with the server, then sends each line typed (or each\n" +
			"--message) as an encrypted frame and prints the decrypted reply.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "id",
				Usage: "Conversation ID (default: generated)",
			},
			&cli.IntFlag{
				Name:  "window",
				Usage: "Sequence window: 0 strict, >0 forward, <0 async (default: server's)",
			},
			&cli.StringSliceFlag{
				Name:    "message",
				Aliases: []string{"m"},
				Usage:   "Send message and exit; repeat for several",
			},
			&cli.StringFlag{
				Name:  "cipher",
				Usage: "Cipher for frames sent: auto, aes-gcm, chacha20-poly1305",
			},
			&cli.BoolFlag{
				Name:  "compress",
				Usage: "Compress outgoing frames",
			},
			&cli.BoolFlag{
				Name:  "keep",
				Usage: "Leave the conversation open on the server when done",
			},
		},
		Action: chatAction,
	}
}

// chatOptions are the per-conversation settings of a chat.
type chatOptions struct {
	id        string
	window    int
	windowSet bool
	cipher    adaptive.CipherType
	compress  bool
}

// chatSession is the initiating side of one conversation. Its state lives
// in a process-local store and is lost when the CLI exits.
type chatSession struct {
	id     string
	window int
	client *connection.Client
	store  storage.Store
	coord  *service.Coordinator
	opts   chatOptions
}

// Exchange is one sent message and the server's reply, if any.
type Exchange struct {
	Seq      uint64 `json:"seq" yaml:"seq"`
	Message  string `json:"message" yaml:"message"`
	Reply    string `json:"reply,omitempty" yaml:"reply,omitempty"`
	ReplySeq uint64 `json:"reply_seq,omitempty" yaml:"reply_seq,omitempty"`
	Replied  bool   `json:"replied" yaml:"replied"`
}

func openChat(ctx context.Context, client *connection.Client, opts chatOptions) (*chatSession, error) {
	window := opts.window
	if !opts.windowSet {
		info, err := client.Info(ctx)
		if err != nil {
			return nil, fmt.Errorf("fetch server info: %w", err)
		}
		window = info.Window
	}

	store := memory.NewStore()
	xf := transform.NewRatchet(
		transform.WithCipher(opts.cipher),
		transform.WithCompression(opts.compress),
	)
	coord, err := service.NewCoordinator(store, xf,
		service.WithDefaultWindow(window),
		service.WithLogger(logger.Discard()),
	)
	if err != nil {
		store.Close()
		return nil, err
	}

	s := &chatSession{
		id:     opts.id,
		window: window,
		client: client,
		store:  store,
		coord:  coord,
		opts:   opts,
	}
	if err := s.handshake(ctx); err != nil {
		store.Close()
		return nil, err
	}
	return s, nil
}

// handshake (re)keys the conversation on both sides.
func (s *chatSession) handshake(ctx context.Context) error {
	offer, err := s.coord.Initiate(ctx, s.id)
	if err != nil {
		return err
	}

	req := &connection.HandshakeRequest{
		EncPublicKey: offer.EncPublicKey,
		DecPublicKey: offer.DecPublicKey,
	}
	if s.opts.windowSet {
		w := s.window
		req.Window = &w
	}
	resp, err := s.client.Handshake(ctx, s.id, req)
	if err != nil {
		return fmt.Errorf("handshake: %w", err)
	}
	if resp.Window != s.window {
		return fmt.Errorf("handshake: server chose window %d, expected %d", resp.Window, s.window)
	}
	return s.coord.Complete(ctx, s.id, resp.EncPublicKey, resp.DecPublicKey)
}

// send encodes text, delivers it and decodes the reply.
func (s *chatSession) send(ctx context.Context, text string) (*Exchange, error) {
	frame, err := s.coord.Send(ctx, s.id, []byte(text))
	if err != nil {
		return nil, err
	}
	ex := &Exchange{Seq: frame.Seq, Message: text}

	reply, err := s.client.Exchange(ctx, s.id, &connection.Frame{Seq: frame.Seq, Payload: frame.Payload})
	if err != nil {
		return nil, err
	}
	if reply == nil {
		return ex, nil
	}

	plaintext, err := s.coord.Receive(ctx, s.id, reply.Seq, reply.Payload)
	if err != nil {
		return nil, fmt.Errorf("reply %d: %w", reply.Seq, err)
	}
	ex.Reply = string(plaintext)
	ex.ReplySeq = reply.Seq
	ex.Replied = true
	return ex, nil
}

// info returns the local view of the conversation.
func (s *chatSession) info(ctx context.Context) (*domain.SessionInfo, error) {
	return s.coord.Describe(ctx, s.id)
}

// close drops the local state and, unless keepRemote is set, the server's.
func (s *chatSession) close(ctx context.Context, keepRemote bool) error {
	var errs []error
	if !keepRemote {
		if err := s.client.Close(ctx, s.id); err != nil {
			errs = append(errs, fmt.Errorf("close on server: %w", err))
		}
	}
	if err := s.coord.Close(ctx, s.id); err != nil {
		errs = append(errs, err)
	}
	if err := s.store.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func chatAction(c *cli.Context) error {
	settings := GetSettings(c)

	opts, err := parseChatOptions(c, settings)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	session, err := withTimeout(ctx, settings, func(ctx context.Context) (*chatSession, error) {
		return openChat(ctx, NewClient(c), opts)
	})
	if err != nil {
		return err
	}
	defer func() {
		cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), settings.Timeout)
		defer cancel()
		if err := session.close(cctx, c.Bool("keep")); err != nil {
			PrintError(c, "%v", err)
		}
	}()

	if settings.Verbose {
		fmt.Fprintf(c.App.ErrWriter, "conversation %s open (window %d, server %s)\n",
			session.id, session.window, session.client.BaseURL())
	}

	if messages := c.StringSlice("message"); len(messages) > 0 {
		return sendAll(ctx, c, session, messages)
	}
	return runChatREPL(ctx, c, session)
}

func parseChatOptions(c *cli.Context, settings *Settings) (chatOptions, error) {
	opts := chatOptions{
		id:        c.String("id"),
		window:    c.Int("window"),
		windowSet: c.IsSet("window"),
		compress:  settings.Compress || c.Bool("compress"),
	}
	if opts.id == "" {
		id, err := domain.GenerateConversationID()
		if err != nil {
			return opts, err
		}
		opts.id = id
	}
	if err := domain.ValidateConversationID(opts.id); err != nil {
		return opts, err
	}
	if opts.windowSet {
		if err := domain.ValidateWindow(opts.window); err != nil {
			return opts, err
		}
	}

	name := settings.Cipher
	if c.IsSet("cipher") {
		name = c.String("cipher")
	}
	cipher, err := adaptive.ParseCipherType(name)
	if err != nil {
		return opts, err
	}
	opts.cipher = cipher
	return opts, nil
}

func sendAll(ctx context.Context, c *cli.Context, s *chatSession, messages []string) error {
	settings := GetSettings(c)
	var exchanges []*Exchange
	for _, msg := range messages {
		ex, err := withTimeout(ctx, settings, func(ctx context.Context) (*Exchange, error) {
			return s.send(ctx, msg)
		})
		if err != nil {
			return err
		}
		if settings.Output == output.FormatText {
			printExchange(c, settings, ex)
			continue
		}
		exchanges = append(exchanges, ex)
	}
	if settings.Output == output.FormatText {
		return nil
	}
	return Print(c, exchanges)
}

func printExchange(c *cli.Context, settings *Settings, ex *Exchange) {
	switch {
	case !ex.Replied && settings.Verbose:
		fmt.Fprintf(c.App.Writer, "[%d] (no reply)\n", ex.Seq)
	case !ex.Replied:
	case settings.Verbose:
		fmt.Fprintf(c.App.Writer, "[%d -> %d] %s\n", ex.Seq, ex.ReplySeq, ex.Reply)
	default:
		fmt.Fprintln(c.App.Writer, ex.Reply)
	}
}

func runChatREPL(ctx context.Context, c *cli.Context, s *chatSession) error {
	settings := GetSettings(c)

	eval := func(ctx context.Context, line string) (string, error) {
		ex, err := withTimeout(ctx, settings, func(ctx context.Context) (*Exchange, error) {
			return s.send(ctx, line)
		})
		if err != nil {
			return "", explain(err)
		}
		switch {
		case !ex.Replied:
			return "", nil
		case settings.Verbose:
			return fmt.Sprintf("[%d -> %d] %s", ex.Seq, ex.ReplySeq, ex.Reply), nil
		default:
			return ex.Reply, nil
		}
	}

	r := repl.New(eval,
		repl.WithIO(c.App.Reader, c.App.Writer),
		repl.WithHistory(repl.NewHistory(settings.HistoryFile, 0)),
		repl.WithCommand(repl.Command{
			Name:  "info",
			Usage: "show local and server state of this conversation",
			Run: func(ctx context.Context, _ []string) (string, error) {
				return describeBoth(ctx, c, s)
			},
		}),
		repl.WithCommand(repl.Command{
			Name:  "rekey",
			Usage: "run a new handshake, resetting sequence numbers",
			Run: func(ctx context.Context, _ []string) (string, error) {
				_, err := withTimeout(ctx, settings, func(ctx context.Context) (struct{}, error) {
					return struct{}{}, s.handshake(ctx)
				})
				if err != nil {
					return "", err
				}
				return "conversation re-keyed", nil
			},
		}),
	)

	fmt.Fprintf(c.App.Writer, "conversation %s (type /help for commands)\n", s.id)
	return r.Run(ctx)
}

func describeBoth(ctx context.Context, c *cli.Context, s *chatSession) (string, error) {
	local, err := s.info(ctx)
	if err != nil {
		return "", err
	}
	remote, err := withTimeout(ctx, GetSettings(c), func(ctx context.Context) (*domain.SessionInfo, error) {
		return s.client.Describe(ctx, s.id)
	})
	if err != nil {
		return "", err
	}

	var buf strings.Builder
	err = output.NewFormatter(output.FormatText).Format(&buf, map[string]*domain.SessionInfo{
		"local":  local,
		"server": remote,
	})
	return strings.TrimRight(buf.String(), "\n"), err
}

// explain adds a hint for errors the user can act on.
func explain(err error) error {
	switch {
	case domain.IsResync(err):
		return fmt.Errorf("%w (run /rekey to start over)", err)
	case domain.IsSequenceViolation(err):
		return fmt.Errorf("%w (frames are out of step, run /rekey)", err)
	default:
		return err
	}
}

func withTimeout[T any](ctx context.Context, s *Settings, fn func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()
	return fn(ctx)
}
