package command

import (
	"bytes"
	"context"
	"encoding/pem"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/seqlink-go/internal/core/service"
	"github.com/yndnr/seqlink-go/internal/core/transform"
	"github.com/yndnr/seqlink-go/internal/server/httpserver"
	"github.com/yndnr/seqlink-go/internal/server/httpserver/handler"
	"github.com/yndnr/seqlink-go/internal/storage/memory"
	"github.com/yndnr/seqlink-go/internal/telemetry/logger"
)

// testServer runs the real handler and router over a memory store.
type testServer struct {
	*httptest.Server
	coord *service.Coordinator
}

func newTestServer(t *testing.T, messages handler.MessageHandler, opts ...service.Option) *testServer {
	t.Helper()
	router, coord := newTestRouter(t, messages, opts...)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, coord: coord}
}

// newTestTLSServer serves over https with httptest's self-signed
// certificate and returns the CA file a client must trust.
func newTestTLSServer(t *testing.T) (*testServer, string) {
	t.Helper()
	router, coord := newTestRouter(t, nil)
	srv := httptest.NewTLSServer(router)
	t.Cleanup(srv.Close)

	caFile := filepath.Join(t.TempDir(), "ca.pem")
	data := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: srv.Certificate().Raw})
	if err := os.WriteFile(caFile, data, 0644); err != nil {
		t.Fatal(err)
	}
	return &testServer{Server: srv, coord: coord}, caFile
}

func newTestRouter(t *testing.T, messages handler.MessageHandler, opts ...service.Option) (http.Handler, *service.Coordinator) {
	t.Helper()
	opts = append([]service.Option{service.WithLogger(logger.Discard())}, opts...)
	coord, err := service.NewCoordinator(memory.NewStore(), transform.NewRatchet(), opts...)
	if err != nil {
		t.Fatalf("NewCoordinator() error = %v", err)
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	router := httpserver.NewRouter(&httpserver.RouterConfig{
		Handler: handler.New(coord, messages, log),
		Logger:  log,
	})
	return router, coord
}

type runResult struct {
	stdout string
	stderr string
	err    error
}

// runApp runs seqlink-cli with args against server, isolated from the
// user's config directory.
func runApp(t *testing.T, server, stdin string, args ...string) runResult {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	var out, errOut bytes.Buffer
	app := App()
	app.Reader = strings.NewReader(stdin)
	app.Writer = &out
	app.ErrWriter = &errOut
	app.ExitErrHandler = func(*cli.Context, error) {}

	argv := []string{"seqlink-cli"}
	if server != "" {
		argv = append(argv, "--server", server)
	}
	argv = append(argv, args...)
	err := app.RunContext(context.Background(), argv)
	return runResult{stdout: out.String(), stderr: errOut.String(), err: err}
}

func findCommand(cmds []*cli.Command, name string) *cli.Command {
	for _, cmd := range cmds {
		if cmd.Name == name {
			return cmd
		}
	}
	return nil
}
