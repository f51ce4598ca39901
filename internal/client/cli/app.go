// Package cli implements the interactive GophDrive command-line client:
// a small REPL over the HTTP API client.
package cli

import (
	"bufio"
	"context"
	"io"
	"os"

	"github.com/dmitrijs2005/gophdrive/internal/client/client"
	"github.com/dmitrijs2005/gophdrive/internal/client/config"
)

// api is the slice of the HTTP client the commands need. The real
// client.Client satisfies it; tests can provide a stub.
type api interface {
	IsLoggedIn() bool
	Register(ctx context.Context, username, password string) error
	Login(ctx context.Context, username, password string) error
	Logout(ctx context.Context) error
	Upload(ctx context.Context, filename string, data []byte) error
	Download(ctx context.Context, filename string) ([]byte, error)
	Rename(ctx context.Context, oldFilename, newFilename string) error
	Delete(ctx context.Context, filename string) error
	List(ctx context.Context, limit int) ([]client.FileInfo, error)
}

type App struct {
	config   *config.Config
	api      api
	reader   *bufio.Reader
	out      io.Writer
	userName string
}

func NewApp(cfg *config.Config) *App {
	return &App{
		config: cfg,
		api:    client.New(cfg.ServerEndpointAddr, cfg.RequestTimeout),
		reader: bufio.NewReader(os.Stdin),
		out:    os.Stdout,
	}
}

func (a *App) isLoggedIn() bool {
	return a.api.IsLoggedIn()
}

func (a *App) Run(ctx context.Context) {
	a.Root(ctx)
}
