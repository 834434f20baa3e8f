package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/dmitrijs2005/roomkeeper/internal/client/api"
	"github.com/dmitrijs2005/roomkeeper/internal/client/config"
)

// roomAPI is the part of *api.Client the console uses.
type roomAPI interface {
	ListRooms(ctx context.Context) ([]api.Room, error)
	CreateRoom(ctx context.Context, req api.CreateRoomRequest) (*api.Room, error)
	Join(ctx context.Context, req api.JoinRequest) (*api.JoinResponse, error)
}

type App struct {
	config      *config.Config
	api         roomAPI
	checkHealth func(ctx context.Context, addr string) (*api.Health, error)
	reader      *bufio.Reader
	out         io.Writer
}

func NewApp(c *config.Config) *App {
	return &App{
		config:      c,
		api:         api.NewClient(c.ServerURL, &http.Client{Timeout: c.RequestTimeout}),
		checkHealth: api.CheckHealth,
		reader:      bufio.NewReader(os.Stdin),
		out:         os.Stdout,
	}
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

// report prints a command failure. Server denials print their category.
func (a *App) report(err error) error {
	a.printf("Error: %v\n", err)
	return err
}

// Run starts the console on stdin and returns when it is closed or the user
// exits.
func (a *App) Run(ctx context.Context) {
	a.printf("roomctl connected to %s (type 'help' for commands)\n", a.config.ServerURL)
	runREPL(ctx, a, a.out, a.reader)
}
