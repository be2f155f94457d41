// Command reportctl submits and administers CityCare reports from a terminal.
// Submissions fall back to a local cache when the API cannot be reached.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
	"github.com/xyz-asif/citycare/internal/client"
	"github.com/xyz-asif/citycare/internal/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "reportctl:", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "reportctl",
		Usage: "submit and manage civic issue reports",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "api",
				Usage:   "API base URL",
				Value:   client.DefaultBaseURL,
				EnvVars: []string{"CITYCARE_API_URL"},
			},
			&cli.StringFlag{
				Name:    "cache",
				Usage:   "local cache file used when the API is down",
				Value:   client.DefaultCachePath(),
				EnvVars: []string{"CITYCARE_CACHE_FILE"},
			},
			&cli.StringFlag{
				Name:    "token",
				Usage:   "admin bearer token",
				EnvVars: []string{"CITYCARE_ADMIN_TOKEN"},
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "log fallback decisions",
			},
		},
		Before: func(c *cli.Context) error {
			if !c.Bool("verbose") {
				logger.SetGlobalLevel(logger.ERROR)
			}
			return nil
		},
		Commands: []*cli.Command{
			submitCommand(),
			listCommand(),
			statsCommand(),
			updateCommand(),
			deleteCommand(),
			syncCommand(),
			reconnectCommand(),
			cacheCommand(),
			tokenCommand(),
		},
	}
}

type session struct {
	api   *client.APIClient
	cache *client.LocalCache
}

func newSession(c *cli.Context) *session {
	var opts []client.Option
	if token := c.String("token"); token != "" {
		opts = append(opts, client.WithToken(token))
	}
	return &session{
		api:   client.NewAPIClient(c.String("api"), opts...),
		cache: client.NewLocalCache(c.String("cache")),
	}
}

func (s *session) dashboard(c *cli.Context) (*client.Dashboard, error) {
	d := client.NewDashboard(s.api, s.cache)
	if err := d.Refresh(c.Context); err != nil {
		return nil, err
	}
	return d, nil
}
