package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v2"
	"github.com/xyz-asif/citycare/internal/client"
	"github.com/xyz-asif/citycare/internal/features/analysis"
	"github.com/xyz-asif/citycare/internal/features/auth"
	"github.com/xyz-asif/citycare/internal/features/reports"
)

func submitCommand() *cli.Command {
	return &cli.Command{
		Name:  "submit",
		Usage: "submit a report with one photo",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "location", Aliases: []string{"l"}, Required: true},
			&cli.StringFlag{Name: "description", Aliases: []string{"d"}, Required: true},
			&cli.PathFlag{Name: "image", Aliases: []string{"i"}, Required: true},
			&cli.Float64Flag{Name: "lat"},
			&cli.Float64Flag{Name: "lng"},
			&cli.StringFlag{Name: "category"},
			&cli.StringFlag{Name: "priority"},
			&cli.PathFlag{Name: "analysis", Usage: "JSON file holding an aiAnalysis object"},
		},
		Action: func(c *cli.Context) error {
			s := newSession(c)

			imagePath := c.Path("image")
			image, err := os.ReadFile(imagePath)
			if err != nil {
				return fmt.Errorf("read image: %w", err)
			}

			sub := &client.Submission{
				Location:    c.String("location"),
				Description: c.String("description"),
				Category:    c.String("category"),
				Priority:    c.String("priority"),
				ImageName:   filepath.Base(imagePath),
				Image:       image,
			}
			if c.IsSet("lat") || c.IsSet("lng") {
				sub.Coordinates = &reports.Coordinates{Lat: c.Float64("lat"), Lng: c.Float64("lng")}
			}
			if path := c.Path("analysis"); path != "" {
				raw, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("read analysis: %w", err)
				}
				var a analysis.Analysis
				if err := json.Unmarshal(raw, &a); err != nil {
					return fmt.Errorf("decode analysis: %w", err)
				}
				sub.Analysis = &a
			}

			res, err := client.NewSubmitter(s.api, s.cache).Submit(c.Context, sub)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "%s (id=%s, mode=%s)\n", res.Message, res.ID, res.Mode)
			return nil
		},
	}
}

func listCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "list reports, newest first",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "status", Value: "all", Usage: "submitted, pending, in-progress, resolved or all"},
		},
		Action: func(c *cli.Context) error {
			d, err := newSession(c).dashboard(c)
			if err != nil {
				return err
			}
			renderReports(c.App.Writer, d.Filter(c.String("status")))
			fmt.Fprintf(c.App.Writer, "source=%s mode=%s\n", d.Source(), d.Mode())
			return nil
		},
	}
}

func statsCommand() *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "report counts per status",
		Action: func(c *cli.Context) error {
			d, err := newSession(c).dashboard(c)
			if err != nil {
				return err
			}
			renderStats(c.App.Writer, d.Stats())
			fmt.Fprintf(c.App.Writer, "source=%s mode=%s\n", d.Source(), d.Mode())
			return nil
		},
	}
}

func updateCommand() *cli.Command {
	return &cli.Command{
		Name:      "update",
		Usage:     "set a report's status",
		ArgsUsage: "<id> <status>",
		Action: func(c *cli.Context) error {
			if c.Args().Len() != 2 {
				return cli.Exit("usage: reportctl update <id> <status>", 2)
			}
			s := newSession(c)
			d := client.NewDashboard(s.api, s.cache)
			id := c.Args().Get(0)
			if err := d.UpdateStatus(c.Context, id, reports.Status(c.Args().Get(1))); err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "updated %s\n", id)
			renderStats(c.App.Writer, d.Stats())
			return nil
		},
	}
}

func deleteCommand() *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "delete a report and its image",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			if c.Args().Len() != 1 {
				return cli.Exit("usage: reportctl delete <id>", 2)
			}
			s := newSession(c)
			d := client.NewDashboard(s.api, s.cache)
			id := c.Args().First()
			if err := d.Delete(c.Context, id); err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "deleted %s (%d remaining)\n", id, len(d.Reports()))
			return nil
		},
	}
}

func syncCommand() *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "replay the server's in-memory reports into MongoDB",
		Action: func(c *cli.Context) error {
			result, err := newSession(c).api.Sync(c.Context)
			if err != nil {
				return err
			}
			table := tablewriter.NewWriter(c.App.Writer)
			table.SetHeader([]string{"Local ID", "ID", "Error"})
			for _, s := range result.Synced {
				table.Append([]string{s.LocalID, s.ID, ""})
			}
			for _, f := range result.Failed {
				table.Append([]string{f.LocalID, "", f.Error})
			}
			table.Render()
			return nil
		},
	}
}

func reconnectCommand() *cli.Command {
	return &cli.Command{
		Name:  "reconnect",
		Usage: "ask the server to re-probe MongoDB",
		Action: func(c *cli.Context) error {
			status, err := newSession(c).api.Reconnect(c.Context)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "database %s\n", status.Database)
			return nil
		},
	}
}

func cacheCommand() *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "inspect the local fallback cache",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "show reports kept locally",
				Action: func(c *cli.Context) error {
					cache := newSession(c).cache
					list, err := cache.List()
					if err != nil {
						return err
					}
					renderReports(c.App.Writer, list)
					fmt.Fprintln(c.App.Writer, cache.Path())
					return nil
				},
			},
			{
				Name:  "clear",
				Usage: "drop every locally kept report",
				Action: func(c *cli.Context) error {
					return newSession(c).cache.Clear()
				},
			},
		},
	}
}

func tokenCommand() *cli.Command {
	return &cli.Command{
		Name:  "token",
		Usage: "issue an admin token signed with ADMIN_JWT_SECRET",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "secret", EnvVars: []string{"ADMIN_JWT_SECRET"}, Required: true},
			&cli.StringFlag{Name: "subject", Value: "reportctl"},
			&cli.StringFlag{Name: "email"},
		},
		Action: func(c *cli.Context) error {
			token, err := auth.IssueAdminToken(c.String("secret"), c.String("subject"), c.String("email"))
			if err != nil {
				return err
			}
			fmt.Fprintln(c.App.Writer, token)
			return nil
		},
	}
}

func renderReports(w io.Writer, list []reports.Report) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"ID", "Status", "Category", "Priority", "Location", "Created"})
	table.SetAutoWrapText(false)
	for _, r := range list {
		table.Append([]string{
			r.ID,
			string(r.Status),
			r.Category,
			r.Priority,
			r.Location,
			r.CreatedAt.Local().Format(time.DateTime),
		})
	}
	table.Render()
}

func renderStats(w io.Writer, s reports.Stats) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Total", "Submitted", "Pending", "In progress", "Resolved"})
	table.Append([]string{
		strconv.FormatInt(s.Total, 10),
		strconv.FormatInt(s.Submitted, 10),
		strconv.FormatInt(s.Pending, 10),
		strconv.FormatInt(s.InProgress, 10),
		strconv.FormatInt(s.Resolved, 10),
	})
	table.Render()
}
