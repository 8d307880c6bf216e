package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	_ "time/tzdata"

	"orgutrip/internal/build"
	"orgutrip/internal/config"
	"orgutrip/internal/credit"
	"orgutrip/internal/feed"
	"orgutrip/internal/registry"
	"orgutrip/internal/roster"
	"orgutrip/internal/storage"
)

func main() {
	if os.Getenv("ORGUTRIP_LOG_FORMAT") != "JSON" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}
	if os.Getenv("ORGUTRIP_DEBUG") == "YES" {
		log.Logger = log.Logger.Level(zerolog.DebugLevel)
	} else {
		log.Logger = log.Logger.Level(zerolog.InfoLevel)
	}

	app := &cli.App{
		Name:        "orgutrip",
		Description: "Crew roster importer: rebuilds trips from bidding-system text exports",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to the YAML config file",
				Value:   "orgutrip.yaml",
			},
		},
		Commands: []*cli.Command{
			importCommand(),
			rosterCommand(),
			feedCommand(),
			initdbCommand(),
			statsCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal().Err(err).Send()
	}
}

func loadConfig(c *cli.Context) (config.Config, error) {
	return config.Load(c.String("config"))
}

func openStore(ctx context.Context, cfg config.Config) (storage.Store, error) {
	store, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	return store, nil
}

func newBuilder(cfg config.Config, store storage.Store, interactive bool) *build.Builder {
	var resolver build.Resolver = build.PostponeResolver{}
	if interactive {
		resolver = build.NewTerminalResolver(os.Stdin, os.Stdout)
	}
	b := build.NewBuilder(store, registry.New(store), resolver, log.Logger)
	b.Carrier = cfg.Carrier
	return b
}

func importCommand() *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     "import a PBS trips file",
		ArgsUsage: "<trips-file>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "interactive",
				Usage: "prompt for manual remediation instead of postponing",
			},
			&cli.BoolFlag{
				Name:  "archive",
				Usage: "also append built trips to the ClickHouse archive",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("usage: orgutrip import <trips-file>", 1)
			}
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}

			raw, err := os.ReadFile(c.Args().First())
			if err != nil {
				return fmt.Errorf("read trips file: %w", err)
			}
			content := roster.ScrubPageNumbers(string(raw))

			trips, err := roster.ReadTrips(content)
			if err != nil {
				return err
			}
			if total, err := roster.TotalTrips(content); err == nil && total != len(trips) {
				log.Warn().Int("declared", total).Int("parsed", len(trips)).
					Msg("file declares a different trip total")
			}

			ctx := c.Context
			store, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			builder := newBuilder(cfg, store, c.Bool("interactive"))
			res, err := builder.Import(ctx, trips)
			if err != nil {
				return err
			}
			for _, u := range res.Unbuilt {
				log.Warn().Str("trip", u.Data.Number).Err(u.Reason).Msg("needs manual handling")
			}

			if c.Bool("archive") && len(res.Trips) > 0 {
				if err := archiveTrips(ctx, cfg, res); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func archiveTrips(ctx context.Context, cfg config.Config, res *build.ImportResult) error {
	archive, err := storage.OpenArchive(ctx, cfg.Archive)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer archive.Close()

	if err := archive.CreateSchema(ctx); err != nil {
		return err
	}
	if err := archive.ArchiveTrips(ctx, res.Trips); err != nil {
		return err
	}
	log.Info().Int("trips", len(res.Trips)).Msg("trips archived")
	return nil
}

func rosterCommand() *cli.Command {
	return &cli.Command{
		Name:      "roster",
		Usage:     "read a monthly roster and print the crew member's line",
		ArgsUsage: "<roster-file>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("usage: orgutrip roster <roster-file>", 1)
			}
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}

			raw, err := os.ReadFile(c.Args().First())
			if err != nil {
				return fmt.Errorf("read roster file: %w", err)
			}
			r, err := roster.ReadRoster(string(raw))
			if err != nil {
				return err
			}

			ctx := c.Context
			store, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			line, err := roster.AssembleLine(ctx, store, r, log.Logger)
			if err != nil {
				return err
			}

			calc, err := credit.NewCalculator(cfg.Credit)
			if err != nil {
				return err
			}
			credits := line.ComputeCredits(calc)

			fmt.Printf("%s\n", line)
			fmt.Printf("  block    %s\n", credits.Block.Colon())
			fmt.Printf("  deadhead %s\n", credits.Deadhead.Colon())
			fmt.Printf("  duty     %s\n", credits.Duty.Colon())
			fmt.Printf("  tafb     %s\n", credits.TAFB.Colon())
			return nil
		},
	}
}

func feedCommand() *cli.Command {
	return &cli.Command{
		Name:  "feed",
		Usage: "consume trips files from the NATS feed until interrupted",
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			store, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			builder := newBuilder(cfg, store, false)
			consumer := feed.NewConsumer(cfg.Feed.URL, cfg.Feed.Subject, cfg.Feed.Queue, builder, log.Logger)
			return consumer.Run(ctx)
		},
	}
}

func initdbCommand() *cli.Command {
	return &cli.Command{
		Name:  "initdb",
		Usage: "create the storage schema",
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			store, err := openStore(c.Context, cfg)
			if err != nil {
				return err
			}
			defer store.Close()
			log.Info().Str("backend", cfg.Storage.Backend).Msg("schema ready")
			return nil
		},
	}
}

func statsCommand() *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "print aggregate figures from the trip archive",
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			ctx := c.Context

			archive, err := storage.OpenArchive(ctx, cfg.Archive)
			if err != nil {
				return err
			}
			defer archive.Close()

			stats, err := archive.Stats(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("trips     %d\n", stats.TotalTrips)
			fmt.Printf("legs      %d (%d deadhead)\n", stats.TotalLegs, stats.DeadheadLegs)
			for carrier, minutes := range stats.BlockByCarrier {
				fmt.Printf("block %s  %dh%02dm\n", carrier, minutes/60, minutes%60)
			}

			byMonth, err := archive.BlockMinutesByMonth(ctx)
			if err != nil {
				return err
			}
			for month, minutes := range byMonth {
				fmt.Printf("month %s  %dh%02dm\n", month, minutes/60, minutes%60)
			}
			return nil
		},
	}
}
