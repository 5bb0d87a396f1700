// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/poiesic/bizmatch/config"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "bizmatch",
		Usage: "Find companies whose business descriptions match a query",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a TOML configuration file",
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Path to a .env file loaded before reading the environment",
				Value: ".env",
			},
		},
		Before: func(c *cli.Context) error {
			if err := setupLogger(c); err != nil {
				return err
			}
			return config.LoadEnvFile(c.String("env-file"))
		},
		Commands: []*cli.Command{
			{
				Name:   "build",
				Usage:  "Embed the company source and persist the corpus snapshot",
				Action: buildCommand,
				Flags: append(indexFlags(),
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Rebuild even if the stored snapshot is current",
					},
				),
			},
			{
				Name:      "search",
				Usage:     "Rank companies against a query",
				ArgsUsage: "<query>",
				Action:    searchCommand,
				Flags: append(append(indexFlags(), queryFlags()...),
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Output format (text, json, csv)",
						Value:   "text",
					},
				),
			},
			{
				Name:      "export",
				Usage:     "Rank companies against a query and write the results as CSV",
				ArgsUsage: "<query>",
				Action:    exportCommand,
				Flags: append(append(indexFlags(), queryFlags()...),
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file (default stdout)",
					},
				),
			},
			{
				Name:   "status",
				Usage:  "Show the stored corpus snapshot",
				Action: statusCommand,
				Flags: append(indexFlags(),
					&cli.StringSliceFlag{
						Name:    "entity",
						Aliases: []string{"e"},
						Usage:   "Show why an entity can or cannot be ranked (repeatable)",
					},
				),
			},
			{
				Name:   "serve",
				Usage:  "Serve searches over HTTP",
				Action: serveCommand,
				Flags: append(indexFlags(),
					&cli.StringFlag{
						Name:  "addr",
						Usage: "Listen address",
					},
					&cli.BoolFlag{
						Name:  "watch",
						Usage: "Rebuild the corpus whenever the source file changes",
					},
				),
			},
		},
	}
}

// indexFlags locate the corpus and the embedding model. Set flags override
// the configuration file and environment.
func indexFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "db",
			Aliases: []string{"d"},
			Usage:   "Path to BadgerDB database directory",
		},
		&cli.StringFlag{
			Name:    "source",
			Aliases: []string{"s"},
			Usage:   "Path to the company CSV",
		},
		&cli.StringFlag{
			Name:  "embedding-host",
			Usage: "Embedding service host URL",
		},
		&cli.StringFlag{
			Name:  "embedding-model",
			Usage: "Embedding model name",
		},
		&cli.IntFlag{
			Name:  "batch-size",
			Usage: "Number of sentences per embedding request",
		},
	}
}

func queryFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:    "top-n",
			Aliases: []string{"n"},
			Usage:   "Number of companies to return",
		},
		&cli.StringSliceFlag{
			Name:    "exclude",
			Aliases: []string{"x"},
			Usage:   "Drop companies matching this exemplar sentence (repeatable)",
		},
		&cli.Float64Flag{
			Name:  "exclude-threshold",
			Usage: "Similarity at which a sentence matches an exclusion exemplar",
		},
	}
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
