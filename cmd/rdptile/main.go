package main

import (
	"fmt"
	"image/png"
	"log"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/kulaginds/rdp-bitmap/internal/codec"
	"github.com/kulaginds/rdp-bitmap/internal/logging"
)

const (
	appName    = "rdptile"
	appVersion = "v1.0.0"
)

func main() {
	app := &cli.App{
		Name:    appName,
		Usage:   "Interleaved RLE tile codec utility",
		Version: appVersion,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				EnvVars: []string{"RDPTILE_LOG_LEVEL"},
				Value:   "info",
				Usage:   "log level (debug, info, warn, error)",
			},
		},
		Before: func(c *cli.Context) error {
			logging.SetLevelFromString(c.String("log-level"))
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:      "decode",
				Usage:     "Decode a tile dump file to PNG images",
				ArgsUsage: "FILE",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "out",
						Value: ".",
						Usage: "output directory",
					},
				},
				Action: decodeAction,
			},
			{
				Name:  "serve",
				Usage: "Serve a websocket tile decode endpoint",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "addr",
						EnvVars: []string{"RDPTILE_ADDR"},
						Value:   ":8080",
						Usage:   "listen address",
					},
				},
				Action: func(c *cli.Context) error {
					return serveDecode(c.String("addr"))
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func decodeAction(c *cli.Context) error {
	if c.NArg() < 1 {
		cli.ShowCommandHelpAndExit(c, "decode", 1)
	}

	dump, err := readDump(c.Args().First())
	if err != nil {
		return cli.Exit(err, 1)
	}

	outDir := c.String("out")
	ctx := codec.NewInterleaved()

	for i, rec := range dump.Tiles {
		img, err := decodeTile(ctx, rec, dump.Palette)
		if err != nil {
			return cli.Exit(fmt.Errorf("tile %d: %w", i, err), 1)
		}

		name := filepath.Join(outDir, fmt.Sprintf("tile-%04d.png", i))

		f, err := os.Create(name)
		if err != nil {
			return cli.Exit(err, 1)
		}

		if err := png.Encode(f, img); err != nil {
			f.Close()
			return cli.Exit(err, 1)
		}

		if err := f.Close(); err != nil {
			return cli.Exit(err, 1)
		}

		logging.Debug("wrote %s (%dx%d@%d)", name, rec.Width, rec.Height, rec.Bpp)
	}

	logging.Info("decoded %d tiles to %s", len(dump.Tiles), outDir)

	return nil
}
