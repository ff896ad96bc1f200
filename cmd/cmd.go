// submodule cmd contains command definitions
package main

import (
	"github.com/desertthunder/wavey/internal/formatter"
	"github.com/urfave/cli/v3"
)

func jsonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print JSON output",
		},
	}
}

// listFlags are shared by every command that prints a song list.
func listFlags() []cli.Flag {
	return append(jsonFlags(),
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "Output format: text, table, csv, markdown or json",
			Value:   formatter.FormatText,
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Write output to this file instead of stdout",
		},
	)
}

// setupCommand handles setup operations for configuration and the local database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write a config.toml template to the --config path",
				Action: r.SetupConfig,
			},
			{
				Name:  "database",
				Usage: "Initialize database and run migrations",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "status",
						Usage: "List pending migrations without applying them",
					},
					&cli.BoolFlag{
						Name:  "rollback",
						Usage: "Roll back the most recently applied migration",
					},
				},
				Action: r.SetupDatabase,
			},
		},
	}
}

// authCommand handles sign-in and identity operations
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage your Wavey session",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Sign in with email and password",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "email",
						Aliases:  []string{"e"},
						Usage:    "Account email",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "password",
						Aliases:  []string{"p"},
						Usage:    "Account password",
						Required: true,
						Sources:  cli.EnvVars("WAVEY_PASSWORD"),
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:  "register",
				Usage: "Create an account and sign in",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "email",
						Aliases:  []string{"e"},
						Usage:    "Account email",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "password",
						Aliases:  []string{"p"},
						Usage:    "Account password",
						Required: true,
						Sources:  cli.EnvVars("WAVEY_PASSWORD"),
					},
					&cli.StringFlag{
						Name:    "name",
						Aliases: []string{"n"},
						Usage:   "Display name",
					},
				},
				Action: r.AuthRegister,
			},
			{
				Name:   "logout",
				Usage:  "Sign out and forget the stored credential",
				Action: r.AuthLogout,
			},
			{
				Name:   "status",
				Usage:  "Show the signed-in identity and credential expiry",
				Flags:  jsonFlags(),
				Action: r.AuthStatus,
			},
			{
				Name:   "profile",
				Usage:  "Fetch the current profile from the service",
				Flags:  jsonFlags(),
				Action: r.AuthProfile,
			},
			{
				Name:  "github",
				Usage: "Sign in with GitHub",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "code",
						Usage: "Authorization code (skips the browser flow)",
					},
				},
				Action: r.AuthGitHub,
			},
			{
				Name:  "google",
				Usage: "Sign in with Google",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "token",
						Usage: "Authorization token (skips the browser flow)",
					},
				},
				Action: r.AuthGoogle,
			},
			{
				Name:  "neon",
				Usage: "Sign in with Neon Auth",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "token",
						Usage: "Neon Auth access token (skips the browser flow)",
					},
				},
				Action: r.AuthNeon,
			},
		},
	}
}

// songsCommand handles catalog operations
func songsCommand(r *Runner) *cli.Command {
	facet := func(name, usage string) *cli.Command {
		return &cli.Command{
			Name:      name,
			Usage:     usage,
			Arguments: []cli.Argument{&cli.StringArg{Name: "value"}},
			Flags:     listFlags(),
			Action:    r.SongsByFacet,
		}
	}
	listing := func(name, usage string) *cli.Command {
		return &cli.Command{
			Name:   name,
			Usage:  usage,
			Flags:  listFlags(),
			Action: r.SongsListing,
		}
	}

	return &cli.Command{
		Name:    "songs",
		Aliases: []string{"s"},
		Usage:   "Catalog operations",
		Commands: []*cli.Command{
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List all songs",
				Flags:   listFlags(),
				Action:  r.SongsList,
			},
			{
				Name:      "get",
				Usage:     "Show one song",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags:     jsonFlags(),
				Action:    r.SongsGet,
			},
			{
				Name:   "create",
				Usage:  "Add a song to the catalog",
				Flags:  append(songFlags(true), jsonFlags()...),
				Action: r.SongsCreate,
			},
			{
				Name:      "update",
				Usage:     "Change fields of a song",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags:     append(songFlags(false), jsonFlags()...),
				Action:    r.SongsUpdate,
			},
			{
				Name:      "delete",
				Aliases:   []string{"rm"},
				Usage:     "Remove a song from the catalog",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Action:    r.SongsDelete,
			},
			{
				Name:      "search",
				Usage:     "Free-text catalog search",
				Arguments: []cli.Argument{&cli.StringArg{Name: "query"}},
				Flags:     listFlags(),
				Action:    r.SongsSearch,
			},
			facet("genre", "List songs of a genre"),
			facet("artist", "List songs by an artist"),
			facet("album", "List songs from an album"),
			listing("popular", "Most played songs"),
			listing("recent", "Recently added songs"),
			listing("top", "Top rated songs"),
			{
				Name:      "export",
				Usage:     "Export several views to files, e.g. popular top genre:rock artist:Björk",
				ArgsUsage: "VIEW...",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "File format: json, csv, markdown, text or table",
						Value:   formatter.FormatJSON,
					},
					&cli.StringFlag{
						Name:    "dir",
						Aliases: []string{"d"},
						Usage:   "Output directory (default: wavey_export_{epoch})",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent file writers",
						Value: 4,
					},
				},
				Action: r.SongsExport,
			},
			{
				Name:  "history",
				Usage: "Show recent searches made from this machine",
				Flags: append(jsonFlags(),
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of entries",
						Value: 20,
					},
					&cli.BoolFlag{
						Name:  "clear",
						Usage: "Forget all recorded searches",
					},
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Output format: table or text",
						Value:   formatter.FormatTable,
					},
				),
				Action: r.SongsHistory,
			},
		},
	}
}

func songFlags(required bool) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "title", Usage: "Song title", Required: required},
		&cli.StringSliceFlag{Name: "artist", Usage: "Artist name (repeatable)", Required: required},
		&cli.StringFlag{Name: "album", Usage: "Album name", Required: required},
		&cli.StringFlag{Name: "genre", Usage: "Genre"},
		&cli.StringFlag{Name: "release-date", Usage: "Release date (YYYY-MM-DD)", Required: required},
		&cli.StringFlag{Name: "duration", Usage: "Duration, e.g. 3:20", Required: required},
	}
}

// browseCommand returns the top-level TUI command for interactive catalog browsing.
func browseCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "browse",
		Aliases: []string{"tui", "ui"},
		Usage:   "Launch the interactive catalog browser",
		Action:  r.Browse,
	}
}
