package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/andresuchdata/driveup/internal/app"
	"github.com/andresuchdata/driveup/internal/config"
	"github.com/andresuchdata/driveup/internal/domain"
	"github.com/andresuchdata/driveup/internal/workflow"
	"github.com/andresuchdata/driveup/pkg/logger"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v2"
)

type ctxKey struct{}

// runner carries the wired workflow through one command invocation. Each
// invocation starts from a fresh State.
type runner struct {
	orchestrator *workflow.Orchestrator
	state        *workflow.State
	cleanup      func()
}

func fromContext(c *cli.Context) *runner {
	r, _ := c.Context.Value(ctxKey{}).(*runner)
	return r
}

func setup(c *cli.Context) error {
	logger.SetOutput(os.Stderr)

	cfg := config.Load()
	if dir := c.String("download-dir"); dir != "" {
		cfg.App.DownloadDir = dir
	}
	if provider := c.String("provider"); provider != "" {
		cfg.Remote.Provider = provider
	}
	if c.Bool("verbose") {
		cfg.Log.Level = "debug"
	}
	logger.SetFormat(cfg.Log.Format)
	logger.SetLevel(cfg.Log.Level)

	orchestrator, components, cleanup, err := app.Build(cfg)
	if err != nil {
		return err
	}
	if !c.Bool("quiet") {
		components.Fetcher.Progress = func(name string, total int64) io.Writer {
			return progressbar.DefaultBytes(total, "downloading "+name)
		}
	}

	r := &runner{
		orchestrator: orchestrator,
		state:        orchestrator.NewState(),
		cleanup:      cleanup,
	}
	c.Context = context.WithValue(c.Context, ctxKey{}, r)
	return nil
}

func teardown(c *cli.Context) error {
	if r := fromContext(c); r != nil {
		r.cleanup()
	}
	return nil
}

// action adapts an orchestrator call to a cli.ActionFunc and prints the
// user-facing message.
func action(fn func(c *cli.Context, r *runner) (workflow.Result, error)) cli.ActionFunc {
	return func(c *cli.Context) error {
		r := fromContext(c)
		res, err := fn(c, r)
		if err != nil {
			return cli.Exit(domain.Message(err), 1)
		}
		fmt.Fprintln(c.App.Writer, res.Message)
		return nil
	}
}

func requireArg(c *cli.Context, name string) (string, error) {
	v := strings.TrimSpace(c.Args().First())
	if v == "" {
		return "", domain.NewInputError("missing %s argument", name)
	}
	return v, nil
}

func main() {
	cliApp := &cli.App{
		Name:  "driveup",
		Usage: "Download files, compress them and upload them to Google Drive or S3",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "download-dir",
				Usage:   "Directory downloaded files are kept in",
				EnvVars: []string{"APP_DOWNLOAD_DIR"},
			},
			&cli.StringFlag{
				Name:    "provider",
				Usage:   "Remote provider (drive or s3)",
				EnvVars: []string{"REMOTE_PROVIDER"},
			},
			&cli.BoolFlag{
				Name:    "quiet",
				Aliases: []string{"q"},
				Usage:   "Hide the download progress bar",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable debug logging",
			},
		},
		Before: setup,
		After:  teardown,
		Commands: []*cli.Command{
			{
				Name:      "download",
				Usage:     "Download a file from a URL",
				ArgsUsage: "URL",
				Action: action(func(c *cli.Context, r *runner) (workflow.Result, error) {
					return r.orchestrator.Download(c.Context, r.state, c.Args().First())
				}),
			},
			{
				Name:      "compress",
				Usage:     "Produce the compressed variant of a downloaded file",
				ArgsUsage: "FILE",
				Action: action(func(c *cli.Context, r *runner) (workflow.Result, error) {
					return r.orchestrator.Compress(c.Context, r.state, c.Args().First())
				}),
			},
			{
				Name:    "files",
				Aliases: []string{"ls"},
				Usage:   "List downloaded files",
				Action: func(c *cli.Context) error {
					r := fromContext(c)
					if _, err := r.orchestrator.RefreshFiles(r.state); err != nil {
						return cli.Exit(domain.Message(err), 1)
					}
					for _, name := range r.state.Files {
						fmt.Fprintln(c.App.Writer, name)
					}
					return nil
				},
			},
			{
				Name:      "rm",
				Usage:     "Delete a downloaded file",
				ArgsUsage: "FILE",
				Action: action(func(c *cli.Context, r *runner) (workflow.Result, error) {
					name, err := requireArg(c, "FILE")
					if err != nil {
						return workflow.Result{}, err
					}
					return r.orchestrator.DeleteFile(r.state, name)
				}),
			},
			{
				Name:  "credential",
				Usage: "Manage the credential file",
				Subcommands: []*cli.Command{
					{
						Name:      "set",
						Usage:     "Store a credential file",
						ArgsUsage: "PATH",
						Action: action(func(c *cli.Context, r *runner) (workflow.Result, error) {
							path, err := requireArg(c, "PATH")
							if err != nil {
								return workflow.Result{}, err
							}
							data, err := os.ReadFile(path)
							if err != nil {
								return workflow.Result{}, &domain.LocalIOError{Op: "read", Path: path, Err: err}
							}
							return r.orchestrator.UploadCredential(c.Context, r.state, data)
						}),
					},
					{
						Name:  "show",
						Usage: "Print the stored credential",
						Action: func(c *cli.Context) error {
							r := fromContext(c)
							r.orchestrator.ToggleCredential(r.state)
							content, err := r.orchestrator.CredentialView(r.state)
							if err != nil {
								return cli.Exit(domain.Message(err), 1)
							}
							fmt.Fprintln(c.App.Writer, content)
							return nil
						},
					},
				},
			},
			{
				Name:  "auth",
				Usage: "Authenticate with the remote provider",
				Action: action(func(c *cli.Context, r *runner) (workflow.Result, error) {
					return r.orchestrator.Authenticate(c.Context, r.state)
				}),
			},
			{
				Name:  "folders",
				Usage: "List folders under the configured root",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "refresh", Usage: "Bypass the folder cache"},
				},
				Action: func(c *cli.Context) error {
					r := fromContext(c)
					folders, err := r.orchestrator.ListFolders(c.Context, r.state, c.Bool("refresh"))
					if err != nil {
						return cli.Exit(domain.Message(err), 1)
					}
					for _, f := range folders {
						fmt.Fprintf(c.App.Writer, "%s\t%s\n", f.ID, f.Name)
					}
					return nil
				},
			},
			{
				Name:      "upload",
				Usage:     "Upload a downloaded file",
				ArgsUsage: "FILE",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "folder-id", Usage: "Destination folder id"},
				},
				Action: action(func(c *cli.Context, r *runner) (workflow.Result, error) {
					return r.orchestrator.Upload(c.Context, r.state, workflow.UploadRequest{
						File:     c.Args().First(),
						FolderID: c.String("folder-id"),
					})
				}),
			},
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
