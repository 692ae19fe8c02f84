package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/foldertags/internal"
	"github.com/starford/foldertags/internal/tagservice"
	"github.com/starford/foldertags/internal/validate"
	pkgconfig "github.com/starford/foldertags/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	load := pkgconfig.Load[internal.Config]
	if !cmd.IsSet("config") {
		// The default file is optional; built-in defaults apply without it.
		load = pkgconfig.LoadOptional[internal.Config]
	}
	if err := load(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	opts := []internal.Option{
		internal.WithConfig(cfg),
	}

	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}

	return nil
}

func serveMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.RunMCP(ctx, internal.WithConfig(cfg), internal.WithLogOutput(os.Stderr))
}

// withService runs fn against a one-shot tagging service and prints its
// result as JSON.
func withService(fn func(ctx context.Context, cmd *cli.Command, svc *tagservice.Service) (any, error)) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		svc, closeFn, err := internal.Service(ctx, internal.WithConfig(cfg), internal.WithLogOutput(os.Stderr))
		if err != nil {
			return err
		}
		defer closeFn()

		out, err := fn(ctx, cmd, svc)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}
}

func requireArg(cmd *cli.Command, name string) (string, error) {
	v := cmd.Args().First()
	if v == "" {
		return "", fmt.Errorf("%s is required", name)
	}
	return v, nil
}

func folderGet(_ context.Context, cmd *cli.Command, svc *tagservice.Service) (any, error) {
	folder, err := requireArg(cmd, "folder")
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"path":      folder,
		"tags":      svc.GetFolderTags(folder),
		"effective": svc.GetFolderTagsWithInheritance(folder),
	}, nil
}

func folderSet(ctx context.Context, cmd *cli.Command, svc *tagservice.Service) (any, error) {
	folder, err := requireArg(cmd, "folder")
	if err != nil {
		return nil, err
	}
	for _, name := range strings.Split(strings.Trim(folder, "/"), "/") {
		if err := validate.FolderName(name); err != nil {
			return nil, err
		}
	}
	tags, err := validate.Tags(validate.ParseList(strings.Join(cmd.Args().Tail(), " ")))
	if err != nil {
		return nil, err
	}
	if err := svc.SetFolderTags(ctx, folder, tags); err != nil {
		return nil, err
	}
	return map[string]any{"path": folder, "tags": svc.GetFolderTags(folder)}, nil
}

func folderApply(ctx context.Context, cmd *cli.Command, svc *tagservice.Service) (any, error) {
	folder := cmd.Args().First()
	changed, err := svc.ApplyFolderTagsToFolder(ctx, folder)
	if err != nil {
		return nil, err
	}
	return map[string]any{"path": folder, "changed": changed}, nil
}

func noteApply(ctx context.Context, cmd *cli.Command, svc *tagservice.Service) (any, error) {
	note, err := requireArg(cmd, "note")
	if err != nil {
		return nil, err
	}
	tags, err := svc.ApplyFolderTagsToFile(ctx, note)
	if err != nil {
		return nil, err
	}
	return map[string]any{"path": note, "tags": tags}, nil
}

func noteStrip(ctx context.Context, cmd *cli.Command, svc *tagservice.Service) (any, error) {
	note, err := requireArg(cmd, "note")
	if err != nil {
		return nil, err
	}
	tags, err := svc.RemoveTagsFromFile(ctx, note)
	if err != nil {
		return nil, err
	}
	return map[string]any{"path": note, "tags": tags}, nil
}

func contentExtract(_ context.Context, cmd *cli.Command, svc *tagservice.Service) (any, error) {
	var data []byte
	var err error
	if name := cmd.Args().First(); name != "" && name != "-" {
		data, err = os.ReadFile(name)
	} else {
		data, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		return nil, err
	}
	return svc.ExtractTagsFromContent(string(data)), nil
}

func main() {
	cmd := &cli.Command{
		Name:   "foldertags",
		Usage:  "Propagate folder tags into the front matter of Markdown notes",
		Action: serve,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Watch the vault and serve the REST API",
				Action: serve,
			},
			{
				Name:   "mcp",
				Usage:  "Serve the tagging tools over MCP stdio",
				Action: serveMCP,
			},
			{
				Name:  "folder",
				Usage: "Inspect or assign folder tags",
				Commands: []*cli.Command{
					{
						Name:      "get",
						Usage:     "Print a folder's own and effective tags",
						ArgsUsage: "<folder>",
						Action:    withService(folderGet),
					},
					{
						Name:      "set",
						Usage:     "Assign tags to a folder (no tags clears them)",
						ArgsUsage: "<folder> [tag...]",
						Action:    withService(folderSet),
					},
					{
						Name:      "apply",
						Usage:     "Merge folder tags into every note below a folder (whole vault without an argument)",
						ArgsUsage: "[folder]",
						Action:    withService(folderApply),
					},
				},
			},
			{
				Name:  "note",
				Usage: "Apply or strip folder tags on a note",
				Commands: []*cli.Command{
					{
						Name:      "apply",
						Usage:     "Merge the folder's effective tags into the note",
						ArgsUsage: "<note>",
						Action:    withService(noteApply),
					},
					{
						Name:      "strip",
						Usage:     "Remove the folder's effective tags from the note",
						ArgsUsage: "<note>",
						Action:    withService(noteStrip),
					},
				},
			},
			{
				Name:  "content",
				Usage: "Run the tag codec on arbitrary text",
				Commands: []*cli.Command{
					{
						Name:      "extract",
						Usage:     "Print the tags of a Markdown file (or stdin)",
						ArgsUsage: "[file|-]",
						Action:    withService(contentExtract),
					},
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
