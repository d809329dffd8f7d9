package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"tonide/internal/archive"
	"tonide/internal/gateway/app"
	"tonide/internal/gateway/config"
	gatewayproject "tonide/internal/gateway/service/project"
	"tonide/internal/logging"
	"tonide/internal/workspace"
)

// withService opens the configured stores for the duration of fn.
func withService(cmd *cobra.Command, fn func(ctx context.Context, c *app.Components) error) error {
	cfg := config.FromEnv()
	logger, err := logging.New(cfg.Env, logLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	components, err := app.NewComponents(ctx, cfg, logger, nil)
	if err != nil {
		return err
	}
	defer components.Close()
	return fn(ctx, components)
}

func newCreateCmd() *cobra.Command {
	var template string
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a project from a template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, func(ctx context.Context, c *app.Components) error {
				p, err := c.Projects.CreateProject(ctx, gatewayproject.CreateRequest{
					Name:     args[0],
					Template: workspace.Template(template),
				})
				if err != nil {
					return err
				}
				return printProject(cmd.OutOrStdout(), p)
			})
		},
	}
	cmd.Flags().StringVar(&template, "template", string(workspace.TemplateBlank), "template (tonBlank, tonCounter)")
	return cmd
}

func newImportCmd() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "import <archive|dir>",
		Short: "Create a project from a zip or tar archive, or a local directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src := args[0]
			info, err := os.Stat(src)
			if err != nil {
				return err
			}
			if name == "" {
				name = strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
			}
			var data []byte
			if !info.IsDir() {
				if data, err = os.ReadFile(src); err != nil {
					return err
				}
			}
			return withService(cmd, func(ctx context.Context, c *app.Components) error {
				var source workspace.Archive = archive.Upload{Name: filepath.Base(src), Data: data, Limits: c.Limits}
				if info.IsDir() {
					source = archive.Dir{Root: src, Limits: c.Limits}
				}
				p, err := c.Projects.CreateProject(ctx, gatewayproject.CreateRequest{
					Name:     name,
					Template: workspace.TemplateImport,
					Archive:  source,
				})
				if err != nil {
					return err
				}
				return printProject(cmd.OutOrStdout(), p)
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "project name (defaults to the source name)")
	return cmd
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List projects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withService(cmd, func(ctx context.Context, c *app.Components) error {
				projects, err := c.Projects.ListProjects(ctx)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if jsonOutput {
					return writeJSON(out, projects)
				}
				tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tNAME\tTEMPLATE\tBUILT\tCREATED")
				for _, p := range projects {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%t\t%s\n", p.ID, p.Name, p.Template, p.ContractBOC != "", p.CreatedAt.Format(time.RFC3339))
				}
				return tw.Flush()
			})
		},
	}
}

func newTreeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tree <project>",
		Short: "Print the file tree of a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, func(ctx context.Context, c *app.Components) error {
				p, err := c.Projects.GetProject(ctx, args[0])
				if err != nil {
					return err
				}
				nodes, err := c.Projects.Tree(ctx, p.ID)
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd.OutOrStdout(), nodes)
				}
				return renderTree(cmd.OutOrStdout(), p.Name, nodes)
			})
		},
	}
}

func newCatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cat <project> <path>",
		Short: "Print the content of a project file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, func(ctx context.Context, c *app.Components) error {
				file, err := c.Projects.ReadFile(ctx, args[0], args[1])
				if err != nil {
					return err
				}
				_, err = io.WriteString(cmd.OutOrStdout(), file.Content)
				return err
			})
		},
	}
}

func newBuildCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "build <project> <entry>",
		Short: "Compile a project and store its code cell and getters",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, func(ctx context.Context, c *app.Components) error {
				res, err := c.Projects.Build(ctx, args[0], args[1])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if jsonOutput {
					return writeJSON(out, res)
				}
				fmt.Fprintf(out, "compiled %d files\n", len(res.Files))
				if res.ABI != nil {
					for _, g := range res.ABI.Getters {
						fmt.Fprintf(out, "getter %s\n", formatGetter(g))
					}
				}
				fmt.Fprintln(out, res.ContractBOC)
				return nil
			})
		},
	}
}

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <project>",
		Short: "Delete a project and its file contents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, func(ctx context.Context, c *app.Components) error {
				return c.Projects.DeleteProject(ctx, args[0])
			})
		},
	}
}

func printProject(w io.Writer, p workspace.Project) error {
	if jsonOutput {
		return writeJSON(w, p)
	}
	_, err := fmt.Fprintf(w, "%s\t%s\t%s\n", p.ID, p.Name, p.Template)
	return err
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
