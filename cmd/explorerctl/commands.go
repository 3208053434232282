package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"media-explorer/internal/api"
	"media-explorer/internal/media"
	"media-explorer/internal/startup"
	"media-explorer/internal/suggest"

	"github.com/spf13/cobra"
)

const defaultLimit = 100

func newDirsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "dirs",
		Short: "List registered directories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := a.api()
			if err != nil {
				return err
			}
			dirs, err := client.ListDirectories(cmd.Context())
			if err != nil {
				return err
			}
			return a.render(cmd.OutOrStdout(), dirs, func(out io.Writer) {
				printDirectories(out, dirs)
			})
		},
	}
}

func newRegisterCmd(a *app) *cobra.Command {
	var language string
	var llm bool
	cmd := &cobra.Command{
		Use:   "register <name> <path>",
		Short: "Register a directory for indexing",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.api()
			if err != nil {
				return err
			}
			req := api.NewRegisterRequest(args[0], args[1])
			req.PrimaryLanguage = language
			req.ShouldGenerateLLMDescriptions = llm

			status, err := client.RegisterDirectory(cmd.Context(), req)
			if err != nil {
				return err
			}
			return a.render(cmd.OutOrStdout(), status, func(out io.Writer) {
				fmt.Fprintf(out, "registered %s: %s\n", status.Name, statusText(status))
			})
		},
	}
	cmd.Flags().StringVar(&language, "lang", "en", "primary language of the directory's text")
	cmd.Flags().BoolVar(&llm, "llm", false, "generate LLM descriptions")
	return cmd
}

func newUnregisterCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "unregister <name>",
		Short: "Remove a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.api()
			if err != nil {
				return err
			}
			if err := client.UnregisterDirectory(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "unregistered %s\n", args[0])
			return nil
		},
	}
}

func newCancelCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <name>",
		Short: "Stop initializing a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.api()
			if err != nil {
				return err
			}
			if err := client.CancelInitialization(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "cancellation requested for %s\n", args[0])
			return nil
		},
	}
}

func newPickCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "pick",
		Short: "Choose a directory with the server host's folder picker",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := a.api()
			if err != nil {
				return err
			}
			resp, err := client.SelectDirectory(cmd.Context())
			if err != nil {
				return err
			}
			return a.render(cmd.OutOrStdout(), resp, func(out io.Writer) {
				if resp.SelectedPath == "" {
					fmt.Fprintln(out, "no directory chosen")
					return
				}
				fmt.Fprintln(out, resp.SelectedPath)
			})
		},
	}
}

// pageFlags are the paging flags of listing commands.
type pageFlags struct {
	offset int
	limit  int
}

func (p *pageFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&p.offset, "offset", 0, "index of the first result")
	cmd.Flags().IntVar(&p.limit, "limit", defaultLimit, "maximum number of results")
}

func newListCmd(a *app) *cobra.Command {
	var page pageFlags
	cmd := &cobra.Command{
		Use:   "ls <dir>",
		Short: "List the files of a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.api()
			if err != nil {
				return err
			}
			result, err := client.ListFiles(cmd.Context(), args[0], page.offset, page.limit)
			if err != nil {
				return err
			}
			scored := make([]api.ScoredFile, len(result.Files))
			for i, f := range result.Files {
				scored[i] = api.ScoredFile{File: f}
			}
			return a.render(cmd.OutOrStdout(), result, func(out io.Writer) {
				printPage(out, scored, result.Offset, result.Total)
			})
		},
	}
	page.register(cmd)
	return cmd
}

func newSearchCmd(a *app) *cobra.Command {
	var page pageFlags
	cmd := &cobra.Command{
		Use:   "search <dir> <query>...",
		Short: "Run a text search",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.api()
			if err != nil {
				return err
			}
			query := strings.Join(args[1:], " ")
			result, err := client.SearchFiles(cmd.Context(), args[0], query, page.offset, page.limit)
			if err != nil {
				return err
			}
			return a.render(cmd.OutOrStdout(), result, func(out io.Writer) {
				printPage(out, result.Results, result.Offset, result.Total)
			})
		},
	}
	page.register(cmd)
	return cmd
}

func newSimilarCmd(a *app) *cobra.Command {
	var fileID int64
	var variant string
	var imagePath string
	cmd := &cobra.Command{
		Use:   "similar <dir>",
		Short: "Find files similar to a file (--file) or to an image (--image)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hasFile := cmd.Flags().Changed("file")
			if hasFile == (imagePath != "") {
				return errors.New("exactly one of --file and --image is required")
			}
			v := api.Variant(variant)
			if hasFile && (!v.Valid() || v == api.SimilarToPasted) {
				return fmt.Errorf("unknown variant %q for --file", variant)
			}

			client, err := a.api()
			if err != nil {
				return err
			}

			var results []api.ScoredFile
			if hasFile {
				results, err = client.FindSimilar(cmd.Context(), args[0], v, api.FileID(fileID))
			} else {
				var img string
				img, err = pastedImage(imagePath)
				if err == nil {
					results, err = client.FindSimilarToImage(cmd.Context(), args[0], img)
				}
			}
			if err != nil {
				return err
			}
			return a.render(cmd.OutOrStdout(), results, func(out io.Writer) {
				printFiles(out, results)
				fmt.Fprintf(out, "%d results\n", len(results))
			})
		},
	}
	cmd.Flags().Int64Var(&fileID, "file", 0, "id of the file to compare against")
	cmd.Flags().StringVar(&variant, "variant", string(api.SimilarDescription), "similarity operation for --file")
	cmd.Flags().StringVar(&imagePath, "image", "", "image file to compare against")
	return cmd
}

func pastedImage(path string) (string, error) {
	img, err := media.PreparePastedFile(path)
	return string(img), err
}

// suggestion is the serialized form of a tag completion.
type suggestion struct {
	Tag         string `json:"tag" yaml:"tag"`
	Completion  string `json:"completion" yaml:"completion"`
	Description string `json:"description" yaml:"description"`
}

func newSuggestCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "suggest <query>...",
		Short: "Show tag completions for the last word of a query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			var out []suggestion
			for _, s := range suggest.ForQuery(query) {
				out = append(out, suggestion{
					Tag:         s.Tag,
					Completion:  suggest.Apply(query, s),
					Description: suggest.Describe(s.Tag),
				})
			}
			return a.render(cmd.OutOrStdout(), out, func(w io.Writer) {
				if len(out) == 0 {
					fmt.Fprintln(w, "no completions")
					return
				}
				for _, s := range out {
					fmt.Fprintf(w, "%s%-6s %s\n", suggest.Sigil, s.Tag, s.Description)
				}
			})
		},
	}
}

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := startup.GetBuildInfo()
			return a.render(cmd.OutOrStdout(), info, func(out io.Writer) {
				fmt.Fprintf(out, "explorerctl %s (%s, built %s, %s %s/%s)\n",
					info.Version, info.Commit, info.BuildTime, info.GoVersion, info.OS, info.Arch)
			})
		},
	}
}
