package cmd

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"repo-nav/gh"
	"repo-nav/helpers"
	"repo-nav/markdown"
	"repo-nav/model"
)

var (
	previewOutput  string
	previewStdout  bool
	previewNoCache bool
)

var previewCmd = &cobra.Command{
	Use:   "preview <url>",
	Short: "Render the markdown a page shows as sanitised HTML",
	Long: `Render a markdown file, or the README of the branch a page shows, to
sanitised HTML. Relative images are rewritten under /{owner}/{repo}/.

Examples:
  reponav preview https://github.com/octo/widgets
  reponav preview -o out https://github.com/octo/widgets/blob/main/docs/guide.md
  reponav preview --stdout https://github.com/octo/widgets/tree/main`,
	Args: cobra.ExactArgs(1),
	RunE: runPreview,
}

func init() {
	rootCmd.AddCommand(previewCmd)

	previewCmd.Flags().StringVarP(&previewOutput, "output", "o", "", "Output directory (default is the working directory)")
	previewCmd.Flags().BoolVar(&previewStdout, "stdout", false, "Print the HTML instead of writing a file")
	previewCmd.Flags().BoolVar(&previewNoCache, "no-cache", false, "Ignore rendered previews cached on disk")
}

func runPreview(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	d, err := helpers.ParseURL(resolveTarget(args[0]))
	if err != nil {
		return err
	}
	if d.Owner == "" || d.Repository == "" {
		return fmt.Errorf("%w: %s", helpers.ErrInvalidDescriptor, args[0])
	}

	// Navigation does not wait on the renderer, so start it before any
	// network round trip.
	loader := markdown.NewLoader(logger, nil)
	loader.Start(ctx)

	client, err := newGitHubClient()
	if err != nil {
		return err
	}
	source, err := previewSource(ctx, client, d)
	if err != nil {
		return err
	}

	cache := gh.NewFileCache(settings.CacheDir)
	key := gh.ComputeKey(source.key, d.Owner, d.Repository)

	html, hit := []byte(nil), false
	if !previewNoCache {
		html, hit = cache.Get(key)
	}
	if !hit {
		if err := loader.Wait(ctx); err != nil {
			return err
		}
		rendered, err := loader.Render(source.content, d.Owner, d.Repository)
		if err != nil {
			return err
		}
		html = []byte(rendered)
		if err := cache.Put(key, html); err != nil {
			logger.WithError(err).Warn("could not cache preview")
		}
	}
	logger.WithFields(logrus.Fields{
		"source": source.path,
		"cached": hit,
	}).Debug("preview rendered")

	out := cmd.OutOrStdout()
	if previewStdout {
		_, err := out.Write(html)
		return err
	}

	segments := append([]string{d.Owner, d.Repository}, strings.Split(source.path, "/")...)
	saved, err := helpers.SaveFile(previewOutput, helpers.PreviewFileName(segments...), html)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "[-] Preview of %s written to %s (%s)\n", source.path, saved, helpers.FormatBytes(int64(len(html))))
	return nil
}

type markdownSource struct {
	path    string
	key     string
	content string
}

func isMarkdown(name string) bool {
	switch strings.ToLower(path.Ext(name)) {
	case ".md", ".markdown", ".mdown":
		return true
	}
	return false
}

// previewSource picks what a page previews: the markdown file a blob view
// shows, otherwise the README of the branch.
func previewSource(ctx context.Context, client *gh.Client, d model.PathDescriptor) (markdownSource, error) {
	branches, err := client.ListBranches(ctx, d.Owner, d.Repository)
	if err != nil {
		return markdownSource{}, err
	}
	d = helpers.ResolveBranch(d, branches)

	if d.Mode == model.ModeBlob {
		if !isMarkdown(d.Name()) {
			return markdownSource{}, fmt.Errorf("%s is not a markdown file", d.Name())
		}
		content, err := client.FetchRaw(ctx, d)
		if err != nil {
			return markdownSource{}, err
		}
		return markdownSource{
			path:    strings.Join(d.Path, "/"),
			key:     gh.ComputeKey(string(content)),
			content: string(content),
		}, nil
	}

	ref := d.Branch
	if !d.HasBranch() {
		if ref, err = client.DefaultBranch(ctx, d.Owner, d.Repository); err != nil {
			return markdownSource{}, err
		}
	}
	readme, err := client.FetchReadme(ctx, d.Owner, d.Repository, ref)
	if err != nil {
		return markdownSource{}, err
	}
	return markdownSource{path: readme.Path, key: readme.SHA, content: readme.Content}, nil
}
