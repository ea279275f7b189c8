package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"repo-nav/gh"
	"repo-nav/helpers"
	"repo-nav/model"
	"repo-nav/view"
)

var (
	navRemote        bool
	navDefaultBranch string
	navBranches      []string
	navSwitch        string
)

var navCmd = &cobra.Command{
	Use:   "nav <url|owner/repo/...>",
	Short: "Show the breadcrumb and links of a repository page",
	Long: `Show the breadcrumb, branch links and listing links of a repository page.

A path without a scheme is resolved against base_url from the config.
Without --remote only the URL is used. With --remote the branch list,
default branch and directory listing are fetched from GitHub.

Examples:
  reponav nav https://github.com/octo/widgets/tree/main/src
  reponav nav --remote https://github.com/octo/widgets
  reponav nav octo/widgets/tree/main/src
  reponav nav --branch main --branch release/1.0 --switch release/1.0 https://github.com/octo/widgets/blob/main/go.mod`,
	Args: cobra.ExactArgs(1),
	RunE: runNav,
}

func init() {
	rootCmd.AddCommand(navCmd)

	navCmd.Flags().BoolVar(&navRemote, "remote", false, "Fetch branches and listing from GitHub")
	navCmd.Flags().StringVar(&navDefaultBranch, "default-branch", "", "Default branch (overrides config)")
	navCmd.Flags().StringSliceVar(&navBranches, "branch", nil, "Known branch name (repeatable)")
	navCmd.Flags().StringVar(&navSwitch, "switch", "", "Print the URL of this page on another branch")
}

func runNav(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	loc, state, err := pageState(ctx, args[0])
	if err != nil {
		return err
	}

	syncer := view.NewSynchronizer(logger)
	page := view.NewSnapshot()
	d, err := syncer.Sync(page, loc, state)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	printPage(out, d, page, state)

	if navSwitch != "" {
		href, err := syncer.SwitchBranch(loc, state, navSwitch)
		if err != nil {
			return fmt.Errorf("switching to %s: %w", navSwitch, err)
		}
		fmt.Fprintln(out)
		fmt.Fprintln(out, helpers.FormatLink("switch "+navSwitch, href))
	}
	return nil
}

// pageState parses rawURL and gathers what the page knows besides its URL,
// either from flags or from GitHub.
func pageState(ctx context.Context, rawURL string) (model.Location, view.State, error) {
	loc, err := helpers.ParseLocation(resolveTarget(rawURL))
	if err != nil {
		return loc, view.State{}, err
	}

	state := view.State{
		DefaultBranch: settings.DefaultBranch,
		Branches:      navBranches,
	}
	if navDefaultBranch != "" {
		state.DefaultBranch = navDefaultBranch
	}
	if !navRemote {
		return loc, state, nil
	}

	client, err := newGitHubClient()
	if err != nil {
		return loc, state, err
	}
	state, err = remoteState(ctx, client, loc, state)
	return loc, state, err
}

func remoteState(ctx context.Context, client *gh.Client, loc model.Location, state view.State) (view.State, error) {
	d := helpers.Parse(loc.Path, loc.Origin)
	if d.Owner == "" || d.Repository == "" {
		return state, fmt.Errorf("%w: %s", helpers.ErrInvalidDescriptor, loc.Path)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		branches, err := client.ListBranches(gctx, d.Owner, d.Repository)
		if err != nil {
			return fmt.Errorf("listing branches: %w", err)
		}
		state.Branches = branches
		return nil
	})
	g.Go(func() error {
		branch, err := client.DefaultBranch(gctx, d.Owner, d.Repository)
		if err != nil {
			return fmt.Errorf("fetching default branch: %w", err)
		}
		if navDefaultBranch == "" {
			state.DefaultBranch = branch
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return state, err
	}

	listing := helpers.ResolveBranch(d, state.Branches)
	if listing.IsRepositoryRoot() {
		listing = listing.WithBranch(state.DefaultBranch)
	}
	if listing.Mode != model.ModeTree {
		return state, nil
	}

	entries, err := client.ListEntries(ctx, listing)
	if err != nil {
		return state, fmt.Errorf("listing %s: %w", helpers.JoinSegments(listing.Segments()...), err)
	}
	state.Entries = entries
	return state, nil
}

func printPage(w io.Writer, d model.PathDescriptor, page *view.Snapshot, state view.State) {
	trail := page.Breadcrumb()
	fmt.Fprintln(w, helpers.FormatTrail(trail))
	for _, item := range trail {
		if item.IsLink() {
			fmt.Fprintln(w, "  "+helpers.FormatLink(item.Label, item.URL))
		}
	}

	if branches := page.Links(model.BranchLink); len(branches) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Branches:")
		for _, l := range branches {
			marker := " "
			if l.Name == page.Selected() {
				marker = "*"
			}
			fmt.Fprintf(w, "%s %s\n", marker, helpers.FormatLink(l.Name, l.Href))
		}
	}

	if len(state.Entries) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Entries of %s:\n", d.Name())
		for _, e := range state.Entries {
			href, _ := page.Href(model.EntryKey(e.Name))
			fmt.Fprintf(w, "  %s\n", helpers.FormatLink(helpers.FormatEntry(e), href))
		}
	}
}
