package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"repo-nav/fetcher"
	"repo-nav/helpers"
	"repo-nav/model"
	"repo-nav/view"
)

var (
	checkTimeout  time.Duration
	checkProgress bool
)

var errBrokenLinks = errors.New("some links are broken")

var checkCmd = &cobra.Command{
	Use:   "check <url>",
	Short: "Check that every link derived for a page answers",
	Long: `Derive the breadcrumb, branch and listing links of a page and send a
HEAD request to each of them (GET when HEAD is refused).

Accepts the same flags as nav for branches and the default branch.

Examples:
  reponav check https://github.com/octo/widgets/tree/main
  reponav check --remote https://github.com/octo/widgets`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().BoolVar(&navRemote, "remote", false, "Fetch branches and listing from GitHub")
	checkCmd.Flags().StringVar(&navDefaultBranch, "default-branch", "", "Default branch (overrides config)")
	checkCmd.Flags().StringSliceVar(&navBranches, "branch", nil, "Known branch name (repeatable)")
	checkCmd.Flags().DurationVar(&checkTimeout, "timeout", 15*time.Second, "Timeout per request")
	checkCmd.Flags().BoolVar(&checkProgress, "progress", true, "Show a progress bar")
}

func runCheck(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	loc, state, err := pageState(ctx, args[0])
	if err != nil {
		return err
	}

	page := view.NewSnapshot()
	d, err := view.NewSynchronizer(logger).Sync(page, loc, state)
	if err != nil {
		return err
	}

	urls, err := pageLinks(d, page)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "[-] Repository: %s/%s\n", d.Owner, d.Repository)
	fmt.Fprintf(out, "[-] Checking %d links\n", len(urls))

	checker := fetcher.NewChecker(&http.Client{Timeout: checkTimeout}, settings.ConcurrentCheckLimit)
	checker.Logger = logger

	if checkProgress {
		bar := pb.New(len(urls))
		bar.SetWriter(cmd.ErrOrStderr())
		if settings.ProgressBarStyle != "" {
			bar.SetTemplateString(`{{counters . }} {{bar . "[" "` + settings.ProgressBarStyle + `" "` + settings.ProgressBarStyle + `" " " "]"}} {{percent . }}`)
		}
		bar.Start()
		checker.OnDone = func(fetcher.Result) { bar.Increment() }
		defer bar.Finish()
	}

	results := checker.Check(ctx, urls)

	broken := 0
	red := color.New(color.FgRed)
	for _, r := range results {
		if r.OK() {
			continue
		}
		broken++
		fmt.Fprintf(out, "%s %s: %v\n", red.Sprint("[x]"), r.URL, r.Err)
	}

	if broken > 0 {
		return fmt.Errorf("%w: %d of %d", errBrokenLinks, broken, len(results))
	}
	fmt.Fprintf(out, "[-] All %d links answered\n", len(results))
	return nil
}

// pageLinks lists every distinct URL the page links to, in page order.
func pageLinks(d model.PathDescriptor, page *view.Snapshot) ([]string, error) {
	self, err := helpers.DeriveURL(d, model.SameLocation())
	if err != nil {
		return nil, err
	}

	urls := []string{self}
	add := func(u string) {
		if u != "" && !slices.Contains(urls, u) {
			urls = append(urls, u)
		}
	}
	for _, item := range page.Breadcrumb() {
		add(item.URL)
	}
	for _, l := range page.Links(model.BranchLink) {
		add(l.Href)
	}
	for _, l := range page.Links(model.EntryLink) {
		add(l.Href)
	}
	return urls, nil
}
