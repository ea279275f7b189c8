package view

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"repo-nav/helpers"
	"repo-nav/model"
)

// State is what the page knows besides its own location.
type State struct {
	// DefaultBranch backs links on the repository root page.
	DefaultBranch string
	// Branches fills the branch selector and disambiguates branch names
	// that contain a slash.
	Branches []string
	// Entries are the rows of the directory listing on the page.
	Entries []model.Entry
}

// Synchronizer writes derived links into a Page.
type Synchronizer struct {
	Logger *logrus.Logger
}

func NewSynchronizer(logger *logrus.Logger) *Synchronizer {
	if logger == nil {
		logger = logrus.New()
		logger.SetLevel(logrus.InfoLevel)
	}
	return &Synchronizer{Logger: logger}
}

// Describe parses loc and resolves its branch against state.
func (s *Synchronizer) Describe(loc model.Location, state State) model.PathDescriptor {
	d := helpers.Parse(loc.Path, loc.Origin)
	return helpers.ResolveBranch(d, state.Branches)
}

// Sync renders the breadcrumb, rewrites every branch and entry link and
// marks the active branch. It returns the descriptor the page was built from.
func (s *Synchronizer) Sync(page Page, loc model.Location, state State) (model.PathDescriptor, error) {
	d := s.Describe(loc, state)

	trail, err := helpers.RenderBreadcrumb(d, state.DefaultBranch)
	if err != nil {
		return d, fmt.Errorf("rendering breadcrumb for %s: %w", loc.Path, err)
	}
	page.SetBreadcrumb(trail)

	for _, branch := range state.Branches {
		href, err := helpers.DeriveURL(d, model.SwitchBranch(branch))
		if err != nil {
			return d, fmt.Errorf("branch link %s: %w", branch, err)
		}
		page.SetHref(model.BranchKey(branch), href)
	}

	// Rows on the repository root belong to the default branch.
	listing := d
	if listing.IsRepositoryRoot() && state.DefaultBranch != "" {
		listing = d.WithBranch(state.DefaultBranch)
	}
	for _, entry := range state.Entries {
		href, err := helpers.DeriveURL(listing, model.Child(entry.Name, entry.Kind.Mode()))
		if err != nil {
			return d, fmt.Errorf("entry link %s: %w", entry.Name, err)
		}
		page.SetHref(model.EntryKey(entry.Name), href)
	}

	active := listing.Branch
	if active != "" {
		page.SelectBranch(active)
	}

	s.Logger.WithFields(logrus.Fields{
		"owner":    d.Owner,
		"repo":     d.Repository,
		"mode":     string(d.Mode),
		"branch":   active,
		"depth":    len(d.Path),
		"branches": len(state.Branches),
		"entries":  len(state.Entries),
	}).Debug("page links synchronized")

	return d, nil
}

// SwitchBranch returns the URL the browser should load when the user picks
// branch in the selector.
func (s *Synchronizer) SwitchBranch(loc model.Location, state State, branch string) (string, error) {
	d := s.Describe(loc, state)
	href, err := helpers.DeriveURL(d, model.SwitchBranch(branch))
	if err != nil {
		return "", err
	}
	s.Logger.WithFields(logrus.Fields{
		"from": d.Branch,
		"to":   branch,
	}).Debug("branch switch")
	return href, nil
}
