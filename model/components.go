package model

import "slices"

// ViewMode is the page kind encoded right after the repository name.
type ViewMode string

const (
	ModeNone ViewMode = ""
	ModeTree ViewMode = "tree"
	ModeBlob ViewMode = "blob"
)

// ParseViewMode recognises only the two known tokens.
func ParseViewMode(token string) (ViewMode, bool) {
	switch ViewMode(token) {
	case ModeTree:
		return ModeTree, true
	case ModeBlob:
		return ModeBlob, true
	}
	return ModeNone, false
}

// Origin is the scheme and authority of the current page.
type Origin struct {
	Protocol string
	Host     string
}

// Location is what the hosting environment reports for the current page.
type Location struct {
	Origin
	Path string
}

// PathDescriptor holds parsed repository URL components.
//
// Mode and Branch are either both set or both empty. Path segments are kept
// decoded; encoding only happens when a link is derived.
type PathDescriptor struct {
	Protocol   string
	Host       string
	Owner      string
	Repository string
	Mode       ViewMode
	Branch     string
	Path       []string
	// Unparsed keeps the decoded segments that followed an unknown mode token.
	Unparsed []string
}

func (d PathDescriptor) Origin() Origin {
	return Origin{Protocol: d.Protocol, Host: d.Host}
}

// HasBranch reports whether the descriptor addresses a branch.
func (d PathDescriptor) HasBranch() bool {
	return d.Mode != ModeNone && d.Branch != ""
}

// IsRepositoryRoot reports whether no branch has been resolved yet.
func (d PathDescriptor) IsRepositoryRoot() bool {
	return !d.HasBranch()
}

// Segments returns a copy of the path segments.
func (d PathDescriptor) Segments() []string {
	return slices.Clone(d.Path)
}

// Name is the last path segment, or the repository name at a branch root.
func (d PathDescriptor) Name() string {
	if len(d.Path) == 0 {
		return d.Repository
	}
	return d.Path[len(d.Path)-1]
}

// WithBranch returns a copy pointing at branch. A repository root
// descriptor becomes a tree view of that branch.
func (d PathDescriptor) WithBranch(branch string) PathDescriptor {
	out := d.clone()
	out.Branch = branch
	if out.Mode == ModeNone {
		out.Mode = ModeTree
	}
	if branch == "" {
		out.Mode = ModeNone
		out.Path = nil
	}
	return out
}

// WithPath returns a copy with the given mode and path. Without a branch
// there is no path to point at, so the copy stays a repository root.
func (d PathDescriptor) WithPath(mode ViewMode, path ...string) PathDescriptor {
	out := d.clone()
	if out.Branch == "" {
		out.Mode = ModeNone
		out.Path = nil
		return out
	}
	out.Mode = mode
	out.Path = slices.Clone(path)
	return out
}

func (d PathDescriptor) clone() PathDescriptor {
	out := d
	out.Path = slices.Clone(d.Path)
	out.Unparsed = slices.Clone(d.Unparsed)
	return out
}

// EntryKind tells directory rows from file rows.
type EntryKind int

const (
	EntryFile EntryKind = iota
	EntryDir
)

func (k EntryKind) String() string {
	if k == EntryDir {
		return "dir"
	}
	return "file"
}

// Mode is the view mode a link to an entry of this kind uses.
func (k EntryKind) Mode() ViewMode {
	if k == EntryDir {
		return ModeTree
	}
	return ModeBlob
}

// Entry is one row of a directory listing.
type Entry struct {
	Name string
	Kind EntryKind
	Size int64
	SHA  string
}

// Readme is a markdown document fetched for preview.
type Readme struct {
	Path    string
	SHA     string
	Content string
}
