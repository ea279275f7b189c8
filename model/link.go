package model

import "slices"

// TargetKind selects the rule used to derive a link.
type TargetKind int

const (
	TargetSameLocation TargetKind = iota
	TargetSwitchBranch
	TargetChild
	TargetCrumb
	TargetOverride
)

// LinkTarget describes what a derived link should point to.
type LinkTarget struct {
	Kind   TargetKind
	Branch string
	Name   string
	Mode   ViewMode
	Index  int
	Path   []string
}

func SameLocation() LinkTarget {
	return LinkTarget{Kind: TargetSameLocation}
}

func SwitchBranch(branch string) LinkTarget {
	return LinkTarget{Kind: TargetSwitchBranch, Branch: branch}
}

// Child appends name below the current path, linked with mode.
func Child(name string, mode ViewMode) LinkTarget {
	return LinkTarget{Kind: TargetChild, Name: name, Mode: mode}
}

// Crumb points at the path prefix ending at index; -1 is the branch root.
func Crumb(index int) LinkTarget {
	return LinkTarget{Kind: TargetCrumb, Index: index}
}

func Override(mode ViewMode, branch string, path ...string) LinkTarget {
	return LinkTarget{Kind: TargetOverride, Mode: mode, Branch: branch, Path: slices.Clone(path)}
}

// BreadcrumbItem is one element of the trail. An empty URL renders as plain text.
type BreadcrumbItem struct {
	Label string
	URL   string
}

func (c BreadcrumbItem) IsLink() bool {
	return c.URL != ""
}

// LinkKind groups page sinks.
type LinkKind int

const (
	BranchLink LinkKind = iota
	EntryLink
)

func (k LinkKind) String() string {
	if k == BranchLink {
		return "branch"
	}
	return "entry"
}

// LinkKey names the element a derived link is written into.
type LinkKey struct {
	Kind LinkKind
	Name string
}

func BranchKey(name string) LinkKey {
	return LinkKey{Kind: BranchLink, Name: name}
}

func EntryKey(name string) LinkKey {
	return LinkKey{Kind: EntryLink, Name: name}
}
