package helpers

import (
	"repo-nav/model"
)

// RenderBreadcrumb builds the trail from the repository root to the current
// entry. defaultBranch is used for the root link when d has no branch yet.
// On a blob page the last element is the file itself and carries no URL.
func RenderBreadcrumb(d model.PathDescriptor, defaultBranch string) ([]model.BreadcrumbItem, error) {
	root, err := rootCrumbURL(d, defaultBranch)
	if err != nil {
		return nil, err
	}

	trail := make([]model.BreadcrumbItem, 0, len(d.Path)+1)
	trail = append(trail, model.BreadcrumbItem{Label: d.Repository, URL: root})

	for i, seg := range d.Path {
		if d.Mode == model.ModeBlob && i == len(d.Path)-1 {
			trail = append(trail, model.BreadcrumbItem{Label: seg})
			break
		}
		href, err := DeriveURL(d, model.Crumb(i))
		if err != nil {
			return nil, err
		}
		trail = append(trail, model.BreadcrumbItem{Label: seg, URL: href})
	}

	return trail, nil
}

func rootCrumbURL(d model.PathDescriptor, defaultBranch string) (string, error) {
	switch {
	case d.HasBranch():
		return DeriveURL(d, model.Crumb(-1))
	case defaultBranch != "":
		return DeriveURL(d.WithBranch(defaultBranch), model.Crumb(-1))
	default:
		return DeriveURL(d, model.SameLocation())
	}
}
