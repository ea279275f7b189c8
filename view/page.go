package view

import (
	"maps"
	"slices"
	"sync"

	"repo-nav/model"
)

// Page is the host page capability the synchronizer writes into.
type Page interface {
	SetBreadcrumb(trail []model.BreadcrumbItem)
	SetHref(key model.LinkKey, href string)
	SelectBranch(branch string)
}

// Snapshot is an in-memory Page that records the last value written to
// every sink.
type Snapshot struct {
	mu       sync.Mutex
	trail    []model.BreadcrumbItem
	hrefs    map[model.LinkKey]string
	selected string
}

func NewSnapshot() *Snapshot {
	return &Snapshot{hrefs: make(map[model.LinkKey]string)}
}

func (s *Snapshot) SetBreadcrumb(trail []model.BreadcrumbItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trail = slices.Clone(trail)
}

func (s *Snapshot) SetHref(key model.LinkKey, href string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hrefs[key] = href
}

func (s *Snapshot) SelectBranch(branch string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = branch
}

func (s *Snapshot) Breadcrumb() []model.BreadcrumbItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.trail)
}

// Href returns the link written for key, if any.
func (s *Snapshot) Href(key model.LinkKey) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	href, ok := s.hrefs[key]
	return href, ok
}

func (s *Snapshot) Selected() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

// Links returns every written link of the given kind, sorted by name.
func (s *Snapshot) Links(kind model.LinkKind) []Link {
	s.mu.Lock()
	defer s.mu.Unlock()

	var links []Link
	for _, key := range slices.SortedFunc(maps.Keys(s.hrefs), compareKeys) {
		if key.Kind == kind {
			links = append(links, Link{Name: key.Name, Href: s.hrefs[key]})
		}
	}
	return links
}

// Link is a named href recorded by a Snapshot.
type Link struct {
	Name string
	Href string
}

func compareKeys(a, b model.LinkKey) int {
	if a.Kind != b.Kind {
		return int(a.Kind) - int(b.Kind)
	}
	switch {
	case a.Name < b.Name:
		return -1
	case a.Name > b.Name:
		return 1
	}
	return 0
}
