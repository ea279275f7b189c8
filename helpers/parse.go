package helpers

import (
	"fmt"
	"net/url"
	"strings"

	"repo-nav/model"
)

// Parse turns a location path such as /owner/repo/tree/main/src into a
// descriptor. It never fails: missing segments leave fields empty.
func Parse(locationPath string, origin model.Origin) model.PathDescriptor {
	d := model.PathDescriptor{
		Protocol: origin.Protocol,
		Host:     origin.Host,
	}

	parts := splitSegments(locationPath)
	next := func() (string, bool) {
		if len(parts) == 0 {
			return "", false
		}
		part := parts[0]
		parts = parts[1:]
		return part, true
	}

	d.Owner, _ = next()
	d.Repository, _ = next()

	token, ok := next()
	if !ok {
		return d
	}
	mode, known := model.ParseViewMode(token)
	if !known || len(parts) == 0 {
		// Unknown page kinds are left to the caller.
		d.Unparsed = append([]string{token}, parts...)
		return d
	}

	d.Mode = mode
	d.Branch, _ = next()
	if len(parts) > 0 {
		d.Path = parts
	}
	return d
}

// ParseURL parses a full page URL. Only a URL net/url rejects is an error.
func ParseURL(rawURL string) (model.PathDescriptor, error) {
	loc, err := ParseLocation(rawURL)
	if err != nil {
		return model.PathDescriptor{}, err
	}
	return Parse(loc.Path, loc.Origin), nil
}

// ParseLocation splits a full URL into the location the page would report.
func ParseLocation(rawURL string) (model.Location, error) {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return model.Location{}, fmt.Errorf("invalid URL: %s", rawURL)
	}

	loc := model.Location{Path: parsedURL.EscapedPath()}
	if parsedURL.Scheme != "" {
		loc.Protocol = parsedURL.Scheme + ":"
	}
	loc.Host = parsedURL.Host
	return loc, nil
}

// ResolveBranch folds leading path segments into the branch when the joined
// name is a known branch, so feat/login/src resolves to branch feat/login
// and path src. The longest known branch wins.
func ResolveBranch(d model.PathDescriptor, branches []string) model.PathDescriptor {
	if !d.HasBranch() || len(d.Path) == 0 || len(branches) == 0 {
		return d
	}

	known := make(map[string]struct{}, len(branches))
	for _, b := range branches {
		known[b] = struct{}{}
	}

	consumed := 0
	candidate := d.Branch
	for i, seg := range d.Path {
		candidate = candidate + "/" + seg
		if _, ok := known[candidate]; ok {
			consumed = i + 1
		}
	}
	if consumed == 0 {
		return d
	}

	out := d.WithPath(d.Mode, d.Path[consumed:]...)
	out.Branch = strings.Join(append([]string{d.Branch}, d.Path[:consumed]...), "/")
	if len(out.Path) == 0 {
		out.Path = nil
	}
	return out
}

func splitSegments(locationPath string) []string {
	var parts []string
	for part := range strings.SplitSeq(locationPath, "/") {
		if part == "" {
			continue
		}
		parts = append(parts, DecodeSegment(part))
	}
	return parts
}
