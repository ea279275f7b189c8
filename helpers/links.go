package helpers

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"repo-nav/model"
)

var (
	ErrInvalidDescriptor = errors.New("invalid path descriptor")
	ErrCrumbIndex        = errors.New("breadcrumb index out of range")
)

const upperhex = "0123456789ABCDEF"

// EncodeSegment percent-encodes one URL path segment. Only the characters
// A-Z a-z 0-9 - _ . ! ~ * ' ( ) are left as is, so a literal slash inside a
// branch or file name never reads as a separator.
func EncodeSegment(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&15])
	}
	return b.String()
}

// DecodeSegment reverses EncodeSegment. Text with a malformed escape is
// returned unchanged.
func DecodeSegment(s string) string {
	decoded, err := url.PathUnescape(s)
	if err != nil {
		return s
	}
	return decoded
}

func isUnreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	switch c {
	case '-', '_', '.', '!', '~', '*', '\'', '(', ')':
		return true
	}
	return false
}

// JoinSegments encodes every segment on its own and joins them with '/'.
func JoinSegments(segments ...string) string {
	encoded := make([]string, len(segments))
	for i, seg := range segments {
		encoded[i] = EncodeSegment(seg)
	}
	return strings.Join(encoded, "/")
}

// DeriveURL builds the URL a link on the page described by d should point
// to for the requested target.
func DeriveURL(d model.PathDescriptor, target model.LinkTarget) (string, error) {
	if d.Owner == "" || d.Repository == "" {
		return "", fmt.Errorf("%w: owner and repository are required", ErrInvalidDescriptor)
	}

	switch target.Kind {
	case model.TargetSameLocation:
		if !d.HasBranch() {
			return repositoryURL(d), nil
		}
		return branchURL(d, d.Mode, d.Branch, d.Path), nil

	case model.TargetSwitchBranch:
		if target.Branch == "" {
			return "", fmt.Errorf("%w: empty branch name", ErrInvalidDescriptor)
		}
		// A file may not exist on the other branch; land on its root instead.
		if d.Mode != model.ModeTree {
			return branchURL(d, model.ModeTree, target.Branch, nil), nil
		}
		return branchURL(d, model.ModeTree, target.Branch, d.Path), nil

	case model.TargetChild:
		if !d.HasBranch() {
			return "", fmt.Errorf("%w: child link %q needs a branch", ErrInvalidDescriptor, target.Name)
		}
		mode := target.Mode
		if mode == model.ModeNone {
			mode = model.ModeTree
		}
		path := append(d.Segments(), target.Name)
		return branchURL(d, mode, d.Branch, path), nil

	case model.TargetCrumb:
		if !d.HasBranch() {
			return "", fmt.Errorf("%w: breadcrumb needs a branch", ErrInvalidDescriptor)
		}
		if target.Index < -1 || target.Index >= len(d.Path) {
			return "", fmt.Errorf("%w: %d of %d", ErrCrumbIndex, target.Index, len(d.Path))
		}
		return branchURL(d, model.ModeTree, d.Branch, d.Path[:target.Index+1]), nil

	case model.TargetOverride:
		if target.Mode == model.ModeNone || target.Branch == "" {
			return repositoryURL(d), nil
		}
		return branchURL(d, target.Mode, target.Branch, target.Path), nil
	}

	return "", fmt.Errorf("unknown link target kind: %d", target.Kind)
}

func repositoryURL(d model.PathDescriptor) string {
	return fmt.Sprintf("%s//%s/%s", d.Protocol, d.Host, JoinSegments(d.Owner, d.Repository))
}

func branchURL(d model.PathDescriptor, mode model.ViewMode, branch string, path []string) string {
	href := fmt.Sprintf("%s/%s/%s", repositoryURL(d), mode, EncodeSegment(branch))
	if len(path) > 0 {
		href += "/" + JoinSegments(path...)
	}
	return href
}
