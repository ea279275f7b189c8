package helpers

import (
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"repo-nav/model"
)

const TrailSeparator = " / "

var (
	linkColor    = color.New(color.FgCyan, color.Underline)
	currentColor = color.New(color.Bold)
	dimColor     = color.New(color.Faint)
	dirColor     = color.New(color.FgBlue, color.Bold)
)

func init() {
	color.NoColor = !detectColorSupport()
}

func detectColorSupport() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if os.Getenv("TERM") == "dumb" {
		return false
	}
	if runtime.GOOS == "windows" {
		return os.Getenv("WT_SESSION") != "" ||
			os.Getenv("TERM_PROGRAM") == "vscode" ||
			os.Getenv("ANSICON") != ""
	}
	fileInfo, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}

func SupportsColor() bool {
	return !color.NoColor
}

func SetColorEnabled(enabled bool) {
	color.NoColor = !enabled
}

// FormatTrail prints a breadcrumb on one line. Linked elements are
// underlined, the unlinked current file is bold.
func FormatTrail(trail []model.BreadcrumbItem) string {
	parts := make([]string, len(trail))
	for i, c := range trail {
		if c.IsLink() {
			parts[i] = linkColor.Sprint(c.Label)
		} else {
			parts[i] = currentColor.Sprint(c.Label)
		}
	}
	return strings.Join(parts, TrailSeparator)
}

// FormatLink prints "label -> href".
func FormatLink(label, href string) string {
	return fmt.Sprintf("%s %s %s", label, dimColor.Sprint("->"), href)
}

// FormatEntry prints one listing row with its size.
func FormatEntry(e model.Entry) string {
	if e.Kind == model.EntryDir {
		return dirColor.Sprint(e.Name + "/")
	}
	return fmt.Sprintf("%s %s", e.Name, dimColor.Sprintf("(%s)", FormatBytes(e.Size)))
}

func FormatBytes(bytes int64) string {
	if bytes < 0 {
		bytes = 0
	}
	return humanize.IBytes(uint64(bytes))
}
