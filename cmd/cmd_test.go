package cmd

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"repo-nav/config"
	"repo-nav/gh"
	"repo-nav/helpers"
)

// resetFlags restores command globals and points the GitHub client at api.
func resetFlags(t *testing.T, api *httptest.Server) {
	t.Helper()
	helpers.SetColorEnabled(false)
	logger.SetOutput(io.Discard)

	settings = config.DefaultConfig()
	settings.CacheDir = t.TempDir()
	navRemote, navDefaultBranch, navBranches, navSwitch = false, "", nil, ""
	checkProgress, checkTimeout = false, 5*time.Second
	previewOutput, previewStdout, previewNoCache = "", false, false

	orig := newGitHubClient
	t.Cleanup(func() { newGitHubClient = orig })
	if api != nil {
		newGitHubClient = func() (*gh.Client, error) {
			return gh.NewClient("",
				gh.WithBaseURL(api.URL),
				gh.WithRawBaseURLs(api.URL+"/raw", api.URL+"/media"),
				gh.WithLogger(logger),
				gh.WithRetryPolicy(0, time.Millisecond, time.Millisecond))
		}
	}
}

func testCommand() (*cobra.Command, *bytes.Buffer) {
	var out bytes.Buffer
	c := &cobra.Command{}
	c.SetOut(&out)
	c.SetErr(io.Discard)
	return c, &out
}

func fakeAPI(t *testing.T) *httptest.Server {
	t.Helper()
	reply := func(w http.ResponseWriter, v any) {
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(v))
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/repos/octo/widgets/branches", func(w http.ResponseWriter, r *http.Request) {
		reply(w, []map[string]string{{"name": "main"}, {"name": "release/1.0"}})
	})
	mux.HandleFunc("/repos/octo/widgets", func(w http.ResponseWriter, r *http.Request) {
		reply(w, map[string]any{"name": "widgets", "default_branch": "main"})
	})
	mux.HandleFunc("/repos/octo/widgets/contents/", func(w http.ResponseWriter, r *http.Request) {
		reply(w, []map[string]any{
			{"name": "go.mod", "type": "file", "size": 2048, "sha": "a1"},
			{"name": "src", "type": "dir", "sha": "b2"},
		})
	})
	mux.HandleFunc("/repos/octo/widgets/readme", func(w http.ResponseWriter, r *http.Request) {
		reply(w, map[string]any{
			"type":     "file",
			"path":     "README.md",
			"sha":      "f00d",
			"encoding": "base64",
			"content":  base64.StdEncoding.EncodeToString([]byte("# Widgets\n\n![logo](docs/logo.png)\n")),
		})
	})
	mux.HandleFunc("/raw/octo/widgets/main/docs/guide.md", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("## Guide\n"))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestNavOffline(t *testing.T) {
	resetFlags(t, nil)
	navBranches = []string{"main", "release/1.0"}
	navSwitch = "release/1.0"

	c, out := testCommand()
	err := runNav(c, []string{"https://github.com/octo/widgets/blob/main/docs/guide.md"})
	require.NoError(t, err)

	s := out.String()
	assert.Contains(t, s, "widgets / docs / guide.md")
	assert.Contains(t, s, "widgets -> https://github.com/octo/widgets/tree/main")
	assert.Contains(t, s, "docs -> https://github.com/octo/widgets/tree/main/docs")
	assert.Contains(t, s, "* main -> https://github.com/octo/widgets/tree/main")
	assert.Contains(t, s, "switch release/1.0 -> https://github.com/octo/widgets/tree/release%2F1.0")
}

func TestNavRemote(t *testing.T) {
	resetFlags(t, fakeAPI(t))
	navRemote = true

	c, out := testCommand()
	err := runNav(c, []string{"https://github.com/octo/widgets"})
	require.NoError(t, err)

	s := out.String()
	assert.Contains(t, s, "Branches:")
	assert.Contains(t, s, "release/1.0 -> https://github.com/octo/widgets/tree/release%2F1.0")
	assert.Contains(t, s, "src/ -> https://github.com/octo/widgets/tree/main/src")
	assert.Contains(t, s, "go.mod (2.0 KiB) -> https://github.com/octo/widgets/blob/main/go.mod")
}

func TestNavInvalidURL(t *testing.T) {
	resetFlags(t, nil)
	c, _ := testCommand()
	assert.Error(t, runNav(c, []string{"http://[::1"}))
}

func TestCheck(t *testing.T) {
	site := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "/gone") {
			http.NotFound(w, r)
		}
	}))
	defer site.Close()

	t.Run("all links answer", func(t *testing.T) {
		resetFlags(t, nil)
		navBranches = []string{"main"}
		c, out := testCommand()
		require.NoError(t, runCheck(c, []string{site.URL + "/octo/widgets/tree/main/src"}))
		assert.Contains(t, out.String(), "All 2 links answered")
	})

	t.Run("broken link", func(t *testing.T) {
		resetFlags(t, nil)
		navBranches = []string{"main", "gone"}
		c, out := testCommand()
		err := runCheck(c, []string{site.URL + "/octo/widgets/tree/main"})
		assert.ErrorIs(t, err, errBrokenLinks)
		assert.Contains(t, out.String(), "/octo/widgets/tree/gone")
	})
}

func TestPreviewReadme(t *testing.T) {
	resetFlags(t, fakeAPI(t))
	previewStdout = true

	c, out := testCommand()
	require.NoError(t, runPreview(c, []string{"https://github.com/octo/widgets"}))
	assert.Contains(t, out.String(), "Widgets</h1>")
	assert.Contains(t, out.String(), `src="/octo/widgets/docs/logo.png"`)
}

func TestPreviewBlobWritesFile(t *testing.T) {
	resetFlags(t, fakeAPI(t))
	previewOutput = t.TempDir()

	c, out := testCommand()
	require.NoError(t, runPreview(c, []string{"https://github.com/octo/widgets/blob/main/docs/guide.md"}))

	saved := filepath.Join(previewOutput, "octo_widgets_docs_guide.html")
	content, err := os.ReadFile(saved)
	require.NoError(t, err)
	assert.Contains(t, string(content), "Guide</h2>")
	assert.Contains(t, out.String(), saved)
}

func TestPreviewUsesCache(t *testing.T) {
	resetFlags(t, fakeAPI(t))
	previewStdout = true

	cache := gh.NewFileCache(settings.CacheDir)
	require.NoError(t, cache.Put(gh.ComputeKey("f00d", "octo", "widgets"), []byte("<p>cached</p>")))

	c, out := testCommand()
	require.NoError(t, runPreview(c, []string{"https://github.com/octo/widgets"}))
	assert.Equal(t, "<p>cached</p>", out.String())
}

func TestPreviewRejectsNonMarkdown(t *testing.T) {
	resetFlags(t, fakeAPI(t))
	c, _ := testCommand()
	err := runPreview(c, []string{"https://github.com/octo/widgets/blob/main/go.mod"})
	assert.ErrorContains(t, err, "not a markdown file")
}

func TestLoadSettings(t *testing.T) {
	resetFlags(t, nil)
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"default_branch": "trunk", "log_level": "warn"}`), 0o600))

	cfgFile, logLevel = path, ""
	defer func() { cfgFile = "" }()

	require.NoError(t, loadSettings(nil, nil))
	assert.Equal(t, "trunk", settings.DefaultBranch)
	assert.Equal(t, logrus.WarnLevel, logger.GetLevel())

	logLevel = "shouting"
	defer func() { logLevel = "" }()
	assert.Error(t, loadSettings(nil, nil))
}

func TestResolveTarget(t *testing.T) {
	resetFlags(t, nil)
	settings.BaseURL = "https://code.example.org/"

	tests := []struct {
		arg  string
		want string
	}{
		{"octo/widgets/tree/main", "https://code.example.org/octo/widgets/tree/main"},
		{"/octo/widgets", "https://code.example.org/octo/widgets"},
		{"https://github.com/octo/widgets", "https://github.com/octo/widgets"},
	}
	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			assert.Equal(t, tt.want, resolveTarget(tt.arg))
		})
	}

	settings.BaseURL = ""
	assert.Equal(t, "octo/widgets", resolveTarget("octo/widgets"))
}

func TestNavUsesBaseURL(t *testing.T) {
	resetFlags(t, nil)
	settings.BaseURL = "https://code.example.org"

	c, out := testCommand()
	require.NoError(t, runNav(c, []string{"octo/widgets/tree/main/src"}))
	assert.Contains(t, out.String(), "widgets -> https://code.example.org/octo/widgets/tree/main")
	assert.Contains(t, out.String(), "src -> https://code.example.org/octo/widgets/tree/main/src")
}

func TestCheckUsesBaseURL(t *testing.T) {
	site := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer site.Close()

	resetFlags(t, nil)
	settings.BaseURL = site.URL
	c, out := testCommand()
	require.NoError(t, runCheck(c, []string{"octo/widgets/tree/main"}))
	assert.Contains(t, out.String(), "All 1 links answered")
}

func TestLoadSettingsNoColor(t *testing.T) {
	resetFlags(t, nil)
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0o600))

	cfgFile, noColor = path, true
	defer func() { cfgFile, noColor = "", false }()

	require.NoError(t, loadSettings(nil, nil))
	assert.False(t, helpers.SupportsColor())
	formatter, ok := logger.Formatter.(*logrus.TextFormatter)
	require.True(t, ok)
	assert.True(t, formatter.DisableColors)
}
