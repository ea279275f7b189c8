package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"repo-nav/config"
	"repo-nav/gh"
	"repo-nav/helpers"
)

var (
	cfgFile  string
	noColor  bool
	logLevel string
	apiURL   string

	settings = config.DefaultConfig()
	logger   = newLogger()
)

var rootCmd = &cobra.Command{
	Use:   "reponav",
	Short: "Navigate git repository pages from their URLs",
	Long: `reponav understands the URLs of a git browsing frontend:

  {scheme}://{host}/{owner}/{repo}[/{tree|blob}/{branch}[/{path}...]]

It renders the breadcrumb of a page, derives the branch switcher and
listing links, checks that every derived link answers and previews
README files as sanitised HTML.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadSettings,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $XDG_CONFIG_HOME/repo-nav/config.json)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (overrides config)")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "GitHub API base URL (e.g. for GitHub Enterprise)")
}

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(logrus.InfoLevel)
	return l
}

func loadSettings(cmd *cobra.Command, args []string) error {
	loaded, err := config.LoadConfig(cfgFile)
	if err != nil {
		return err
	}
	settings = loaded

	level := settings.LogLevel
	if logLevel != "" {
		level = logLevel
	}
	if level != "" {
		lvl, err := logrus.ParseLevel(level)
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", level, err)
		}
		logger.SetLevel(lvl)
	}

	if noColor {
		helpers.SetColorEnabled(false)
	}
	logger.SetFormatter(&logrus.TextFormatter{DisableColors: !helpers.SupportsColor()})
	return nil
}

// newGitHubClient is replaced in tests to point at a fake API.
var newGitHubClient = func() (*gh.Client, error) {
	token, err := config.LoadToken(settings)
	if err != nil {
		return nil, err
	}
	opts := []gh.ClientOption{
		gh.WithLogger(logger),
		gh.WithCacheTTL(settings.BranchCacheTTL),
	}
	if apiURL != "" {
		opts = append(opts, gh.WithBaseURL(apiURL))
	}
	return gh.NewClient(token, opts...)
}

// resolveTarget turns a scheme-less argument such as octo/widgets/tree/main
// into a URL below the configured base_url.
func resolveTarget(arg string) string {
	if strings.Contains(arg, "://") || settings.BaseURL == "" {
		return arg
	}
	return strings.TrimSuffix(settings.BaseURL, "/") + "/" + strings.TrimPrefix(arg, "/")
}
