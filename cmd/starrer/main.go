package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/briandowns/spinner"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/guoriyue/repo-starrer/pkg/browser"
	"github.com/guoriyue/repo-starrer/pkg/config"
	"github.com/guoriyue/repo-starrer/pkg/starrer"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cfg := config.Load()

	var (
		url          string
		profileDir   string
		storageState string
		headless     bool
	)

	cmd := &cobra.Command{
		Use:   "starrer",
		Short: "Star every repository on a user's public listing page",
		Long: `starrer opens a browser, navigates to a repository listing page and
clicks the star control for each listed repository.

With no flags it targets the default listing page using a persistent
browser profile under your home directory, in visible mode. On the
first run, sign in manually in the opened browser; the profile
remembers the session for future runs.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(url, storageState, profileDir, headless)
		},
	}

	cmd.Flags().StringVar(&url, "url", cfg.TargetURL, "repository listing page to star")
	cmd.Flags().StringVar(&profileDir, "profile-dir", cfg.ProfileDir, "persistent browser profile directory (takes precedence over --storage-state)")
	cmd.Flags().StringVar(&storageState, "storage-state", cfg.StorageState, "path to a saved cookie snapshot for ephemeral sessions")
	cmd.Flags().BoolVar(&headless, "headless", cfg.Headless, "run the browser without a visible window")

	return cmd
}

type itemOutcome struct {
	index   int
	starred bool
	err     error
}

func run(url, storageState, profileDir string, headless bool) error {
	sess, err := browser.Open(browser.Config{
		StorageState: storageState,
		ProfileDir:   profileDir,
		Headless:     headless,
	})
	if err != nil {
		return fmt.Errorf("failed to open browser session: %w", err)
	}
	defer sess.Shutdown()

	sp := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	sp.Suffix = " starring repositories..."
	sp.Start()

	var outcomes []itemOutcome
	opts := starrer.DefaultOptions(url)
	opts.OnItem = func(index int, starred bool, err error) {
		outcomes = append(outcomes, itemOutcome{index: index, starred: starred, err: err})
	}

	result, runErr := starrer.Run(sess, opts)
	sp.Stop()

	if len(outcomes) > 0 {
		printSummary(outcomes)
	}

	if runErr != nil {
		return runErr
	}

	fmt.Printf("\nAutomation complete! Successfully starred %d/%d repositories\n",
		result.StarredCount, result.TotalRepos)
	return nil
}

func printSummary(outcomes []itemOutcome) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Repo", "Status", "Detail"})

	for _, o := range outcomes {
		status := "starred"
		detail := ""
		switch {
		case o.err != nil:
			status = "failed"
			detail = o.err.Error()
		case !o.starred:
			status = "skipped"
			detail = "star control not found"
		}
		table.Append([]string{strconv.Itoa(o.index), status, detail})
	}

	table.Render()
}
