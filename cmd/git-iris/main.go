// Command git-iris is the thin external layer around the agent core: it
// resolves configuration (flags, environment, an optional preset file via
// viper), builds a provider and repository, and dispatches to one of the
// five capability subcommands. None of the orchestration logic lives
// here — see pkg/agent for that.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// globalFlags holds the flags shared by every subcommand (§6/§12).
type globalFlags struct {
	provider     string
	preset       string
	instructions string
	debug        bool
	quiet        bool
}

var flags globalFlags

func main() {
	os.Exit(run())
}

func run() int {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		return exitCodeFor(err)
	}
	return exitSuccess
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "git-iris",
		Short:         "AI-assisted commit messages, reviews, PR descriptions, changelogs, and release notes",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return bindConfig(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.provider, "provider", "", "completion provider: claude or openai (default from GIT_IRIS_PROVIDER, falls back to claude)")
	pf.StringVar(&flags.preset, "preset", "", "style preset name, or path to a preset file")
	pf.StringVarP(&flags.instructions, "instructions", "i", "", "extra instructions appended to the prompt")
	pf.BoolVar(&flags.debug, "debug", false, "log every state transition and tool call")
	pf.BoolVar(&flags.quiet, "quiet", false, "print only the final result")

	root.AddCommand(
		newGenCmd(),
		newReviewCmd(),
		newPRCmd(),
		newChangelogCmd(),
		newReleaseNotesCmd(),
	)
	return root
}

func bindConfig(cmd *cobra.Command) error {
	v := viper.New()
	v.SetEnvPrefix("GIT_IRIS")
	v.AutomaticEnv()
	if flags.preset != "" {
		if info, err := os.Stat(flags.preset); err == nil && !info.IsDir() {
			v.SetConfigFile(flags.preset)
			if err := v.ReadInConfig(); err != nil {
				return fmt.Errorf("read preset file %s: %w", flags.preset, err)
			}
		}
	}
	if flags.provider == "" {
		flags.provider = v.GetString("provider")
	}
	if flags.provider == "" {
		flags.provider = "claude"
	}
	return nil
}

// Exit codes per §6: 0 success, 2 user/argument error, 3 no changes to
// act upon, 4 unrecoverable agent failure, 130 cancelled.
const (
	exitSuccess      = 0
	exitUsageError   = 2
	exitNoChanges    = 3
	exitAgentFailure = 4
	exitCancelled    = 130
)

func exitCodeFor(err error) int {
	switch e := err.(type) {
	case *usageError:
		fmt.Fprintln(os.Stderr, "error:", e.Error())
		return exitUsageError
	case *noChangesError:
		fmt.Fprintln(os.Stderr, e.Error())
		return exitNoChanges
	case *cancelledError:
		fmt.Fprintln(os.Stderr, "cancelled")
		return exitCancelled
	default:
		fmt.Fprintln(os.Stderr, "error:", err.Error())
		return exitAgentFailure
	}
}

type usageError struct{ msg string }

func (e *usageError) Error() string { return e.msg }

type noChangesError struct{ msg string }

func (e *noChangesError) Error() string { return e.msg }

type cancelledError struct{ msg string }

func (e *cancelledError) Error() string { return e.msg }
