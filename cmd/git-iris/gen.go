package main

import "github.com/spf13/cobra"

func newGenCmd() *cobra.Command {
	var opts commandOptions
	cmd := &cobra.Command{
		Use:   "gen",
		Short: "Generate a commit message for the staged (or working tree) changes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCapability("commit", true, opts)
		},
	}
	f := cmd.Flags()
	f.BoolVar(&opts.includeUnstaged, "include-unstaged", false, "also consider unstaged working tree changes")
	f.BoolVar(&opts.autoCommit, "auto-commit", false, "commit with the generated message after printing it")
	f.BoolVar(&opts.noGitmoji, "no-gitmoji", false, "omit the leading gitmoji from the title")
	f.BoolVar(&opts.print, "print", false, "print the message without committing (default behavior)")
	f.BoolVar(&opts.raw, "raw", false, "print only the message body, no formatting")
	return cmd
}
