package main

import "github.com/spf13/cobra"

func newReviewCmd() *cobra.Command {
	var opts commandOptions
	cmd := &cobra.Command{
		Use:   "review",
		Short: "Produce a code review of the current changes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCapability("review", true, opts)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.commit, "commit", "", "review a specific commit instead of the working tree")
	f.BoolVar(&opts.includeUnstaged, "include-unstaged", false, "also consider unstaged working tree changes")
	f.BoolVar(&opts.raw, "raw", false, "print only the review markdown, no extra formatting")
	return cmd
}
