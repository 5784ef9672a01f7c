package main

import "github.com/spf13/cobra"

func newReleaseNotesCmd() *cobra.Command {
	var opts commandOptions
	cmd := &cobra.Command{
		Use:   "release-notes",
		Short: "Generate release notes covering a range of commits",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCapability("release-notes", false, opts)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.from, "from", "", "starting ref, exclusive (default: previous release tag)")
	f.StringVar(&opts.to, "to", "", "ending ref, inclusive (default HEAD)")
	f.BoolVar(&opts.raw, "raw", false, "print only the release notes markdown, no extra formatting")
	return cmd
}
