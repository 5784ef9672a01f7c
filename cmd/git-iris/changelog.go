package main

import "github.com/spf13/cobra"

func newChangelogCmd() *cobra.Command {
	var opts commandOptions
	cmd := &cobra.Command{
		Use:   "changelog",
		Short: "Generate a changelog entry covering a range of commits",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCapability("changelog", false, opts)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.from, "from", "", "starting ref, exclusive (default: previous tag)")
	f.StringVar(&opts.to, "to", "", "ending ref, inclusive (default HEAD)")
	f.BoolVar(&opts.raw, "raw", false, "print only the changelog markdown, no extra formatting")
	return cmd
}
