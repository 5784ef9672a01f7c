package main

import "github.com/spf13/cobra"

func newPRCmd() *cobra.Command {
	var opts commandOptions
	cmd := &cobra.Command{
		Use:   "pr",
		Short: "Generate a pull request description from a branch's commits",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCapability("pr", true, opts)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.from, "from", "", "base ref the pull request targets")
	f.StringVar(&opts.to, "to", "", "tip ref of the pull request branch (default HEAD)")
	f.BoolVar(&opts.raw, "raw", false, "print only the description markdown, no extra formatting")
	return cmd
}
