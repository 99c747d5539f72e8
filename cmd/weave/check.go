package main

import (
	"github.com/spf13/cobra"
)

func (a *app) checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check [paths...]",
		Short: "Compile templates and report diagnostics only",
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := a.inputs(args)
			if err != nil {
				return err
			}
			units, err := a.compileAll(paths)
			for _, u := range units {
				a.printf("%s %s\n", Colorize("ok", ColorGreen, a.useColor), u.name)
			}
			return err
		},
	}
}
