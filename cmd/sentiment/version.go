package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tsawler/sentiment/internal/version"
)

func (a *app) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(a.out, "sentiment %s\n", version.Get())
		},
	}
}
