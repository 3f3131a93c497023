package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

func versionCmd() *cobra.Command {
	var short bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  `Print version, commit, and build information for the waypoint CLI.`,
		Run: func(cmd *cobra.Command, args []string) {
			if short {
				fmt.Println(version)
				return
			}

			fmt.Printf("%s %s\n", pathStyle.Render("waypoint"), version)
			fmt.Printf("  %s%s\n", labelStyle.Render("commit"), commit)
			fmt.Printf("  %s%s\n", labelStyle.Render("built"), date)
			fmt.Printf("  %s%s\n", labelStyle.Render("go"), runtime.Version())
			fmt.Printf("  %s%s/%s\n", labelStyle.Render("os/arch"), runtime.GOOS, runtime.GOARCH)
		},
	}

	cmd.Flags().BoolVarP(&short, "short", "s", false, "Print only version number")

	return cmd
}
