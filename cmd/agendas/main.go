// agendas harvests council meeting agendas: it scrapes each council's site,
// downloads new agenda documents, extracts their text, parses the fields and
// notifies subscribers.
//
// Usage:
//
//	agendas run [--councils=a,b] [--interval=1h]
//	agendas councils
//	agendas show <council> <download-url>
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:           "agendas",
	Short:         "Harvest council meeting agendas",
	Long:          "agendas scrapes local council websites for newly published meeting agendas,\nextracts the agenda text, records it and notifies subscribers.",
	SilenceUsage:  true,
	SilenceErrors: true,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(councilsCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.Version = version
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
