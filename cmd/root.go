// file: gate/cmd/root.go
package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/rskv-p/gate/cmd/cmd_serve"
)

var rootCmd = &cobra.Command{
	Use:   "gate",
	Short: "Messaging gateway bridging WebSocket and WebTransport clients to the bus",
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(cmd_serve.Cmd)
}
