package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"mediaconv/cmd/mediaconv/cmd/convert"
	"mediaconv/cmd/mediaconv/cmd/serve"
	"mediaconv/cmd/mediaconv/cmd/shared"
	"mediaconv/cmd/mediaconv/cmd/sweep"
	"mediaconv/cmd/mediaconv/cmd/users"
	"mediaconv/cmd/mediaconv/cmd/version"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "mediaconv",
	Short: "Convert YouTube videos and uploaded files to audio behind a usage quota",
	Long: `mediaconv converts YouTube videos and uploaded video files to mp3, wav or flac.
- serve runs the HTTP API with bearer-token auth and a per-user quota
- convert runs one conversion from the command line
- users manages entitlements (free uses, credits, unlimited accounts)`,
	SilenceUsage:     true,
	TraverseChildren: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(serve.Cmd)
	rootCmd.AddCommand(convert.Cmd)
	rootCmd.AddCommand(users.Cmd)
	rootCmd.AddCommand(sweep.Cmd)
	rootCmd.AddCommand(version.Cmd)

	rootCmd.PersistentFlags().StringVarP(&shared.ConfigPath, "config", "c", "mediaconv.yaml", "config file")
	rootCmd.PersistentFlags().BoolVarP(&shared.Verbose, "verbose", "V", false, "verbose output")
}
