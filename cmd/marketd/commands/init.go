package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Nish0483/NFT-market/config"
)

// MakeInitCommand returns the command that writes a default config.toml
// into the home directory. An existing file is left untouched.
func MakeInitCommand(conf *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize the marketd home directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := conf.ConfigFile()
			if _, err := os.Stat(path); err == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "Found config file", path)
				return nil
			}
			if err := config.WriteConfigFile(conf.RootDir, conf); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Generated config file", path)
			return nil
		},
	}
}
