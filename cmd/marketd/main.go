package main

import (
	"context"
	"fmt"
	"os"

	"github.com/Nish0483/NFT-market/cmd/marketd/commands"
	"github.com/Nish0483/NFT-market/config"
	"github.com/Nish0483/NFT-market/libs/log"
)

func main() {
	conf := config.DefaultConfig()
	logger := log.MustNewDefaultLogger(conf.LogFormat, conf.LogLevel)

	rootCmd := commands.RootCommand(conf, logger)
	rootCmd.AddCommand(
		commands.MakeInitCommand(conf),
		commands.MakeStartCommand(conf, logger),
		commands.VersionCmd,
	)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
