package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/shurlinet/shurlichain/internal/config"
	"github.com/shurlinet/shurlichain/internal/identity"
)

func runWhoami(args []string) {
	fs := flag.NewFlagSet("whoami", flag.ExitOnError)
	configFlag := fs.String("config", defaultConfigPath, "path to config file")
	fs.Parse(args)

	cfg, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}

	id, err := identity.PeerIDFromKeyFile(cfg.Identity.KeyFile)
	if err != nil {
		log.Fatalf("Failed to load identity: %v", err)
	}

	fmt.Println(id.String())
}
