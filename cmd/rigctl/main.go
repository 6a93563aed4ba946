package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/danmuck/rigctl/internal/server"
)

func main() {
	configPath := flag.String("config", "", "path to config.toml; compiled defaults apply when unset")
	flag.Parse()

	cfg, err := loadServerConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "rigctl: %v\n", err)
		os.Exit(1)
	}

	svc, err := server.NewService(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "rigctl: %v\n", err)
		os.Exit(1)
	}
	if err := svc.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "rigctl: %v\n", err)
		os.Exit(1)
	}
}
