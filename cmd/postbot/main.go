package main

import (
	"log"

	corecmd "github.com/m3rciful/postbot/core/cmd"
	"github.com/m3rciful/postbot/internal/app"
	"github.com/m3rciful/postbot/internal/config"
)

func main() {
	err := corecmd.Run(corecmd.Options{
		ConfigEnvVar:      "CONFIG_PATH",
		DefaultConfigPath: "config.yaml",
		LoadConfig: func(path string) (corecmd.ConfigCarrier, error) {
			return config.Load(path)
		},
		Bootstrap: app.Bootstrap,
	})
	if err != nil {
		log.Fatalf("postbot: %v", err)
	}
}
