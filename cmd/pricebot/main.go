package main

import (
	"log"

	corecmd "github.com/m3rciful/pricebot/core/cmd"
	"github.com/m3rciful/pricebot/pricebot/app"
	"github.com/m3rciful/pricebot/pricebot/config"
)

func main() {
	err := corecmd.Run(corecmd.Options{
		ConfigEnvVar:      "CONFIG_PATH",
		DefaultConfigPath: "configs/config.yaml",
		LoadConfig: func(path string) (corecmd.ConfigCarrier, error) {
			cfg, err := config.Load(path)
			if err != nil {
				return nil, err
			}
			return cfg, nil
		},
		Bootstrap: app.Bootstrap,
	})
	if err != nil {
		log.Fatal(err)
	}
}
