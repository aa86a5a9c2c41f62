package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	logger "github.com/Easy-Infra-Ltd/easy-logger"

	"github.com/Easy-Infra-Ltd/easy-input-guard/src/config"
	"github.com/Easy-Infra-Ltd/easy-input-guard/src/service"
)

func main() {
	log := logger.CreateLoggerFromEnv(nil, "blue").With("process", "easyinputguard")

	cfgPath := "config.json"
	explicit := len(os.Args) > 1
	if explicit {
		cfgPath = os.Args[1]
	}

	cfg, err := config.Load(cfgPath)
	switch {
	case err == nil:
	case !explicit && errors.Is(err, os.ErrNotExist):
		log.Info("no config file, using defaults", "path", cfgPath)
		cfg = config.Default()
	default:
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	svc := service.New(cfg, log)
	if err := svc.Run(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "service: %v\n", err)
		os.Exit(1)
	}
}
