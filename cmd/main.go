package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/TarasYkv/shop-mirror-daemon/app/applicator"
	"github.com/TarasYkv/shop-mirror-daemon/app/config"
	"github.com/jessevdk/go-flags"
	"go.uber.org/zap"
)

func main() {
	cfg, err := loadConfig()
	if err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "failed to load config err: %v\n", err)
		os.Exit(2)
	}

	logger, err := newLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger err: %v\n", err)
		os.Exit(1)
	}

	l := logger.Sugar()
	l = l.With(zap.String("applicator", "shop-mirror-daemon"))
	defer func() {
		if err := logger.Sync(); err != nil {
			l.Debugf("failed to sync logger: %v", err)
		}
	}()

	app := applicator.NewApp(l, &cfg)
	app.Run()
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func loadConfig() (config config.Config, err error) {
	_, err = flags.Parse(&config)
	if err != nil {
		return config, err
	}
	return config, nil
}
