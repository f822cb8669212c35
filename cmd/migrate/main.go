package main

import (
	"flag"
	"fmt"
	"io/fs"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"go.uber.org/zap"

	"github.com/fdg312/mealcart/internal/config"
	"github.com/fdg312/mealcart/internal/dbmigrate"
	"github.com/fdg312/mealcart/internal/logger"
)

func main() {
	dir := flag.String("dir", "", "read migrations from this directory instead of the embedded set")
	flag.Usage = func() {
		fmt.Fprintln(flag.CommandLine.Output(), "usage: migrate [-dir path] up|status|down")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.Load()
	log := logger.Must(cfg.LogLevel, cfg.LogFormat)
	defer logger.Sync(log)

	command := flag.Arg(0)
	if err := dbmigrate.ValidateCommand(command); err != nil {
		log.Fatal("migrate", zap.Error(err))
	}

	sel, err := dbmigrate.SelectDatabaseURL(cfg, false)
	if err != nil {
		log.Fatal("migrate", zap.Error(err))
	}
	if sel.Warning != "" {
		log.Warn("migrate", zap.String("warning", sel.Warning))
	}

	var fsys fs.FS
	if *dir != "" {
		fsys = os.DirFS(*dir)
	}

	log.Info("migrate", zap.String("command", command), zap.String("using", sel.Source), zap.String("dir", *dir))
	if err := dbmigrate.Run(command, sel.URL, fsys); err != nil {
		log.Fatal("migrate failed", zap.Error(err))
	}
	log.Info("migrate completed", zap.String("command", command))
}
