package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/equipview/equipview/config"
	"github.com/equipview/equipview/internal/adminapi"
	"github.com/equipview/equipview/internal/app"
	"github.com/equipview/equipview/internal/webserver"
)

var (
	h        bool
	showVer  bool
	initDb   bool
	conffile string
)

// buildVersion is set by the release pipeline via ldflags.
var buildVersion = "dev"

func init() {
	flag.BoolVar(&h, "h", false, "help usage")
	flag.BoolVar(&showVer, "v", false, "show version")
	flag.BoolVar(&initDb, "initdb", false, "drop and recreate the local store, then exit")
	flag.StringVar(&conffile, "c", "equipview.yml", "config file")
}

func printHelp() {
	if h {
		ustr := fmt.Sprintf("equipview version: %s\nUsage: equipview [-hv] [-c config_file] [-initdb]\nOptions:", buildVersion)
		fmt.Fprintf(os.Stderr, "%s\n", ustr)
		flag.PrintDefaults()
		os.Exit(0)
	}
}

func main() {
	flag.Parse()
	printHelp()
	if showVer {
		fmt.Println(buildVersion)
		os.Exit(0)
	}

	appCfg := config.LoadConfig(conffile)
	application := app.NewApplication(appCfg)
	application.Init(appCfg)
	defer application.Release()

	if initDb {
		application.InitDb()
		zap.L().Info("stores reinitialized")
		return
	}

	webserver.Init(application)
	adminapi.Init()

	go func() {
		if err := webserver.Listen(); err != nil {
			zap.L().Fatal("web server failed", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	s := <-sig
	zap.L().Info("shutting down", zap.String("signal", s.String()))
}
