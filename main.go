package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/AriSilva94/mvabrigosbrasil-sub002/cmd"
	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/buildinfo"
)

// Set at build time with -ldflags "-X main.version=... -X main.buildDate=..."
var (
	version   = "dev"
	buildDate = ""
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := cmd.Execute(ctx, buildinfo.NewContext(version, buildDate))
	stop()
	if err != nil {
		os.Exit(1)
	}
}
