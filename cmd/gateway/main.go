package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/alovak/crypto-pos-gateway/gateway"
	"golang.org/x/exp/slog"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout))

	config := gateway.DefaultConfig()
	if addr := os.Getenv("HTTP_ADDR"); addr != "" {
		config.HTTPAddr = addr
	}
	if addr := os.Getenv("ISO8583_ADDR"); addr != "" {
		config.ISO8583Addr = addr
	}
	if term := os.Getenv("TERMINAL_ID"); term != "" {
		config.TerminalID = term
	}

	app := gateway.NewApp(logger, config)
	if err := app.Start(); err != nil {
		logger.Error("starting app", "err", err)
		os.Exit(1)
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	<-sigs

	app.Shutdown()
}
