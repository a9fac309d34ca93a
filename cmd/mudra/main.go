// Command mudra relays hand skeletons from a tracking source to a receiver
// that recognizes gestures.
//
//	mudra receive [-config mudra.yaml]
//	mudra send [-config mudra.yaml] [-script shaka,fist,up] [-replay SESSION] [-once]
//	mudra poses
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/logging"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "receive":
		err = receive(os.Args[2:])
	case "send":
		err = send(os.Args[2:])
	case "poses":
		fmt.Println(strings.Join(detector.PresetNames(), "\n"))
	case "-h", "--help", "help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", os.Args[1])
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "mudra: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: mudra <command> [flags]

commands:
  receive   accept frames and recognize gestures
  send      stream a tracking source to the receiver
  poses     list the preset poses usable in scripts`)
}

// setup loads the configuration and builds the logger.
func setup(path string) (*config.Config, zerolog.Logger, func(), error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, zerolog.Nop(), nil, err
	}
	log, closer := logging.New(cfg.Log, os.Stderr)
	return cfg, log, func() { _ = closer.Close() }, nil
}

func receive(args []string) error {
	fs := flag.NewFlagSet("receive", flag.ExitOnError)
	configPath := fs.String("config", "", "path to the config file")
	listen := fs.String("listen", "", "override link.listen")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, log, done, err := setup(*configPath)
	if err != nil {
		return err
	}
	defer done()
	if *listen != "" {
		cfg.Link.Listen = *listen
	}

	recv, err := app.NewReceiver(cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := recv.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close receiver")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return recv.Run(ctx)
}

func send(args []string) error {
	fs := flag.NewFlagSet("send", flag.ExitOnError)
	configPath := fs.String("config", "", "path to the config file")
	script := fs.String("script", "", "comma separated preset poses (see mudra poses)")
	replay := fs.String("replay", "", "recorded session id to play back")
	peer := fs.String("peer", "", "override link.peer")
	once := fs.Bool("once", false, "stop after one pass of the script or replay")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, log, done, err := setup(*configPath)
	if err != nil {
		return err
	}
	defer done()
	if *script != "" {
		cfg.Tracking.Script = *script
	}
	if *replay != "" {
		cfg.Tracking.Replay = *replay
	}
	if *peer != "" {
		cfg.Link.Peer = *peer
	}

	sender, err := app.NewSender(cfg, app.SenderOptions{Once: *once}, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := sender.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close sender")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return sender.Run(ctx)
}
