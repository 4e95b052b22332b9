// Command bringup runs board bring-up once against the simulated SoC, or
// against the real pins through periph when BRINGUP_GPIO=periph.
package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"bringup-go/bus"
	"bringup-go/errcode"
	"bringup-go/services/bringup"
	"bringup-go/services/bringup/boards"
	"bringup-go/services/bringup/provider"
	"bringup-go/services/config"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	env, err := config.LoadEnv()
	if err != nil {
		log.Fatal().Err(err).Msg("environment")
	}
	lvl, err := zerolog.ParseLevel(env.LogLevel)
	if err != nil {
		log.Fatal().Err(err).Str("level", env.LogLevel).Msg("bad log level")
	}
	zerolog.SetGlobalLevel(lvl)

	board, ok := boards.Lookup(env.Board)
	if !ok {
		log.Fatal().Str("board", env.Board).Strs("known", boards.Names()).Msg("unknown board")
	}
	cfg, err := config.Load(board.Name, board.Features, env.Features)
	if err != nil {
		log.Fatal().Err(err).Msg("configuration")
	}

	b := bus.NewBus(8)
	conn := b.NewConnection("bringup")
	config.Publish(conn, board.Name, board.Features, cfg)

	mon := b.NewConnection("monitor").Subscribe(bus.T("bringup", "#"))
	go func() {
		for m := range mon.Channel() {
			log.Debug().Str("topic", m.Topic.String()).Interface("payload", m.Payload).Msg("bus")
		}
	}()

	host := provider.NewHost(log.Logger)
	if cfg.Enabled(boards.FeatureWM1190EV1) {
		host.AttachWM8350(0)
	}

	plat := bringup.Platform{
		IO: host, Clocks: host, UARTs: host, Registers: host,
		GPIO: host.GPIO, Buses: host, IRQs: host, Framework: host, Display: host,
	}
	if env.GPIO == "periph" {
		plat.GPIO = provider.NewPeriphGPIO(nil, provider.S3C6410LineBase)
	}
	o, err := bringup.New(board, cfg, plat, bringup.Options{Logger: log.Logger, Conn: conn})
	if err != nil {
		log.Fatal().Err(err).Msg("board rejected")
	}
	rep, err := o.Run()
	if err != nil {
		at, _ := o.FailedAt()
		log.Fatal().Err(err).
			Str("stage", at.String()).
			Str("resource", errcode.ResourceOf(err)).
			Str("code", string(errcode.Of(err))).
			Msg("bring-up halted")
	}
	log.Info().Interface("report", rep).Msg("done")
}
