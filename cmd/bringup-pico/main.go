//go:build rp2040

// Command bringup-pico drives the SMDK6410 panel and PMIC control lines from
// a Pico on a bench rig. Everything else is simulated.
package main

import (
	"machine"
	"os"
	"time"

	"github.com/rs/zerolog"

	"bringup-go/services/bringup"
	"bringup-go/services/bringup/boards"
	"bringup-go/services/bringup/provider"
	"bringup-go/services/config"
	"bringup-go/types"
)

// Rig wiring.
var (
	pinWiring = map[types.Pin]machine.Pin{
		{Bank: "F", Num: 13}: machine.GPIO2, // panel power
		{Bank: "F", Num: 15}: machine.GPIO3, // backlight
		{Bank: "N", Num: 5}:  machine.GPIO4, // panel nRESET
		{Bank: "N", Num: 12}: machine.GPIO5, // WM8350 IRQ
	}
	uartWiring = map[int]provider.RP2UARTWiring{
		0: {TX: 0, RX: 1, Baud: 115200},
	}
)

func main() {
	// Allow USB CDC to enumerate before we print.
	time.Sleep(2 * time.Second)
	log := zerolog.New(os.Stdout).With().Timestamp().Logger()

	board, _ := boards.Lookup(boards.SMDK6410)
	cfg, err := config.Load(board.Name, board.Features, "wm1190_ev1")
	if err != nil {
		halt(log, err)
	}

	host := provider.NewHost(log)
	host.AttachWM8350(0)

	o, err := bringup.New(board, cfg, bringup.Platform{
		IO: host, Clocks: host, Registers: host, Buses: host, IRQs: host, Framework: host, Display: host,
		UARTs: provider.NewRP2UARTs(uartWiring),
		GPIO:  provider.NewRP2GPIO(pinWiring),
	}, bringup.Options{Logger: log})
	if err != nil {
		halt(log, err)
	}
	if _, err := o.Run(); err != nil {
		halt(log, err)
	}
	log.Info().Msg("bring-up complete")
	select {}
}

// halt parks the core; there is no process to exit to.
func halt(log zerolog.Logger, err error) {
	log.Error().Err(err).Msg("bring-up halted")
	for {
		time.Sleep(time.Second)
	}
}
