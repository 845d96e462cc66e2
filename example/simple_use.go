package main

import (
	"fmt"
	"time"

	"github.com/leandrodaf/synthctl/internal/logger"
	"github.com/leandrodaf/synthctl/sdk/contracts"
	"github.com/leandrodaf/synthctl/sdk/midi"
	"github.com/leandrodaf/synthctl/sdk/synth"
)

const profileJSON = `{
  "manufacturer": "Roland",
  "model": "SC-55",
  "default_channel": 0,
  "patches": { "single": { "Piano 1": "0x00", "Organ 1": "0x10", "Strings": 48 } },
  "controllers": { "Volume": { "cc_number": 7 } }
}`

func main() {
	log := logger.NewZapLogger()
	opts := []contracts.Option{
		contracts.WithLogger(log),
		contracts.WithLogLevel(contracts.InfoLevel),
	}

	transport, err := midi.NewTransport(opts...)
	if err != nil {
		log.Error("Failed to initialize MIDI transport", log.Field().Error("error", err))
		return
	}
	defer transport.Close()

	profile, err := synth.ParseProfile([]byte(profileJSON))
	if err != nil {
		log.Error("Failed to parse profile", log.Field().Error("error", err))
		return
	}

	err = midi.WithDevice(transport, 0, 0, func(device *midi.Device) error {
		ports, err := device.ListOutputPorts()
		if err != nil {
			return err
		}
		fmt.Println("Available MIDI outputs:", ports)

		controller, err := synth.NewController(device, profile, opts...)
		if err != nil {
			return err
		}
		if err := controller.SelectPatch("Organ 1", synth.DefaultPatchType); err != nil {
			return err
		}
		if _, err := controller.SetController("Volume", 100); err != nil {
			return err
		}

		fmt.Println("Printing incoming MIDI messages for 10 seconds...")
		deadline := time.After(10 * time.Second)
		ticker := time.NewTicker(20 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-deadline:
				return controller.Panic()
			case <-ticker.C:
				for event, ok := device.ReadMessage(); ok; event, ok = device.ReadMessage() {
					log.Info("MIDI Event",
						log.Field().String("message", event.String()),
						log.Field().Duration("delta", event.Delta),
					)
				}
			}
		}
	}, opts...)
	if err != nil {
		log.Error("MIDI session failed", log.Field().Error("error", err))
	}
}
