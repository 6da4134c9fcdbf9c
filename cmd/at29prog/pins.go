package main

import (
	"fmt"
	"strings"

	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"github.com/breadboardlabs/go-at29/at29"
	"github.com/breadboardlabs/go-at29/hal"
	"github.com/breadboardlabs/go-at29/sim"
)

func buildDriver() (*at29.Driver, error) {
	wiring, err := buildWiring()
	if err != nil {
		return nil, err
	}
	bus, err := at29.NewBus(wiring)
	if err != nil {
		return nil, err
	}
	return at29.New(bus, driverOptions()...), nil
}

func buildWiring() (at29.Wiring, error) {
	if flagSim {
		return sim.New().Wiring(), nil
	}
	if _, err := host.Init(); err != nil {
		return at29.Wiring{}, fmt.Errorf("initialize gpio host: %w", err)
	}

	var w at29.Wiring
	var err error
	if w.AddrLow, err = portByNames("addr-low", flagAddrLow); err != nil {
		return at29.Wiring{}, err
	}
	if w.AddrHigh, err = portByNames("addr-high", flagAddrHigh); err != nil {
		return at29.Wiring{}, err
	}
	if w.Data, err = portByNames("data", flagData); err != nil {
		return at29.Wiring{}, err
	}
	if w.CE, err = pinByName("ce", flagCE); err != nil {
		return at29.Wiring{}, err
	}
	if w.OE, err = pinByName("oe", flagOE); err != nil {
		return at29.Wiring{}, err
	}
	if w.WE, err = pinByName("we", flagWE); err != nil {
		return at29.Wiring{}, err
	}
	if w.BufOE, err = pinByName("buf-oe", flagBufOE); err != nil {
		return at29.Wiring{}, err
	}
	return w, nil
}

func pinByName(flag, name string) (hal.Pin, error) {
	if name == "" {
		return nil, fmt.Errorf("--%s is required without --sim", flag)
	}
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("--%s: no pin named %q", flag, name)
	}
	return p, nil
}

func portByNames(flag, csv string) (*hal.Port, error) {
	if csv == "" {
		return nil, fmt.Errorf("--%s is required without --sim", flag)
	}
	names := strings.Split(csv, ",")
	if len(names) != hal.PortWidth {
		return nil, fmt.Errorf("--%s: want %d pin names, got %d", flag, hal.PortWidth, len(names))
	}
	pins := make([]hal.Pin, len(names))
	for i, name := range names {
		p := gpioreg.ByName(strings.TrimSpace(name))
		if p == nil {
			return nil, fmt.Errorf("--%s: no pin named %q", flag, name)
		}
		pins[i] = p
	}
	return hal.NewPort(pins...)
}
