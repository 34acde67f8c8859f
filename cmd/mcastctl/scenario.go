// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package main

import (
	"context"
	"fmt"
	"net/netip"
	"time"

	"grimm.is/mcastctl/internal/config"
	"grimm.is/mcastctl/internal/controller"
	"grimm.is/mcastctl/internal/errors"
	"grimm.is/mcastctl/internal/logging"
	"grimm.is/mcastctl/internal/membership"
	"grimm.is/mcastctl/internal/openflow/simdriver"
	"grimm.is/mcastctl/internal/streamer"
)

// runScenario replays the end-to-end scenarios from the sample
// topology against an in-memory switch pool, printing a one-line
// description of each step. The flow-mods a step produces are recorded
// in the pool but not printed. It exists to exercise the controller
// without a live OpenFlow network.
func runScenario(name string) error {
	scenarios := map[string]func(*controller.Controller, *simdriver.Pool, config.Fixture){
		"1": scenario1,
		"2": scenario2,
		"3": scenario3,
		"4": scenario4,
	}

	if name != "" {
		fn, ok := scenarios[name]
		if !ok {
			return errors.Errorf(errors.KindValidation, "unknown scenario %q", name)
		}
		return run(fn)
	}

	for _, n := range []string{"1", "2", "3", "4"} {
		if err := run(scenarios[n]); err != nil {
			return err
		}
	}
	return nil
}

func run(fn func(*controller.Controller, *simdriver.Pool, config.Fixture)) error {
	logger := logging.New(logging.DefaultConfig())
	pool := simdriver.NewPool()
	ctrl := controller.New(logger, pool, nil)
	fx := config.SampleTopology()
	fx.Apply(ctrl.Topology)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go ctrl.Run(ctx)

	fn(ctrl, pool, fx)
	time.Sleep(50 * time.Millisecond)
	return nil
}

func host(fx config.Fixture, name string) config.HostBinding {
	h, _ := fx.Host(name)
	return h
}

func scenario1(c *controller.Controller, pool *simdriver.Pool, fx config.Fixture) {
	group := netip.MustParseAddr("226.0.0.1")
	h3, h1 := host(fx, "h3"), host(fx, "h1")

	c.HandleIGMPRecord(membership.Record{Switch: h3.Switch, Port: h3.Port, Group: group, Type: membership.ModeIsExclude})
	c.HandleDataPacket(streamer.DataPacket{Switch: h1.Switch, Group: group, Source: h1.IP})

	fmt.Println("scenario 1: h3 joins 226.0.0.1, h1 streams")
}

func scenario2(c *controller.Controller, pool *simdriver.Pool, fx config.Fixture) {
	scenario1(c, pool, fx)
	group := netip.MustParseAddr("226.0.0.1")
	h5 := host(fx, "h5")

	c.HandleIGMPRecord(membership.Record{Switch: h5.Switch, Port: h5.Port, Group: group, Type: membership.ModeIsExclude})
	fmt.Println("scenario 2: h5 also joins 226.0.0.1")
}

func scenario3(c *controller.Controller, pool *simdriver.Pool, fx config.Fixture) {
	scenario2(c, pool, fx)
	c.HandleLinkDown(10, 11)
	fmt.Println("scenario 3: link s10<->s11 goes down")
}

func scenario4(c *controller.Controller, pool *simdriver.Pool, fx config.Fixture) {
	group := netip.MustParseAddr("226.0.0.2")
	h1, h7 := host(fx, "h1"), host(fx, "h7")

	c.HandleDataPacket(streamer.DataPacket{Switch: h1.Switch, Group: group, Source: h1.IP})
	fmt.Println("scenario 4: h1 streams to 226.0.0.2 with no members")

	c.HandleIGMPRecord(membership.Record{Switch: h7.Switch, Port: h7.Port, Group: group, Type: membership.ModeIsExclude})
	fmt.Println("scenario 4: h7 joins 226.0.0.2, drop rule should clear")
}
