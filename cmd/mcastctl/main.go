// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Command mcastctl runs the multicast control-plane controller: it
// consumes topology, IGMP, and streamer events and reconciles
// forwarding rules onto OpenFlow switches.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
)

func main() {
	configPath := flag.String("config", "", "Path to HCL config file")
	flag.Parse()

	args := flag.Args()
	subcmd := "serve"
	if len(args) > 0 {
		subcmd = args[0]
	}

	switch subcmd {
	case "serve":
		if err := runServe(*configPath); err != nil {
			log.Fatalf("serve failed: %v", err)
		}
	case "scenario":
		name := ""
		if len(args) > 1 {
			name = args[1]
		}
		if err := runScenario(name); err != nil {
			log.Fatalf("scenario failed: %v", err)
		}
	default:
		fmt.Fprintf(os.Stderr, "usage: mcastctl [serve|scenario <name>]\n")
		os.Exit(2)
	}
}
