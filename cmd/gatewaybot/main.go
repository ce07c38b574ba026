// Command gatewaybot is a small Discord bot built on the event manager.
//
// Usage:
//
//	gatewaybot run --token $TOKEN --timeout 5s --workers 8
//	gatewaybot config --config gatewaybot.yaml
//	gatewaybot incidents --journal incidents.db --limit 20
package main

import (
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
