// Package main is the entry point for the encoder_vp9 plugin binary. The
// host launches it as a subprocess and attaches over go-plugin's net/rpc
// transport.
package main

import (
	"os"

	vp9 "github.com/mediary-app/encoder-vp9/internal/plugin"
	"github.com/mediary-app/encoder-vp9/pkg/plugins"
)

func main() {
	// The host normally passes the settings path through the plugin
	// context; the environment variable covers standalone runs.
	configPath := os.Getenv("ENCODER_VP9_CONFIG")

	plugins.StartPlugin(vp9.New(configPath))
}
