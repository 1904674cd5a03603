package plugin

// PluginID is the identifier this plugin registers under with the host.
const PluginID = "encoder_vp9"

// Build information, populated at build time
var (
	Version   = "1.0.0"
	GitCommit = "dev"
	BuildTime = "unknown"
)
