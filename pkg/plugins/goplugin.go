package plugins

import (
	"context"
	"errors"
	"net/rpc"
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-plugin"
)

// Handshake configuration for external plugin communication. The host refuses
// to attach plugins whose cookie does not match.
var Handshake = plugin.HandshakeConfig{
	ProtocolVersion:  1,
	MagicCookieKey:   "MEDIARY_PLUGIN",
	MagicCookieValue: "mediary",
}

// PluginMap is the map of plugins we can dispense
var PluginMap = map[string]plugin.Plugin{
	"decider": &DeciderPlugin{},
}

// DeciderPlugin is the implementation of plugin.Plugin for go-plugin's
// net/rpc transport.
type DeciderPlugin struct {
	Impl Implementation
}

// Server returns the RPC server for HashiCorp go-plugin
func (p *DeciderPlugin) Server(*plugin.MuxBroker) (interface{}, error) {
	return &RPCServer{Impl: p.Impl}, nil
}

// Client returns the RPC client for HashiCorp go-plugin
func (p *DeciderPlugin) Client(b *plugin.MuxBroker, c *rpc.Client) (interface{}, error) {
	return &RPCClient{client: c}, nil
}

// ContextFromEnv builds the PluginContext from the environment the host sets
// when launching the plugin subprocess.
func ContextFromEnv() *PluginContext {
	level := os.Getenv("MEDIARY_PLUGIN_LOG_LEVEL")
	if level == "" {
		level = "info"
	}
	return &PluginContext{
		PluginID:       os.Getenv("MEDIARY_PLUGIN_ID"),
		PluginBasePath: os.Getenv("MEDIARY_PLUGIN_BASE_PATH"),
		ConfigPath:     os.Getenv("MEDIARY_PLUGIN_CONFIG"),
		LogLevel:       level,
	}
}

// Bootstrap initializes and starts a plugin exactly as StartPlugin does
// before serving. The RPC surface carries no Initialize call, so a plugin
// must be fully initialized before the first request arrives.
func Bootstrap(impl Implementation) error {
	if err := impl.Initialize(ContextFromEnv()); err != nil {
		return err
	}
	return impl.Start()
}

// StartPlugin is a helper function for plugin main() functions
func StartPlugin(impl Implementation) {
	if err := Bootstrap(impl); err != nil {
		hclog.Default().Error("plugin failed to start", "error", err)
		os.Exit(1)
	}
	defer impl.Stop()

	plugin.Serve(&plugin.ServeConfig{
		HandshakeConfig: Handshake,
		Plugins: map[string]plugin.Plugin{
			"decider": &DeciderPlugin{Impl: impl},
		},
	})
}

// RPCServer is the server side of the plugin connection, running inside the
// plugin process. net/rpc requires the (args, reply) method shape, so each
// method unwraps to the richer service interface.
type RPCServer struct {
	Impl Implementation
}

func (s *RPCServer) decider() (TranscodeDeciderService, error) {
	svc := s.Impl.TranscodeDeciderService()
	if svc == nil {
		return nil, errors.New("plugin does not implement the transcode decider service")
	}
	return svc, nil
}

func (s *RPCServer) Info(_ struct{}, resp *PluginInfo) error {
	info, err := s.Impl.Info()
	if err != nil {
		return err
	}
	*resp = *info
	return nil
}

func (s *RPCServer) Health(_ struct{}, _ *struct{}) error {
	return s.Impl.Health()
}

func (s *RPCServer) ShouldEnqueue(req *FileTestRequest, resp *FileTestResponse) error {
	svc, err := s.decider()
	if err != nil {
		return err
	}
	out, err := svc.ShouldEnqueue(context.Background(), req)
	if err != nil {
		return err
	}
	*resp = *out
	return nil
}

func (s *RPCServer) BuildCommand(req *WorkerRequest, resp *WorkerResponse) error {
	svc, err := s.decider()
	if err != nil {
		return err
	}
	out, err := svc.BuildCommand(context.Background(), req)
	if err != nil {
		return err
	}
	*resp = *out
	return nil
}

func (s *RPCServer) configuration() (ConfigurationService, error) {
	svc := s.Impl.ConfigurationService()
	if svc == nil {
		return nil, errors.New("plugin does not implement the configuration service")
	}
	return svc, nil
}

func (s *RPCServer) GetConfiguration(_ struct{}, resp *PluginConfiguration) error {
	svc, err := s.configuration()
	if err != nil {
		return err
	}
	out, err := svc.GetConfiguration(context.Background())
	if err != nil {
		return err
	}
	*resp = *out
	return nil
}

func (s *RPCServer) UpdateConfiguration(req *PluginConfiguration, _ *struct{}) error {
	svc, err := s.configuration()
	if err != nil {
		return err
	}
	return svc.UpdateConfiguration(context.Background(), req)
}

func (s *RPCServer) ReloadConfiguration(_ struct{}, _ *struct{}) error {
	svc, err := s.configuration()
	if err != nil {
		return err
	}
	return svc.ReloadConfiguration(context.Background())
}

// RPCClient is the host side of the plugin connection. It satisfies
// TranscodeDeciderService so the host can use a dispensed plugin through the
// same interface as an in-process one.
type RPCClient struct {
	client *rpc.Client
}

func (c *RPCClient) Info() (*PluginInfo, error) {
	var resp PluginInfo
	if err := c.client.Call("Plugin.Info", struct{}{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *RPCClient) Health() error {
	return c.client.Call("Plugin.Health", struct{}{}, &struct{}{})
}

func (c *RPCClient) ShouldEnqueue(_ context.Context, req *FileTestRequest) (*FileTestResponse, error) {
	var resp FileTestResponse
	if err := c.client.Call("Plugin.ShouldEnqueue", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *RPCClient) BuildCommand(_ context.Context, req *WorkerRequest) (*WorkerResponse, error) {
	var resp WorkerResponse
	if err := c.client.Call("Plugin.BuildCommand", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *RPCClient) GetConfiguration(_ context.Context) (*PluginConfiguration, error) {
	var resp PluginConfiguration
	if err := c.client.Call("Plugin.GetConfiguration", struct{}{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *RPCClient) UpdateConfiguration(_ context.Context, cfg *PluginConfiguration) error {
	return c.client.Call("Plugin.UpdateConfiguration", cfg, &struct{}{})
}

func (c *RPCClient) ReloadConfiguration(_ context.Context) error {
	return c.client.Call("Plugin.ReloadConfiguration", struct{}{}, &struct{}{})
}

// HCLogAdapter satisfies the plugin Logger interface with an hclog backend.
type HCLogAdapter struct {
	logger hclog.Logger
}

func NewHCLogAdapter(logger hclog.Logger) *HCLogAdapter {
	return &HCLogAdapter{logger: logger}
}

func (h *HCLogAdapter) Debug(msg string, args ...interface{}) {
	h.logger.Debug(msg, args...)
}

func (h *HCLogAdapter) Info(msg string, args ...interface{}) {
	h.logger.Info(msg, args...)
}

func (h *HCLogAdapter) Warn(msg string, args ...interface{}) {
	h.logger.Warn(msg, args...)
}

func (h *HCLogAdapter) Error(msg string, args ...interface{}) {
	h.logger.Error(msg, args...)
}

func (h *HCLogAdapter) With(args ...interface{}) hclog.Logger {
	return h.logger.With(args...)
}
