package plugin

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mediary-app/encoder-vp9/internal/probe"
	"github.com/mediary-app/encoder-vp9/pkg/plugins"
)

// fakeProber returns canned streams without shelling out to ffprobe.
type fakeProber struct {
	streams []probe.StreamDescriptor
	err     error
}

func (f *fakeProber) Probe(ctx context.Context, path string) ([]probe.StreamDescriptor, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.streams, nil
}

func newTestPlugin(t *testing.T, streams []probe.StreamDescriptor, probeErr error) *VP9Plugin {
	t.Helper()

	p := New("")
	require.NoError(t, p.Initialize(&plugins.PluginContext{
		PluginID: PluginID,
		LogLevel: "error",
	}))
	p.prober = &fakeProber{streams: streams, err: probeErr}
	return p
}

func TestServedPluginAnswersRPCAfterBootstrap(t *testing.T) {
	t.Setenv("MEDIARY_PLUGIN_ID", PluginID)
	t.Setenv("MEDIARY_PLUGIN_CONFIG", "")
	t.Setenv("MEDIARY_PLUGIN_LOG_LEVEL", "error")

	// The binary's serve path: a freshly constructed plugin goes through
	// Bootstrap, never through an RPC-level Initialize.
	p := New("")
	require.NoError(t, plugins.Bootstrap(p))
	defer p.Stop()

	p.prober = &fakeProber{streams: []probe.StreamDescriptor{
		{Index: 0, CodecName: "h264", CodecType: probe.StreamTypeVideo},
	}}
	srv := &plugins.RPCServer{Impl: p}

	var info plugins.PluginInfo
	require.NoError(t, srv.Info(struct{}{}, &info))
	assert.Equal(t, PluginID, info.ID)

	var test plugins.FileTestResponse
	require.NoError(t, srv.ShouldEnqueue(&plugins.FileTestRequest{Path: "/media/movie.mkv"}, &test))
	assert.True(t, test.NeedsProcessing)

	var work plugins.WorkerResponse
	require.NoError(t, srv.BuildCommand(&plugins.WorkerRequest{
		InputPath:  "/media/movie.mkv",
		OutputPath: "/cache/movie.mkv",
	}, &work))
	assert.True(t, work.RunEncoder)
	assert.NotEmpty(t, work.Args)
}

func TestBootstrapSurfacesBadConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("encoder:\n  mode: bogus\n"), 0o644))
	t.Setenv("MEDIARY_PLUGIN_CONFIG", configPath)

	err := plugins.Bootstrap(New(""))

	assert.Error(t, err)
}

func TestInfo(t *testing.T) {
	p := newTestPlugin(t, nil, nil)

	info, err := p.Info()

	require.NoError(t, err)
	assert.Equal(t, "encoder_vp9", info.ID)
	assert.Equal(t, plugins.PluginTypeTranscodeDecider, info.Type)
	assert.NotEmpty(t, info.Version)
}

func TestShouldEnqueueNonVP9Video(t *testing.T) {
	p := newTestPlugin(t, []probe.StreamDescriptor{
		{Index: 0, CodecName: "h264", CodecType: probe.StreamTypeVideo},
		{Index: 0, CodecName: "aac", CodecType: probe.StreamTypeAudio},
	}, nil)

	resp, err := p.ShouldEnqueue(context.Background(), &plugins.FileTestRequest{Path: "/media/movie.mkv"})

	require.NoError(t, err)
	assert.True(t, resp.NeedsProcessing)
	assert.NotEmpty(t, resp.Reason)
}

func TestShouldEnqueueAllVP9(t *testing.T) {
	p := newTestPlugin(t, []probe.StreamDescriptor{
		{Index: 0, CodecName: "vp9", CodecType: probe.StreamTypeVideo},
		{Index: 0, CodecName: "opus", CodecType: probe.StreamTypeAudio},
	}, nil)

	resp, err := p.ShouldEnqueue(context.Background(), &plugins.FileTestRequest{Path: "/media/movie.webm"})

	require.NoError(t, err)
	assert.False(t, resp.NeedsProcessing)
}

func TestShouldEnqueueProbeFailure(t *testing.T) {
	probeErr := errors.New("boom")
	p := newTestPlugin(t, nil, probeErr)

	_, err := p.ShouldEnqueue(context.Background(), &plugins.FileTestRequest{Path: "/media/movie.mkv"})

	require.Error(t, err)
	assert.ErrorIs(t, err, probeErr)
}

func TestShouldEnqueueDisabledPlugin(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("enabled: false\n"), 0o644))

	p := New(configPath)
	require.NoError(t, p.Initialize(&plugins.PluginContext{PluginID: PluginID, LogLevel: "error"}))
	p.prober = &fakeProber{streams: []probe.StreamDescriptor{
		{Index: 0, CodecName: "h264", CodecType: probe.StreamTypeVideo},
	}}

	resp, err := p.ShouldEnqueue(context.Background(), &plugins.FileTestRequest{Path: "/media/movie.mkv"})

	require.NoError(t, err)
	assert.False(t, resp.NeedsProcessing)
	assert.Equal(t, "plugin disabled", resp.Reason)
}

func TestBuildCommand(t *testing.T) {
	p := newTestPlugin(t, []probe.StreamDescriptor{
		{Index: 0, CodecName: "h264", CodecType: probe.StreamTypeVideo},
		{Index: 0, CodecName: "aac", CodecType: probe.StreamTypeAudio},
	}, nil)

	resp, err := p.BuildCommand(context.Background(), &plugins.WorkerRequest{
		InputPath:  "/media/movie.mkv",
		OutputPath: "/cache/movie.mp4",
	})

	require.NoError(t, err)
	assert.True(t, resp.RunEncoder)
	assert.Equal(t, "/cache/movie.mkv", resp.OutputPath)

	require.NotEmpty(t, resp.Args)
	assert.Equal(t, []string{"-i", "/media/movie.mkv"}, resp.Args[:2])
	assert.Contains(t, resp.Args, "-map")
	assert.Contains(t, resp.Args, "0:v:0")
	assert.Contains(t, resp.Args, "libvpx-vp9")
	assert.Equal(t, "/cache/movie.mkv", resp.Args[len(resp.Args)-1])
}

func TestBuildCommandNothingToDo(t *testing.T) {
	p := newTestPlugin(t, []probe.StreamDescriptor{
		{Index: 0, CodecName: "vp9", CodecType: probe.StreamTypeVideo},
	}, nil)

	resp, err := p.BuildCommand(context.Background(), &plugins.WorkerRequest{
		InputPath:  "/media/movie.webm",
		OutputPath: "/cache/movie.webm",
	})

	require.NoError(t, err)
	assert.False(t, resp.RunEncoder)
	assert.Empty(t, resp.Args)
}

func TestBuildCommandProbeFailure(t *testing.T) {
	probeErr := errors.New("probe exploded")
	p := newTestPlugin(t, nil, probeErr)

	_, err := p.BuildCommand(context.Background(), &plugins.WorkerRequest{
		InputPath:  "/media/movie.mkv",
		OutputPath: "/cache/movie.mkv",
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, probeErr)
}

func TestHotReloadSwapsSettings(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("encoder:\n  mode: average_bitrate\n"), 0o644))

	p := New(configPath)
	require.NoError(t, p.Initialize(&plugins.PluginContext{PluginID: PluginID, LogLevel: "error"}))
	p.prober = &fakeProber{streams: []probe.StreamDescriptor{
		{Index: 0, CodecName: "h264", CodecType: probe.StreamTypeVideo},
	}}

	// Apply a new configuration directly, as the watcher callback would.
	cfg := p.current.Load().cfg
	updated := *cfg
	updated.Encoder.Mode = "lossless"
	require.NoError(t, p.apply(&updated))

	resp, err := p.BuildCommand(context.Background(), &plugins.WorkerRequest{
		InputPath:  "/media/movie.mkv",
		OutputPath: "/cache/movie.mkv",
	})

	require.NoError(t, err)
	assert.Contains(t, resp.Args, "-lossless")
}

func TestGetConfiguration(t *testing.T) {
	p := newTestPlugin(t, nil, nil)

	pc, err := p.GetConfiguration(context.Background())

	require.NoError(t, err)
	assert.Equal(t, Version, pc.Version)
	assert.True(t, pc.Enabled)

	enc, ok := pc.Settings["encoder"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "average_bitrate", enc["mode"])
}

func TestUpdateConfiguration(t *testing.T) {
	p := newTestPlugin(t, []probe.StreamDescriptor{
		{Index: 0, CodecName: "h264", CodecType: probe.StreamTypeVideo},
	}, nil)

	err := p.UpdateConfiguration(context.Background(), &plugins.PluginConfiguration{
		Enabled: true,
		Settings: map[string]interface{}{
			"encoder": map[string]interface{}{"mode": "lossless"},
		},
	})
	require.NoError(t, err)

	resp, err := p.BuildCommand(context.Background(), &plugins.WorkerRequest{
		InputPath:  "/media/movie.mkv",
		OutputPath: "/cache/movie.mkv",
	})
	require.NoError(t, err)
	assert.Contains(t, resp.Args, "-lossless")
}

func TestUpdateConfigurationRejectsInvalid(t *testing.T) {
	p := newTestPlugin(t, nil, nil)
	before := p.current.Load()

	err := p.UpdateConfiguration(context.Background(), &plugins.PluginConfiguration{
		Enabled: true,
		Settings: map[string]interface{}{
			"encoder": map[string]interface{}{"mode": "bogus"},
		},
	})

	require.Error(t, err)
	assert.Same(t, before, p.current.Load())
}

func TestValidateConfiguration(t *testing.T) {
	p := newTestPlugin(t, nil, nil)

	assert.NoError(t, p.ValidateConfiguration(&plugins.PluginConfiguration{
		Enabled: true,
		Settings: map[string]interface{}{
			"encoder": map[string]interface{}{"mode": "constant_quality", "crf": 20},
		},
	}))
	assert.Error(t, p.ValidateConfiguration(&plugins.PluginConfiguration{
		Enabled: true,
		Settings: map[string]interface{}{
			"encoder": map[string]interface{}{"crf": 99},
		},
	}))
}

func TestApplyRejectsInvalidConfig(t *testing.T) {
	p := newTestPlugin(t, nil, nil)
	before := p.current.Load()

	invalid := *before.cfg
	invalid.Encoder.Mode = "bogus"

	err := p.apply(&invalid)

	require.Error(t, err)
	assert.Same(t, before, p.current.Load())
}
