package plugins

import "time"

// PluginContext carries host-provided wiring that a plugin receives once,
// at initialization.
type PluginContext struct {
	PluginID       string `json:"plugin_id"` // Plugin identifier passed from the manager
	PluginBasePath string `json:"plugin_base_path"`
	ConfigPath     string `json:"config_path"` // Path to the plugin's settings file
	LogLevel       string `json:"log_level"`
	Logger         Logger `json:"-"`
}

type PluginInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Version     string `json:"version"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Author      string `json:"author"`
}

// FileTestRequest asks the plugin whether a library file needs processing.
type FileTestRequest struct {
	Path string `json:"path"`
}

type FileTestResponse struct {
	NeedsProcessing bool   `json:"needs_processing"`
	Reason          string `json:"reason"`
}

// WorkerRequest asks the plugin to construct the encoder command for a task.
// OutputPath is the host's suggested destination; the plugin may adjust its
// extension to preserve the source container.
type WorkerRequest struct {
	InputPath  string `json:"input_path"`
	OutputPath string `json:"output_path"`
}

type WorkerResponse struct {
	// RunEncoder reports whether the host should execute the encoder at all.
	// When false, Args and OutputPath are empty and the task is a no-op.
	RunEncoder bool     `json:"run_encoder"`
	Args       []string `json:"args"`
	OutputPath string   `json:"output_path"`
}

// PluginConfiguration is the wire form of a plugin's settings. Settings is the
// plugin-specific document; plugins decode it into their own config type.
type PluginConfiguration struct {
	Version  string                 `json:"version"`
	Enabled  bool                   `json:"enabled"`
	Settings map[string]interface{} `json:"settings"`
}

// Plugin metrics and monitoring types
type HealthStatus struct {
	Status       string            `json:"status"` // "healthy", "degraded", "unhealthy"
	Message      string            `json:"message"`
	LastCheck    time.Time         `json:"last_check"`
	Uptime       time.Duration     `json:"uptime"`
	MemoryUsage  int64             `json:"memory_usage"`  // bytes
	ErrorRate    float64           `json:"error_rate"`    // percentage
	ResponseTime time.Duration     `json:"response_time"` // average response time
	Details      map[string]string `json:"details"`
}

type PluginMetrics struct {
	ExecutionCount  int64         `json:"execution_count"`
	SuccessCount    int64         `json:"success_count"`
	ErrorCount      int64         `json:"error_count"`
	AverageExecTime time.Duration `json:"average_exec_time"`
	LastExecution   time.Time     `json:"last_execution"`
	ItemsProcessed  int64         `json:"items_processed"`
}

type HealthThresholds struct {
	MaxMemoryUsage      int64         `json:"max_memory_usage"` // bytes
	MaxErrorRate        float64       `json:"max_error_rate"`   // percentage
	MaxResponseTime     time.Duration `json:"max_response_time"`
	HealthCheckInterval time.Duration `json:"health_check_interval"`
}
