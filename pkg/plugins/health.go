package plugins

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"
)

// BaseHealthService provides a standard implementation of HealthMonitorService
// that can be embedded or used directly by plugins.
type BaseHealthService struct {
	startTime  time.Time
	mutex      sync.RWMutex
	thresholds *HealthThresholds
	pluginName string

	// Metrics tracking
	totalRequests      int64
	successfulRequests int64
	errorCount         int64
	totalResponseTime  time.Duration

	lastError       string
	lastRequestTime time.Time
	memoryPeakUsage int64
}

// NewBaseHealthService creates a new base health monitoring service
func NewBaseHealthService(pluginName string) *BaseHealthService {
	return &BaseHealthService{
		startTime:  time.Now(),
		pluginName: pluginName,
		thresholds: &HealthThresholds{
			MaxMemoryUsage:      256 * 1024 * 1024, // 256MB default
			MaxErrorRate:        3.0,               // 3% default
			MaxResponseTime:     5 * time.Second,   // 5s default
			HealthCheckInterval: 30 * time.Second,  // 30s default
		},
	}
}

// GetHealthStatus returns the current health status. It takes the write lock
// because it updates the tracked memory peak.
func (h *BaseHealthService) GetHealthStatus(ctx context.Context) (*HealthStatus, error) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	currentMemory := int64(memStats.Alloc)

	if currentMemory > h.memoryPeakUsage {
		h.memoryPeakUsage = currentMemory
	}

	var errorRate float64
	if h.totalRequests > 0 {
		errorRate = (float64(h.errorCount) / float64(h.totalRequests)) * 100
	}

	var avgResponseTime time.Duration
	if h.successfulRequests > 0 {
		avgResponseTime = h.totalResponseTime / time.Duration(h.successfulRequests)
	}

	status := "healthy"
	message := fmt.Sprintf("%s plugin operating normally", h.pluginName)

	if currentMemory > h.thresholds.MaxMemoryUsage {
		status = "unhealthy"
		message = "Memory usage exceeds threshold"
	} else if errorRate > h.thresholds.MaxErrorRate {
		status = "unhealthy"
		message = "Error rate exceeds threshold"
	} else if avgResponseTime > h.thresholds.MaxResponseTime {
		status = "degraded"
		message = "Response time above threshold"
	} else if errorRate > h.thresholds.MaxErrorRate*0.8 {
		status = "degraded"
		message = "Error rate approaching threshold"
	}

	details := map[string]string{
		"plugin_name":         h.pluginName,
		"peak_memory_usage":   fmt.Sprintf("%d", h.memoryPeakUsage),
		"last_request_time":   h.lastRequestTime.Format(time.RFC3339),
		"last_error":          h.lastError,
		"total_requests":      fmt.Sprintf("%d", h.totalRequests),
		"successful_requests": fmt.Sprintf("%d", h.successfulRequests),
	}

	return &HealthStatus{
		Status:       status,
		Message:      message,
		LastCheck:    time.Now(),
		Uptime:       time.Since(h.startTime),
		MemoryUsage:  currentMemory,
		ErrorRate:    errorRate,
		ResponseTime: avgResponseTime,
		Details:      details,
	}, nil
}

// GetMetrics returns performance metrics
func (h *BaseHealthService) GetMetrics(ctx context.Context) (*PluginMetrics, error) {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	var avgExecTime time.Duration
	if h.successfulRequests > 0 {
		avgExecTime = h.totalResponseTime / time.Duration(h.successfulRequests)
	}

	return &PluginMetrics{
		ExecutionCount:  h.totalRequests,
		SuccessCount:    h.successfulRequests,
		ErrorCount:      h.errorCount,
		AverageExecTime: avgExecTime,
		LastExecution:   h.lastRequestTime,
		ItemsProcessed:  h.successfulRequests,
	}, nil
}

// SetHealthThresholds configures health check thresholds
func (h *BaseHealthService) SetHealthThresholds(thresholds *HealthThresholds) error {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.thresholds = thresholds
	return nil
}

// RecordRequest records a request attempt and its outcome
func (h *BaseHealthService) RecordRequest(success bool, responseTime time.Duration, err error) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.totalRequests++
	h.lastRequestTime = time.Now()

	if success {
		h.successfulRequests++
		h.totalResponseTime += responseTime
	} else {
		h.errorCount++
		if err != nil {
			h.lastError = err.Error()
		}
	}
}
