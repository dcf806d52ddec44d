// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime"
	"slices"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/H0llyW00dzZ/x509-artifact-builder/src/service"
)

// BuildStats summarizes the finished builds of one builder kind.
type BuildStats struct {
	Kind     string            `json:"kind"`
	Outcomes map[string]uint64 `json:"outcomes"`
	Total    uint64            `json:"total"`
	// MeanSeconds is the mean time spent in the builder.
	MeanSeconds float64 `json:"mean_seconds"`
}

// BuildMetricsData represents the complete build metrics report.
type BuildMetricsData struct {
	Timestamp      string         `json:"timestamp"`
	Builds         []BuildStats   `json:"builds"`
	InFlight       float64        `json:"in_flight"`
	MemoryUsage    map[string]any `json:"memory_usage"`
	GCStats        map[string]any `json:"gc_stats"`
	SystemInfo     map[string]any `json:"system_info"`
	DetailedMemory map[string]any `json:"detailed_memory,omitempty"`
}

// collectMetrics drains c into protobuf metrics.
func collectMetrics(c prometheus.Collector) []*dto.Metric {
	ch := make(chan prometheus.Metric)
	go func() {
		c.Collect(ch)
		close(ch)
	}()

	var out []*dto.Metric
	for m := range ch {
		pb := &dto.Metric{}
		if err := m.Write(pb); err == nil {
			out = append(out, pb)
		}
	}
	return out
}

func labelValue(m *dto.Metric, name string) string {
	for _, l := range m.GetLabel() {
		if l.GetName() == name {
			return l.GetValue()
		}
	}
	return ""
}

// collectBuildStats reads the build collectors of m, one entry per kind that
// has finished at least one build, ordered by kind.
func collectBuildStats(m *service.Metrics) ([]BuildStats, float64) {
	byKind := make(map[string]*BuildStats)
	stats := func(kind string) *BuildStats {
		s, ok := byKind[kind]
		if !ok {
			s = &BuildStats{Kind: kind, Outcomes: make(map[string]uint64)}
			byKind[kind] = s
		}
		return s
	}

	for _, pb := range collectMetrics(m.BuildsTotal) {
		s := stats(labelValue(pb, "kind"))
		n := uint64(pb.GetCounter().GetValue())
		s.Outcomes[labelValue(pb, "outcome")] += n
		s.Total += n
	}
	for _, pb := range collectMetrics(m.BuildDuration) {
		h := pb.GetHistogram()
		if h.GetSampleCount() == 0 {
			continue
		}
		stats(labelValue(pb, "kind")).MeanSeconds = h.GetSampleSum() / float64(h.GetSampleCount())
	}

	var inFlight float64
	for _, pb := range collectMetrics(m.BuildsInFlight) {
		inFlight += pb.GetGauge().GetValue()
	}

	out := make([]BuildStats, 0, len(byKind))
	for _, s := range byKind {
		out = append(out, *s)
	}
	slices.SortFunc(out, func(a, b BuildStats) int { return strings.Compare(a.Kind, b.Kind) })
	return out, inFlight
}

// CollectBuildMetrics gathers the build statistics of svc and the current
// runtime statistics of the process.
func CollectBuildMetrics(svc *service.Service, detailed bool) *BuildMetricsData {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	builds, inFlight := collectBuildStats(svc.Metrics())

	data := &BuildMetricsData{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Builds:    builds,
		InFlight:  inFlight,
		MemoryUsage: map[string]any{
			"heap_alloc_mb":  float64(memStats.HeapAlloc) / (1024 * 1024),
			"heap_sys_mb":    float64(memStats.HeapSys) / (1024 * 1024),
			"heap_inuse_mb":  float64(memStats.HeapInuse) / (1024 * 1024),
			"heap_objects":   memStats.HeapObjects,
			"stack_inuse_mb": float64(memStats.StackInuse) / (1024 * 1024),
		},
		GCStats: map[string]any{
			"num_gc":          memStats.NumGC,
			"num_forced_gc":   memStats.NumForcedGC,
			"gc_cpu_fraction": memStats.GCCPUFraction,
		},
		SystemInfo: map[string]any{
			"go_version":    runtime.Version(),
			"go_os":         runtime.GOOS,
			"go_arch":       runtime.GOARCH,
			"num_cpu":       runtime.NumCPU(),
			"num_goroutine": runtime.NumGoroutine(),
		},
	}

	if detailed {
		data.DetailedMemory = map[string]any{
			"alloc_mb":          float64(memStats.Alloc) / (1024 * 1024),
			"total_alloc_mb":    float64(memStats.TotalAlloc) / (1024 * 1024),
			"sys_mb":            float64(memStats.Sys) / (1024 * 1024),
			"mallocs":           memStats.Mallocs,
			"frees":             memStats.Frees,
			"gc_pause_total_ns": memStats.PauseTotalNs,
			"next_gc_mb":        float64(memStats.NextGC) / (1024 * 1024),
		}
	}
	return data
}

// FormatBuildMetricsAsJSON formats build metrics as indented JSON.
func FormatBuildMetricsAsJSON(data *BuildMetricsData) (string, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal build metrics: %w", err)
	}
	return string(jsonData), nil
}

// FormatBuildMetricsAsMarkdown formats build metrics as readable markdown tables.
func FormatBuildMetricsAsMarkdown(data *BuildMetricsData) string {
	var buf strings.Builder

	buf.WriteString("# Build Metrics Report\n\n")
	if parsedTime, err := time.Parse(time.RFC3339, data.Timestamp); err == nil {
		fmt.Fprintf(&buf, "**Generated:** %s\n\n", parsedTime.Format("January 2, 2006 at 3:04 PM MST"))
	} else {
		fmt.Fprintf(&buf, "**Generated:** %s\n\n", data.Timestamp)
	}

	formatBuildsSection(&buf, data)

	buf.WriteString("## System Information\n\n")
	buf.WriteString(formatMarkdownTable(data.SystemInfo, []string{
		"Go Version      ", "go_version",
		"Operating System", "go_os",
		"Architecture    ", "go_arch",
		"CPU Count       ", "num_cpu",
		"Goroutines      ", "num_goroutine",
	}))

	buf.WriteString("## Memory Usage\n\n")
	buf.WriteString(formatMarkdownTable(data.MemoryUsage, []string{
		"Heap Allocated", "heap_alloc_mb",
		"Heap System   ", "heap_sys_mb",
		"Heap In Use   ", "heap_inuse_mb",
		"Heap Objects  ", "heap_objects",
		"Stack In Use  ", "stack_inuse_mb",
	}))

	buf.WriteString("## Garbage Collection\n\n")
	buf.WriteString(formatMarkdownTable(data.GCStats, []string{
		"GC Cycles      ", "num_gc",
		"Forced GC      ", "num_forced_gc",
		"GC CPU Fraction", "gc_cpu_fraction",
	}))

	if data.DetailedMemory != nil {
		buf.WriteString("## Detailed Memory Statistics\n\n")
		buf.WriteString(formatMarkdownTable(data.DetailedMemory, []string{
			"Current Alloc ", "alloc_mb",
			"Total Alloc   ", "total_alloc_mb",
			"System Memory ", "sys_mb",
			"Mallocs       ", "mallocs",
			"Frees         ", "frees",
			"GC Pause Total", "gc_pause_total_ns",
			"Next GC       ", "next_gc_mb",
		}))
	}

	return buf.String()
}

// formatBuildsSection adds one row per builder kind.
func formatBuildsSection(buf *strings.Builder, data *BuildMetricsData) {
	buf.WriteString("## Builds\n\n")
	fmt.Fprintf(buf, "**In flight:** %.0f\n\n", data.InFlight)
	if len(data.Builds) == 0 {
		buf.WriteString("No builds have finished yet.\n\n")
		return
	}

	table := tablewriter.NewTable(buf,
		tablewriter.WithRenderer(renderer.NewMarkdown(tw.Rendition{Streaming: true})),
	)
	table.Header([]string{"🔧 KIND", "✅ SUCCESS", "❌ FAILED", "📈 TOTAL", "⏱️ MEAN"})

	var rows [][]string
	for _, b := range data.Builds {
		success := b.Outcomes[service.OutcomeSuccess]
		rows = append(rows, []string{
			b.Kind,
			fmt.Sprintf("%d", success),
			fmt.Sprintf("%d", b.Total-success),
			fmt.Sprintf("%d", b.Total),
			(time.Duration(b.MeanSeconds * float64(time.Second))).Round(time.Millisecond).String(),
		})
	}
	table.Bulk(rows)
	table.Render()
	buf.WriteString("\n")
}

// formatMarkdownTable creates a markdown table of the labelled fields present in data.
func formatMarkdownTable(data map[string]any, fieldPairs []string) string {
	var buf strings.Builder

	var rows [][]string
	for i := 0; i+1 < len(fieldPairs); i += 2 {
		label, key := fieldPairs[i], fieldPairs[i+1]
		if value, ok := data[key]; ok {
			rows = append(rows, []string{strings.TrimSpace(label), formatValueForMarkdown(value, key)})
		}
	}

	table := tablewriter.NewTable(&buf,
		tablewriter.WithRenderer(renderer.NewMarkdown(tw.Rendition{Streaming: true})),
	)
	table.Header([]string{"📊 METRIC", "📈 VALUE"})
	table.Bulk(rows)
	table.Render()

	buf.WriteString("\n")
	return buf.String()
}

// formatValueForMarkdown formats a value for markdown display
func formatValueForMarkdown(value any, key string) string {
	switch v := value.(type) {
	case string:
		return v
	case int:
		return fmt.Sprintf("%d", v)
	case uint32:
		return fmt.Sprintf("%d", v)
	case uint64:
		if key == "gc_pause_total_ns" {
			return fmt.Sprintf("%.2f ms", float64(v)/1e6)
		}
		return fmt.Sprintf("%d", v)
	case float64:
		if key == "gc_cpu_fraction" {
			return fmt.Sprintf("%.2f%%", v*100)
		}
		if strings.HasSuffix(key, "_mb") {
			return fmt.Sprintf("%.2f MB", v)
		}
		return fmt.Sprintf("%.2f", v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// handleGetBuildMetrics reports the build metrics of the service in the
// requested format. The prometheus format is the text exposition format.
func (h *artifactTools) handleGetBuildMetrics(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	format := request.GetString("format", "markdown")
	detailed := request.GetBool("detailed", false)

	switch format {
	case "prometheus":
		var buf strings.Builder
		if err := h.svc.WriteMetrics(&buf); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to gather metrics: %v", err)), nil
		}
		return mcp.NewToolResultText(buf.String()), nil
	case "json":
		out, err := FormatBuildMetricsAsJSON(CollectBuildMetrics(h.svc, detailed))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(out), nil
	case "markdown":
		return mcp.NewToolResultText(FormatBuildMetricsAsMarkdown(CollectBuildMetrics(h.svc, detailed))), nil
	default:
		return mcp.NewToolResultError(fmt.Sprintf("unsupported format %q: use 'markdown', 'json' or 'prometheus'", format)), nil
	}
}
