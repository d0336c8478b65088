// Package main drives read traffic against a running walletd and reports
// throughput, latency percentiles and the error rate.
//
// Usage:
//
//	go run ./test/loadtest \
//	  -base-url http://localhost:8080 \
//	  -network sepolia \
//	  -address 0x7E5F4552091A69125d5DfCb7b8C2659029395Bdf \
//	  -routes balance,assets,fees \
//	  -concurrency 8 \
//	  -duration 30s
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"
)

func main() {
	var (
		baseURL     = flag.String("base-url", "http://localhost:8080", "walletd API base URL")
		network     = flag.String("network", "sepolia", "Network name as configured in the registry")
		address     = flag.String("address", "", "Address to query")
		routes      = flag.String("routes", "balance,assets,fees", "Comma-separated routes (balance, assets, history, fees)")
		concurrency = flag.Int("concurrency", 4, "Number of parallel workers")
		duration    = flag.Duration("duration", 30*time.Second, "Test duration")
		timeout     = flag.Duration("timeout", 20*time.Second, "Per-request timeout")
	)
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	targets, err := buildTargets(*baseURL, *network, *address, strings.Split(*routes, ","))
	if err != nil {
		logger.Error("invalid flags", "error", err)
		os.Exit(2)
	}

	logger.Info("load test configuration",
		"base_url", *baseURL,
		"network", *network,
		"routes", *routes,
		"concurrency", *concurrency,
		"duration", *duration,
	)

	ctx, cancel := context.WithTimeout(context.Background(), *duration+*timeout)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	client := &http.Client{Timeout: *timeout}
	stats := newRunStats()

	worker := func(workerID int) {
		deadline := time.Now().Add(*duration)
		for i := workerID; time.Now().Before(deadline); i++ {
			if ctx.Err() != nil {
				return
			}
			target := targets[i%len(targets)]
			start := time.Now()
			code, err := fetch(ctx, client, target)
			stats.record(target.route, time.Since(start), code, err)
			if err != nil && ctx.Err() == nil {
				logger.Debug("request failed", "worker", workerID, "route", target.route, "error", err)
			}
		}
	}

	logger.Info("starting load test", "workers", *concurrency, "duration", *duration)
	testStart := time.Now()

	var wg sync.WaitGroup
	for i := 0; i < *concurrency; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			worker(id)
		}(i)
	}
	wg.Wait()

	report := stats.report(time.Since(testStart))
	report.print(os.Stdout, *concurrency, *network)

	if report.errors > 0 {
		os.Exit(1)
	}
}

type target struct {
	route string
	url   string
}

func buildTargets(baseURL, network, address string, routes []string) ([]target, error) {
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || base.Scheme == "" {
		return nil, fmt.Errorf("base-url %q is not absolute", baseURL)
	}
	if network == "" {
		return nil, fmt.Errorf("network is required")
	}

	var out []target
	for _, route := range routes {
		route = strings.TrimSpace(route)
		if route == "" {
			continue
		}
		q := url.Values{}
		switch route {
		case "balance", "assets", "history":
			if address == "" {
				return nil, fmt.Errorf("route %s needs -address", route)
			}
			q.Set("address", address)
		case "fees":
			if address != "" {
				q.Set("from", address)
			}
		default:
			return nil, fmt.Errorf("unknown route %q", route)
		}
		u := *base
		u.Path = fmt.Sprintf("%s/v1/networks/%s/%s", base.Path, url.PathEscape(network), route)
		u.RawQuery = q.Encode()
		out = append(out, target{route: route, url: u.String()})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no routes selected")
	}
	return out, nil
}

func fetch(ctx context.Context, client *http.Client, t target) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.url, nil)
	if err != nil {
		return 0, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return resp.StatusCode, fmt.Errorf("%s: http status %d", t.route, resp.StatusCode)
	}
	return resp.StatusCode, nil
}

type runStats struct {
	requests atomic.Int64
	errors   atomic.Int64

	mu        sync.Mutex
	latencies []int64
	perRoute  map[string]int64
	perCode   map[int]int64
}

func newRunStats() *runStats {
	return &runStats{perRoute: make(map[string]int64), perCode: make(map[int]int64)}
}

func (s *runStats) record(route string, d time.Duration, code int, err error) {
	s.requests.Add(1)
	if err != nil {
		s.errors.Add(1)
	}
	s.mu.Lock()
	s.latencies = append(s.latencies, d.Nanoseconds())
	s.perRoute[route]++
	s.perCode[code]++
	s.mu.Unlock()
}

type runReport struct {
	duration      time.Duration
	requests      int64
	errors        int64
	p50, p95, p99 int64
	perRoute      map[string]int64
	perCode       map[int]int64
}

func (s *runStats) report(d time.Duration) runReport {
	s.mu.Lock()
	sorted := make([]int64, len(s.latencies))
	copy(sorted, s.latencies)
	perRoute := make(map[string]int64, len(s.perRoute))
	for k, v := range s.perRoute {
		perRoute[k] = v
	}
	perCode := make(map[int]int64, len(s.perCode))
	for k, v := range s.perCode {
		perCode[k] = v
	}
	s.mu.Unlock()

	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	return runReport{
		duration: d,
		requests: s.requests.Load(),
		errors:   s.errors.Load(),
		p50:      percentile(sorted, 50),
		p95:      percentile(sorted, 95),
		p99:      percentile(sorted, 99),
		perRoute: perRoute,
		perCode:  perCode,
	}
}

func (r runReport) errorRate() float64 {
	if r.requests == 0 {
		return 0
	}
	return float64(r.errors) / float64(r.requests) * 100
}

func (r runReport) print(w io.Writer, workers int, network string) {
	perSec := float64(0)
	if r.duration > 0 {
		perSec = float64(r.requests) / r.duration.Seconds()
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "========================================")
	fmt.Fprintln(w, "       LOAD TEST RESULTS")
	fmt.Fprintln(w, "========================================")
	fmt.Fprintf(w, "Duration:       %s\n", r.duration.Round(time.Millisecond))
	fmt.Fprintf(w, "Workers:        %d\n", workers)
	fmt.Fprintf(w, "Network:        %s\n", network)
	fmt.Fprintln(w, "----------------------------------------")
	fmt.Fprintln(w, "Throughput:")
	fmt.Fprintf(w, "  Requests:     %d\n", r.requests)
	fmt.Fprintf(w, "  Requests/sec: %.2f\n", perSec)
	routes := make([]string, 0, len(r.perRoute))
	for route := range r.perRoute {
		routes = append(routes, route)
	}
	sort.Strings(routes)
	for _, route := range routes {
		fmt.Fprintf(w, "  %-13s %d\n", route+":", r.perRoute[route])
	}
	fmt.Fprintln(w, "----------------------------------------")
	fmt.Fprintln(w, "Latency (per request):")
	fmt.Fprintf(w, "  p50:          %s\n", formatNanos(r.p50))
	fmt.Fprintf(w, "  p95:          %s\n", formatNanos(r.p95))
	fmt.Fprintf(w, "  p99:          %s\n", formatNanos(r.p99))
	fmt.Fprintln(w, "----------------------------------------")
	fmt.Fprintln(w, "Errors:")
	fmt.Fprintf(w, "  Total:        %d\n", r.errors)
	fmt.Fprintf(w, "  Error rate:   %.2f%%\n", r.errorRate())
	codes := make([]int, 0, len(r.perCode))
	for code := range r.perCode {
		codes = append(codes, code)
	}
	sort.Ints(codes)
	for _, code := range codes {
		label := fmt.Sprintf("HTTP %d", code)
		if code == 0 {
			label = "transport"
		}
		fmt.Fprintf(w, "  %-13s %d\n", label+":", r.perCode[code])
	}
	fmt.Fprintln(w, "========================================")
}

// percentile returns the value at the given percentile from a sorted slice.
func percentile(sorted []int64, pct float64) int64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(math.Ceil(pct/100*float64(len(sorted)))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// formatNanos formats nanoseconds as a human-readable duration string.
func formatNanos(ns int64) string {
	d := time.Duration(ns)
	if d < time.Millisecond {
		return fmt.Sprintf("%.1fus", float64(d.Microseconds()))
	}
	if d < time.Second {
		return fmt.Sprintf("%.2fms", float64(d.Nanoseconds())/1e6)
	}
	return fmt.Sprintf("%.3fs", d.Seconds())
}
