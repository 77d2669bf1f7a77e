// Command stress_test load-tests a running consensus-node's HTTP
// control surface by repeatedly posting scenario submissions to
// POST /sweep, using a standard Authorization: Bearer header for auth.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// StressTestConfig holds configuration for the stress test.
type StressTestConfig struct {
	Address     string
	Concurrency int
	Duration    time.Duration
	AuthToken   string
	AuthEnabled bool
	ReportFile  string
}

// StressTestResult holds the results of a stress test run.
type StressTestResult struct {
	TotalRequests  int64
	SuccessfulReqs int64
	FailedReqs     int64
	TotalDuration  time.Duration
	AvgLatency     time.Duration
	MinLatency     time.Duration
	MaxLatency     time.Duration
	RequestsPerSec float64
}

func main() {
	config := parseFlags()

	fmt.Println("=== consensus-node stress test ===")
	fmt.Printf("Target:      %s/sweep\n", config.Address)
	fmt.Printf("Concurrency: %d workers\n", config.Concurrency)
	fmt.Printf("Duration:    %v\n", config.Duration)
	fmt.Printf("Auth:        %v\n", config.AuthEnabled)
	fmt.Println()

	result := runStressTest(config)
	printResults(result)

	if config.ReportFile != "" {
		saveReport(config, result)
	}
}

func parseFlags() StressTestConfig {
	config := StressTestConfig{}

	flag.StringVar(&config.Address, "addr", "http://127.0.0.1:8080", "consensus-node control server base URL")
	flag.IntVar(&config.Concurrency, "c", 10, "number of concurrent workers")
	flag.DurationVar(&config.Duration, "d", 30*time.Second, "duration of the test")
	flag.StringVar(&config.AuthToken, "token", "", "bearer auth token to send when -auth is set")
	flag.BoolVar(&config.AuthEnabled, "auth", false, "send the Authorization: Bearer header")
	flag.StringVar(&config.ReportFile, "o", "", "output report file (JSON)")

	flag.Parse()
	return config
}

func runStressTest(config StressTestConfig) StressTestResult {
	var (
		totalReqs    int64
		successReqs  int64
		failedReqs   int64
		totalLatency int64
		minLatency   int64 = 1<<63 - 1
		maxLatency   int64
		wg           sync.WaitGroup
		stopChan     = make(chan struct{})
	)

	client := &http.Client{Timeout: 10 * time.Second}
	startTime := time.Now()

	for i := 0; i < config.Concurrency; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			runWorker(workerID, client, config, stopChan, &totalReqs, &successReqs, &failedReqs, &totalLatency, &minLatency, &maxLatency)
		}(i)
	}

	time.Sleep(config.Duration)
	close(stopChan)
	wg.Wait()

	duration := time.Since(startTime)
	total := atomic.LoadInt64(&totalReqs)
	success := atomic.LoadInt64(&successReqs)
	failed := atomic.LoadInt64(&failedReqs)
	latencySum := atomic.LoadInt64(&totalLatency)
	minLat := atomic.LoadInt64(&minLatency)
	maxLat := atomic.LoadInt64(&maxLatency)

	var avgLatency time.Duration
	if success > 0 {
		avgLatency = time.Duration(latencySum / success)
	} else {
		minLat = 0
	}

	return StressTestResult{
		TotalRequests:  total,
		SuccessfulReqs: success,
		FailedReqs:     failed,
		TotalDuration:  duration,
		AvgLatency:     avgLatency,
		MinLatency:     time.Duration(minLat),
		MaxLatency:     time.Duration(maxLat),
		RequestsPerSec: float64(total) / duration.Seconds(),
	}
}

func runWorker(id int, client *http.Client, config StressTestConfig, stop chan struct{}, totalReqs, successReqs, failedReqs, totalLatency, minLatency, maxLatency *int64) {
	for seq := 0; ; seq++ {
		select {
		case <-stop:
			return
		default:
			latency, err := sendRequest(client, config, id, seq)
			atomic.AddInt64(totalReqs, 1)

			if err != nil {
				atomic.AddInt64(failedReqs, 1)
				time.Sleep(10 * time.Millisecond)
				continue
			}

			atomic.AddInt64(successReqs, 1)
			atomic.AddInt64(totalLatency, int64(latency))
			casMin(minLatency, int64(latency))
			casMax(maxLatency, int64(latency))
		}
	}
}

func casMin(addr *int64, v int64) {
	for {
		old := atomic.LoadInt64(addr)
		if v >= old || atomic.CompareAndSwapInt64(addr, old, v) {
			return
		}
	}
}

func casMax(addr *int64, v int64) {
	for {
		old := atomic.LoadInt64(addr)
		if v <= old || atomic.CompareAndSwapInt64(addr, old, v) {
			return
		}
	}
}

// sweepRequest mirrors api.sweepRequest's wire shape.
type sweepRequest struct {
	Label           string `json:"label"`
	N               int    `json:"n"`
	F               int    `json:"f"`
	InitialProposer int    `json:"initial_proposer"`
	InitialValue    int    `json:"initial_value"`
	MaxPhase        int    `json:"max_phase"`
}

func sendRequest(client *http.Client, config StressTestConfig, workerID, seq int) (time.Duration, error) {
	payload := sweepRequest{
		Label:           fmt.Sprintf("stress-%d-%d", workerID, seq),
		N:               4,
		F:               1,
		InitialProposer: 0,
		InitialValue:    1,
		MaxPhase:        10,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequest(http.MethodPost, config.Address+"/sweep", bytes.NewReader(data))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if config.AuthEnabled {
		req.Header.Set("Authorization", "Bearer "+config.AuthToken)
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	latency := time.Since(start)

	if resp.StatusCode != http.StatusAccepted {
		return latency, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return latency, nil
}

func printResults(result StressTestResult) {
	fmt.Println("=== Results ===")
	fmt.Printf("Duration:        %v\n", result.TotalDuration.Round(time.Millisecond))
	fmt.Printf("Total Requests:  %d\n", result.TotalRequests)
	if result.TotalRequests > 0 {
		fmt.Printf("Successful:      %d (%.2f%%)\n", result.SuccessfulReqs, float64(result.SuccessfulReqs)/float64(result.TotalRequests)*100)
		fmt.Printf("Failed:          %d (%.2f%%)\n", result.FailedReqs, float64(result.FailedReqs)/float64(result.TotalRequests)*100)
	}
	fmt.Printf("Requests/sec:    %.2f\n", result.RequestsPerSec)
	fmt.Printf("Avg Latency:     %v\n", result.AvgLatency.Round(time.Microsecond))
	fmt.Printf("Min Latency:     %v\n", result.MinLatency.Round(time.Microsecond))
	fmt.Printf("Max Latency:     %v\n", result.MaxLatency.Round(time.Microsecond))
}

func saveReport(config StressTestConfig, result StressTestResult) {
	report := map[string]interface{}{
		"config": map[string]interface{}{
			"address":     config.Address,
			"concurrency": config.Concurrency,
			"duration":    config.Duration.String(),
		},
		"results": map[string]interface{}{
			"total_requests":   result.TotalRequests,
			"successful":       result.SuccessfulReqs,
			"failed":           result.FailedReqs,
			"requests_per_sec": result.RequestsPerSec,
			"avg_latency_ms":   float64(result.AvgLatency.Microseconds()) / 1000,
			"min_latency_ms":   float64(result.MinLatency.Microseconds()) / 1000,
			"max_latency_ms":   float64(result.MaxLatency.Microseconds()) / 1000,
		},
		"timestamp": time.Now().Format(time.RFC3339),
	}

	data, _ := json.MarshalIndent(report, "", "  ")
	if err := os.WriteFile(config.ReportFile, data, 0644); err != nil {
		log.Printf("failed to write report: %v", err)
	} else {
		fmt.Printf("Report saved to: %s\n", config.ReportFile)
	}
}
