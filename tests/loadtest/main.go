package main

import (
	"bytes"
	"fmt"
	"io"
	"math/rand"
	"mime/multipart"
	"net"
	"net/http"
	"net/url"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

const (
	baseURL      = "http://127.0.0.1:18090"
	numWorkers   = 50
	testDuration = 10 * time.Second
	numQueries   = 20
)

// Map center of the simulated festival grounds.
const (
	centerLat = 30.2669
	centerLng = -97.7428
)

var queries = []string{"main stage", "food court", "zilker", "east gate", "merch tent"}

var httpClient = &http.Client{
	Timeout: 5 * time.Second,
	Transport: &http.Transport{
		MaxIdleConns:        200,
		MaxIdleConnsPerHost: 200,
		IdleConnTimeout:     30 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   2 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	},
}

type result struct {
	endpoint string
	status   int
	latency  time.Duration
	err      bool
}

type stats struct {
	count     int64
	errors    int64
	latencies []time.Duration
}

func main() {
	fmt.Println("=== FestMap Load Test ===")
	fmt.Printf("Workers: %d | Duration: %s\n\n", numWorkers, testDuration)

	// Wait for server
	fmt.Print("Waiting for server... ")
	for i := 0; i < 30; i++ {
		resp, err := httpClient.Get(baseURL + "/status")
		if err == nil {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			break
		}
		if i == 29 {
			fmt.Println("FAILED: server not responding")
			return
		}
		time.Sleep(200 * time.Millisecond)
	}
	fmt.Println("OK")

	// Phase 1: Seed pins with POST requests
	fmt.Println("\n--- Phase 1: Seeding pins (POST /posts) ---")
	runPhase(testDuration, func(rng *rand.Rand) result {
		return doPublish(rng)
	})

	// Wait for the next poll cycle to pick the pins up
	fmt.Println("\nWaiting 2s for the next poll...")
	time.Sleep(2 * time.Second)

	// Phase 2: Mixed read/write load
	fmt.Println("\n--- Phase 2: Mixed load (30% POST, 70% GET) ---")
	runPhase(testDuration, func(rng *rand.Rand) result {
		r := rng.Float64()
		switch {
		case r < 0.30:
			return doPublish(rng)
		case r < 0.60:
			return doGetPosts()
		case r < 0.85:
			return doGetHotspots()
		case r < 0.95:
			return doGetStatus()
		default:
			return doSearchPlaces(rng)
		}
	})

	// Phase 3: Read-heavy load, the map-viewer pattern
	fmt.Println("\n--- Phase 3: Read-heavy load (5% POST, 95% GET) ---")
	runPhase(testDuration, func(rng *rand.Rand) result {
		r := rng.Float64()
		switch {
		case r < 0.05:
			return doPublish(rng)
		case r < 0.50:
			return doGetPosts()
		case r < 0.85:
			return doGetHotspots()
		case r < 0.95:
			return doGetStatus()
		default:
			return doSearchPlaces(rng)
		}
	})
}

func runPhase(duration time.Duration, workFn func(rng *rand.Rand) result) {
	results := make(chan result, 10000)
	var wg sync.WaitGroup
	var totalOps atomic.Int64
	stop := make(chan struct{})

	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			for {
				select {
				case <-stop:
					return
				default:
					r := workFn(rng)
					totalOps.Add(1)
					results <- r
				}
			}
		}(rand.Int63() + int64(i))
	}

	allResults := make(map[string]*stats)
	done := make(chan struct{})
	go func() {
		for r := range results {
			s, ok := allResults[r.endpoint]
			if !ok {
				s = &stats{}
				allResults[r.endpoint] = s
			}
			s.count++
			if r.err {
				s.errors++
			}
			s.latencies = append(s.latencies, r.latency)
		}
		close(done)
	}()

	time.Sleep(duration)
	close(stop)
	wg.Wait()
	close(results)
	<-done

	printResults(allResults, duration)
}

func printResults(allResults map[string]*stats, duration time.Duration) {
	var totalOps int64
	var totalErrors int64

	endpoints := make([]string, 0, len(allResults))
	for ep := range allResults {
		endpoints = append(endpoints, ep)
	}
	sort.Strings(endpoints)

	fmt.Printf("\n  %-22s %8s %6s %10s %10s %10s %10s\n",
		"Endpoint", "Reqs", "Errs", "Avg", "P50", "P95", "P99")
	fmt.Println("  " + repeat("-", 88))

	for _, ep := range endpoints {
		s := allResults[ep]
		totalOps += s.count
		totalErrors += s.errors

		sort.Slice(s.latencies, func(i, j int) bool {
			return s.latencies[i] < s.latencies[j]
		})

		avg := avgDuration(s.latencies)
		p50 := percentile(s.latencies, 0.50)
		p95 := percentile(s.latencies, 0.95)
		p99 := percentile(s.latencies, 0.99)

		fmt.Printf("  %-22s %8d %6d %10s %10s %10s %10s\n",
			ep, s.count, s.errors, fmtDur(avg), fmtDur(p50), fmtDur(p95), fmtDur(p99))
	}

	rps := float64(totalOps) / duration.Seconds()
	fmt.Println("  " + repeat("-", 88))
	fmt.Printf("  Total: %d reqs | Errors: %d (%.1f%%) | RPS: %.0f\n",
		totalOps, totalErrors, float64(totalErrors)/float64(totalOps)*100, rps)
}

// fakeJpeg is a tiny stand-in payload; the daemon never inspects pixels.
var fakeJpeg = append([]byte{0xFF, 0xD8, 0xFF, 0xE0}, bytes.Repeat([]byte{0x42}, 2048)...)

func doPublish(rng *rand.Rand) result {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	// Scatter pins a few hundred meters around the center.
	lat := centerLat + (rng.Float64()-0.5)*0.01
	lng := centerLng + (rng.Float64()-0.5)*0.01
	writer.WriteField("lat", fmt.Sprintf("%f", lat))
	writer.WriteField("lng", fmt.Sprintf("%f", lng))
	writer.WriteField("caption", fmt.Sprintf("load pin %d", rng.Intn(10000)))
	part, _ := writer.CreateFormFile("photo", "pin.jpg")
	part.Write(fakeJpeg)
	writer.Close()

	start := time.Now()
	resp, err := httpClient.Post(baseURL+"/posts", writer.FormDataContentType(), &buf)
	took := time.Since(start)
	if err != nil {
		return result{"POST /posts", 0, took, true}
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return result{"POST /posts", resp.StatusCode, took, resp.StatusCode != 201}
}

func doGetPosts() result {
	start := time.Now()
	resp, err := httpClient.Get(baseURL + "/posts")
	lat := time.Since(start)
	if err != nil {
		return result{"GET /posts", 0, lat, true}
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return result{"GET /posts", resp.StatusCode, lat, resp.StatusCode != 200}
}

func doGetHotspots() result {
	start := time.Now()
	resp, err := httpClient.Get(baseURL + "/hotspots")
	lat := time.Since(start)
	if err != nil {
		return result{"GET /hotspots", 0, lat, true}
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return result{"GET /hotspots", resp.StatusCode, lat, resp.StatusCode != 200}
}

func doGetStatus() result {
	start := time.Now()
	resp, err := httpClient.Get(baseURL + "/status")
	lat := time.Since(start)
	if err != nil {
		return result{"GET /status", 0, lat, true}
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return result{"GET /status", resp.StatusCode, lat, resp.StatusCode != 200}
}

func doSearchPlaces(rng *rand.Rand) result {
	q := url.QueryEscape(queries[rng.Intn(len(queries))])
	endpoint := fmt.Sprintf("%s/places?q=%s&lat=%f&lng=%f", baseURL, q, centerLat, centerLng)
	start := time.Now()
	resp, err := httpClient.Get(endpoint)
	lat := time.Since(start)
	if err != nil {
		return result{"GET /places", 0, lat, true}
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return result{"GET /places", resp.StatusCode, lat, resp.StatusCode != 200}
}

func avgDuration(d []time.Duration) time.Duration {
	if len(d) == 0 {
		return 0
	}
	var sum time.Duration
	for _, v := range d {
		sum += v
	}
	return sum / time.Duration(len(d))
}

func percentile(d []time.Duration, p float64) time.Duration {
	if len(d) == 0 {
		return 0
	}
	idx := int(float64(len(d)) * p)
	if idx >= len(d) {
		idx = len(d) - 1
	}
	return d[idx]
}

func fmtDur(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%dµs", d.Microseconds())
	}
	return fmt.Sprintf("%.1fms", float64(d.Microseconds())/1000.0)
}

func repeat(s string, n int) string {
	out := ""
	for i := 0; i < n; i++ {
		out += s
	}
	return out
}
