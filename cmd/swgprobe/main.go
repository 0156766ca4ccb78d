// Command swgprobe measures request latency through the gateway. It issues a
// fixed number of requests per domain via the configured proxy and reports
// per-request and mean timings, which makes the interception overhead (and a
// cold classifier cache) directly visible.
package main

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/spf13/pflag"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// defaultDomains mirrors the popular-domain set used for baseline
// measurements.
var defaultDomains = []string{
	"google.com", "youtube.com", "facebook.com", "amazon.com",
	"wikipedia.org", "twitter.com", "instagram.com", "linkedin.com",
	"github.com", "nytimes.com", "dropbox.com", "slack.com",
}

func run() error {
	var (
		proxyAddr = pflag.String("proxy", "", "Gateway proxy URL (e.g. http://127.0.0.1:8080). Empty probes directly.")
		requests  = pflag.Int("requests", 3, "Requests per domain")
		timeout   = pflag.Duration("timeout", 5*time.Second, "Per-request timeout")
		caFile    = pflag.String("cacert", "", "PEM file with the interception CA to trust for TLS inspection")
		delay     = pflag.Duration("delay", 500*time.Millisecond, "Pause between requests to the same domain")
	)
	pflag.CommandLine.SortFlags = false
	pflag.Parse()

	domains := pflag.Args()
	if len(domains) == 0 {
		domains = defaultDomains
	}

	client, err := newClient(*proxyAddr, *caFile, *timeout)
	if err != nil {
		return err
	}

	fmt.Println("--- Starting Latency Test ---")
	for _, name := range domains {
		target := "https://" + name
		var total time.Duration
		ok := 0
		for i := 0; i < *requests; i++ {
			elapsed, status, err := measure(client, target)
			if err != nil {
				fmt.Printf("  %d/%d -> %s: error: %v\n", i+1, *requests, target, err)
				continue
			}
			fmt.Printf("  %d/%d -> %s: %.2f ms (Status: %d)\n", i+1, *requests, target, float64(elapsed.Microseconds())/1000, status)
			total += elapsed
			ok++
			time.Sleep(*delay)
		}
		if ok > 0 {
			mean := total / time.Duration(ok)
			fmt.Printf("-> Average for %s: %.2f ms\n\n", target, float64(mean.Microseconds())/1000)
		} else {
			fmt.Printf("-> No successful requests for %s\n\n", target)
		}
	}
	return nil
}

// newClient builds an HTTP client routed through the gateway, trusting the
// interception CA when one is supplied.
func newClient(proxyAddr, caFile string, timeout time.Duration) (*http.Client, error) {
	transport := &http.Transport{}

	if proxyAddr != "" {
		proxyURL, err := url.Parse(proxyAddr)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy URL: %w", err)
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	}

	if caFile != "" {
		pem, err := os.ReadFile(caFile)
		if err != nil {
			return nil, fmt.Errorf("reading CA file: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("no certificates found in %s", caFile)
		}
		transport.TLSClientConfig = &tls.Config{RootCAs: pool}
	}

	return &http.Client{Transport: transport, Timeout: timeout}, nil
}

// measure times one GET, draining the body so connection reuse does not skew
// later samples.
func measure(client *http.Client, target string) (time.Duration, int, error) {
	start := time.Now()
	resp, err := client.Get(target)
	if err != nil {
		return 0, 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return time.Since(start), resp.StatusCode, nil
}
