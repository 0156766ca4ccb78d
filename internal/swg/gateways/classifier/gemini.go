// Package classifier categorizes registrable domains by asking a Gemini
// model for exactly one label out of a fixed vocabulary.
package classifier

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/haukened/swgd/internal/swg/common/clock"
	"github.com/haukened/swgd/internal/swg/common/log"
	"github.com/haukened/swgd/internal/swg/domain"
)

// ErrUnavailable distinguishes "the backend could not answer" (timeout,
// transport error, empty output) from a usable Unknown classification. The
// engine fails open on this error and must not cache anything.
var ErrUnavailable = errors.New("classifier backend unavailable")

// maxLabelLength is a defensive cap: anything longer is not a label, it is
// the model explaining itself.
const maxLabelLength = 50

const defaultTimeout = 10 * time.Second

// GenerateFunc produces raw model output for a prompt. Injectable so tests
// never touch the network.
type GenerateFunc func(ctx context.Context, prompt string) (string, error)

// Options defines configuration parameters for the Gemini classifier.
type Options struct {
	// required parameters
	APIKey  string
	Model   string
	Timeout time.Duration
	// options to inject for testing purposes
	Clock    clock.Clock
	Logger   log.Logger
	Generate GenerateFunc
}

// Gemini implements the engine's Classifier contract against the Gemini API.
// Stateless per call; safe for concurrent use.
type Gemini struct {
	model    string
	timeout  time.Duration
	clock    clock.Clock
	logger   log.Logger
	generate GenerateFunc
}

// New creates a Gemini classifier. When no Generate hook is injected, a real
// Gemini client is built from the API key with zero-temperature decoding.
func New(opts Options) (*Gemini, error) {
	if opts.Model == "" {
		return nil, errors.New("classifier model is required")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.Clock == nil {
		opts.Clock = clock.RealClock{}
	}
	if opts.Logger == nil {
		opts.Logger = log.NewNoopLogger()
	}

	g := &Gemini{
		model:    opts.Model,
		timeout:  opts.Timeout,
		clock:    opts.Clock,
		logger:   opts.Logger,
		generate: opts.Generate,
	}

	if g.generate == nil {
		if opts.APIKey == "" {
			return nil, errors.New("classifier api key is required")
		}
		client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
			APIKey:  opts.APIKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, fmt.Errorf("creating gemini client: %w", err)
		}
		g.generate = func(ctx context.Context, prompt string) (string, error) {
			resp, err := client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
				Temperature: genai.Ptr[float32](0),
			})
			if err != nil {
				return "", err
			}
			return resp.Text(), nil
		}
	}

	return g, nil
}

// ensureContextDeadline adds the classifier's timeout when the caller's
// context has no deadline of its own.
func (g *Gemini) ensureContextDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); !ok {
		return context.WithTimeout(ctx, g.timeout)
	}
	return ctx, nil
}

// Classify asks the model for one label. Post-processing, in order: trim,
// take the substring after the last colon (models like to answer
// "Category: Phishing"), cap the length, then match against the closed
// vocabulary. Unmatched output degrades to Unknown; backend failure or empty
// output is ErrUnavailable, never a label.
func (g *Gemini) Classify(ctx context.Context, name string) (domain.Classification, error) {
	ctx, cancel := g.ensureContextDeadline(ctx)
	if cancel != nil {
		defer cancel()
	}

	start := g.clock.Now()
	raw, err := g.generate(ctx, buildPrompt(name))
	latency := g.clock.Since(start)
	if err != nil {
		return domain.Classification{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	label := strings.TrimSpace(raw)
	if label == "" {
		return domain.Classification{}, fmt.Errorf("%w: empty response", ErrUnavailable)
	}
	if i := strings.LastIndex(label, ":"); i >= 0 {
		label = strings.TrimSpace(label[i+1:])
	}
	if len(label) > maxLabelLength {
		g.logger.Warn(map[string]any{
			"domain": name,
			"label":  label,
		}, "Classifier returned an unusable label, defaulting to Unknown")
		return domain.Classification{Category: domain.CategoryUnknown, Latency: latency}, nil
	}

	category, ok := domain.ParseCategory(label)
	if !ok {
		g.logger.Warn(map[string]any{
			"domain": name,
			"label":  label,
		}, "Classifier label outside vocabulary, defaulting to Unknown")
		category = domain.CategoryUnknown
	}

	g.logger.Info(map[string]any{
		"domain":     name,
		"category":   category,
		"latency_ms": latency.Milliseconds(),
	}, "Domain classified")

	return domain.Classification{Category: category, Latency: latency}, nil
}

// buildPrompt asks for exactly one label, with disambiguation guidance for
// the security-relevant categories and worked examples.
func buildPrompt(name string) string {
	var b strings.Builder
	b.WriteString("You are a cybersecurity expert helping categorize website domains based on their most likely purpose or threat level.\n\n")
	b.WriteString("Use only one of the following category labels:\n")
	for _, c := range domain.Categories() {
		b.WriteString("- ")
		b.WriteString(string(c))
		b.WriteString("\n")
	}
	b.WriteString(`
Guidelines:
- If the domain appears dangerous, contains misspellings, obscure TLDs, or is linked to harmful behavior, choose 'Malware' or 'Phishing'.
- Use 'Malware' for domains that are likely hosting malicious software or malware distribution.
- Use 'Phishing' for domains pretending to be legitimate to steal information.
- Use 'Suspicious' for odd or generic domains that might be harmful but aren't clearly phishing or malware.
- Even if the domain is unfamiliar, use your judgment based on common threat indicators or name patterns.
- If still unsure, return 'Unknown'.

Examples:
- google.com -> Search Engine
- instagram.com -> Social Media
- nytimes.com -> News
- github.com -> Software Development
- dropbox.com -> Cloud Storage
- bankofamerica-login.com -> Phishing
- update-your-browser-info.ru -> Malware
- suspicious-checker.xyz -> Suspicious
- xakjduqw.net -> Suspicious
- malicious-update-download.com -> Malware

Domain: `)
	b.WriteString(name)
	b.WriteString("\nCategory:")
	return b.String()
}
