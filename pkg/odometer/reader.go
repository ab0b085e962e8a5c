// Package odometer reads a mileage hint from a dashboard photo.
// A hint is optional: every failure yields "no hint", never an error.
package odometer

import (
	"context"
	"regexp"
	"strconv"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// Reader returns the odometer value seen in a JPEG, if any.
type Reader func(ctx context.Context, jpeg []byte) (float64, bool)

// None is the Reader used when no recognition service is configured.
func None(context.Context, []byte) (float64, bool) { return 0, false }

const (
	DefaultModel = "gemini-2.5-flash-image"

	prompt = "Analyze this image of a motorcycle dashboard. Locate the odometer reading (total kilometers). " +
		"Return ONLY the numeric value of the mileage. If you cannot clearly see a number, return '0'. " +
		"Do not include units like 'km'."
)

var nonNumeric = regexp.MustCompile(`[^0-9.]`)

// ParseReading keeps digits and dots and parses the rest. Zero counts as "not seen".
func ParseReading(text string) (float64, bool) {
	cleaned := nonNumeric.ReplaceAllString(text, "")
	if cleaned == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

type Gemini struct {
	client  *genai.Client
	model   string
	timeout time.Duration
	log     *zap.Logger
}

func NewGemini(ctx context.Context, apiKey, model string, timeout time.Duration, log *zap.Logger) (*Gemini, error) {
	if model == "" {
		model = DefaultModel
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	return &Gemini{client: client, model: model, timeout: timeout, log: log}, nil
}

func (g *Gemini) Read(ctx context.Context, jpeg []byte) (float64, bool) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(jpeg, "image/jpeg"),
			genai.NewPartFromText(prompt),
		}, genai.RoleUser),
	}
	res, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		g.log.Warn("odometer hint failed", zap.Error(err))
		return 0, false
	}
	km, ok := ParseReading(res.Text())
	if !ok {
		g.log.Debug("odometer hint unreadable", zap.String("text", res.Text()))
	}
	return km, ok
}

// New picks the Gemini reader when a key is configured and None otherwise.
func New(ctx context.Context, apiKey, model string, log *zap.Logger) Reader {
	if apiKey == "" {
		return None
	}
	g, err := NewGemini(ctx, apiKey, model, 0, log)
	if err != nil {
		log.Warn("odometer hint disabled", zap.Error(err))
		return None
	}
	return g.Read
}
