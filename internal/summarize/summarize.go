// Package summarize asks a text-generation provider to review a parsed expense spreadsheet.
//
// Summarize never fails: every problem is returned as a short notice that ends
// up in the report in place of the summary.
package summarize

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Park-MinJe/monthly-audit-report/internal/logger"
)

// Provider names accepted in SUMMARY_PROVIDER.
const (
	ProviderNone      = "none"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
)

// DefaultMaxInputChars bounds the JSON payload sent to a provider.
const DefaultMaxInputChars = 12000

const truncatedMarker = "\n...[truncated]"

// Temperature used for every provider.
const Temperature = 0.2

// SystemPrompt is the reviewer instruction sent with every payload.
const SystemPrompt = "너는 기관 업무추진비 집행내역을 검토/요약하는 도우미야.\n" +
	"입력은 엑셀 파싱 결과(JSON)이며, 다음 형식으로 한국어 요약을 작성해줘:\n" +
	"1) 핵심 요약 3~6줄\n" +
	"2) 이상/확인 포인트 bullet 3~8개(없으면 '없음')\n" +
	"3) 데이터 품질 이슈 0~3개\n" +
	"가능하면 구체적으로(반복 사용처, 큰 금액, 컬럼 불명확 등).\n"

// Backend sends one system+user exchange to a provider.
type Backend interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Config holds provider credentials and models.
type Config struct {
	OpenAIAPIKey    string
	OpenAIModel     string
	OpenAIBaseURL   string
	AnthropicAPIKey string
	AnthropicModel  string
	GeminiAPIKey    string
	GeminiModel     string
	Timeout         time.Duration
	MaxInputChars   int
}

type backendEntry struct {
	label   string
	backend Backend
}

// Summarizer dispatches payloads to the selected provider.
type Summarizer struct {
	backends map[string]backendEntry
	maxChars int
	log      logger.Logger
}

// Option customizes a Summarizer.
type Option func(*Summarizer)

// WithBackend registers or replaces the backend for provider.
// label is the display name used in failure notices.
func WithBackend(provider, label string, b Backend) Option {
	return func(s *Summarizer) {
		s.backends[strings.ToLower(provider)] = backendEntry{label: label, backend: b}
	}
}

// New builds a Summarizer with the OpenAI, Anthropic and Gemini backends.
func New(cfg Config, log logger.Logger, opts ...Option) *Summarizer {
	if log == nil {
		log = logger.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.MaxInputChars <= 0 {
		cfg.MaxInputChars = DefaultMaxInputChars
	}

	s := &Summarizer{
		backends: map[string]backendEntry{
			ProviderOpenAI:    {label: "OpenAI", backend: newOpenAIBackend(cfg)},
			ProviderAnthropic: {label: "Anthropic", backend: newAnthropicBackend(cfg)},
			ProviderGemini:    {label: "Gemini", backend: newGeminiBackend(cfg)},
		},
		maxChars: cfg.MaxInputChars,
		log:      log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Summarize returns the provider's summary of payload, or a notice text.
func (s *Summarizer) Summarize(ctx context.Context, provider string, payload any) string {
	provider = strings.ToLower(strings.TrimSpace(provider))
	if provider == "" {
		provider = ProviderNone
	}
	if provider == ProviderNone {
		return "(요약 미사용: SUMMARY_PROVIDER=none)"
	}

	entry, ok := s.backends[provider]
	if !ok {
		return fmt.Sprintf("(알 수 없는 provider: %s)", provider)
	}

	body, err := encodePayload(payload)
	if err != nil {
		return fmt.Sprintf("(%s 요약 실패: %v)", entry.label, err)
	}

	start := time.Now()
	text, err := entry.backend.Complete(ctx, SystemPrompt, Truncate(body, s.maxChars))
	if err != nil {
		s.log.Warn("Summarization failed",
			logger.String("provider", provider),
			logger.Duration("elapsed", time.Since(start)),
			logger.Error(err),
		)
		return fmt.Sprintf("(%s 요약 실패: %v)", entry.label, err)
	}

	s.log.Debug("Summarization finished",
		logger.String("provider", provider),
		logger.Duration("elapsed", time.Since(start)),
	)
	return strings.TrimSpace(text)
}

func encodePayload(payload any) (string, error) {
	var sb strings.Builder
	enc := json.NewEncoder(&sb)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(payload); err != nil {
		return "", fmt.Errorf("encode payload: %w", err)
	}
	return strings.TrimSuffix(sb.String(), "\n"), nil
}

// Truncate cuts s to maxChars characters and appends a marker when it had to cut.
func Truncate(s string, maxChars int) string {
	if utf8.RuneCountInString(s) <= maxChars {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxChars]) + truncatedMarker
}

type missingKeyError string

func (e missingKeyError) Error() string { return string(e) + " 미설정" }
