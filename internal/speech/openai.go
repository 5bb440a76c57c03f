package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

const DefaultBaseURL = "https://api.openai.com"

// maxErrorBody bounds how much of a failed response ends up in an error.
const maxErrorBody = 512

type OpenAIConfig struct {
	APIKey             string
	BaseURL            string
	TranscriptionModel string
	SpeechModel        string
	DefaultVoice       string
	// Language is the ISO-639-1 hint sent with transcriptions.
	Language string
	Timeout  time.Duration
}

// OpenAIClient implements Transcriber and Synthesizer over the OpenAI audio
// endpoints. Both calls share one circuit breaker.
type OpenAIClient struct {
	cfg    OpenAIConfig
	http   *http.Client
	cb     *gobreaker.CircuitBreaker
	logger *zap.Logger
}

func NewOpenAIClient(cfg OpenAIConfig, logger *zap.Logger) *OpenAIClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.TranscriptionModel == "" {
		cfg.TranscriptionModel = "whisper-1"
	}
	if cfg.SpeechModel == "" {
		cfg.SpeechModel = "tts-1"
	}
	if cfg.DefaultVoice == "" {
		cfg.DefaultVoice = "onyx"
	}
	if cfg.Language == "" {
		cfg.Language = "pt"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("speech")

	c := &OpenAIClient{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
	c.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "openai-audio",
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		// Silence is an answer, not an outage.
		IsSuccessful: func(err error) bool {
			return err == nil || err == ErrNoSpeech
		},
	})
	return c
}

func (c *OpenAIClient) Transcribe(ctx context.Context, audio []byte, filename string) (string, error) {
	if len(audio) == 0 {
		return "", ErrNoSpeech
	}
	if filename == "" {
		filename = "audio.webm"
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return "", err
	}
	if _, err := part.Write(audio); err != nil {
		return "", err
	}
	_ = mw.WriteField("model", c.cfg.TranscriptionModel)
	_ = mw.WriteField("language", c.cfg.Language)
	_ = mw.WriteField("response_format", "json")
	if err := mw.Close(); err != nil {
		return "", err
	}

	out, err := c.cb.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/v1/audio/transcriptions", &body)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", mw.FormDataContentType())

		raw, err := c.do(req)
		if err != nil {
			return nil, err
		}

		var resp struct {
			Text string `json:"text"`
		}
		if err := json.Unmarshal(raw, &resp); err != nil {
			return nil, fmt.Errorf("decode transcription: %w", err)
		}
		text := strings.TrimSpace(resp.Text)
		if text == "" {
			return nil, ErrNoSpeech
		}
		return text, nil
	})
	if err != nil {
		return "", err
	}
	return out.(string), nil
}

func (c *OpenAIClient) Synthesize(ctx context.Context, text, voice string) ([]byte, error) {
	if voice == "" {
		voice = c.cfg.DefaultVoice
	}
	payload, err := json.Marshal(map[string]interface{}{
		"model":           c.cfg.SpeechModel,
		"input":           text,
		"voice":           voice,
		"response_format": "mp3",
	})
	if err != nil {
		return nil, err
	}

	out, err := c.cb.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/v1/audio/speech", bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return c.do(req)
	})
	if err != nil {
		return nil, err
	}
	return out.([]byte), nil
}

func (c *OpenAIClient) do(req *http.Request) ([]byte, error) {
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	res, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}
	if res.StatusCode != http.StatusOK {
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		return nil, fmt.Errorf("openai %s: status %d: %s", req.URL.Path, res.StatusCode, bytes.TrimSpace(body))
	}
	return body, nil
}
