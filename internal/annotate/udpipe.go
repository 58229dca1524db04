package annotate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/wgomg/vocabula/internal/config"
	"github.com/wgomg/vocabula/internal/utils"
	"github.com/wgomg/vocabula/internal/utils/httputils"
)

// UDPipeClient annotates text through a UDPipe REST service.
type UDPipeClient struct {
	baseURL    string
	model      string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *utils.Logger
}

type udpipeResponse struct {
	Model            string   `json:"model"`
	Acknowledgements []string `json:"acknowledgements"`
	Result           string   `json:"result"`
}

func NewUDPipeClient(cfg *config.Config, logger *utils.Logger) (*UDPipeClient, error) {
	u := cfg.Annotator.UDPipe
	if u.URL == "" {
		return nil, fmt.Errorf("UDPIPE_URL is required")
	}

	rps := u.RequestsPerSecond
	if rps <= 0 {
		rps = 1
	}
	burst := u.Burst
	if burst <= 0 {
		burst = 1
	}

	return &UDPipeClient{
		baseURL: strings.TrimRight(u.URL, "/"),
		model:   u.Model,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.App.HttpTimeoutSeconds) * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		logger:  logger,
	}, nil
}

func (c *UDPipeClient) Annotate(ctx context.Context, text string) (*Document, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	form := url.Values{}
	form.Set("tokenizer", "")
	form.Set("tagger", "")
	form.Set("data", text)
	if c.model != "" {
		form.Set("model", c.model)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/process", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	c.logger.Debug(nil, "Sending UDPipe request: model=%s, chars=%d", c.model, utils.CountChars(text))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if err := httputils.LogResponseBody(resp, c.logger, nil); err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, c.handleAPIError(resp)
	}

	var out udpipeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if out.Model != "" && out.Model != c.model {
		c.logger.Debug(nil, "UDPipe resolved model %s to %s", c.model, out.Model)
	}

	return ParseCoNLLU(strings.NewReader(out.Result))
}

func (c *UDPipeClient) Info() Info {
	return Info{
		Kind:     config.AnnotatorUDPipe.String(),
		Language: modelLanguage(c.model),
		Model:    c.model,
		Extra:    map[string]string{"url": c.baseURL},
	}
}

func (c *UDPipeClient) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

func (c *UDPipeClient) handleAPIError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)
	return &APIError{
		StatusCode: resp.StatusCode,
		Message:    http.StatusText(resp.StatusCode),
		Body:       string(body),
	}
}

// modelLanguage reads the language from a UDPipe model name such as
// "latin-perseus-ud-2.12".
func modelLanguage(model string) string {
	lang, _, _ := strings.Cut(model, "-")
	return lang
}
