// Package ai classifies wallpapers through a vision-model proxy worker.
package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/nuanxinpro/wallpaper-studio/internal/logging"
)

const (
	// DefaultModel is the vision model used when none is configured.
	DefaultModel       = "@cf/meta/llava-hf/llava-1.5-7b-hf"
	defaultMaxTokens   = 10000
	defaultTemperature = 0.3
)

// Config carries the proxy worker coordinates and model parameters.
type Config struct {
	WorkerURL   string
	AccountID   string
	APIToken    string
	Model       string
	MaxTokens   int
	Temperature float64
}

// Classifier calls the proxy worker with an image and a category prompt.
type Classifier struct {
	cfg        Config
	httpClient *http.Client
	log        logging.Logger
}

// ClassifierOption customizes a Classifier.
type ClassifierOption func(*Classifier)

func WithHTTPClient(h *http.Client) ClassifierOption {
	return func(c *Classifier) { c.httpClient = h }
}

func WithLogger(log logging.Logger) ClassifierOption {
	return func(c *Classifier) { c.log = log }
}

// NewClassifier returns a Classifier for the given proxy configuration.
func NewClassifier(cfg Config, opts ...ClassifierOption) *Classifier {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = defaultTemperature
	}
	c := &Classifier{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		log:        logging.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type proxyRequest struct {
	AccountID   string  `json:"accountId"`
	AIToken     string  `json:"aiToken"`
	Image       string  `json:"image"`
	Prompt      string  `json:"prompt"`
	Model       string  `json:"model"`
	MaxTokens   int     `json:"maxTokens"`
	Temperature float64 `json:"temperature"`
}

type proxyError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Classify sends the image and prompt to the proxy and returns the
// normalized suggestion.
func (c *Classifier) Classify(ctx context.Context, image []byte, prompt string) (*Suggestion, error) {
	body, err := json.Marshal(proxyRequest{
		AccountID:   c.cfg.AccountID,
		AIToken:     c.cfg.APIToken,
		Image:       base64.StdEncoding.EncodeToString(image),
		Prompt:      prompt,
		Model:       c.cfg.Model,
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("encode classify request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.WorkerURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build classify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call classify proxy: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read classify response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, classifyError(resp.StatusCode, raw)
	}

	var failure struct {
		Error   string       `json:"error"`
		Message string       `json:"message"`
		Errors  []proxyError `json:"errors"`
	}
	if err := json.Unmarshal(raw, &failure); err == nil {
		if len(failure.Errors) > 0 {
			return nil, fmt.Errorf("AI 错误: %s", failure.Errors[0].Message)
		}
		if failure.Error != "" {
			msg := failure.Message
			if msg == "" {
				msg = failure.Error
			}
			return nil, fmt.Errorf("AI 错误: %s", msg)
		}
	}

	suggestion, err := ParseResponse(raw)
	if err != nil {
		c.log.Warn(ctx, "could not parse model response", "error", err)
		return nil, err
	}
	return suggestion, nil
}

func classifyError(status int, raw []byte) error {
	var body struct {
		Errors []proxyError `json:"errors"`
	}
	if err := json.Unmarshal(raw, &body); err == nil && len(body.Errors) > 0 {
		e := body.Errors[0]
		switch e.Code {
		case 3016:
			return fmt.Errorf("图片解码失败，请使用 JPG/PNG 格式")
		case 5016:
			return fmt.Errorf("需要同意模型许可协议")
		}
		return fmt.Errorf("AI 错误 (%d): %s", e.Code, e.Message)
	}
	return fmt.Errorf("请求失败: %d", status)
}

// BuildPrompt renders the classification prompt with the allowed category
// lists so the model picks from the real taxonomy.
func BuildPrompt(secondaries, thirds []string) string {
	return fmt.Sprintf(`分析这张壁纸图片，从以下分类中选择最合适的：

二级分类（必须从列表中选择）：%s
三级分类（必须从列表中选择，没有合适的可以建议新分类）：%s

请用JSON格式回答：
{
  "secondary": "二级分类",
  "third": "三级分类",
  "suggestedCategory": null,
  "suggestedThird": null,
  "keywords": ["关键词1", "关键词2", "关键词3"],
  "filenameSuggestions": ["文件名1", "文件名2", "文件名3"],
  "description": "一句话描述"
}`,
		strings.Join(secondaries, "、"),
		strings.Join(thirds, "、"))
}
