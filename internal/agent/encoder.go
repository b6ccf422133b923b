package agent

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// EncoderRequest 编码器写卡请求
type EncoderRequest struct {
	PersonID string `json:"person_id"`
	UserID   string `json:"user_id,omitempty"`
}

// EncoderResponse 编码器写卡响应
// TagID 为实际写入的物理EPC
type EncoderResponse struct {
	Status string `json:"status"`
	TagID  string `json:"tag_id"`
	Msg    string `json:"msg,omitempty"`
}

// EncoderClient RFID编码器本地HTTP API客户端
type EncoderClient struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

// NewEncoderClient 创建编码器客户端
func NewEncoderClient(baseURL string, logger *zap.Logger) *EncoderClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(30 * time.Second). // 写卡需要等待标签靠近天线
		SetRetryCount(3).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(5 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &EncoderClient{
		httpClient: client,
		logger:     logger,
	}
}

// WriteTag 请求编码器把身份写入标签
func (c *EncoderClient) WriteTag(req *EncoderRequest) (*EncoderResponse, error) {
	resp, err := c.httpClient.R().
		SetBody(req).
		Post("/api/v1/write")
	if err != nil {
		return nil, fmt.Errorf("encoder request failed: %w", err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("encoder returned status %d: %s", resp.StatusCode(), resp.String())
	}

	var result EncoderResponse
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal encoder response: %w", err)
	}
	if result.Status != "ok" || result.TagID == "" {
		return nil, fmt.Errorf("encoder write failed: %s", result.Msg)
	}

	return &result, nil
}
