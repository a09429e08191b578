package proxy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

// Client talks to the proxy boundary over HTTP. It lets adapters that run
// outside the boundary process use the same contract as the in-process
// Service; both satisfy the transcription.Broker interface.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewClient(baseURL, bearerToken string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   bearerToken,
		httpClient: &http.Client{
			Timeout: 150 * time.Second,
		},
	}
}

type proxyEnvelope struct {
	RequestID string          `json:"request_id,omitempty"`
	Response  json.RawMessage `json:"response,omitempty"`
	Error     string          `json:"error,omitempty"`
	Kind      string          `json:"kind,omitempty"`
	Status    int             `json:"provider_status,omitempty"`
}

func (c *Client) Transcribe(ctx context.Context, req Request) (*Response, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	fw, err := mw.CreateFormFile("audio", "audio"+extForMediaType(req.MediaType))
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := fw.Write(req.Audio); err != nil {
		return nil, fmt.Errorf("write audio part: %w", err)
	}
	_ = mw.WriteField("media_type", req.MediaType)
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/v1/proxy/"+req.Provider+"/transcribe", &body)
	if err != nil {
		return nil, fmt.Errorf("build proxy request: %w", err)
	}
	httpReq.Header.Set("Content-Type", mw.FormDataContentType())
	httpReq.Header.Set("Authorization", "Bearer "+c.token)

	return c.roundTrip(req.Provider, httpReq)
}

func (c *Client) PollJob(ctx context.Context, provider, jobID string) (*Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/api/v1/proxy/"+provider+"/jobs/"+jobID, nil)
	if err != nil {
		return nil, fmt.Errorf("build poll request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.token)

	return c.roundTrip(provider, httpReq)
}

func (c *Client) roundTrip(provider string, req *http.Request) (*Response, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Provider: provider, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Provider: provider, Err: err}
	}

	var env proxyEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode proxy response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		switch env.Kind {
		case "not_configured":
			return nil, fmt.Errorf("%s: %w", provider, ErrNotConfigured)
		case "provider_error":
			return nil, &StatusError{Provider: provider, StatusCode: env.Status, Body: env.Error}
		case "network_error":
			return nil, &TransportError{Provider: provider, Err: fmt.Errorf("%s", env.Error)}
		default:
			if resp.StatusCode == http.StatusUnauthorized {
				return nil, ErrUnauthenticated
			}
			return nil, fmt.Errorf("proxy returned status %d: %s", resp.StatusCode, env.Error)
		}
	}

	return &Response{RequestID: env.RequestID, Body: env.Response}, nil
}
