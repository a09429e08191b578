package proxy

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	openai "github.com/sashabaranov/go-openai"

	"github.com/littletalks/backend/internal/auth"
	"github.com/littletalks/backend/internal/config"
	"github.com/littletalks/backend/internal/models"
)

// Provider names accepted by the boundary.
const (
	ProviderGoogle     = "google"
	ProviderDeepgram   = "deepgram"
	ProviderAssemblyAI = "assemblyai"
	ProviderWhisper    = "whisper"
)

const RequestTypeTranscription = "transcription"

// Request carries an audio payload to one named provider.
type Request struct {
	Provider    string
	RequestType string
	Audio       []byte
	MediaType   string
}

// Response is the provider's raw output plus the minted request id. The
// boundary never normalizes provider payloads; that is the adapter's job.
type Response struct {
	RequestID string
	Body      []byte
}

type Capability struct {
	Name       string `json:"name"`
	Configured bool   `json:"configured"`
}

// RecordStore persists anonymized request records. Implemented by
// audit.Store; faked in tests.
type RecordStore interface {
	Create(ctx context.Context, rec models.AnonymizedRequest) error
}

// Service is the anonymizing proxy boundary. It is the only component that
// holds provider credentials and the only one permitted to call external
// transcription providers. Per call it authenticates the caller, checks the
// provider is configured, mints an audit record, and forwards the payload
// with the minted request id as the sole correlating token.
type Service struct {
	cfg        config.ProvidersConfig
	records    RecordStore
	retention  time.Duration
	httpClient *http.Client
	whisper    *openai.Client
}

func NewService(cfg config.ProvidersConfig, retention time.Duration, records RecordStore) *Service {
	s := &Service{
		cfg:       cfg,
		records:   records,
		retention: retention,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
	if cfg.Whisper.APIKey != "" {
		occ := openai.DefaultConfig(cfg.Whisper.APIKey)
		if cfg.Whisper.BaseURL != "" {
			occ.BaseURL = cfg.Whisper.BaseURL
		}
		s.whisper = openai.NewClientWithConfig(occ)
	}
	return s
}

// SetHTTPClient replaces the outbound client. Used by tests to shorten
// timeouts; not called in production paths.
func (s *Service) SetHTTPClient(c *http.Client) { s.httpClient = c }

func (s *Service) Configured(provider string) bool {
	switch provider {
	case ProviderGoogle:
		return s.cfg.Google.APIKey != ""
	case ProviderDeepgram:
		return s.cfg.Deepgram.APIKey != ""
	case ProviderAssemblyAI:
		return s.cfg.AssemblyAI.APIKey != ""
	case ProviderWhisper:
		return s.cfg.Whisper.APIKey != ""
	}
	return false
}

// Providers reports per-backend configuration state for the advisory
// capability endpoint.
func (s *Service) Providers() []Capability {
	names := []string{ProviderGoogle, ProviderDeepgram, ProviderAssemblyAI, ProviderWhisper}
	caps := make([]Capability, 0, len(names))
	for _, n := range names {
		caps = append(caps, Capability{Name: n, Configured: s.Configured(n)})
	}
	return caps
}

// Transcribe forwards one audio payload to the named provider. The audit
// record is persisted strictly before any bytes leave the process.
func (s *Service) Transcribe(ctx context.Context, req Request) (*Response, error) {
	userID := auth.UserIDFromContext(ctx)
	if userID == uuid.Nil {
		return nil, ErrUnauthenticated
	}

	if !s.Configured(req.Provider) {
		return nil, fmt.Errorf("%s: %w", req.Provider, ErrNotConfigured)
	}

	requestType := req.RequestType
	if requestType == "" {
		requestType = RequestTypeTranscription
	}

	rec := s.mintRecord(userID, req.Provider, requestType, req.Audio)
	if err := s.records.Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("create audit record: %w", err)
	}

	requestID := rec.RequestID.String()
	slog.Info("forwarding transcription request",
		"provider", req.Provider,
		"request_id", requestID,
		"size_bytes", len(req.Audio),
	)

	var (
		body []byte
		err  error
	)
	switch req.Provider {
	case ProviderGoogle:
		body, err = s.forwardGoogle(ctx, req)
	case ProviderDeepgram:
		body, err = s.forwardDeepgram(ctx, requestID, req)
	case ProviderAssemblyAI:
		body, err = s.forwardAssemblyAI(ctx, req)
	case ProviderWhisper:
		body, err = s.forwardWhisper(ctx, requestID, req)
	default:
		return nil, fmt.Errorf("%s: %w", req.Provider, ErrNotConfigured)
	}
	if err != nil {
		return nil, err
	}

	return &Response{RequestID: requestID, Body: body}, nil
}

// PollJob forwards a job status check for asynchronous providers. No new
// audit record is minted; the submit's request id remains the correlation
// token for the whole job.
func (s *Service) PollJob(ctx context.Context, provider, jobID string) (*Response, error) {
	if auth.UserIDFromContext(ctx) == uuid.Nil {
		return nil, ErrUnauthenticated
	}
	if provider != ProviderAssemblyAI {
		return nil, fmt.Errorf("provider %s does not support job polling", provider)
	}
	if !s.Configured(provider) {
		return nil, fmt.Errorf("%s: %w", provider, ErrNotConfigured)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet,
		s.cfg.AssemblyAI.BaseURL+"/v2/transcript/"+jobID, nil)
	if err != nil {
		return nil, fmt.Errorf("build poll request: %w", err)
	}
	httpReq.Header.Set("Authorization", s.cfg.AssemblyAI.APIKey)

	body, err := s.do(provider, httpReq)
	if err != nil {
		return nil, err
	}
	return &Response{Body: body}, nil
}

func (s *Service) mintRecord(userID uuid.UUID, provider, requestType string, audio []byte) models.AnonymizedRequest {
	now := time.Now().UTC()
	return models.AnonymizedRequest{
		RequestID:      uuid.New(),
		InternalUserID: userID,
		Provider:       provider,
		RequestType:    requestType,
		MetadataHash:   metadataHash(audio),
		CreatedAt:      now,
		ExpiresAt:      now.Add(s.retention),
	}
}

// metadataHash is a non-reversible summary of the payload: a size class plus
// a content digest prefix. It carries nothing about the caller.
func metadataHash(audio []byte) string {
	sum := sha256.Sum256(audio)
	return sizeClass(len(audio)) + ":" + hex.EncodeToString(sum[:])[:16]
}

func sizeClass(n int) string {
	switch {
	case n < 100*1024:
		return "xs"
	case n < 1024*1024:
		return "sm"
	case n < 10*1024*1024:
		return "md"
	default:
		return "lg"
	}
}

func (s *Service) forwardGoogle(ctx context.Context, req Request) ([]byte, error) {
	payload := map[string]interface{}{
		"config": map[string]interface{}{
			"enableAutomaticPunctuation": true,
			"enableSpeakerDiarization":   true,
			"diarizationSpeakerCount":    2,
			"languageCode":               "en-US",
		},
		"audio": map[string]interface{}{
			"content": base64.StdEncoding.EncodeToString(req.Audio),
		},
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal recognize request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.cfg.Google.BaseURL+"/v1/speech:recognize", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("build recognize request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Goog-Api-Key", s.cfg.Google.APIKey)

	return s.do(ProviderGoogle, httpReq)
}

func (s *Service) forwardDeepgram(ctx context.Context, requestID string, req Request) ([]byte, error) {
	// The minted request id rides along as the only correlating tag.
	url := s.cfg.Deepgram.BaseURL + "/v1/listen?diarize=true&utterances=true&punctuate=true&tag=" + requestID

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(req.Audio))
	if err != nil {
		return nil, fmt.Errorf("build listen request: %w", err)
	}
	httpReq.Header.Set("Content-Type", req.MediaType)
	httpReq.Header.Set("Authorization", "Token "+s.cfg.Deepgram.APIKey)

	return s.do(ProviderDeepgram, httpReq)
}

func (s *Service) forwardAssemblyAI(ctx context.Context, req Request) ([]byte, error) {
	uploadReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.cfg.AssemblyAI.BaseURL+"/v2/upload", bytes.NewReader(req.Audio))
	if err != nil {
		return nil, fmt.Errorf("build upload request: %w", err)
	}
	uploadReq.Header.Set("Content-Type", "application/octet-stream")
	uploadReq.Header.Set("Authorization", s.cfg.AssemblyAI.APIKey)

	uploadBody, err := s.do(ProviderAssemblyAI, uploadReq)
	if err != nil {
		return nil, err
	}

	var upload struct {
		UploadURL string `json:"upload_url"`
	}
	if err := json.Unmarshal(uploadBody, &upload); err != nil || upload.UploadURL == "" {
		return nil, &StatusError{Provider: ProviderAssemblyAI, StatusCode: http.StatusOK, Body: "upload response missing upload_url"}
	}

	submit := map[string]interface{}{
		"audio_url":      upload.UploadURL,
		"speaker_labels": true,
	}
	data, err := json.Marshal(submit)
	if err != nil {
		return nil, fmt.Errorf("marshal transcript request: %w", err)
	}

	submitReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.cfg.AssemblyAI.BaseURL+"/v2/transcript", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("build transcript request: %w", err)
	}
	submitReq.Header.Set("Content-Type", "application/json")
	submitReq.Header.Set("Authorization", s.cfg.AssemblyAI.APIKey)

	return s.do(ProviderAssemblyAI, submitReq)
}

func (s *Service) forwardWhisper(ctx context.Context, requestID string, req Request) ([]byte, error) {
	resp, err := s.whisper.CreateTranscription(ctx, openai.AudioRequest{
		Model: s.cfg.Whisper.Model,
		// The synthetic filename is the request id, never anything
		// caller-derived.
		FilePath: requestID + extForMediaType(req.MediaType),
		Reader:   bytes.NewReader(req.Audio),
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return nil, &StatusError{Provider: ProviderWhisper, StatusCode: apiErr.HTTPStatusCode, Body: apiErr.Message}
		}
		return nil, &TransportError{Provider: ProviderWhisper, Err: err}
	}

	body, err := json.Marshal(map[string]string{"text": resp.Text})
	if err != nil {
		return nil, fmt.Errorf("marshal whisper response: %w", err)
	}
	return body, nil
}

func (s *Service) do(provider string, req *http.Request) ([]byte, error) {
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Provider: provider, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Provider: provider, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Provider: provider, StatusCode: resp.StatusCode, Body: truncate(string(body), 512)}
	}
	return body, nil
}

func extForMediaType(mediaType string) string {
	switch mediaType {
	case "audio/mpeg", "audio/mp3":
		return ".mp3"
	case "audio/mp4", "audio/m4a", "audio/x-m4a":
		return ".m4a"
	case "audio/ogg":
		return ".ogg"
	case "audio/webm":
		return ".webm"
	default:
		return ".wav"
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
