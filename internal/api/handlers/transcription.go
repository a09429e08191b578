package handlers

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/littletalks/backend/internal/cache"
	"github.com/littletalks/backend/internal/transcription"
)

const maxUploadBytes = 64 << 20

// Transcriber runs the full fallback orchestration. Satisfied by
// transcription.Orchestrator.
type Transcriber interface {
	Transcribe(ctx context.Context, payload transcription.AudioPayload) (*transcription.Transcript, error)
}

type TranscriptionHandler struct {
	orch     Transcriber
	cache    *cache.Cache
	cacheTTL time.Duration
	timeout  time.Duration
}

func NewTranscriptionHandler(orch Transcriber, c *cache.Cache, cacheTTL, timeout time.Duration) *TranscriptionHandler {
	return &TranscriptionHandler{orch: orch, cache: c, cacheTTL: cacheTTL, timeout: timeout}
}

// Create accepts a multipart recording upload and returns the canonical
// speaker-attributed transcript. The raw audio lives only for the duration
// of this request.
func (h *TranscriptionHandler) Create(w http.ResponseWriter, r *http.Request) {
	data, mediaType, err := readAudioUpload(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	payload, err := transcription.NewAudioPayload(data, mediaType)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	// Identical recordings hit the cache instead of billing a provider
	// twice (e.g. a client retry after a dropped response).
	digest := payloadDigest(data)
	if h.cache != nil {
		var cached transcription.Transcript
		if err := h.cache.Get(r.Context(), "transcript:"+digest, &cached); err == nil {
			writeJSON(w, http.StatusOK, cached)
			return
		}
	}

	ctx := r.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	result, err := h.orch.Transcribe(ctx, payload)
	if err != nil {
		h.writeTranscribeError(w, err)
		return
	}

	if h.cache != nil {
		if err := h.cache.Set(r.Context(), "transcript:"+digest, result, h.cacheTTL); err != nil {
			slog.Warn("failed to cache transcript", "error", err)
		}
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *TranscriptionHandler) writeTranscribeError(w http.ResponseWriter, err error) {
	if transcription.IsValidationError(err) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	var agg *transcription.AggregateError
	if errors.As(err, &agg) {
		writeJSON(w, http.StatusBadGateway, map[string]interface{}{
			"error":    agg.Error(),
			"attempts": agg.Attempts,
		})
		return
	}

	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
}

// readAudioUpload extracts the audio part from a multipart request. The
// declared media type comes from the part header, with an explicit
// "media_type" form field taking precedence.
func readAudioUpload(r *http.Request) ([]byte, string, error) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return nil, "", errors.New("expected multipart form with an audio part")
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		return nil, "", errors.New("missing audio part")
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		return nil, "", errors.New("failed to read audio part")
	}

	mediaType := r.FormValue("media_type")
	if mediaType == "" {
		mediaType = header.Header.Get("Content-Type")
	}
	if mediaType == "" {
		mediaType = "application/octet-stream"
	}

	return data, mediaType, nil
}

func payloadDigest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
