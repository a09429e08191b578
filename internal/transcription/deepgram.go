package transcription

import (
	"context"
	"encoding/json"
	"math"
	"strings"

	"github.com/littletalks/backend/internal/proxy"
)

// DeepgramAdapter normalizes Deepgram pre-recorded responses. Deepgram
// already segments by utterance with an integer speaker, so the mapping is a
// direct pass-through with a seconds-to-milliseconds conversion.
type DeepgramAdapter struct {
	broker Broker
}

func NewDeepgramAdapter(broker Broker) *DeepgramAdapter {
	return &DeepgramAdapter{broker: broker}
}

func (a *DeepgramAdapter) Name() string { return proxy.ProviderDeepgram }

type deepgramResponse struct {
	Results struct {
		Utterances []struct {
			Speaker    int     `json:"speaker"`
			Transcript string  `json:"transcript"`
			Start      float64 `json:"start"`
			End        float64 `json:"end"`
		} `json:"utterances"`
		Channels []struct {
			Alternatives []struct {
				Transcript string `json:"transcript"`
			} `json:"alternatives"`
		} `json:"channels"`
	} `json:"results"`
}

func (a *DeepgramAdapter) Transcribe(ctx context.Context, payload AudioPayload) (*Transcript, error) {
	resp, err := a.broker.Transcribe(ctx, proxy.Request{
		Provider:    proxy.ProviderDeepgram,
		RequestType: proxy.RequestTypeTranscription,
		Audio:       payload.Bytes,
		MediaType:   payload.MediaType,
	})
	if err != nil {
		return nil, classify(a.Name(), err)
	}

	var parsed deepgramResponse
	if err := json.Unmarshal(resp.Body, &parsed); err != nil {
		return nil, &Error{Kind: KindProvider, Provider: a.Name(), Message: "unparseable response: " + err.Error()}
	}

	if len(parsed.Results.Utterances) > 0 {
		out := make([]Utterance, 0, len(parsed.Results.Utterances))
		for _, u := range parsed.Results.Utterances {
			text := strings.TrimSpace(u.Transcript)
			if text == "" {
				continue
			}
			out = append(out, Utterance{
				Speaker: u.Speaker,
				Text:    text,
				StartMs: secondsToMs(u.Start),
				EndMs:   secondsToMs(u.End),
			})
		}
		return &Transcript{Utterances: out}, nil
	}

	// No utterance segmentation: fall back to the flat channel transcript.
	for _, ch := range parsed.Results.Channels {
		for _, alt := range ch.Alternatives {
			if t := strings.TrimSpace(alt.Transcript); t != "" {
				return &Transcript{Utterances: []Utterance{{Speaker: 0, Text: t}}}, nil
			}
		}
	}

	return &Transcript{}, nil
}

func secondsToMs(s float64) int64 {
	return int64(math.Round(s * 1000))
}
