package transcription

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/littletalks/backend/internal/proxy"
)

// GoogleAdapter normalizes Google Cloud Speech recognize responses. Google
// returns word-level tokens with a 1-based speakerTag; contiguous tokens
// with the same tag collapse into one canonical utterance.
type GoogleAdapter struct {
	broker Broker
}

func NewGoogleAdapter(broker Broker) *GoogleAdapter {
	return &GoogleAdapter{broker: broker}
}

func (a *GoogleAdapter) Name() string { return proxy.ProviderGoogle }

type googleWord struct {
	Word       string `json:"word"`
	StartTime  string `json:"startTime"`
	EndTime    string `json:"endTime"`
	SpeakerTag int    `json:"speakerTag"`
}

type googleResponse struct {
	Results []struct {
		Alternatives []struct {
			Transcript string       `json:"transcript"`
			Words      []googleWord `json:"words"`
		} `json:"alternatives"`
	} `json:"results"`
}

func (a *GoogleAdapter) Transcribe(ctx context.Context, payload AudioPayload) (*Transcript, error) {
	resp, err := a.broker.Transcribe(ctx, proxy.Request{
		Provider:    proxy.ProviderGoogle,
		RequestType: proxy.RequestTypeTranscription,
		Audio:       payload.Bytes,
		MediaType:   payload.MediaType,
	})
	if err != nil {
		return nil, classify(a.Name(), err)
	}

	var parsed googleResponse
	if err := json.Unmarshal(resp.Body, &parsed); err != nil {
		return nil, &Error{Kind: KindProvider, Provider: a.Name(), Message: "unparseable response: " + err.Error()}
	}

	var (
		words     []googleWord
		flatParts []string
	)
	for _, r := range parsed.Results {
		if len(r.Alternatives) == 0 {
			continue
		}
		alt := r.Alternatives[0]
		words = append(words, alt.Words...)
		if t := strings.TrimSpace(alt.Transcript); t != "" {
			flatParts = append(flatParts, t)
		}
	}

	if len(words) > 0 {
		return &Transcript{Utterances: groupDiarizedWords(words)}, nil
	}

	// No token boundaries: a flat transcript is still a legal result, with
	// unknown offsets and a single speaker.
	if flat := strings.Join(flatParts, " "); flat != "" {
		return &Transcript{Utterances: []Utterance{{Speaker: 0, Text: flat}}}, nil
	}

	return &Transcript{}, nil
}

// groupDiarizedWords accumulates contiguous words sharing a speaker tag into
// utterances: text joined by single spaces, start from the first word, end
// from the last.
func groupDiarizedWords(words []googleWord) []Utterance {
	var utterances []Utterance
	var (
		cur   *Utterance
		tag   int
		parts []string
	)

	flush := func() {
		if cur == nil {
			return
		}
		cur.Text = strings.Join(parts, " ")
		utterances = append(utterances, *cur)
		cur = nil
		parts = nil
	}

	for _, w := range words {
		text := strings.TrimSpace(w.Word)
		if text == "" {
			continue
		}
		start := durationMs(w.StartTime)
		end := durationMs(w.EndTime)

		if cur != nil && w.SpeakerTag == tag {
			parts = append(parts, text)
			cur.EndMs = end
			continue
		}

		flush()
		tag = w.SpeakerTag
		cur = &Utterance{Speaker: speakerIndexFromTag(tag), StartMs: start, EndMs: end}
		parts = []string{text}
	}
	flush()

	return utterances
}

// speakerIndexFromTag converts Google's 1-based tag to a zero-based index.
func speakerIndexFromTag(tag int) int {
	if tag <= 0 {
		return 0
	}
	return tag - 1
}

// durationMs parses Google's protobuf duration strings ("1.500s"). Missing
// or malformed values map to zero, meaning unknown.
func durationMs(s string) int64 {
	if s == "" {
		return 0
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0
	}
	return d.Milliseconds()
}
