package transcription

import "strings"

// AudioPayload is one complete recording ready for transport. It is
// validated before any adapter runs; a zero-byte payload never reaches the
// network.
type AudioPayload struct {
	Bytes     []byte
	MediaType string
	SizeBytes int
}

func NewAudioPayload(data []byte, mediaType string) (AudioPayload, error) {
	p := AudioPayload{Bytes: data, MediaType: mediaType, SizeBytes: len(data)}
	if err := p.Validate(); err != nil {
		return AudioPayload{}, err
	}
	return p, nil
}

func (p AudioPayload) Validate() error {
	if len(p.Bytes) == 0 || p.SizeBytes <= 0 {
		return &Error{Kind: KindValidation, Message: "audio payload is empty"}
	}
	if strings.TrimSpace(p.MediaType) == "" {
		return &Error{Kind: KindValidation, Message: "audio payload has no media type"}
	}
	return nil
}

// Utterance is one speaker-attributed span of the canonical transcript.
// Speaker indices are stable only within a single transcript. Zero offsets
// mean the provider supplied no timing data, which is legal.
type Utterance struct {
	Speaker int    `json:"speaker"`
	Text    string `json:"text"`
	StartMs int64  `json:"start_ms"`
	EndMs   int64  `json:"end_ms"`
}

// Transcript is the provider-agnostic output contract: utterances ordered by
// start offset. Empty is valid only when the provider legitimately heard no
// speech.
type Transcript struct {
	Utterances []Utterance `json:"utterances"`
}
