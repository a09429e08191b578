package transcription

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/littletalks/backend/internal/proxy"
)

// AssemblyAIAdapter handles the job-based backend: phase one submits the
// payload and yields a job id, phase two delegates to the poller until the
// job reaches a terminal state. Speakers arrive as letters ("A", "B") and
// are mapped to zero-based indices by alphabetic position.
type AssemblyAIAdapter struct {
	broker Broker
	poller *Poller
}

func NewAssemblyAIAdapter(broker Broker, poller *Poller) *AssemblyAIAdapter {
	return &AssemblyAIAdapter{broker: broker, poller: poller}
}

func (a *AssemblyAIAdapter) Name() string { return proxy.ProviderAssemblyAI }

type assemblyAIJob struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Error  string `json:"error"`
	Text   string `json:"text"`

	Utterances []struct {
		Speaker string `json:"speaker"`
		Text    string `json:"text"`
		Start   int64  `json:"start"`
		End     int64  `json:"end"`
	} `json:"utterances"`
}

func (a *AssemblyAIAdapter) Transcribe(ctx context.Context, payload AudioPayload) (*Transcript, error) {
	resp, err := a.broker.Transcribe(ctx, proxy.Request{
		Provider:    proxy.ProviderAssemblyAI,
		RequestType: proxy.RequestTypeTranscription,
		Audio:       payload.Bytes,
		MediaType:   payload.MediaType,
	})
	if err != nil {
		return nil, classify(a.Name(), err)
	}

	var job assemblyAIJob
	if err := json.Unmarshal(resp.Body, &job); err != nil || job.ID == "" {
		return nil, &Error{Kind: KindProvider, Provider: a.Name(), Message: "submit returned no job id"}
	}
	if job.Status == string(JobFailed) || job.Status == "error" {
		return nil, &Error{Kind: KindProvider, Provider: a.Name(), Message: firstNonEmpty(job.Error, "job rejected on submit")}
	}

	_, body, err := a.poller.Wait(ctx, job.ID, a.checkJob)
	if err != nil {
		return nil, classify(a.Name(), err)
	}

	var done assemblyAIJob
	if err := json.Unmarshal(body, &done); err != nil {
		return nil, &Error{Kind: KindProvider, Provider: a.Name(), Message: "unparseable job result: " + err.Error()}
	}

	if len(done.Utterances) > 0 {
		out := make([]Utterance, 0, len(done.Utterances))
		for _, u := range done.Utterances {
			text := strings.TrimSpace(u.Text)
			if text == "" {
				continue
			}
			out = append(out, Utterance{
				Speaker: speakerIndexFromLabel(u.Speaker),
				Text:    text,
				StartMs: u.Start,
				EndMs:   u.End,
			})
		}
		return &Transcript{Utterances: out}, nil
	}

	if t := strings.TrimSpace(done.Text); t != "" {
		return &Transcript{Utterances: []Utterance{{Speaker: 0, Text: t}}}, nil
	}

	return &Transcript{}, nil
}

// checkJob polls one job status through the boundary and classifies it for
// the state machine.
func (a *AssemblyAIAdapter) checkJob(ctx context.Context, jobID string) (*PollResult, error) {
	resp, err := a.broker.PollJob(ctx, a.Name(), jobID)
	if err != nil {
		// A transient poll failure is not a terminal provider verdict; let
		// the classified error surface as-is.
		var te *Error
		if errors.As(err, &te) {
			return nil, te
		}
		return nil, classify(a.Name(), err)
	}

	var job assemblyAIJob
	if err := json.Unmarshal(resp.Body, &job); err != nil {
		return nil, &Error{Kind: KindProvider, Provider: a.Name(), Message: "unparseable poll response: " + err.Error()}
	}

	switch job.Status {
	case "completed":
		return &PollResult{Status: JobCompleted, Body: resp.Body}, nil
	case "error":
		return &PollResult{Status: JobFailed, Message: firstNonEmpty(job.Error, "provider reported an error")}, nil
	default:
		// "queued" and "processing" both mean keep waiting.
		return &PollResult{Status: JobProcessing}, nil
	}
}

// speakerIndexFromLabel maps "A" to 0, "B" to 1 and so on. Unrecognized
// labels collapse to 0.
func speakerIndexFromLabel(label string) int {
	label = strings.ToUpper(strings.TrimSpace(label))
	if len(label) == 0 {
		return 0
	}
	c := label[0]
	if c < 'A' || c > 'Z' {
		return 0
	}
	return int(c - 'A')
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
