package analysis

import (
	"encoding/base64"
	"encoding/json"
)

// Input is the pipeline entry point payload.
type Input struct {
	PhotoDataURI string `json:"photoDataUri"`
}

// ImagePayload value object: declared image MIME type plus decoded bytes.
type ImagePayload struct {
	MIMEType string
	Data     []byte
}

// DataURI renders the payload in its self-describing form.
func (p ImagePayload) DataURI() string {
	return "data:" + p.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(p.Data)
}

// Size returns the decoded byte length.
func (p ImagePayload) Size() int { return len(p.Data) }

// Result is the classification returned by the pipeline.
// After normalization every field is non-nil.
type Result struct {
	Objects []string `json:"objects"`
	People  []string `json:"people"`
	Scenes  []string `json:"scenes"`
}

// Raw renders the result back into model output form.
func (r Result) Raw() RawOutput {
	b, _ := json.Marshal(r)
	return RawOutput(b)
}

// Counts returns the number of labels per category.
func (r Result) Counts() LabelCounts {
	return LabelCounts{Objects: len(r.Objects), People: len(r.People), Scenes: len(r.Scenes)}
}

// HasResults reports whether any category holds at least one label.
func (r Result) HasResults() bool {
	return len(r.Objects) > 0 || len(r.People) > 0 || len(r.Scenes) > 0
}

// LabelCounts value object
type LabelCounts struct {
	Objects int `json:"objects"`
	People  int `json:"people"`
	Scenes  int `json:"scenes"`
}

// ModelRequest is what the invoker sends to the vision model.
type ModelRequest struct {
	System      string
	Instruction string
	Image       ImagePayload
}

// RawOutput is the untrusted text returned by the model.
type RawOutput string
