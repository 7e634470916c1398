package analysis

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

// Output field names, in display order.
const (
	FieldObjects = "objects"
	FieldPeople  = "people"
	FieldScenes  = "scenes"
)

var outputFields = []string{FieldObjects, FieldPeople, FieldScenes}

// acceptedImageTypes is the set of MIME types the pipeline will forward to the model.
var acceptedImageTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/gif":  true,
	"image/webp": true,
	"image/bmp":  true,
	"image/heic": true,
	"image/heif": true,
	"image/avif": true,
	"image/tiff": true,
}

// IsAcceptedImageType reports whether mimeType is in the accepted image set.
func IsAcceptedImageType(mimeType string) bool {
	return acceptedImageTypes[strings.ToLower(strings.TrimSpace(mimeType))]
}

// DecodeInput checks a JSON request body for a single string photoDataUri field.
func DecodeInput(raw []byte) (Input, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return Input{}, InvalidInput("request body must be a JSON object", err)
	}
	v, ok := fields["photoDataUri"]
	if !ok {
		return Input{}, InvalidInput("photoDataUri is required", nil)
	}
	v = bytes.TrimSpace(v)
	if len(v) == 0 || v[0] != '"' {
		return Input{}, InvalidInput("photoDataUri must be a string", nil)
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return Input{}, InvalidInput("photoDataUri must be a string", err)
	}
	return Input{PhotoDataURI: s}, nil
}

// ValidateInput validates the request and returns the decoded payload.
func ValidateInput(in Input) (ImagePayload, error) {
	return ParseDataURI(in.PhotoDataURI)
}

// ParseDataURI parses "data:<mime>;base64,<body>" into an ImagePayload.
func ParseDataURI(s string) (ImagePayload, error) {
	if s == "" {
		return ImagePayload{}, InvalidInput("photoDataUri is required", nil)
	}
	if !strings.HasPrefix(s, "data:") {
		return ImagePayload{}, InvalidInput("photoDataUri must be a data URI (data:<mimetype>;base64,<encoded_data>)", nil)
	}
	header, body, found := strings.Cut(s[len("data:"):], ",")
	if !found {
		return ImagePayload{}, InvalidInput("photoDataUri is missing the encoded data", nil)
	}
	mimeType, rest, _ := strings.Cut(header, ";")
	if rest != "base64" {
		return ImagePayload{}, InvalidInput("photoDataUri must use base64 encoding", nil)
	}
	mimeType = strings.ToLower(mimeType)
	if !IsAcceptedImageType(mimeType) {
		return ImagePayload{}, InvalidInput(fmt.Sprintf("unsupported image type %q", mimeType), nil)
	}
	if body == "" {
		return ImagePayload{}, InvalidInput("photoDataUri has an empty body", nil)
	}
	data, err := decodeBase64(body)
	if err != nil {
		return ImagePayload{}, InvalidInput("photoDataUri body is not valid base64", err)
	}
	return ImagePayload{MIMEType: mimeType, Data: data}, nil
}

func decodeBase64(s string) ([]byte, error) {
	if strings.HasSuffix(s, "=") || len(s)%4 == 0 {
		return base64.StdEncoding.DecodeString(s)
	}
	return base64.RawStdEncoding.DecodeString(s)
}

// ValidateOutput is the strict output check: exactly the three fields, each an array of strings.
func ValidateOutput(raw RawOutput) (Result, error) {
	fields, err := decodeObject(raw)
	if err != nil {
		return Result{}, err
	}
	for k := range fields {
		if !isOutputField(k) {
			return Result{}, InvalidOutput(fmt.Sprintf("unexpected field %q in model output", k), nil)
		}
	}
	var res Result
	for _, name := range outputFields {
		v, ok := fields[name]
		if !ok {
			return Result{}, InvalidOutput(fmt.Sprintf("model output is missing %q", name), nil)
		}
		labels, err := decodeLabels(name, v, false)
		if err != nil {
			return Result{}, err
		}
		res.set(name, labels)
	}
	return res, nil
}

func (r *Result) set(name string, labels []string) {
	switch name {
	case FieldObjects:
		r.Objects = labels
	case FieldPeople:
		r.People = labels
	case FieldScenes:
		r.Scenes = labels
	}
}

func isOutputField(name string) bool {
	for _, f := range outputFields {
		if f == name {
			return true
		}
	}
	return false
}

func decodeObject(raw RawOutput) (map[string]json.RawMessage, error) {
	content := extractJSON(string(raw))
	if content == "" {
		return nil, InvalidOutput("model returned an empty response", nil)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(content), &fields); err != nil {
		return nil, InvalidOutput("model output is not a JSON object", err)
	}
	if fields == nil {
		return nil, InvalidOutput("model output is not a JSON object", nil)
	}
	return fields, nil
}

// decodeLabels decodes one field as []string. A JSON null yields nil when allowNull is set.
func decodeLabels(name string, v json.RawMessage, allowNull bool) ([]string, error) {
	v = bytes.TrimSpace(v)
	if bytes.Equal(v, []byte("null")) {
		if allowNull {
			return nil, nil
		}
		return nil, InvalidOutput(fmt.Sprintf("%q must be an array of strings, got null", name), nil)
	}
	if len(v) == 0 || v[0] != '[' {
		return nil, InvalidOutput(fmt.Sprintf("%q must be an array of strings", name), nil)
	}
	var items []json.RawMessage
	if err := json.Unmarshal(v, &items); err != nil {
		return nil, InvalidOutput(fmt.Sprintf("%q must be an array of strings", name), err)
	}
	labels := make([]string, 0, len(items))
	for i, item := range items {
		item = bytes.TrimSpace(item)
		if len(item) == 0 || item[0] != '"' {
			return nil, InvalidOutput(fmt.Sprintf("%q[%d] must be a string", name, i), nil)
		}
		var l string
		if err := json.Unmarshal(item, &l); err != nil {
			return nil, InvalidOutput(fmt.Sprintf("%q[%d] must be a string", name, i), err)
		}
		labels = append(labels, l)
	}
	return labels, nil
}

// extractJSON pulls a JSON object out of a response that may wrap it in markdown fences or prose.
func extractJSON(response string) string {
	response = strings.TrimSpace(response)
	start := strings.Index(response, "```")
	if start == -1 {
		if strings.HasPrefix(response, "{") {
			return response
		}
		open := strings.Index(response, "{")
		end := strings.LastIndex(response, "}")
		if open == -1 || end < open {
			return response
		}
		return response[open : end+1]
	}
	rest := response[start+3:]
	end := strings.Index(rest, "```")
	if end == -1 {
		return response
	}
	content := strings.TrimSpace(rest[:end])
	content = strings.TrimPrefix(content, "json")
	return strings.TrimSpace(content)
}
