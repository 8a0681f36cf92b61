// Package models contains domain types for the KrishiMitra front end.
package models

// Urgency is the backend-assigned severity tier of a diagnosis.
type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyMedium Urgency = "medium"
	UrgencyHigh   Urgency = "high"
)

// Advice holds the treatment guidance attached to a diagnosis.
type Advice struct {
	Urgency    Urgency  `json:"urgency" msgpack:"urgency"`
	Steps      []string `json:"steps,omitempty" msgpack:"steps,omitempty"`
	Prevention string   `json:"prevention,omitempty" msgpack:"prevention,omitempty"`
	Message    string   `json:"message,omitempty" msgpack:"message,omitempty"` // sent for healthy plants
}

// DiagnosisResult is the response of the diagnosis endpoint.
// It only lives for as long as it takes to render it.
type DiagnosisResult struct {
	Success    bool    `json:"success"`
	Disease    string  `json:"disease,omitempty"`
	Confidence float64 `json:"confidence,omitempty"` // 0.0 - 1.0
	ImageURL   string  `json:"image_url,omitempty"`
	Advice     *Advice `json:"advice,omitempty"`
	Error      string  `json:"error,omitempty"`
}

// UrgencyOrNone returns the advice urgency, or "" when there is no advice.
func (r *DiagnosisResult) UrgencyOrNone() Urgency {
	if r == nil || r.Advice == nil {
		return ""
	}
	return r.Advice.Urgency
}
