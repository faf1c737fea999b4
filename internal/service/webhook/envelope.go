package webhook

import (
	"fmt"

	go_json "github.com/goccy/go-json"
)

// Envelope holds the fields common to every Contentstack webhook body.
type Envelope struct {
	Module      string `json:"module"`
	Event       string `json:"event"`
	APIKey      string `json:"api_key"`
	TriggeredAt string `json:"triggered_at"`
	Data        struct {
		UID   string `json:"uid"`
		Entry struct {
			UID string `json:"uid"`
		} `json:"entry"`
		Asset struct {
			UID string `json:"uid"`
		} `json:"asset"`
	} `json:"data"`
}

// ParseEnvelope decodes the envelope fields of body. Fields of the wrong
// type are an error; missing fields are left empty.
func ParseEnvelope(body []byte) (Envelope, error) {
	var env Envelope
	if err := go_json.Unmarshal(body, &env); err != nil {
		return Envelope{}, fmt.Errorf("failed to parse webhook envelope: %w", err)
	}
	return env, nil
}

// SubjectUID returns the UID of the entry or asset the event is about.
func (e Envelope) SubjectUID() string {
	switch {
	case e.Data.Entry.UID != "":
		return e.Data.Entry.UID
	case e.Data.Asset.UID != "":
		return e.Data.Asset.UID
	default:
		return e.Data.UID
	}
}
