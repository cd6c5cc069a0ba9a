package api

import "github.com/dmitrijs2005/moodkeeper/internal/mood"

type CapabilityResponse struct {
	Capability mood.Capability `json:"capability"`
}
