// Package api defines the JSON documents exchanged between the moodkeeper
// client and server.
package api

import (
	"time"

	"github.com/dmitrijs2005/moodkeeper/internal/mood"
)

// Multipart field names used by selfie uploads.
const (
	FormImage    = "image"
	FormMetadata = "metadata"
)

type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	UserID      string `json:"user_id"`
}

type UserResponse struct {
	ID         string          `json:"id"`
	Username   string          `json:"username"`
	Capability mood.Capability `json:"capability"`
}

type CapabilityRequest struct {
	Capability mood.Capability `json:"capability"`
}

type Journal struct {
	ID               string     `json:"id"`
	Title            string     `json:"title"`
	Body             string     `json:"body"`
	Label            mood.Label `json:"label"`
	Probability      string     `json:"probability"`
	ManualCorrection bool       `json:"manual_correction"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// JournalRequest is the body of POST and PATCH /journal. CreatedAt is only
// honored on create; the server clock is used when it is nil.
type JournalRequest struct {
	Title            string     `json:"title"`
	Body             string     `json:"body"`
	Label            mood.Label `json:"label"`
	Probability      string     `json:"probability"`
	ManualCorrection bool       `json:"manual_correction"`
	CreatedAt        *time.Time `json:"created_at,omitempty"`
}

type Selfie struct {
	ID               string     `json:"id"`
	ImageName        string     `json:"image_name"`
	Label            mood.Label `json:"label"`
	Probability      string     `json:"probability"`
	ManualCorrection bool       `json:"manual_correction"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// SelfieMetadata travels next to the image part of POST /selfie and as the
// whole body of PATCH /selfie/{id}.
type SelfieMetadata struct {
	Label            mood.Label `json:"label"`
	Probability      string     `json:"probability"`
	ManualCorrection bool       `json:"manual_correction"`
	CreatedAt        *time.Time `json:"created_at,omitempty"`
}

type Rating struct {
	ID        string     `json:"id"`
	Value     mood.Value `json:"value"`
	Message   string     `json:"message,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

type RatingRequest struct {
	Value     mood.Value `json:"value"`
	Message   string     `json:"message,omitempty"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

// TextRequest carries a journal body to the preprocessing and prediction
// endpoints.
type TextRequest struct {
	Text string `json:"text"`
}

// FeaturesResponse is the output of journal preprocessing: a batch of
// feature rows ready for the local journal model.
type FeaturesResponse struct {
	Features [][]float64 `json:"features"`
}

type PredictionResponse struct {
	Prediction mood.Prediction `json:"prediction"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
