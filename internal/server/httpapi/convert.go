package httpapi

import (
	"github.com/dmitrijs2005/moodkeeper/internal/api"
	"github.com/dmitrijs2005/moodkeeper/internal/server/models"
)

func toAPIJournal(j *models.Journal) api.Journal {
	return api.Journal{
		ID:               j.ID,
		Title:            j.Title,
		Body:             j.Body,
		Label:            j.Label,
		Probability:      j.Probability,
		ManualCorrection: j.ManualCorrection,
		CreatedAt:        j.CreatedAt,
		UpdatedAt:        j.UpdatedAt,
	}
}

func toAPISelfie(s *models.Selfie) api.Selfie {
	return api.Selfie{
		ID:               s.ID,
		ImageName:        s.ImageName,
		Label:            s.Label,
		Probability:      s.Probability,
		ManualCorrection: s.ManualCorrection,
		CreatedAt:        s.CreatedAt,
		UpdatedAt:        s.UpdatedAt,
	}
}

func toAPIRating(r *models.Rating) api.Rating {
	return api.Rating{
		ID:        r.ID,
		Value:     r.Value,
		Message:   r.Message,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}
