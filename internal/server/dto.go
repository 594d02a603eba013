package server

import (
	"time"

	"github.com/wolfeidau/khuwani/internal/models"
	"github.com/wolfeidau/khuwani/internal/projection"
)

// Wire shapes live here so the domain models stay free of struct tags.

type registerRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type organizerResponse struct {
	OrganizerID string    `json:"organizer_id"`
	Email       string    `json:"email"`
	CreatedAt   time.Time `json:"created_at"`
}

func toOrganizerResponse(o *models.Organizer) organizerResponse {
	return organizerResponse{
		OrganizerID: o.OrganizerID.String(),
		Email:       o.Email,
		CreatedAt:   o.CreatedAt,
	}
}

type createKhuwaniRequest struct {
	DedicateeName string `json:"dedicatee_name"`
}

type khuwaniResponse struct {
	KhuwaniID     string    `json:"khuwani_id"`
	Slug          string    `json:"slug"`
	DedicateeName string    `json:"dedicatee_name"`
	QuranCount    int       `json:"quran_count"`
	CreatedAt     time.Time `json:"created_at"`
}

func toKhuwaniResponse(k *models.Khuwani) khuwaniResponse {
	return khuwaniResponse{
		KhuwaniID:     k.KhuwaniID.String(),
		Slug:          k.Slug,
		DedicateeName: k.DedicateeName,
		QuranCount:    k.QuranCount,
		CreatedAt:     k.CreatedAt,
	}
}

type slotRequest struct {
	QuranNumber     int    `json:"quran_number"`
	SiparaNumber    int    `json:"sipara_number"`
	ParticipantName string `json:"participant_name"`
}

type claimResponse struct {
	QuranNumber     int       `json:"quran_number"`
	SiparaNumber    int       `json:"sipara_number"`
	ParticipantName string    `json:"participant_name"`
	ClaimedAt       time.Time `json:"claimed_at"`
}

func toClaimResponse(c *models.Claim) claimResponse {
	return claimResponse{
		QuranNumber:     c.QuranNumber,
		SiparaNumber:    c.SiparaNumber,
		ParticipantName: c.ParticipantName,
		ClaimedAt:       c.ClaimedAt,
	}
}

type releaseResponse struct {
	Released bool `json:"released"`
}

type resetResponse struct {
	ClaimsRemoved int `json:"claims_removed"`
}

type summaryResponse struct {
	KhuwaniID     string    `json:"khuwani_id"`
	Slug          string    `json:"slug"`
	DedicateeName string    `json:"dedicatee_name"`
	QuranCount    int       `json:"quran_count"`
	ClaimedCount  int       `json:"claimed_count"`
	TotalSlots    int       `json:"total_slots"`
	Percent       int       `json:"percent"`
	CreatedAt     time.Time `json:"created_at"`
}

func toSummaryResponse(s projection.Summary) summaryResponse {
	return summaryResponse{
		KhuwaniID:     s.KhuwaniID,
		Slug:          s.Slug,
		DedicateeName: s.DedicateeName,
		QuranCount:    s.QuranCount,
		ClaimedCount:  s.ClaimedCount,
		TotalSlots:    s.TotalSlots,
		Percent:       s.Percent,
		CreatedAt:     s.CreatedAt,
	}
}

type siparaSlotResponse struct {
	SiparaNumber    int        `json:"sipara_number"`
	Claimed         bool       `json:"claimed"`
	ParticipantName string     `json:"participant_name,omitempty"`
	ClaimedAt       *time.Time `json:"claimed_at,omitempty"`
}

type quranProgressResponse struct {
	QuranNumber  int                  `json:"quran_number"`
	ClaimedCount int                  `json:"claimed_count"`
	Percent      int                  `json:"percent"`
	Siparas      []siparaSlotResponse `json:"siparas"`
}

type viewResponse struct {
	Summary summaryResponse         `json:"summary"`
	Qurans  []quranProgressResponse `json:"qurans"`
}

func toViewResponse(v *projection.View) viewResponse {
	resp := viewResponse{
		Summary: toSummaryResponse(v.Summary),
		Qurans:  make([]quranProgressResponse, 0, len(v.Qurans)),
	}

	for _, q := range v.Qurans {
		progress := quranProgressResponse{
			QuranNumber:  q.QuranNumber,
			ClaimedCount: q.ClaimedCount,
			Percent:      q.Percent,
			Siparas:      make([]siparaSlotResponse, 0, len(q.Siparas)),
		}
		for _, slot := range q.Siparas {
			out := siparaSlotResponse{
				SiparaNumber:    slot.SiparaNumber,
				Claimed:         slot.Claimed,
				ParticipantName: slot.ParticipantName,
			}
			if slot.Claimed {
				claimedAt := slot.ClaimedAt
				out.ClaimedAt = &claimedAt
			}
			progress.Siparas = append(progress.Siparas, out)
		}
		resp.Qurans = append(resp.Qurans, progress)
	}

	return resp
}
