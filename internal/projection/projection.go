// Package projection assembles a khuwani and its claims into the read
// models the organizer and participant views render. Everything here is a
// pure function of its inputs; the stores are never touched.
package projection

import (
	"math"
	"time"

	"github.com/wolfeidau/khuwani/internal/models"
)

// Summary is the organizer dashboard shape: one line per khuwani with
// overall progress across all of its Quran instances.
type Summary struct {
	KhuwaniID     string
	Slug          string
	DedicateeName string
	QuranCount    int
	ClaimedCount  int
	TotalSlots    int
	Percent       int
	CreatedAt     time.Time
}

// SiparaSlot is one of the 30 slots of a Quran instance. Claimed is false
// for an available slot, in which case the remaining fields are zero.
type SiparaSlot struct {
	SiparaNumber    int
	Claimed         bool
	ParticipantName string
	ClaimedAt       time.Time
}

// QuranProgress is the per-instance breakdown participants see.
type QuranProgress struct {
	QuranNumber  int
	ClaimedCount int
	Percent      int
	Siparas      []SiparaSlot
}

// View is the full participant projection: overall summary plus every
// instance with all 30 slots resolved to available or claimed.
type View struct {
	Summary Summary
	Qurans  []QuranProgress
}

// Summarize computes overall progress for one khuwani. Claims outside the
// khuwani's instance range are ignored; inputs that came from the stores
// never contain them.
func Summarize(k *models.Khuwani, claims []*models.Claim) Summary {
	total := k.TotalSlots()

	claimed := 0
	for _, c := range claims {
		if c.QuranNumber >= 1 && c.QuranNumber <= k.QuranCount {
			claimed++
		}
	}

	return Summary{
		KhuwaniID:     k.KhuwaniID.String(),
		Slug:          k.Slug,
		DedicateeName: k.DedicateeName,
		QuranCount:    k.QuranCount,
		ClaimedCount:  claimed,
		TotalSlots:    total,
		Percent:       percent(claimed, total),
		CreatedAt:     k.CreatedAt,
	}
}

// Project builds the full view: the summary plus a 30-slot breakdown for
// every Quran instance of the khuwani.
func Project(k *models.Khuwani, claims []*models.Claim) View {
	view := View{
		Summary: Summarize(k, claims),
		Qurans:  make([]QuranProgress, 0, k.QuranCount),
	}

	for quran := 1; quran <= k.QuranCount; quran++ {
		progress := QuranProgress{
			QuranNumber: quran,
			Siparas:     make([]SiparaSlot, models.SiparasPerQuran),
		}
		for i := range progress.Siparas {
			progress.Siparas[i].SiparaNumber = i + 1
		}

		for _, c := range claims {
			if c.QuranNumber != quran {
				continue
			}
			if c.SiparaNumber < 1 || c.SiparaNumber > models.SiparasPerQuran {
				continue
			}
			slot := &progress.Siparas[c.SiparaNumber-1]
			slot.Claimed = true
			slot.ParticipantName = c.ParticipantName
			slot.ClaimedAt = c.ClaimedAt
			progress.ClaimedCount++
		}

		progress.Percent = percent(progress.ClaimedCount, models.SiparasPerQuran)
		view.Qurans = append(view.Qurans, progress)
	}

	return view
}

// percent rounds claimed/total to the nearest whole percentage. Total is
// always at least 30 here (quran_count >= 1 is a store invariant), so the
// division is safe.
func percent(claimed, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(claimed) / float64(total) * 100))
}
