package models

import (
	"time"

	"github.com/google/uuid"
)

// SiparasPerQuran is the fixed number of portions in one Quran instance.
const SiparasPerQuran = 30

// Khuwani represents one dedication: a shareable recitation session holding
// one or more Quran instances of 30 siparas each.
//
// QuranCount starts at 1 and only ever grows; the stores enforce
// quran_count >= 1 so progress math never divides by zero.
type Khuwani struct {
	KhuwaniID   uuid.UUID // UUIDv7
	OrganizerID uuid.UUID // owning organizer

	// Slug is the public, URL-safe identifier participants use.
	// Immutable once created; unique system-wide.
	Slug string

	DedicateeName string
	QuranCount    int

	CreatedAt time.Time
}

// TotalSlots returns the number of claimable (instance, sipara) slots.
func (k *Khuwani) TotalSlots() int {
	return k.QuranCount * SiparasPerQuran
}
