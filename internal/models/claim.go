package models

import (
	"time"

	"github.com/google/uuid"
)

// MaxParticipantNameLen bounds the free-text participant name on a claim.
const MaxParticipantNameLen = 100

// Claim is one participant's hold on a single (quran instance, sipara) slot
// of a khuwani. The triple (KhuwaniID, QuranNumber, SiparaNumber) is unique
// system-wide; the stores enforce it as a hard constraint because concurrent
// claim attempts race on exactly this triple.
//
// There is no ownership token. Whoever can state the exact coordinates and
// participant name of a claim may release it — the trust model is
// intentionally open.
type Claim struct {
	ClaimID   uuid.UUID // UUIDv7
	KhuwaniID uuid.UUID

	QuranNumber  int // 1..Khuwani.QuranCount
	SiparaNumber int // 1..SiparasPerQuran

	ParticipantName string // free text, non-empty, <= MaxParticipantNameLen
	ClaimedAt       time.Time
}
