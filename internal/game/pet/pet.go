// Package pet implements the virtual pet: a user-scoped durable session
// with three decaying stats, spontaneous adoption on the first pet
// command, and a petting rate guard.
package pet

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"chat-game-bot/internal/game"
)

// Kind is the registry kind and snapshot filename prefix.
const Kind = "pet"

// MaxStat is the ceiling of every pet stat.
const MaxStat = 20.0

// Petting limits per one-minute window. Shared chats get the stricter
// limit; one-to-one chats the looser one.
const (
	PetLimitGroup   = 5
	PetLimitPrivate = 15
	PetWindow       = time.Minute
)

// Per-hour decay rates relative to satiation.
const (
	decaySatiation = 1.0
	decayHappiness = 1.2
	decayHygiene   = 1.0 / 1.6
)

// Pet is a user's virtual pet. Stats decay over real elapsed time and
// are refilled one at a time by care actions.
type Pet struct {
	game.Base
	Owner     int64          `json:"owner_id"`
	PetName   string         `json:"pet_name"`
	ImageURL  string         `json:"image_url"`
	Satiation float64        `json:"satiation"`
	Happiness float64        `json:"happiness"`
	Hygiene   float64        `json:"hygiene"`
	BornDate  time.Time      `json:"born_date"`
	TimesPet  int            `json:"times_pet"`
	PetGuard  game.RateGuard `json:"pet_guard"`
}

// New adopts a pet for a user with all stats at maximum.
func New(ownerID int64, deps *game.Deps) *Pet {
	return &Pet{
		Base:      game.NewBase([]int64{ownerID}, deps),
		Owner:     ownerID,
		Satiation: MaxStat,
		Happiness: MaxStat,
		Hygiene:   MaxStat,
		BornDate:  time.Now(),
	}
}

func (p *Pet) Name() string          { return "Pet" }
func (p *Pet) Kind() string          { return Kind }
func (p *Pet) OwnerID() int64        { return p.Owner }
func (p *Pet) Expiry() time.Duration { return 0 } // pets never expire

// PostDeserialize reattaches runtime collaborators after a snapshot
// reload.
func (p *Pet) PostDeserialize(deps *game.Deps) { p.AttachDeps(deps) }

// Decay applies time-based stat loss up to now. Each stat drops at its
// own rate scaled by a random factor in [0.5, 1.5) and never goes below
// zero. Absent a refill, a stat never increases. Less than a minute of
// elapsed time is ignored, so back-to-back commands see stable stats.
func (p *Pet) Decay(now time.Time) {
	if now.Sub(p.LastUpdated()) < time.Minute {
		return
	}
	hours := now.Sub(p.LastUpdated()).Hours()
	p.Satiation = drop(p.Satiation, hours*decaySatiation)
	p.Happiness = drop(p.Happiness, hours*decayHappiness)
	p.Hygiene = drop(p.Hygiene, hours*decayHygiene)
	p.Touch()
}

func drop(stat, amount float64) float64 {
	stat -= amount * (rand.Float64() + 0.5)
	if stat < 0 {
		return 0
	}
	return stat
}

// Feed refills satiation. Returns false without refilling when the pet
// is already full, which costs one happiness.
func (p *Pet) Feed(now time.Time) bool { return p.refill(&p.Satiation, now) }

// Play refills happiness.
func (p *Pet) Play(now time.Time) bool { return p.refill(&p.Happiness, now) }

// Clean refills hygiene.
func (p *Pet) Clean(now time.Time) bool { return p.refill(&p.Hygiene, now) }

func (p *Pet) refill(stat *float64, now time.Time) bool {
	p.Decay(now)
	if *stat >= MaxStat {
		p.Happiness = clamp(p.Happiness - 1)
		return false
	}
	*stat = MaxStat
	p.Touch()
	return true
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > MaxStat {
		return MaxStat
	}
	return v
}

// TryPet counts one petting interaction against the rate guard. The
// limit depends on the chat context: shared chats are stricter than
// one-to-one chats.
func (p *Pet) TryPet(now time.Time, private bool) bool {
	limit := PetLimitGroup
	if private {
		limit = PetLimitPrivate
	}
	if !p.PetGuard.Allow(now, limit, PetWindow) {
		return false
	}
	p.TimesPet++
	return true
}

// SetName renames the pet. Names are capped at 32 characters.
func (p *Pet) SetName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("pet name cannot be empty")
	}
	if len([]rune(name)) > 32 {
		return fmt.Errorf("pet name cannot go above 32 characters")
	}
	p.PetName = name
	p.Touch()
	return nil
}

// SetImage sets or clears the pet's image URL.
func (p *Pet) SetImage(url string) {
	p.ImageURL = url
	p.Touch()
}

// Render describes the pet as plain text.
func (p *Pet) Render() string {
	var b strings.Builder
	name := p.PetName
	if name == "" {
		name = "*Unnamed*"
	}
	fmt.Fprintf(&b, "Name: %s\n", name)
	fmt.Fprintf(&b, "Age: %s\n", age(time.Since(p.BornDate)))
	fmt.Fprintf(&b, "🍎 Satiation: %.0f/%.0f%s\n", p.Satiation, MaxStat, warn(p.Satiation, " Hungry!"))
	fmt.Fprintf(&b, "🏈 Happiness: %.0f/%.0f%s\n", p.Happiness, MaxStat, warn(p.Happiness, " Lonely!"))
	fmt.Fprintf(&b, "🛀 Hygiene: %.0f/%.0f%s", p.Hygiene, MaxStat, warn(p.Hygiene, " Dirty!"))
	return b.String()
}

func warn(stat float64, msg string) string {
	if stat < 5 {
		return msg
	}
	return ""
}

func age(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	mins := int(d.Minutes()) % 60
	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh", days, hours)
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, mins)
	case mins > 0:
		return fmt.Sprintf("%dm", mins)
	default:
		return "Newborn"
	}
}
