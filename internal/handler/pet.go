package handler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"chat-game-bot/internal/game"
	"chat-game-bot/internal/game/pet"
	"chat-game-bot/internal/router"
	"chat-game-bot/internal/snapshot"
)

// pettingReplies are cycled through when a pet is petted.
var pettingReplies = []string{
	"It loves you!",
	"It rolls over happily.",
	"It purrs.",
	"It looks at you expectantly.",
	"It wags whatever it has to wag.",
}

// petFunc is one pet subcommand. The pet is guaranteed non-nil.
type petFunc func(ctx context.Context, ev router.MessageEvent, p *pet.Pet, args []string) error

// PetHandler owns the pet command surface. Subcommands dispatch through
// a table built once at construction.
type PetHandler struct {
	reg   *game.Registry
	snaps *snapshot.Store
	deps  *game.Deps
	send  Sender
	table map[string]petFunc
}

// NewPetHandler creates a PetHandler and builds its subcommand table.
func NewPetHandler(reg *game.Registry, snaps *snapshot.Store, deps *game.Deps, send Sender) *PetHandler {
	h := &PetHandler{reg: reg, snaps: snaps, deps: deps, send: send}
	h.table = map[string]petFunc{
		"":        h.show,
		"feed":    h.feed,
		"food":    h.feed,
		"eat":     h.feed,
		"play":    h.play,
		"fun":     h.play,
		"clean":   h.clean,
		"wash":    h.clean,
		"pet":     h.petPet,
		"pat":     h.petPet,
		"p":       h.petPet,
		"name":    h.name,
		"image":   h.image,
		"url":     h.image,
		"user":    h.user,
		"u":       h.user,
		"release": h.release,
		"help":    h.help,
		"h":       h.help,
	}
	return h
}

// Handle runs one pet command. A bare "pet" with no existing pet adopts
// one spontaneously; any other subcommand requires a pet.
func (h *PetHandler) Handle(ctx context.Context, ev router.MessageEvent, args []string) error {
	sub := ""
	if len(args) > 0 {
		sub = strings.ToLower(args[0])
		args = args[1:]
	}

	fn, ok := h.table[sub]
	if !ok {
		return h.send.Send(ev.ChannelID, "Unknown pet command! Do \"pet help\" for help")
	}

	p := h.find(ev.AuthorID)
	if p == nil {
		if sub != "" {
			return h.send.Send(ev.ChannelID, "You don't have a pet yet! Simply do \"pet\" to adopt one.")
		}
		p = pet.New(ev.AuthorID, h.deps)
		h.reg.Add(p)
		if err := h.snaps.Save(p); err != nil {
			log.Error().Err(err).Int64("owner", ev.AuthorID).Msg("Failed to save new pet")
		}
		log.Info().Int64("owner", ev.AuthorID).Msg("Pet adopted")
	}

	return fn(ctx, ev, p, args)
}

func (h *PetHandler) find(ownerID int64) *pet.Pet {
	s, ok := h.reg.UserSession(ownerID, pet.Kind)
	if !ok {
		return nil
	}
	p, ok := s.(*pet.Pet)
	if !ok {
		return nil
	}
	return p
}

// save persists the pet after a mutating subcommand.
func (h *PetHandler) save(p *pet.Pet) {
	if err := h.snaps.Save(p); err != nil {
		log.Error().Err(err).Int64("owner", p.OwnerID()).Msg("Failed to save pet")
	}
}

func (h *PetHandler) show(ctx context.Context, ev router.MessageEvent, p *pet.Pet, args []string) error {
	p.Decay(time.Now())
	h.save(p)
	return h.send.Send(ev.ChannelID, p.Render())
}

func (h *PetHandler) feed(ctx context.Context, ev router.MessageEvent, p *pet.Pet, args []string) error {
	ok := p.Feed(time.Now())
	h.save(p)
	if !ok {
		return h.send.Send(ev.ChannelID, "❌ Your pet is already full! (-1 happiness)")
	}
	return h.send.Send(ev.ChannelID, "🍎 Yum!")
}

func (h *PetHandler) play(ctx context.Context, ev router.MessageEvent, p *pet.Pet, args []string) error {
	ok := p.Play(time.Now())
	h.save(p)
	if !ok {
		return h.send.Send(ev.ChannelID, "❌ Your pet doesn't want to play anymore! (-1 happiness)")
	}
	return h.send.Send(ev.ChannelID, "🏈 Wheee!")
}

func (h *PetHandler) clean(ctx context.Context, ev router.MessageEvent, p *pet.Pet, args []string) error {
	ok := p.Clean(time.Now())
	h.save(p)
	if !ok {
		return h.send.Send(ev.ChannelID, "❌ Your pet is already clean! (-1 happiness)")
	}
	return h.send.Send(ev.ChannelID, "🛀 Splash!")
}

// petPet pets the pet, subject to the per-minute rate guard. Shared
// chats get a stricter limit than one-to-one chats.
func (h *PetHandler) petPet(ctx context.Context, ev router.MessageEvent, p *pet.Pet, args []string) error {
	if !p.TryPet(time.Now(), ev.Private) {
		msg := "❌ That's enough petting! Try again in a minute"
		if !ev.Private {
			msg += ", or pet in a private chat with the bot."
		} else {
			msg += "."
		}
		return h.send.Send(ev.ChannelID, msg)
	}
	h.save(p)
	return h.send.Send(ev.ChannelID, pettingReplies[p.TimesPet%len(pettingReplies)])
}

func (h *PetHandler) name(ctx context.Context, ev router.MessageEvent, p *pet.Pet, args []string) error {
	if len(args) == 0 {
		return h.send.Send(ev.ChannelID, "❌ Please specify a name!")
	}
	if err := p.SetName(strings.Join(args, " ")); err != nil {
		return h.send.Send(ev.ChannelID, "❌ "+err.Error())
	}
	h.save(p)
	return h.send.Send(ev.ChannelID, fmt.Sprintf("✅ Your pet is now called %s!", p.PetName))
}

func (h *PetHandler) image(ctx context.Context, ev router.MessageEvent, p *pet.Pet, args []string) error {
	url := ""
	if len(args) > 0 {
		url = args[0]
	}
	if url == "" && p.ImageURL == "" {
		return h.send.Send(ev.ChannelID, "❌ Please specify an image link!")
	}
	p.SetImage(url)
	h.save(p)
	if url == "" {
		return h.send.Send(ev.ChannelID, "✅ Pet image reset!")
	}
	return h.send.Send(ev.ChannelID, "✅ Pet image set!")
}

// user shows another person's pet by numeric user id.
func (h *PetHandler) user(ctx context.Context, ev router.MessageEvent, p *pet.Pet, args []string) error {
	if len(args) == 0 {
		return h.send.Send(ev.ChannelID, "You must specify a user!")
	}
	id, err := parseUserID(args[0])
	if err != nil {
		return h.send.Send(ev.ChannelID, "Can't find the specified user!")
	}
	other := h.find(id)
	if other == nil {
		return h.send.Send(ev.ChannelID, "This person doesn't have a pet :(")
	}
	other.Decay(time.Now())
	return h.send.Send(ev.ChannelID, other.Render())
}

// release deletes the pet forever. A named pet must be released by
// repeating its name, to guard against accidents.
func (h *PetHandler) release(ctx context.Context, ev router.MessageEvent, p *pet.Pet, args []string) error {
	confirm := strings.Join(args, " ")
	if p.PetName != "" && confirm != p.PetName {
		return h.send.Send(ev.ChannelID, fmt.Sprintf(
			"❗ Are you sure you want to release %s? It will be gone forever. Do \"pet release %s\" to confirm.",
			p.PetName, p.PetName))
	}

	p.SetState(game.StateCancelled)
	h.reg.Remove(p)
	if err := h.snaps.Delete(p); err != nil {
		log.Error().Err(err).Int64("owner", p.OwnerID()).Msg("Failed to delete pet snapshot")
	}
	name := p.PetName
	if name == "" {
		name = p.Name()
	}
	return h.send.Send(ev.ChannelID, fmt.Sprintf("Goodbye %s!", name))
}

func (h *PetHandler) help(ctx context.Context, ev router.MessageEvent, p *pet.Pet, args []string) error {
	return h.send.Send(ev.ChannelID, strings.Join([]string{
		"Pet commands:",
		"pet - check on your pet, or adopt one",
		"pet feed - fill your pet's satiation",
		"pet play - fill your pet's happiness",
		"pet clean - fill your pet's hygiene",
		"pet pet - pet your pet",
		"pet name <name> - name your pet",
		"pet image <url> - give your pet an image",
		"pet user <id> - see another person's pet",
		"pet release - delete your pet forever",
	}, "\n"))
}
