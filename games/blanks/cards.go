package blanks

import (
	"math/rand/v2"
	"strings"
)

// BlackCard is a prompt with one or more blanks to fill.
type BlackCard struct {
	Text   string `json:"text"`
	Blanks int    `json:"blanks"`
}

// WhiteCard is a single answer card.
type WhiteCard string

// Deck supplies cards to a room. Implementations own shuffling and
// discard-pile recycling.
type Deck interface {
	DrawBlack() BlackCard
	DrawWhite(n int) []WhiteCard
	Discard(cards []WhiteCard)
}

// shuffledDeck deals from shuffled draw piles without repeats and recycles
// the discard pile when the white pile runs dry.
type shuffledDeck struct {
	blackDraw []BlackCard
	blackUsed []BlackCard
	whiteDraw []WhiteCard
	discard   []WhiteCard
}

// NewDeck builds a deck from the built-in card set.
func NewDeck() Deck {
	return newDeckFrom(defaultBlackCards(), defaultWhiteCards())
}

func newDeckFrom(black []BlackCard, white []WhiteCard) *shuffledDeck {
	d := &shuffledDeck{
		blackDraw: append([]BlackCard(nil), black...),
		whiteDraw: append([]WhiteCard(nil), white...),
	}
	rand.Shuffle(len(d.blackDraw), func(i, j int) {
		d.blackDraw[i], d.blackDraw[j] = d.blackDraw[j], d.blackDraw[i]
	})
	rand.Shuffle(len(d.whiteDraw), func(i, j int) {
		d.whiteDraw[i], d.whiteDraw[j] = d.whiteDraw[j], d.whiteDraw[i]
	})
	return d
}

func (d *shuffledDeck) DrawBlack() BlackCard {
	if len(d.blackDraw) == 0 {
		d.blackDraw, d.blackUsed = d.blackUsed, nil
		rand.Shuffle(len(d.blackDraw), func(i, j int) {
			d.blackDraw[i], d.blackDraw[j] = d.blackDraw[j], d.blackDraw[i]
		})
	}
	card := d.blackDraw[len(d.blackDraw)-1]
	d.blackDraw = d.blackDraw[:len(d.blackDraw)-1]
	d.blackUsed = append(d.blackUsed, card)
	return card
}

func (d *shuffledDeck) DrawWhite(n int) []WhiteCard {
	out := make([]WhiteCard, 0, n)
	for len(out) < n {
		if len(d.whiteDraw) == 0 {
			if len(d.discard) == 0 {
				break
			}
			d.whiteDraw, d.discard = d.discard, nil
			rand.Shuffle(len(d.whiteDraw), func(i, j int) {
				d.whiteDraw[i], d.whiteDraw[j] = d.whiteDraw[j], d.whiteDraw[i]
			})
		}
		out = append(out, d.whiteDraw[len(d.whiteDraw)-1])
		d.whiteDraw = d.whiteDraw[:len(d.whiteDraw)-1]
	}
	return out
}

func (d *shuffledDeck) Discard(cards []WhiteCard) {
	d.discard = append(d.discard, cards...)
}

// blackCard counts "____" runs in the prompt text; prompts without an
// explicit blank take a single answer appended after them.
func blackCard(text string) BlackCard {
	blanks := strings.Count(text, "____")
	if blanks == 0 {
		blanks = 1
	}
	return BlackCard{Text: text, Blanks: blanks}
}

func defaultBlackCards() []BlackCard {
	prompts := []string{
		"Why can't I sleep at night?",
		"I got 99 problems but ____ ain't one.",
		"What's a girl's best friend?",
		"What's that smell?",
		"This is the way the world ends. Not with a bang but with ____.",
		"What never fails to liven up the party?",
		"What's the next superhero?",
		"____. That's how I want to be remembered.",
		"What did I bring back from my trip abroad?",
		"____ + ____ = world peace.",
		"Instead of coal, Santa now gives the bad children ____.",
		"Life's pretty tough in the fast lane. That's why I never leave home without ____.",
		"What's my secret power?",
		"____: good to the last drop.",
		"What will always get you blacklisted from the library?",
		"When I am president, I will create the Department of ____.",
		"What's the most emo thing in the world?",
		"In a world ravaged by ____, our only solace is ____.",
		"What gets better with age?",
		"What would grandma find disturbing, yet oddly charming?",
		"The class field trip was completely ruined by ____.",
		"What's there a ton of in heaven?",
		"What do old people smell like?",
		"What am I giving up for my new year's resolution?",
	}
	out := make([]BlackCard, 0, len(prompts))
	for _, p := range prompts {
		out = append(out, blackCard(p))
	}
	return out
}

func defaultWhiteCards() []WhiteCard {
	answers := []string{
		"A lifetime of sadness.",
		"Silence.",
		"An honest cop with nothing left to lose.",
		"The inevitable heat death of the universe.",
		"A windmill full of corpses.",
		"Dying of dysentery.",
		"Inner peace.",
		"A really cool hat.",
		"The economy.",
		"Passive-aggressive post-it notes.",
		"Seventy-two virgins.",
		"Grandma's secret recipe.",
		"A tiny horse.",
		"Self-loathing.",
		"An army of skeletons.",
		"The screams of the damned.",
		"A sad handshake.",
		"Free samples.",
		"The entire internet.",
		"A disappointing birthday party.",
		"Spontaneous human combustion.",
		"A lonely robot.",
		"Puppies!",
		"Existential dread.",
		"My browser history.",
		"An unstoppable wave of jazz.",
		"The tears of my enemies.",
		"A firm handshake and direct eye contact.",
		"Accidentally sending the email to everyone.",
		"A haunted vending machine.",
		"Forty-five minutes of hold music.",
		"The last slice of pizza.",
		"An expired coupon.",
		"Interpretive dance.",
		"A suspiciously cheap buffet.",
		"Doing the right thing.",
		"A parallel universe where everything is slightly worse.",
		"Heroic levels of caffeine.",
		"The void.",
		"One more meeting that could have been an email.",
		"A motivational poster of a cat.",
		"Unlimited breadsticks.",
		"A decorative gourd.",
		"The wrong kind of mushrooms.",
		"A knight in slightly dented armor.",
		"My retirement plan.",
		"Glitter. Glitter everywhere.",
		"A very convincing mustache.",
		"The printer that smells fear.",
		"An apology written in comic sans.",
		"Soup that is too hot to eat and too good to wait for.",
		"A pigeon with a grudge.",
		"The group project where I did everything.",
		"Twelve angry geese.",
		"A deeply personal question at the dinner table.",
		"Socks with sandals.",
		"The fourth wall.",
		"An ancient curse with modern paperwork.",
		"A trampoline accident.",
		"Mandatory fun.",
	}
	out := make([]WhiteCard, 0, len(answers))
	for _, a := range answers {
		out = append(out, WhiteCard(a))
	}
	return out
}
