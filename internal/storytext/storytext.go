// Package storytext synthesizes bedtime story pages. Output is a pure
// function of the hero and page position so regeneration always produces
// identical text.
package storytext

import (
	"fmt"

	"app/internal/model"
)

// Input describes the hero and story shape a page is written for.
type Input struct {
	HeroName string
	AgeBand  string
	Route    string
}

// routeMoods flavor each narrative route.
var routeMoods = map[string]struct {
	setting string
	feeling string
	guide   string
}{
	model.RouteA: {"a moonlit forest", "curious", "a gentle silver owl"},
	model.RouteB: {"a sleepy seaside town", "brave", "a humming lighthouse keeper"},
	model.RouteC: {"a cloud castle in the evening sky", "kind", "a soft-spoken star"},
}

// beats are the middle-of-story events, cycled by page index.
var beats = []string{
	"found a tiny door no taller than a teacup",
	"followed a trail of glowing footprints",
	"shared a snack with a shy hedgehog",
	"crossed a bridge made of woven moonbeams",
	"listened to a lullaby drifting on the wind",
	"helped a lost firefly find its lantern light",
	"discovered a garden where flowers whispered goodnight",
	"floated gently down a stream of starlight",
	"wrapped a sleepy dragon in a warm blanket",
	"counted the lanterns hanging from the old oak tree",
}

// Page returns the text for one story page. The closing sentence is
// sleep-themed only on the final page; earlier pages close with a
// transition into the next page.
func Page(in Input, pageNumber, totalPages int) string {
	mood, ok := routeMoods[in.Route]
	if !ok {
		mood = routeMoods[model.RouteA]
	}
	name := in.HeroName
	if name == "" {
		name = "our hero"
	}

	var body string
	switch {
	case pageNumber <= 1:
		body = fmt.Sprintf("Once upon a time, %s set off into %s. %s felt %s tonight, and %s came along to light the way.",
			name, mood.setting, name, mood.feeling, mood.guide)
	case pageNumber == totalPages:
		body = fmt.Sprintf("At last, %s reached the softest, quietest corner of %s. %s thanked %s for the wonderful journey.",
			name, mood.setting, name, mood.guide)
	default:
		beat := beats[(pageNumber-2)%len(beats)]
		body = fmt.Sprintf("On the way, %s %s. %s smiled, feeling more %s with every step.",
			name, beat, name, mood.feeling)
	}

	// Younger listeners get one short extra sentence of reassurance.
	if in.AgeBand == model.AgeBandToddler || in.AgeBand == model.AgeBandPreschool {
		body += fmt.Sprintf(" Everything was calm and safe for %s.", name)
	}

	if pageNumber == totalPages {
		body += fmt.Sprintf(" Then %s closed sleepy eyes, snuggled in, and drifted off into the sweetest of dreams. Goodnight, %s.", name, name)
	} else {
		body += " And the adventure went quietly on."
	}
	return body
}
