package tasks

import "math/rand/v2"

var insults = []string{
	"absolute toaster",
	"knobhead",
	"utter idiot",
	"witless dishcloth",
	"muppet",
	"infantile pillock",
	"insufferable oaf",
	"blithering idiot",
}

// InsultSelector returns an index in [0, n).
type InsultSelector func(n int) int

// RandomInsult selects uniformly at random.
func RandomInsult(n int) int {
	return rand.IntN(n)
}

// Insult returns the phrase chosen by sel. A nil sel uses [RandomInsult].
// Out of range selections wrap around.
func Insult(sel InsultSelector) string {
	if sel == nil {
		sel = RandomInsult
	}
	i := sel(len(insults)) % len(insults)
	if i < 0 {
		i += len(insults)
	}
	return insults[i]
}
