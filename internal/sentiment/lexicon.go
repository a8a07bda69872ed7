package sentiment

// lexicon maps sentiment-bearing words to a valence in [-1, 1].
// Small on purpose: this is a lexical baseline, not a model. Weights are
// coarse bands (strong 1.0/0.9, moderate 0.6/0.7, mild 0.3/0.4).
var lexicon = map[string]float64{
	// strong negative
	"hopeless":    -1.0,
	"devastated":  -1.0,
	"suicidal":    -1.0,
	"worthless":   -1.0,
	"unbearable":  -1.0,
	"despair":     -0.9,
	"terrified":   -0.9,
	"miserable":   -0.9,
	"heartbroken": -0.9,
	"panic":       -0.9,
	"terrible":    -0.8,
	"awful":       -0.8,
	"horrible":    -0.8,
	"depressed":   -0.8,
	"crushed":     -0.8,
	"ashamed":     -0.7,
	"hate":        -0.7,
	"hated":       -0.7,
	"furious":     -0.7,
	"grief":       -0.7,
	"trapped":     -0.7,
	"broken":      -0.7,
	"overwhelmed": -0.6,
	"exhausted":   -0.6,
	"anxious":     -0.6,
	"scared":      -0.6,
	"afraid":      -0.6,
	"angry":       -0.6,
	"lonely":      -0.6,
	"alone":       -0.5,
	"guilty":      -0.5,
	"hurt":        -0.5,
	"crying":      -0.5,
	"cried":       -0.5,
	"failure":     -0.5,
	"failed":      -0.5,
	"lost":        -0.4,
	"sad":         -0.4,
	"down":        -0.4,
	"upset":       -0.4,
	"stressed":    -0.4,
	"worried":     -0.4,
	"tired":       -0.3,
	"frustrated":  -0.3,
	"annoyed":     -0.3,
	"nervous":     -0.3,
	"confused":    -0.2,
	"uneasy":      -0.2,
	"meh":         -0.1,

	// mild-to-strong positive
	"okay":        0.1,
	"fine":        0.1,
	"alright":     0.1,
	"calm":        0.3,
	"calmer":      0.3,
	"steady":      0.3,
	"hopeful":     0.4,
	"better":      0.4,
	"relieved":    0.4,
	"comfortable": 0.4,
	"good":        0.5,
	"nice":        0.5,
	"pleased":     0.5,
	"content":     0.5,
	"proud":       0.6,
	"confident":   0.6,
	"motivated":   0.6,
	"grateful":    0.7,
	"happy":       0.7,
	"excited":     0.7,
	"loved":       0.7,
	"love":        0.7,
	"great":       0.8,
	"wonderful":   0.8,
	"joyful":      0.8,
	"delighted":   0.8,
	"amazing":     0.9,
	"fantastic":   0.9,
	"thrilled":    0.9,
	"overjoyed":   1.0,
	"ecstatic":    1.0,
	"elated":      1.0,
}

// negators flip the valence of the word that follows them.
var negators = map[string]bool{
	"not":      true,
	"no":       true,
	"never":    true,
	"hardly":   true,
	"barely":   true,
	"isn't":    true,
	"wasn't":   true,
	"aren't":   true,
	"don't":    true,
	"didn't":   true,
	"doesn't":  true,
	"can't":    true,
	"cannot":   true,
	"couldn't": true,
	"won't":    true,
	"wouldn't": true,
	"nothing":  true,
}
