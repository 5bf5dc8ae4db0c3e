package anachronism

// AlwaysPlausible marks a threshold old enough that the term is never flagged.
const AlwaysPlausible = -1000

// Threshold is the earliest plausible year (CE, negative for BCE) a term
// could appear in a scene.
type Threshold struct {
	Keyword string
	Year    int
}

// thresholds is checked in declaration order so fallback suggestions come
// out in a stable order.
var thresholds = []Threshold{
	{"airplane", 1903},
	{"radio", 1895},
	{"tank", 1915},
	{"rifle", 1600},
	{"pistol", 1500},
	{"musket", 1500},
	{"machine gun", 1880},
	{"telephone", 1876},
	{"gun", 1300},
	{"cannon", 1300},
	{"clock", 1300}, // mechanical clocks
	{"zipper", 1893},
	{"jeans", 1870},
	{"denim", 1700},
	{"steam engine", 1712},
	{"photograph", 1826},
	{"compass", 1100},
	{"paper money", 800},
	{"plate armor", 1300},
	{"full plate", 1400},
	{"chainmail", AlwaysPlausible},
	{"steel sword", AlwaysPlausible},
}

var alternatives = map[string]string{
	"pistol":     "describe a hand cannon or early arquebus, or avoid explicit firearm terminology",
	"musket":     "describe an arquebus or hand-cannon depending on century, or avoid firearms",
	"rifle":      "use matchlock/arquebus-like wording appropriate for the period",
	"airplane":   "replace with birds, balloons, or omit",
	"radio":      "describe messengers, signal fires, or early semaphore/telegraph (19thC+)",
	"tank":       "describe siege engines or armored war wagons depending on period",
	"jeans":      "use coarse woolen or linen trousers appropriate to the era",
	"zipper":     "use buttons, laces, or toggles",
	"photograph": "replace with painted portraits or descriptions of artists",
}

// Weapon and clothing words worth a search even though they have no threshold.
var extraKeywords = []string{"sword", "shield", "armor", "helmet", "tunic", "cloak", "jeans", "boots"}

// Capitalised sentence openers that are not proper nouns. Compared lowercased.
var stopWords = map[string]struct{}{
	"this":   {},
	"the":    {},
	"it":     {},
	"long":   {},
	"within": {},
	"you":    {},
	"having": {},
	"return": {},
	"ensure": {},
}

// Thresholds returns a copy of the lexicon in check order.
func Thresholds() []Threshold {
	return append([]Threshold(nil), thresholds...)
}

// Alternative returns the configured rewording for keyword, if any.
func Alternative(keyword string) (string, bool) {
	alt, ok := alternatives[keyword]
	return alt, ok
}
