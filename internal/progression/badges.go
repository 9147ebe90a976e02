package progression

// Badge identifies an achievement kind
type Badge string

const (
	BadgeFirstStep            Badge = "first_step"
	BadgeSpeedReader          Badge = "speed_reader"
	BadgeBookworm             Badge = "bookworm"
	BadgeSuperReader          Badge = "super_reader"
	BadgeMaster               Badge = "master"
	BadgePracticeMaster       Badge = "practice_master"
	BadgeSpeedChampion        Badge = "speed_champion"
	BadgePerfectComprehension Badge = "perfect_comprehension"
)

// BadgeDefinition is the display data for a badge
type BadgeDefinition struct {
	Badge       Badge  `json:"type"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Color       string `json:"color"`
	// Disabled badges are listed but never awarded
	Disabled bool `json:"disabled,omitempty"`
}

// badgeCatalog is evaluated in this order
var badgeCatalog = []BadgeDefinition{
	{Badge: BadgeFirstStep, Name: "İlk Adım", Description: "İlk hikayeni okudun!", Icon: "🌟", Color: "gold"},
	{Badge: BadgeSpeedReader, Name: "Hızlı Okuyucu", Description: "5 hikaye okudun", Icon: "⚡", Color: "blue"},
	{Badge: BadgeBookworm, Name: "Kitap Kurdu", Description: "10 hikaye okudun", Icon: "📚", Color: "purple"},
	{Badge: BadgeSuperReader, Name: "Süper Okuyucu", Description: "25 hikaye okudun", Icon: "🦸", Color: "red"},
	{Badge: BadgeMaster, Name: "Ustalaşma", Description: "50 hikaye okudun", Icon: "👑", Color: "gold"},
	{Badge: BadgePracticeMaster, Name: "Pratik Ustası", Description: "10 pratik tamamladın", Icon: "🎯", Color: "green"},
	{Badge: BadgeSpeedChampion, Name: "Hız Şampiyonu", Description: "150+ kelime/dakika hıza ulaştın", Icon: "🏃", Color: "orange"},
	// no comprehension aggregate exists yet, so this badge cannot be earned
	{Badge: BadgePerfectComprehension, Name: "Mükemmel Anlama", Description: "Anlama puanında 9+ aldın", Icon: "🧠", Color: "pink", Disabled: true},
}

// Catalog returns every badge definition in evaluation order
func Catalog() []BadgeDefinition {
	out := make([]BadgeDefinition, len(badgeCatalog))
	copy(out, badgeCatalog)
	return out
}

// LookupBadge finds a definition by its stored type. Unknown types get a
// generic medal so old records still render.
func LookupBadge(badgeType string) (BadgeDefinition, bool) {
	for _, def := range badgeCatalog {
		if string(def.Badge) == badgeType {
			return def, true
		}
	}
	return BadgeDefinition{Badge: Badge(badgeType), Name: badgeType, Icon: "🏅", Color: "gray"}, false
}

// BadgeStats are the aggregates badge criteria read
type BadgeStats struct {
	Stories   int
	Practices int
	AvgSpeed  float64
}

// Qualifies evaluates the badge's criterion against stats.
func (b Badge) Qualifies(s BadgeStats) bool {
	switch b {
	case BadgeFirstStep:
		return s.Stories >= 1
	case BadgeSpeedReader:
		return s.Stories >= 5
	case BadgeBookworm:
		return s.Stories >= 10
	case BadgeSuperReader:
		return s.Stories >= 25
	case BadgeMaster:
		return s.Stories >= 50
	case BadgePracticeMaster:
		return s.Practices >= 10
	case BadgeSpeedChampion:
		return s.AvgSpeed >= 150
	case BadgePerfectComprehension:
		return false
	default:
		return false
	}
}
