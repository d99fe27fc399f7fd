// Package wmo maps WMO weather interpretation codes to display glyphs.
package wmo

// Unrecognized is returned for codes that are not in the icon table
const Unrecognized = "NOT FOUND"

// Condition is the display form of a group of weather codes
type Condition struct {
	Glyph       string
	Description string
}

type iconSet struct {
	codes []int
	Condition
}

// table lists disjoint code sets in lookup order
var table = []iconSet{
	{[]int{0}, Condition{"☀️", "Clear sky"}},
	{[]int{1}, Condition{"⛅️", "Mainly clear"}},
	{[]int{2}, Condition{"⛅️", "Partly cloudy"}},
	{[]int{3}, Condition{"☁️", "Overcast"}},
	{[]int{45, 48}, Condition{"😶‍🌫️", "Fog"}},
	{[]int{51, 56, 61, 66, 80}, Condition{"🌦️", "Light rain"}},
	{[]int{53, 55, 57, 63, 65, 67, 81, 82}, Condition{"🌧️", "Rain"}},
	{[]int{71, 73, 75, 77, 85, 86}, Condition{"🌨️", "Snow"}},
	{[]int{95}, Condition{"🌩️", "Thunderstorm"}},
	{[]int{96, 99}, Condition{"⛈️", "Thunderstorm with hail"}},
}

var byCode = index(table)

// index flattens the table; the first set containing a code wins
func index(sets []iconSet) map[int]Condition {
	m := make(map[int]Condition)
	for _, s := range sets {
		for _, code := range s.codes {
			if _, ok := m[code]; !ok {
				m[code] = s.Condition
			}
		}
	}
	return m
}

// Lookup returns the condition for code
func Lookup(code int) (Condition, bool) {
	c, ok := byCode[code]
	return c, ok
}

// Icon returns the glyph for code, or Unrecognized
func Icon(code int) string {
	if c, ok := byCode[code]; ok {
		return c.Glyph
	}
	return Unrecognized
}
