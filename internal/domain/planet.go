package domain

// Planet identifies one of the nine classical bodies (navagraha).
type Planet string

// Planet constants.
const (
	Sun     Planet = "Sun"
	Moon    Planet = "Moon"
	Mars    Planet = "Mars"
	Mercury Planet = "Mercury"
	Jupiter Planet = "Jupiter"
	Venus   Planet = "Venus"
	Saturn  Planet = "Saturn"
	Rahu    Planet = "Rahu"
	Ketu    Planet = "Ketu"
)

// Planets lists all bodies in canonical chart order.
// Every slice of per-planet results produced by the engine follows this order.
var Planets = []Planet{Sun, Moon, Mars, Mercury, Jupiter, Venus, Saturn, Rahu, Ketu}

// Index returns the canonical position of p in Planets, or -1 if unknown.
func (p Planet) Index() int {
	for i, q := range Planets {
		if q == p {
			return i
		}
	}
	return -1
}

// Valid reports whether p is one of the nine bodies.
func (p Planet) Valid() bool {
	return p.Index() >= 0
}

// IsNode reports whether p is a lunar node.
func (p Planet) IsNode() bool {
	return p == Rahu || p == Ketu
}
