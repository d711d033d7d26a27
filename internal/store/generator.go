package store

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	firstNames = []string{
		"Camille", "Louis", "Léa", "Hugo", "Chloé", "Lucas", "Manon", "Jules", "Inès", "Gabriel",
		"Zoé", "Arthur", "Élise", "Raphaël", "Juliette", "Théo", "Clémence", "Nathan", "Océane", "Mathis",
		"Margaux", "Antoine", "Anaïs", "Maxime", "Céline", "Étienne", "Sophie", "Benoît", "Hélène", "François",
	}
	lastNames = []string{
		"Martin", "Bernard", "Dubois", "Thomas", "Robert", "Richard", "Petit", "Durand", "Leroy", "Moreau",
		"Simon", "Laurent", "Lefèvre", "Michel", "Garcia", "David", "Bertrand", "Roux", "Vincent", "Fournier",
		"Morel", "Girard", "André", "Mercier", "Dupont", "Lambert", "Bonnet", "François", "Martinez", "Légaré",
	}
	cities = []string{
		"Paris", "Lyon", "Marseille", "Toulouse", "Nice", "Nantes", "Strasbourg", "Montpellier",
		"Bordeaux", "Lille", "Rennes", "Reims", "Saint-Étienne", "Le Havre", "Grenoble", "Dijon",
		"Angers", "Nîmes", "Clermont-Ferrand", "Brest",
	}
	emailDomains = []string{"example.fr", "exemple.com", "courriel.fr", "mail.fr"}

	// Categories are the product families used by the demo catalogue.
	Categories = []string{"Électronique", "Vêtements", "Maison", "Sport", "Livres"}

	productNames = map[string][]string{
		"Électronique": {"Casque", "Enceinte", "Tablette", "Clavier", "Souris", "Chargeur", "Écran", "Montre"},
		"Vêtements":    {"Veste", "Pull", "Chemise", "Jean", "Écharpe", "Manteau", "Robe", "Baskets"},
		"Maison":       {"Lampe", "Coussin", "Tapis", "Vase", "Bougie", "Horloge", "Plaid", "Miroir"},
		"Sport":        {"Ballon", "Raquette", "Gourde", "Tapis de yoga", "Haltères", "Vélo", "Sac de sport", "Casquette"},
		"Livres":       {"Roman", "Essai", "Bande dessinée", "Recueil", "Atlas", "Dictionnaire", "Biographie", "Guide"},
	}
	productSuffixes = []string{"Classique", "Premium", "Éco", "Pro", "Mini", "Confort", "Édition limitée", "Essentiel"}
)

// Generator produces reproducible demo rows for a given seed and clock.
type Generator struct {
	rnd *rand.Rand
	now func() time.Time
}

func NewGenerator(seed int64) *Generator {
	return &Generator{
		rnd: rand.New(rand.NewSource(seed)),
		now: func() time.Time { return time.Now().UTC() },
	}
}

func (g *Generator) Customer(id int64) Customer {
	first := pickOne(g.rnd, firstNames)
	last := pickOne(g.rnd, lastNames)
	return Customer{
		ID:        id,
		Name:      first + " " + last,
		Email:     fmt.Sprintf("%s.%s%d@%s", emailLocalPart(first), emailLocalPart(last), id, pickOne(g.rnd, emailDomains)),
		City:      pickOne(g.rnd, cities),
		CreatedAt: g.dateWithin(3 * 365),
	}
}

func (g *Generator) Product(id int64) Product {
	category := pickOne(g.rnd, Categories)
	return Product{
		ID:       id,
		Name:     pickOne(g.rnd, productNames[category]) + " " + pickOne(g.rnd, productSuffixes),
		Category: category,
		Price:    round2(10 + g.rnd.Float64()*990),
	}
}

// Order picks a random customer and product. Both slices must be non-empty.
func (g *Generator) Order(id int64, customers []Customer, products []Product) Order {
	customer := customers[g.rnd.Intn(len(customers))]
	product := products[g.rnd.Intn(len(products))]
	quantity := int64(g.rnd.Intn(5) + 1)
	return Order{
		ID:          id,
		CustomerID:  customer.ID,
		ProductID:   product.ID,
		Quantity:    quantity,
		OrderDate:   g.dateWithin(365),
		TotalAmount: round2(product.Price * float64(quantity)),
	}
}

// dateWithin returns a day between today minus days and today, inclusive.
func (g *Generator) dateWithin(days int) Date {
	today := NewDate(g.now())
	return Date{Time: today.AddDate(0, 0, -g.rnd.Intn(days+1))}
}

func emailLocalPart(value string) string {
	stripped, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), value)
	if err != nil {
		stripped = value
	}
	stripped = strings.ToLower(stripped)
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			return r
		}
		return -1
	}, stripped)
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}

func pickOne(r *rand.Rand, values []string) string {
	return values[r.Intn(len(values))]
}
