package store

import (
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestGeneratorDeterministicForSeed(t *testing.T) {
	fixedNow := time.Date(2026, 10, 17, 9, 30, 0, 0, time.UTC)

	g1 := NewGenerator(42)
	g2 := NewGenerator(42)
	g1.now = func() time.Time { return fixedNow }
	g2.now = func() time.Time { return fixedNow }

	for i := int64(1); i <= 5; i++ {
		if c1, c2 := g1.Customer(i), g2.Customer(i); !reflect.DeepEqual(c1, c2) {
			t.Fatalf("customer %d differs: %#v vs %#v", i, c1, c2)
		}
		if p1, p2 := g1.Product(i), g2.Product(i); !reflect.DeepEqual(p1, p2) {
			t.Fatalf("product %d differs: %#v vs %#v", i, p1, p2)
		}
	}
}

func TestGeneratorRowsStayInRange(t *testing.T) {
	fixedNow := time.Date(2026, 10, 17, 23, 59, 0, 0, time.UTC)
	g := NewGenerator(7)
	g.now = func() time.Time { return fixedNow }
	today := NewDate(fixedNow)

	customers := []Customer{g.Customer(1), g.Customer(2), g.Customer(3)}
	for _, c := range customers {
		if c.CreatedAt.After(today.Time) || c.CreatedAt.Before(today.AddDate(0, 0, -3*365)) {
			t.Fatalf("customer created_at %s out of range", c.CreatedAt)
		}
		if !strings.Contains(c.Email, "@") || strings.ContainsAny(c.Email, "éèêëàâîïôöûüçÉ ") {
			t.Fatalf("email = %q", c.Email)
		}
	}

	products := make([]Product, 0, 50)
	for i := int64(1); i <= 50; i++ {
		p := g.Product(i)
		if p.Price < 10 || p.Price > 1000 {
			t.Fatalf("price = %v", p.Price)
		}
		if _, ok := productNames[p.Category]; !ok {
			t.Fatalf("category = %q", p.Category)
		}
		products = append(products, p)
	}

	prices := map[int64]float64{}
	for _, p := range products {
		prices[p.ID] = p.Price
	}
	for i := int64(1); i <= 200; i++ {
		o := g.Order(i, customers, products)
		if o.Quantity < 1 || o.Quantity > 5 {
			t.Fatalf("quantity = %d", o.Quantity)
		}
		if o.OrderDate.After(today.Time) || o.OrderDate.Before(today.AddDate(0, 0, -365)) {
			t.Fatalf("order_date %s out of range", o.OrderDate)
		}
		if want := round2(prices[o.ProductID] * float64(o.Quantity)); o.TotalAmount != want {
			t.Fatalf("total_amount = %v, want %v", o.TotalAmount, want)
		}
		if o.CustomerID < 1 || o.CustomerID > 3 {
			t.Fatalf("customer_id = %d", o.CustomerID)
		}
	}
}

func TestEmailLocalPartStripsAccents(t *testing.T) {
	if got := emailLocalPart("Élise"); got != "elise" {
		t.Fatalf("emailLocalPart() = %q", got)
	}
	if got := emailLocalPart("Saint-Étienne"); got != "saintetienne" {
		t.Fatalf("emailLocalPart() = %q", got)
	}
}

func TestDateScan(t *testing.T) {
	var d Date
	for _, src := range []any{
		"2026-03-01",
		[]byte("2026-03-01 00:00:00+00:00"),
		time.Date(2026, 3, 1, 15, 0, 0, 0, time.UTC),
	} {
		if err := d.Scan(src); err != nil {
			t.Fatalf("Scan(%v) error = %v", src, err)
		}
		if d.String() != "2026-03-01" {
			t.Fatalf("Scan(%v) = %s", src, d)
		}
	}
	if err := d.Scan(42); err == nil {
		t.Fatal("Scan(int) expected error")
	}
	value, err := NewDate(time.Date(2025, 12, 31, 8, 0, 0, 0, time.UTC)).Value()
	if err != nil || value != "2025-12-31" {
		t.Fatalf("Value() = %v, %v", value, err)
	}
}
