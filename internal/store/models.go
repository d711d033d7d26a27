package store

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"
)

// DateLayout is how DATE columns are written.
const DateLayout = "2006-01-02"

type Customer struct {
	ID        int64  `db:"id"`
	Name      string `db:"name"`
	Email     string `db:"email"`
	City      string `db:"city"`
	CreatedAt Date   `db:"created_at"`
}

type Product struct {
	ID       int64   `db:"id"`
	Name     string  `db:"name"`
	Category string  `db:"category"`
	Price    float64 `db:"price"`
}

type Order struct {
	ID          int64   `db:"id"`
	CustomerID  int64   `db:"customer_id"`
	ProductID   int64   `db:"product_id"`
	Quantity    int64   `db:"quantity"`
	OrderDate   Date    `db:"order_date"`
	TotalAmount float64 `db:"total_amount"`
}

// Date is a calendar day. SQLite hands DATE columns back either as time.Time
// or as text depending on how they were written, so Scan accepts both.
type Date struct {
	time.Time
}

func NewDate(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

func (d Date) Value() (driver.Value, error) {
	return d.Format(DateLayout), nil
}

func (d *Date) Scan(src any) error {
	switch value := src.(type) {
	case nil:
		d.Time = time.Time{}
		return nil
	case time.Time:
		*d = NewDate(value)
		return nil
	case string:
		return d.parse(value)
	case []byte:
		return d.parse(string(value))
	default:
		return fmt.Errorf("cannot scan %T into Date", src)
	}
}

func (d *Date) parse(value string) error {
	value = strings.TrimSpace(value)
	if len(value) >= len(DateLayout) {
		value = value[:len(DateLayout)]
	}
	parsed, err := time.Parse(DateLayout, value)
	if err != nil {
		return fmt.Errorf("parse date %q: %w", value, err)
	}
	d.Time = parsed
	return nil
}
