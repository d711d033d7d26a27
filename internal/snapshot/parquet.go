package snapshot

import (
	"bytes"
	"fmt"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/dataagent/dataagent/internal/store"
)

type parquetCustomer struct {
	ID        int64  `parquet:"id"`
	Name      string `parquet:"name"`
	Email     string `parquet:"email"`
	City      string `parquet:"city"`
	CreatedAt int32  `parquet:"created_at,date"`
}

type parquetProduct struct {
	ID       int64   `parquet:"id"`
	Name     string  `parquet:"name"`
	Category string  `parquet:"category"`
	Price    float64 `parquet:"price"`
}

type parquetOrder struct {
	ID          int64   `parquet:"id"`
	CustomerID  int64   `parquet:"customer_id"`
	ProductID   int64   `parquet:"product_id"`
	Quantity    int64   `parquet:"quantity"`
	OrderDate   int32   `parquet:"order_date,date"`
	TotalAmount float64 `parquet:"total_amount"`
}

func encodeCustomers(customers []store.Customer) ([]byte, error) {
	rows := make([]parquetCustomer, 0, len(customers))
	for _, c := range customers {
		rows = append(rows, parquetCustomer{
			ID:        c.ID,
			Name:      c.Name,
			Email:     c.Email,
			City:      c.City,
			CreatedAt: epochDays(c.CreatedAt),
		})
	}
	return encodeRows(rows)
}

func encodeProducts(products []store.Product) ([]byte, error) {
	rows := make([]parquetProduct, 0, len(products))
	for _, p := range products {
		rows = append(rows, parquetProduct{ID: p.ID, Name: p.Name, Category: p.Category, Price: p.Price})
	}
	return encodeRows(rows)
}

func encodeOrders(orders []store.Order) ([]byte, error) {
	rows := make([]parquetOrder, 0, len(orders))
	for _, o := range orders {
		rows = append(rows, parquetOrder{
			ID:          o.ID,
			CustomerID:  o.CustomerID,
			ProductID:   o.ProductID,
			Quantity:    o.Quantity,
			OrderDate:   epochDays(o.OrderDate),
			TotalAmount: o.TotalAmount,
		})
	}
	return encodeRows(rows)
}

func encodeRows[T any](rows []T) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	writer := parquet.NewGenericWriter[T](buf)
	if len(rows) > 0 {
		if _, err := writer.Write(rows); err != nil {
			return nil, fmt.Errorf("write parquet rows: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close parquet writer: %w", err)
	}
	return buf.Bytes(), nil
}

func epochDays(d store.Date) int32 {
	if d.IsZero() {
		return 0
	}
	return int32(d.Unix() / int64(24*time.Hour/time.Second))
}
