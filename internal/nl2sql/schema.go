package nl2sql

import (
	"fmt"
	"strings"
)

type Column struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type TableContext struct {
	TableName string   `json:"table_name"`
	Columns   []Column `json:"columns"`
}

// Schema is the read-only description of the tables questions may touch.
type Schema struct {
	Tables []TableContext `json:"tables"`
}

var shopSchema = Schema{Tables: []TableContext{
	{
		TableName: "customers",
		Columns: []Column{
			{Name: "id", Type: "INTEGER"},
			{Name: "name", Type: "TEXT"},
			{Name: "email", Type: "TEXT"},
			{Name: "city", Type: "TEXT"},
			{Name: "created_at", Type: "DATETIME"},
		},
	},
	{
		TableName: "products",
		Columns: []Column{
			{Name: "id", Type: "INTEGER"},
			{Name: "name", Type: "TEXT"},
			{Name: "category", Type: "TEXT"},
			{Name: "price", Type: "REAL"},
		},
	},
	{
		TableName: "orders",
		Columns: []Column{
			{Name: "id", Type: "INTEGER"},
			{Name: "customer_id", Type: "INTEGER"},
			{Name: "product_id", Type: "INTEGER"},
			{Name: "quantity", Type: "INTEGER"},
			{Name: "order_date", Type: "DATETIME"},
			{Name: "total_amount", Type: "REAL"},
		},
	},
}}

// ShopSchema returns the customers, products and orders tables.
func ShopSchema() Schema {
	tables := make([]TableContext, 0, len(shopSchema.Tables))
	for _, table := range shopSchema.Tables {
		columns := append([]Column(nil), table.Columns...)
		tables = append(tables, TableContext{TableName: table.TableName, Columns: columns})
	}
	return Schema{Tables: tables}
}

func (s Schema) TableNames() []string {
	names := make([]string, 0, len(s.Tables))
	for _, table := range s.Tables {
		names = append(names, table.TableName)
	}
	return names
}

// Describe renders the tables as DDL-like blocks for prompts.
func (s Schema) Describe() string {
	var b strings.Builder
	for i, table := range s.Tables {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "Table %s (\n", table.TableName)
		for j, column := range table.Columns {
			sep := ","
			if j == len(table.Columns)-1 {
				sep = ""
			}
			fmt.Fprintf(&b, "    %s %s%s\n", column.Name, column.Type, sep)
		}
		b.WriteString(")\n")
	}
	return b.String()
}
