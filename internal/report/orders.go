package report

import (
	"context"
	"fmt"
	"strings"
	"time"

	"orderdesk/internal/models"
	"orderdesk/internal/order"
)

// OrderColumns is the header of the orders sheet.
var OrderColumns = []string{
	"ID", "Reference", "Customer", "Reserved for", "Created at", "Accepted at",
	"Status", "Products", "Total", "Comment",
}

// MonthRange returns [first day of month, first day of next month) in loc.
func MonthRange(month string, loc *time.Location) (time.Time, time.Time, error) {
	start, err := time.ParseInLocation("2006-01", month, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("month %q: expected YYYY-MM", month)
	}
	return start, start.AddDate(0, 1, 0), nil
}

// Filename creates a filename like "trattoria_2026-01_orders.xlsx".
func Filename(r *models.Restaurant, month string) string {
	slug := strings.Map(func(c rune) rune {
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9':
			return c
		case c >= 'A' && c <= 'Z':
			return c + ('a' - 'A')
		default:
			return '_'
		}
	}, r.Name)
	return fmt.Sprintf("%s_%s_orders.xlsx", strings.Trim(slug, "_"), month)
}

// WriteOrders renders orders on one sheet named after the month. Times are shown in loc.
func WriteOrders(w ExcelWriter, month string, orders []*models.Order, loc *time.Location) error {
	if err := w.AddSheet(month); err != nil {
		return err
	}
	if err := w.WriteHeader(OrderColumns); err != nil {
		return err
	}

	var total int64
	for _, o := range orders {
		status := ""
		if cur, ok := order.CurrentStatus(o); ok {
			status = cur.State.String()
		}
		accepted := ""
		if o.AcceptedAt != nil {
			accepted = o.AcceptedAt.In(loc).Format("2006-01-02 15:04")
		}
		names := make([]string, len(o.Products))
		for i, p := range o.Products {
			names[i] = p.Name
		}
		row := []any{
			o.ID, o.Reference, o.CustomerID,
			o.ReservedFor.In(loc).Format("2006-01-02 15:04"),
			o.CreatedAt.In(loc).Format("2006-01-02 15:04"),
			accepted, status, strings.Join(names, ", "),
			FormatCents(o.TotalPriceCents), o.CustomerComment,
		}
		if err := w.WriteRow(row); err != nil {
			return fmt.Errorf("write order %d: %w", o.ID, err)
		}
		total += o.TotalPriceCents
	}
	return w.WriteRow([]any{"", "", "", "", "", "", "", "Total", FormatCents(total), ""})
}

// FormatCents renders minor units as a decimal amount.
func FormatCents(c int64) string {
	sign := ""
	if c < 0 {
		sign, c = "-", -c
	}
	return fmt.Sprintf("%s%d.%02d", sign, c/100, c%100)
}

// TableExporter provides access to database tables for export.
type TableExporter interface {
	TableNames(ctx context.Context) ([]string, error)
	TableData(ctx context.Context, table string) ([]map[string]any, []string, error)
}

// WriteTables dumps every exported table onto its own sheet.
func WriteTables(ctx context.Context, w ExcelWriter, exporter TableExporter) error {
	tables, err := exporter.TableNames(ctx)
	if err != nil {
		return fmt.Errorf("list tables: %w", err)
	}
	for _, table := range tables {
		rows, columns, err := exporter.TableData(ctx, table)
		if err != nil {
			return fmt.Errorf("read table %s: %w", table, err)
		}
		if err := w.AddSheet(table); err != nil {
			return err
		}
		if err := w.WriteHeader(columns); err != nil {
			return err
		}
		for _, row := range rows {
			values := make([]any, len(columns))
			for i, col := range columns {
				values[i] = cellValue(row[col])
			}
			if err := w.WriteRow(values); err != nil {
				return err
			}
		}
	}
	return nil
}

func cellValue(v any) any {
	switch t := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(t)
	case time.Time:
		return t.Format(time.RFC3339)
	default:
		return t
	}
}
