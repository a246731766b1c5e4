package entity

import (
	"time"

	"github.com/uptrace/bun"
)

// OrderReport is one aggregated row per (report date, order). Rows are
// upserted, never appended, so re-running a day converges to the same values.
type OrderReport struct {
	bun.BaseModel `bun:"table:order_reports"`

	ReportAt     time.Time `bun:"report_at,pk"`
	OrderID      int64     `bun:"order_id,pk"`
	CountProduct int64     `bun:"count_product"`
}
