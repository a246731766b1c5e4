package dto

// OrderReportItem is one aggregated report row.
type OrderReportItem struct {
	ReportAt     string `json:"report_at"`
	OrderID      int64  `json:"order_id"`
	CountProduct int64  `json:"count_product"`
}

// OrderReportResponse is the report payload for one date.
type OrderReportResponse struct {
	ReportAt string            `json:"report_at"`
	Total    int               `json:"total"`
	Items    []OrderReportItem `json:"items"`
}
