package model

// Report rows are synthesized per query and discarded after the response;
// they are never persisted.

// ReportCell holds one rendered stage column value. Cells are an explicit
// ordered mapping keyed by stage value, not dynamically named fields.
type ReportCell struct {
	Stage   string `json:"stage"`
	Display string `json:"display"`
}

// ReportRow is one row of a hierarchical report, identified by its ordered
// label path.
type ReportRow struct {
	ID         string       `json:"id"`
	Path       []string     `json:"path"`
	Date       string       `json:"date,omitempty"`
	CR         string       `json:"cr,omitempty"`
	ChatCount  string       `json:"chatCount,omitempty"`
	ChatTitle  string       `json:"chatTitle,omitempty"`
	ChatStatus string       `json:"chatStatus,omitempty"`
	ChatTags   string       `json:"chatTags,omitempty"`
	Percent    string       `json:"percent,omitempty"`
	Cells      []ReportCell `json:"cells,omitempty"`
}

type ReportColumn struct {
	Field      string `json:"field"`
	HeaderName string `json:"headerName"`
}

type Report struct {
	Rows    []ReportRow    `json:"rows"`
	Columns []ReportColumn `json:"columns"`
}
