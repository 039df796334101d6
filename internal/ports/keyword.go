package ports

import "time"

// Keyword is one row of a search-term export: the term itself, its popularity
// band and the marketplace's click/conversion figures for it.
type Keyword struct {
	ID             int    `json:"id"`
	Rank           int    `json:"rank"`
	Text           string `json:"keyword"`
	PopularityRaw  string `json:"popularity_raw"` // e.g. "8万 ~ 15万"
	PopularityMin  int64  `json:"popularity_min"`
	PopularityMax  int64  `json:"popularity_max"`
	ClickRate      string `json:"click_rate"`
	ConversionRate string `json:"conversion_rate"`
}

// Dataset is the active keyword table for a workspace.
type Dataset struct {
	Name       string    `json:"name"`   // source file name, or "sample"
	Source     string    `json:"source"` // one of the Source* constants
	ImportedAt time.Time `json:"imported_at"`
	Keywords   []Keyword `json:"keywords"`
}

// Where a dataset came from.
const (
	SourceSample = "sample"
	SourceUpload = "upload" // dashboard upload
	SourceFile   = "file"   // CLI import by path
	SourceInbox  = "inbox"
	SourceJob    = "job"
)

// Group classifies a candidate title on the recommendation board.
type Group string

const (
	GroupLifecycle Group = "lifecycle"
	GroupGoal      Group = "goal"
	GroupOther     Group = "other"
)

// TitleMetrics is the visual length check of a title.
type TitleMetrics struct {
	Length int  `json:"length"`
	Valid  bool `json:"valid"`
}

// TitleAnalysis is the coverage report for one title.
type TitleAnalysis struct {
	ID            string       `json:"id"`
	Title         string       `json:"title"`
	Tokens        []string     `json:"tokens"`
	Matched       []Keyword    `json:"matched_keywords"`
	PopularityMin int64        `json:"total_popularity_min"`
	PopularityMax int64        `json:"total_popularity_max"`
	Timestamp     int64        `json:"timestamp"` // unix millis
	Group         Group        `json:"group"`
	Tag           string       `json:"tag"`
	Metrics       TitleMetrics `json:"metrics"`
}
