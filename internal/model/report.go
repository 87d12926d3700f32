package model

// Report is the document written for one non-empty period bucket.
//
// Daily reports carry Date; weekly reports carry StartDate and EndDate and,
// when entity tallying is enabled, WeeklyEntityData.
type Report struct {
	StartDate         string              `json:"startDate,omitempty"`
	EndDate           string              `json:"endDate,omitempty"`
	Date              string              `json:"date,omitempty"`
	TotalNews         int                 `json:"totalNews"`
	TotalPublishers   int                 `json:"totalPublishers"`
	TotalEvents       int                 `json:"totalEvents"`
	DistributionChart []DistributionEntry `json:"distributionChart"`
	GeoMapChart       []GeoEntry          `json:"geoMapChart"`
	WeeklyEntityData  []EntityDay         `json:"weeklyEntityData,omitempty"`
}

// DistributionEntry is one ranked story in the "most covered" chart.
type DistributionEntry struct {
	Title        string `json:"title"`
	ArticleCount int    `json:"articleCount"`
	Percentage   string `json:"percentage"`
	DateTimePub  string `json:"dateTimePub"`
	URL          string `json:"url"`
}

// GeoEntry is the accumulated coverage of one country. Daily reports use
// Code (upper case), weekly reports use CountryCode (lower case).
type GeoEntry struct {
	Country      string `json:"country"`
	Code         string `json:"code,omitempty"`
	CountryCode  string `json:"countryCode,omitempty"`
	ArticleCount int    `json:"articleCount"`
}

// EntityDay holds the top named entities for one weekday (Monday=1..Sunday=7).
type EntityDay struct {
	Day  int           `json:"day"`
	Data []EntityCount `json:"data"`
}

// EntityCount is the number of articles on a given day that mention an entity.
type EntityCount struct {
	Title string `json:"title"`
	Count int    `json:"count"`
}
