package domain

// Source is a configured origin of articles for one language/country/category.
type Source struct {
	ID                   string
	Name                 string
	Language             string
	Country              string
	Region               string
	Category             string
	FeedURL              string
	Fetcher              string
	Priority             int
	QualityScore         float64
	Active               bool
	CrawlIntervalMinutes int
}
