package model

// Event is a cluster of related stories about one real-world occurrence.
type Event struct {
	URI     string  `json:"uri"`
	Stories []Story `json:"stories"`
}

// Story is a sub-cluster of an event, represented by a single medoid article.
type Story struct {
	// ArticleCount is the number of articles in the story cluster. It is 1
	// when the export omits the field.
	ArticleCount int `json:"articleCount"`
	// Medoid is nil when the export carries no representative article.
	Medoid *Article `json:"medoidArticle,omitempty"`
}

// Article is the medoid article of a story.
type Article struct {
	Title       string `json:"title"`
	Body        string `json:"body,omitempty"`
	DateTimePub string `json:"dateTimePub"`
	URL         string `json:"url"`
	Lang        string `json:"lang,omitempty"`
	Source      Source `json:"source"`
}

// Source describes the publisher of an article. Country holds the
// structured English country label when the export provides one.
type Source struct {
	Title   string `json:"title"`
	URI     string `json:"uri"`
	Country string `json:"country,omitempty"`
}
