package model

// Reference is one bibliographic citation retrieved for a topic.
type Reference struct {
	PMID  string `json:"pmid"`
	Title string `json:"title"`
	Year  string `json:"year"`
	URL   string `json:"url"`
}
