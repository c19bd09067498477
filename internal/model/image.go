package model

// ImagePlaceholder is a bracketed [IMAGE: ...] directive parsed from
// generated markdown.
type ImagePlaceholder struct {
	Query   string `json:"query"`
	Alt     string `json:"alt"`
	Caption string `json:"caption"`
	Slot    string `json:"slot"`
}

// DownloadedImage describes one resolved and stored image.
type DownloadedImage struct {
	// File is the artifact-relative path, e.g. "images/img_01.jpg".
	File    string `json:"file"`
	URL     string `json:"url"`
	License string `json:"license"`
}
