package model

// Metadata describes a remote source. Fields the fallback path cannot supply
// are left empty and Fallback names the path that produced the result.
// The camelCase names are what the web client reads from the preview.
type Metadata struct {
	Title       string `json:"title"`
	Channel     string `json:"channel"`
	Duration    string `json:"duration"`
	Views       string `json:"views"`
	Thumbnail   string `json:"thumbnail"`
	Description string `json:"description"`
	UploadDate  string `json:"uploadDate"`
	VideoID     string `json:"videoId"`
	Fallback    string `json:"fallback,omitempty"`
}
