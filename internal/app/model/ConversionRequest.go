package model

// SourceKind tells the pipeline where the media comes from.
type SourceKind string

const (
	SourceRemote SourceKind = "remote"
	SourceUpload SourceKind = "upload"
)

// ConversionRequest is created per call and discarded after the response.
type ConversionRequest struct {
	Kind    SourceKind
	Format  string
	Locator string // remote URL, or local path of the uploaded file
	// OriginalName is the client-supplied filename for uploads.
	OriginalName string
	Identity     string
}
