package audio

import (
	"fmt"

	"github.com/bogem/id3v2"

	"mediaconv/internal/app/media"
)

// Tags are the ID3 frames written to mp3 output.
type Tags struct {
	Title  string
	Artist string
}

// Tagger writes ID3 tags. Formats other than mp3 are left untouched.
type Tagger struct{}

func NewTagger() *Tagger {
	return &Tagger{}
}

func (t *Tagger) Tag(path string, f media.Format, tags Tags) error {
	if f != media.MP3 || (tags.Title == "" && tags.Artist == "") {
		return nil
	}

	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return fmt.Errorf("open tags for %s: %w", path, err)
	}
	defer tag.Close()

	tag.SetDefaultEncoding(id3v2.EncodingUTF8)
	if tags.Title != "" {
		tag.SetTitle(tags.Title)
	}
	if tags.Artist != "" {
		tag.SetArtist(tags.Artist)
	}
	return tag.Save()
}
