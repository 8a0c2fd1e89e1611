package model

type FFProbeOutput struct {
	Streams []struct {
		CodecType  string `json:"codec_type"`
		CodecName  string `json:"codec_name"`
		SampleRate int    `json:"sample_rate,string"`
		Channels   int    `json:"channels"`
	} `json:"streams"`
	Format struct {
		FormatName string `json:"format_name"`
		Duration   string `json:"duration"`
		Size       string `json:"size"`
	} `json:"format"`
}

// AudioCodec returns the codec of the first audio stream, or "" if there is none.
func (o FFProbeOutput) AudioCodec() string {
	for _, s := range o.Streams {
		if s.CodecType == "audio" {
			return s.CodecName
		}
	}
	return ""
}
