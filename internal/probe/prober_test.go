package probe

import (
	"context"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const movieFixture = `{
	"streams": [
		{"codec_name": "h264", "codec_type": "video"},
		{"codec_name": "aac", "codec_type": "audio"},
		{"codec_name": "ac3", "codec_type": "audio"},
		{"codec_name": "hevc", "codec_type": "video"},
		{"codec_name": "subrip", "codec_type": "subtitle"}
	]
}`

func TestParseStreams(t *testing.T) {
	streams, err := ParseStreams([]byte(movieFixture))

	require.NoError(t, err)
	require.Len(t, streams, 5)

	assert.Equal(t, StreamDescriptor{Index: 0, CodecName: "h264", CodecType: StreamTypeVideo}, streams[0])
	assert.Equal(t, StreamDescriptor{Index: 0, CodecName: "aac", CodecType: StreamTypeAudio}, streams[1])
	assert.Equal(t, StreamDescriptor{Index: 1, CodecName: "ac3", CodecType: StreamTypeAudio}, streams[2])
	assert.Equal(t, StreamDescriptor{Index: 1, CodecName: "hevc", CodecType: StreamTypeVideo}, streams[3])
	assert.Equal(t, StreamDescriptor{Index: 0, CodecName: "subrip", CodecType: StreamTypeSubtitle}, streams[4])
}

func TestParseStreamsTypeRelativeIndices(t *testing.T) {
	// Second video stream is 0:v:1 even though audio sits between them.
	streams, err := ParseStreams([]byte(movieFixture))
	require.NoError(t, err)

	videoIndices := []int{}
	for _, s := range streams {
		if s.CodecType == StreamTypeVideo {
			videoIndices = append(videoIndices, s.Index)
		}
	}
	assert.Equal(t, []int{0, 1}, videoIndices)
}

func TestParseStreamsUnknownType(t *testing.T) {
	streams, err := ParseStreams([]byte(`{"streams": [{"codec_name": "bin", "codec_type": "timecode"}]}`))

	require.NoError(t, err)
	require.Len(t, streams, 1)
	assert.Equal(t, StreamTypeUnknown, streams[0].CodecType)
}

func TestParseStreamsMissingCodecName(t *testing.T) {
	streams, err := ParseStreams([]byte(`{"streams": [{"codec_type": "video"}]}`))

	require.NoError(t, err)
	require.Len(t, streams, 1)
	assert.Empty(t, streams[0].CodecName)
	assert.Equal(t, StreamTypeVideo, streams[0].CodecType)
}

func TestParseStreamsEmpty(t *testing.T) {
	_, err := ParseStreams([]byte(`{"streams": []}`))

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrProbeUnavailable)
}

func TestParseStreamsInvalidJSON(t *testing.T) {
	_, err := ParseStreams([]byte("not json at all"))

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrProbeUnavailable)
}

func TestProbeMissingBinary(t *testing.T) {
	prober := NewFFprobeProber("/nonexistent/ffprobe", hclog.NewNullLogger())

	_, err := prober.Probe(context.Background(), "/media/movie.mkv")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrProbeUnavailable)
}

func TestNewFFprobeProberDefaultsBinary(t *testing.T) {
	prober := NewFFprobeProber("", hclog.NewNullLogger())
	assert.Equal(t, "ffprobe", prober.bin)
}
