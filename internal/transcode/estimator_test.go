package transcode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransportSize(t *testing.T) {
	tests := []struct {
		n    int
		want int64
	}{
		{0, 0}, {1, 4}, {2, 4}, {3, 4}, {4, 8}, {300, 400}, {204800, 273068},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, TransportBase64.Size(tt.n, MediaTypeJPEG), "n=%d", tt.n)
		assert.Equal(t, int64(tt.n), TransportBinary.Size(tt.n, MediaTypeJPEG), "n=%d", tt.n)
		assert.Equal(t, tt.want+int64(len("data:image/jpeg;base64,")), TransportDataURL.Size(tt.n, MediaTypeJPEG))
	}
}

func TestTransportSizeMatchesEncoding(t *testing.T) {
	data := make([]byte, 1001)
	for i := range data {
		data[i] = byte(i)
	}

	for _, tr := range []Transport{TransportBinary, TransportBase64, TransportDataURL} {
		assert.Equal(t, tr.Size(len(data), MediaTypeJPEG), int64(len(tr.Encode(data, MediaTypeJPEG))), string(tr))
	}
}

func TestParseTransport(t *testing.T) {
	got, err := ParseTransport("")
	require.NoError(t, err)
	assert.Equal(t, TransportBase64, got)

	got, err = ParseTransport("data-url")
	require.NoError(t, err)
	assert.Equal(t, TransportDataURL, got)

	_, err = ParseTransport("gzip")
	assert.ErrorIs(t, err, ErrInvalidConstraints)
}
