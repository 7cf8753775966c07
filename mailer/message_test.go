package mailer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMimeSubtypeClassifiesKnownExtensions(t *testing.T) {
	assert.Equal(t, "application/pdf", mimeSubtype("result.pdf"))
	assert.Equal(t, "image/png", mimeSubtype("chart.PNG"))
	assert.Equal(t, "application/octet-stream", mimeSubtype("data.bin"))
}
