package sms

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/kryptonation/creamrun-sub000/internal/config"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGateway struct {
	from, to, message string
	err               error
}

func (f *fakeGateway) send(from, to, message string) error {
	f.from, f.to, f.message = from, to, message
	return f.err
}

func newTestClient(gw *fakeGateway) *Client {
	logger := zerolog.Nop()
	return &Client{send: gw.send, from: "FLEET", logger: &logger}
}

func TestSend(t *testing.T) {
	gw := &fakeGateway{}
	c := newTestClient(gw)

	require.NoError(t, c.Send(" +12125550123 ", "Your lease was renewed"))
	assert.Equal(t, "FLEET", gw.from)
	assert.Equal(t, "+12125550123", gw.to)
}

func TestSend_Truncates(t *testing.T) {
	gw := &fakeGateway{}
	c := newTestClient(gw)

	long := make([]byte, MaxLength+40)
	for i := range long {
		long[i] = 'a'
	}
	require.NoError(t, c.Send("+12125550123", string(long)))
	assert.Len(t, gw.message, MaxLength)
}

func TestSend_TruncatesOnRuneBoundary(t *testing.T) {
	gw := &fakeGateway{}
	c := newTestClient(gw)

	msg := strings.Repeat("a", MaxLength-1) + "éé€"
	require.NoError(t, c.Send("+12125550123", msg))

	assert.True(t, utf8.ValidString(gw.message))
	assert.Equal(t, MaxLength, utf8.RuneCountInString(gw.message))
	assert.True(t, strings.HasSuffix(gw.message, "aé"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "héllo", truncate("héllo", 5))
	assert.Equal(t, "hé", truncate("héllo", 2))
	assert.Equal(t, "", truncate("€", 0))
}

func TestSend_Errors(t *testing.T) {
	c := newTestClient(&fakeGateway{err: errors.New("gateway down")})
	assert.Error(t, c.Send("+12125550123", "hi"))
	assert.Error(t, c.Send("2125550123", "hi"))

	logger := zerolog.Nop()
	unconfigured := NewClient(&config.Config{}, &logger)
	assert.ErrorIs(t, unconfigured.Send("+12125550123", "hi"), ErrNotConfigured)
}
