package publisher

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const digest = "• Tue 1/7 6:00 pm *OKC Python* <https://www.meetup.com/okcpython/events/1/|Monthly Meetup>\n" +
	"• TBD *OKC JS* <https://www.meetup.com/okcjs/events/6/|Talks>"

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestSlack_Publish(t *testing.T) {
	var form map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat.postMessage", r.URL.Path)
		require.NoError(t, r.ParseForm())
		form = map[string]string{
			"channel": r.PostForm.Get("channel"),
			"text":    r.PostForm.Get("text"),
			"blocks":  r.PostForm.Get("blocks"),
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true,"channel":"C123","ts":"1736200000.000100"}`))
	}))
	defer srv.Close()

	pub := NewSlack(SlackConfig{Token: "xoxb-test", APIURL: srv.URL + "/"}, testLogger())

	require.NoError(t, pub.Publish(context.Background(), digest, "C123"))
	assert.Equal(t, "slack", pub.Name())
	assert.Equal(t, "C123", form["channel"])
	assert.Equal(t, digest, form["text"])
	assert.Contains(t, form["blocks"], `"type":"section"`)
	assert.Contains(t, form["blocks"], `"type":"mrkdwn"`)
	assert.NoError(t, pub.Close())
}

func TestSlack_PublishError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":false,"error":"channel_not_found"}`))
	}))
	defer srv.Close()

	pub := NewSlack(SlackConfig{Token: "xoxb-test", APIURL: srv.URL + "/"}, testLogger())

	err := pub.Publish(context.Background(), digest, "CMISSING")
	assert.ErrorContains(t, err, "channel_not_found")
}

type fakeSender struct {
	channel string
	sent    []string
	err     error
}

func (f *fakeSender) ChannelMessageSend(channelID, content string, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.channel = channelID
	f.sent = append(f.sent, content)
	return &discordgo.Message{ID: "m1", ChannelID: channelID, Content: content}, nil
}

func TestDiscord_Publish(t *testing.T) {
	sender := &fakeSender{}
	pub := &Discord{sender: sender, logger: testLogger()}

	require.NoError(t, pub.Publish(context.Background(), digest, "987"))

	assert.Equal(t, "987", sender.channel)
	require.Len(t, sender.sent, 1)
	assert.Equal(t,
		"• Tue 1/7 6:00 pm **OKC Python** [Monthly Meetup](https://www.meetup.com/okcpython/events/1/)\n"+
			"• TBD **OKC JS** [Talks](https://www.meetup.com/okcjs/events/6/)",
		sender.sent[0],
	)
	assert.NoError(t, pub.Close())
}

func TestDiscord_PublishSplitsLongDigest(t *testing.T) {
	sender := &fakeSender{}
	pub := &Discord{sender: sender, logger: testLogger()}

	line := "• TBD **Group** [" + strings.Repeat("x", 80) + "](https://example.com)"
	lines := make([]string, 60)
	for i := range lines {
		lines[i] = line
	}

	require.NoError(t, pub.Publish(context.Background(), strings.Join(lines, "\n"), "987"))

	require.Greater(t, len(sender.sent), 1)
	total := 0
	for _, msg := range sender.sent {
		assert.LessOrEqual(t, len(msg), discordMessageLimit)
		total += strings.Count(msg, "\n") + 1
	}
	assert.Equal(t, 60, total)
}

func TestDiscord_PublishError(t *testing.T) {
	pub := &Discord{sender: &fakeSender{err: errors.New("HTTP 403 Forbidden")}, logger: testLogger()}

	err := pub.Publish(context.Background(), digest, "987")
	assert.ErrorContains(t, err, "send message")
}

func TestSplitLines(t *testing.T) {
	assert.Equal(t, []string{"a\nb"}, splitLines("a\nb", 10))
	assert.Equal(t, []string{"aaaa", "bbbb"}, splitLines("aaaa\nbbbb", 6))
	assert.Equal(t, []string{"aaa", "aaa", "aa", "b"}, splitLines("aaaaaaaa\nb", 3))
}

func TestSplitLines_KeepsRunesWhole(t *testing.T) {
	chunks := splitLines("••••", 4)
	assert.Equal(t, []string{"•", "•", "•", "•"}, chunks)

	long := strings.Repeat("36°N ", 40)
	for _, c := range splitLines(long, 7) {
		assert.True(t, utf8.ValidString(c), "chunk %q", c)
		assert.LessOrEqual(t, len(c), 7)
	}
	assert.Equal(t, long, strings.Join(splitLines(long, 7), ""))
}
