package registry

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_FiltersUmbrellaBlanksAndDuplicates(t *testing.T) {
	r := New([]string{"okc-fp", " techlahoma-foundation ", "", "okcpython", "okc-fp"}, DefaultUmbrella)

	assert.Equal(t, []string{"okc-fp", "okcpython"}, r.IDs())
	assert.Equal(t, 2, r.Len())
}

func TestLoadCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "groups.csv")
	content := "url,urlname\n" +
		"https://www.meetup.com/okc-fp/,okc-fp\n" +
		"https://www.meetup.com/techlahoma-foundation/,techlahoma-foundation\n" +
		"https://www.meetup.com/okcpython/,okcpython\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	r, err := LoadCSV(path, DefaultUmbrella)
	require.NoError(t, err)
	assert.Equal(t, []string{"okc-fp", "okcpython"}, r.IDs())
}

func TestReadCSV_MissingColumn(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("url\nhttps://example.com\n"))
	assert.ErrorContains(t, err, "urlname")
}

func TestReadCSV_Empty(t *testing.T) {
	ids, err := ReadCSV(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestLoadCSV_MissingFile(t *testing.T) {
	_, err := LoadCSV(filepath.Join(t.TempDir(), "nope.csv"), DefaultUmbrella)
	assert.Error(t, err)
}

func TestGroups_RoundTripThroughCSV(t *testing.T) {
	hrefs := []string{
		"https://www.meetup.com/okcpython/",
		"https://www.meetup.com/reddirtbitcoiners/",
		"https://www.meetup.com/okc-fp/?eventOrigin=find_page",
		"https://www.meetup.com/okcpython/",
	}

	groups := Groups(hrefs, []string{"reddirtbitcoiners"})
	require.Len(t, groups, 2)
	assert.Equal(t, "okc-fp", groups[0].URLName)
	assert.Equal(t, "okcpython", groups[1].URLName)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, groups))

	ids, err := ReadCSV(&buf)
	require.NoError(t, err)
	assert.Equal(t, []string{"okc-fp", "okcpython"}, ids)
}

func TestSearchURL(t *testing.T) {
	opts := CaptureOptions{
		Location:   "us--ok--Oklahoma City",
		CategoryID: "546",
		Distance:   "tenMiles",
	}

	got := opts.SearchURL()
	assert.True(t, strings.HasPrefix(got, DefaultFindURL+"?"))
	assert.Contains(t, got, "source=GROUPS")
	assert.Contains(t, got, "categoryId=546")
	assert.Contains(t, got, "location=us--ok--Oklahoma+City")
}
