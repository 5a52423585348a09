package fileutil_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mrijcreo/scripttts/internal/fileutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name string) {
	t.Helper()

	err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o600)
	require.NoError(t, err)
}

func TestEnsureDir(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "a", "b")

	require.NoError(t, fileutil.EnsureDir(path))
	require.NoError(t, fileutil.EnsureDir(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestIsAudioFile(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		filename string
		isAudio  bool
	}{
		{"slide_1.wav", true},
		{"slide_1.MP3", true},
		{"slide_1.flac", true},
		{"slide_1.ogg", true},
		{"slide_1.m4a", true},
		{"slide_1.aac", true},
		{"notes.txt", false},
		{"image.png", false},
	}

	for _, testCase := range testCases {
		t.Run(testCase.filename, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, testCase.isAudio, fileutil.IsAudioFile(testCase.filename))
		})
	}
}

func TestFileExtension(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "gz", fileutil.FileExtension("archive.tar.gz"))
	assert.Empty(t, fileutil.FileExtension("README"))
}

func TestSanitizeFilename(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "valid_filename.txt", fileutil.SanitizeFilename("valid_filename.txt"))
	assert.Equal(t, "in_va_l_id______name.txt", fileutil.SanitizeFilename("in<va>l:id\"/\\|?*name.txt"))
}

func TestNarratedName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Kwartaal_narrated.pptx", fileutil.NarratedName("/decks/Kwartaal.pptx"))
	assert.Equal(t, "a_b_narrated.pptx", fileutil.NarratedName("a:b.PPTX"))
}

func TestSlideNumberFromName(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		expected int
		ok       bool
	}{
		{"slide_3.wav", 3, true},
		{"slide-12_audio.mp3", 12, true},
		{"Slide7.m4a", 7, true},
		{"04.ogg", 4, true},
		{"slide_0.wav", 0, false},
		{"intro.wav", 0, false},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			number, ok := fileutil.SlideNumberFromName(testCase.name)
			assert.Equal(t, testCase.ok, ok)
			assert.Equal(t, testCase.expected, number)
		})
	}
}

func TestFindSlideAudio(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "slide_1.wav")
	writeFile(t, dir, "slide_3_audio.mp3")
	writeFile(t, dir, "cover.png")
	writeFile(t, dir, "music.wav")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "slide_2.wav"), 0o750))

	found, err := fileutil.FindSlideAudio(dir)
	require.NoError(t, err)

	assert.Equal(t, map[int]string{
		1: filepath.Join(dir, "slide_1.wav"),
		3: filepath.Join(dir, "slide_3_audio.mp3"),
	}, found)
}

func TestFindSlideAudio_Duplicate(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "slide_2.wav")
	writeFile(t, dir, "slide_2_audio.mp3")

	_, err := fileutil.FindSlideAudio(dir)
	require.ErrorIs(t, err, fileutil.ErrDuplicateAudio)
}

func TestFindSlideAudio_MissingDir(t *testing.T) {
	t.Parallel()

	_, err := fileutil.FindSlideAudio(filepath.Join(t.TempDir(), "absent"))
	require.Error(t, err)
}

func TestFormatFileSize(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "512 B", fileutil.FormatFileSize(512))
	assert.Equal(t, "1.5 KB", fileutil.FormatFileSize(1536))
	assert.Equal(t, "2.0 MB", fileutil.FormatFileSize(2*1024*1024))
}
