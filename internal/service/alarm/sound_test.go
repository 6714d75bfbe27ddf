package alarm

import (
	"bytes"
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"guardcam/internal/dto"
	"guardcam/internal/logger"
)

// writeWAV writes a mono 16-bit PCM clip of the given number of samples.
func writeWAV(t *testing.T, path string, sampleRate, samples int) {
	t.Helper()

	dataSize := samples * 2
	var buf bytes.Buffer
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+dataSize))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // mono
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate*2))
	binary.Write(&buf, binary.LittleEndian, uint16(2))
	binary.Write(&buf, binary.LittleEndian, uint16(16))
	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(dataSize))
	buf.Write(make([]byte, dataSize))

	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
}

func TestDescribeWAV(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "alarm.wav")
	writeWAV(t, good, 8000, 8000)
	assert.NoError(t, describeWAV(good, logger.NewDiscard()))

	bad := filepath.Join(dir, "broken.wav")
	require.NoError(t, os.WriteFile(bad, []byte("definitely not riff"), 0644))
	assert.Error(t, describeWAV(bad, logger.NewDiscard()))
}

func TestResolvePlayer(t *testing.T) {
	only := func(names ...string) func(string) (string, error) {
		return func(name string) (string, error) {
			for _, n := range names {
				if n == name {
					return "/usr/bin/" + name, nil
				}
			}
			return "", errors.New("not found")
		}
	}

	cmd, err := resolvePlayer("", only("aplay", "afplay"))
	require.NoError(t, err)
	assert.Equal(t, []string{"aplay", "-q"}, cmd)

	cmd, err = resolvePlayer("mpv --no-video", only("mpv"))
	require.NoError(t, err)
	assert.Equal(t, []string{"mpv", "--no-video"}, cmd)

	_, err = resolvePlayer("mpv", only("aplay"))
	assert.Error(t, err)

	_, err = resolvePlayer("", only())
	assert.Error(t, err)
}

func TestSoundPlayer_PlaysOncePerEvent(t *testing.T) {
	var calls [][]string
	p := &SoundPlayer{
		path:    "alarm_sound.wav",
		command: []string{"ffplay", "-nodisp", "-autoexit"},
		logger:  logger.NewDiscard(),
		run: func(_ context.Context, name string, args ...string) error {
			calls = append(calls, append([]string{name}, args...))
			return nil
		},
	}

	require.NoError(t, p.HandleAlarm(context.Background(), dto.AlarmEvent{ID: "1"}))
	require.NoError(t, p.HandleAlarm(context.Background(), dto.AlarmEvent{ID: "2"}))

	require.Len(t, calls, 2)
	assert.Equal(t, []string{"ffplay", "-nodisp", "-autoexit", "alarm_sound.wav"}, calls[0])
	assert.Equal(t, []string{"ffplay", "-nodisp", "-autoexit"}, p.command, "command not mutated")
}

func TestNewSoundPlayer_MissingFile(t *testing.T) {
	_, err := NewSoundPlayer(filepath.Join(t.TempDir(), "nope.wav"), "", logger.NewDiscard())
	assert.Error(t, err)
}
