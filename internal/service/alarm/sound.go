package alarm

import (
	"context"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/go-audio/wav"
	"github.com/pkg/errors"

	"guardcam/internal/dto"
	"guardcam/internal/logger"
)

// defaultPlayers are tried in order when no player is configured.
var defaultPlayers = [][]string{
	{"ffplay", "-nodisp", "-autoexit", "-loglevel", "quiet"},
	{"aplay", "-q"},
	{"paplay"},
	{"afplay"},
}

// SoundPlayer plays the alarm clip through an external player and waits for
// it to finish.
type SoundPlayer struct {
	path    string
	command []string
	logger  *logger.Logger

	run func(ctx context.Context, name string, args ...string) error
}

// NewSoundPlayer checks the clip and resolves a player command. player may be
// empty, a program name, or a program with arguments.
func NewSoundPlayer(path, player string, logger *logger.Logger) (*SoundPlayer, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, errors.Wrapf(err, "alarm sound %s", path)
	}

	if strings.EqualFold(filepath.Ext(path), ".wav") {
		if err := describeWAV(path, logger); err != nil {
			return nil, err
		}
	}

	command, err := resolvePlayer(player, exec.LookPath)
	if err != nil {
		return nil, err
	}

	logger.Info("🔊 Alarm sound %s via %s", path, command[0])
	return &SoundPlayer{
		path:    path,
		command: command,
		logger:  logger,
		run:     runCommand,
	}, nil
}

// HandleAlarm plays the clip once per event.
func (p *SoundPlayer) HandleAlarm(ctx context.Context, event dto.AlarmEvent) error {
	args := append(append([]string{}, p.command[1:]...), p.path)
	if err := p.run(ctx, p.command[0], args...); err != nil {
		return errors.Wrapf(err, "failed to play %s", p.path)
	}
	return nil
}

func describeWAV(path string, logger *logger.Logger) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "failed to open %s", path)
	}
	defer f.Close()

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		return errors.Errorf("%s is not a valid WAV file", path)
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return errors.Wrapf(err, "failed to rewind %s", path)
	}
	duration, err := wav.NewDecoder(f).Duration()
	if err != nil {
		return errors.Wrapf(err, "failed to read duration of %s", path)
	}

	logger.Info("Alarm clip: %d Hz, %d channel(s), %d bit, %s",
		decoder.SampleRate, decoder.NumChans, decoder.BitDepth, duration)
	return nil
}

func resolvePlayer(player string, lookPath func(string) (string, error)) ([]string, error) {
	if fields := strings.Fields(player); len(fields) > 0 {
		if _, err := lookPath(fields[0]); err != nil {
			return nil, errors.Wrapf(err, "alarm player %s", fields[0])
		}
		return fields, nil
	}

	for _, candidate := range defaultPlayers {
		if _, err := lookPath(candidate[0]); err == nil {
			return candidate, nil
		}
	}
	return nil, errors.New("no audio player found, set ALARM_PLAYER")
}

func runCommand(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		if len(out) > 0 {
			return errors.Wrap(err, strings.TrimSpace(string(out)))
		}
		return err
	}
	return nil
}
