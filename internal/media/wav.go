package media

import (
	"fmt"
	"os"
	"time"

	"github.com/go-audio/wav"
)

// WAVDuration reads the duration from a WAV file header.
func WAVDuration(path string) (time.Duration, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return 0, fmt.Errorf("%s is not a valid wav file", path)
	}
	d, err := dec.Duration()
	if err != nil {
		return 0, fmt.Errorf("read wav duration of %s: %w", path, err)
	}
	return d, nil
}
