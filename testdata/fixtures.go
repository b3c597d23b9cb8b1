// Package testdata embeds recorded pose streams used by replay and end to
// end tests. Each recording is a JSON lines file of 30 fps samples.
package testdata

import (
	"embed"
	"fmt"
	"path"
	"strings"

	"github.com/ayusman/repcount/internal/pose"
)

//go:embed recordings/*.jsonl
var recordingsFS embed.FS

// Recording describes one embedded stream and the reps it contains.
type Recording struct {
	Name     string
	Exercise string
	Reps     int
}

// Known lists the embedded recordings.
var Known = []Recording{
	// Three squats; the right knee is occluded for six frames in the second.
	{Name: "squat", Exercise: "squat", Reps: 3},
	{Name: "curl", Exercise: "curl", Reps: 4},
	{Name: "jumping_jack", Exercise: "jumping_jack", Reps: 5},
}

// OpenRecording returns a Decoder over the named recording.
func OpenRecording(name string) (*pose.Decoder, error) {
	f, err := recordingsFS.Open(path.Join("recordings", name+".jsonl"))
	if err != nil {
		return nil, fmt.Errorf("load recording %s: %w", name, err)
	}
	return pose.NewDecoder(f), nil
}

// ListRecordings returns the names of every embedded recording.
func ListRecordings() ([]string, error) {
	entries, err := recordingsFS.ReadDir("recordings")
	if err != nil {
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), ".jsonl"))
	}
	return names, nil
}
