package pose

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"
)

// maxLineSize bounds a single JSON sample line.
const maxLineSize = 1 << 20

// Source produces pose samples from an external estimator.
type Source interface {
	// Next returns the next sample. It returns io.EOF when the source is
	// exhausted.
	Next(ctx context.Context) (Sample, error)

	// Close releases any resources held by the source.
	Close() error
}

// jsonSample is the wire format of one sample.
type jsonSample struct {
	TimestampMs    int64        `json:"timestamp_ms,omitempty"`
	Landmarks      []*jsonJoint `json:"landmarks"`
	WorldLandmarks []*jsonJoint `json:"world_landmarks,omitempty"`
}

type jsonJoint struct {
	X          float64  `json:"x"`
	Y          float64  `json:"y"`
	Z          float64  `json:"z"`
	Visibility *float64 `json:"visibility,omitempty"`
}

func (j *jsonJoint) toJoint() Joint {
	if j == nil {
		return Joint{}
	}
	// Estimators that do not report visibility are trusted fully.
	visibility := 1.0
	if j.Visibility != nil {
		visibility = *j.Visibility
	}
	return Joint{X: j.X, Y: j.Y, Z: j.Z, Visibility: visibility, Present: true}
}

// UnmarshalSample decodes one JSON sample. A null or missing trailing entry
// marks the joint as undetected.
func UnmarshalSample(data []byte) (Sample, error) {
	var js jsonSample
	if err := json.Unmarshal(data, &js); err != nil {
		return Sample{}, fmt.Errorf("parse sample: %w", err)
	}
	if len(js.Landmarks) > NumLandmarks {
		return Sample{}, fmt.Errorf("sample has %d landmarks, expected at most %d", len(js.Landmarks), NumLandmarks)
	}

	var s Sample
	if js.TimestampMs != 0 {
		s.Timestamp = time.UnixMilli(js.TimestampMs)
	}
	for i, j := range js.Landmarks {
		s.Points[i] = j.toJoint()
	}
	if len(js.WorldLandmarks) > 0 {
		s.World = make([]Joint, len(js.WorldLandmarks))
		for i, j := range js.WorldLandmarks {
			s.World[i] = j.toJoint()
		}
	}
	return s, nil
}

// MarshalSample encodes a sample in the wire format read by UnmarshalSample.
func MarshalSample(s Sample) ([]byte, error) {
	js := jsonSample{
		Landmarks: toJSONJoints(s.Points[:]),
	}
	if !s.Timestamp.IsZero() {
		js.TimestampMs = s.Timestamp.UnixMilli()
	}
	if len(s.World) > 0 {
		js.WorldLandmarks = toJSONJoints(s.World)
	}
	return json.Marshal(js)
}

func toJSONJoints(joints []Joint) []*jsonJoint {
	out := make([]*jsonJoint, len(joints))
	for i, j := range joints {
		if !j.Present {
			continue
		}
		v := j.Visibility
		out[i] = &jsonJoint{X: j.X, Y: j.Y, Z: j.Z, Visibility: &v}
	}
	return out
}

// Decoder reads newline-delimited JSON samples from a stream.
type Decoder struct {
	scanner *bufio.Scanner
	closer  io.Closer
	line    int
}

// NewDecoder creates a Decoder reading from r. If r is an io.Closer it is
// closed by Close.
func NewDecoder(r io.Reader) *Decoder {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	d := &Decoder{scanner: scanner}
	if c, ok := r.(io.Closer); ok {
		d.closer = c
	}
	return d
}

// OpenFile creates a Decoder over a JSON lines file.
func OpenFile(path string) (*Decoder, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open samples: %w", err)
	}
	return NewDecoder(f), nil
}

// Next returns the next non-empty sample line.
func (d *Decoder) Next(ctx context.Context) (Sample, error) {
	for {
		if err := ctx.Err(); err != nil {
			return Sample{}, err
		}
		if !d.scanner.Scan() {
			// A canceled read usually ends with a closed stream.
			if err := ctx.Err(); err != nil {
				return Sample{}, err
			}
			if err := d.scanner.Err(); err != nil {
				return Sample{}, fmt.Errorf("read sample: %w", err)
			}
			return Sample{}, io.EOF
		}
		d.line++

		line := bytes.TrimSpace(d.scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		s, err := UnmarshalSample(line)
		if err != nil {
			return Sample{}, fmt.Errorf("line %d: %w", d.line, err)
		}
		return s, nil
	}
}

// Close closes the underlying reader if it is closable.
func (d *Decoder) Close() error {
	if d.closer == nil {
		return nil
	}
	return d.closer.Close()
}

// CommandSource runs an external pose estimator and decodes the JSON lines
// it writes to stdout. The process is started lazily on the first Next.
type CommandSource struct {
	name    string
	args    []string
	cmd     *exec.Cmd
	stdout  io.ReadCloser
	decoder *Decoder
	mu      sync.Mutex
	started bool
	closed  bool
}

// NewCommandSource creates a source for the given estimator command.
func NewCommandSource(name string, args ...string) (*CommandSource, error) {
	if _, err := exec.LookPath(name); err != nil {
		return nil, fmt.Errorf("estimator %q not found: %w", name, err)
	}
	return &CommandSource{name: name, args: args}, nil
}

// Next returns the next sample written by the estimator. The read happens
// outside the lock so Close can interrupt it. Canceling ctx during a read
// kills the estimator; the source is exhausted afterwards.
func (c *CommandSource) Next(ctx context.Context) (Sample, error) {
	c.mu.Lock()
	if err := c.ensureStarted(); err != nil {
		c.mu.Unlock()
		return Sample{}, err
	}
	d := c.decoder
	proc, stdout := c.cmd.Process, c.stdout
	c.mu.Unlock()

	// Children of the estimator may hold the pipe open after the kill.
	stop := context.AfterFunc(ctx, func() {
		proc.Kill()
		stdout.Close()
	})
	defer stop()

	return d.Next(ctx)
}

func (c *CommandSource) ensureStarted() error {
	if c.closed {
		return errors.New("estimator closed")
	}
	if c.started {
		return nil
	}

	c.cmd = exec.Command(c.name, c.args...)

	stdout, err := c.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("create stdout pipe: %w", err)
	}

	// Estimator diagnostics go straight to our stderr.
	c.cmd.Stderr = os.Stderr

	if err := c.cmd.Start(); err != nil {
		return fmt.Errorf("start estimator: %w", err)
	}

	c.stdout = stdout
	c.decoder = NewDecoder(stdout)
	c.started = true
	return nil
}

// Close stops the estimator process.
func (c *CommandSource) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.started {
		c.closed = true
		return nil
	}

	c.stdout.Close()
	if c.cmd.ProcessState == nil {
		c.cmd.Process.Kill()
	}
	err := c.cmd.Wait()

	c.started = false
	c.closed = true
	c.cmd = nil
	c.stdout = nil
	c.decoder = nil

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		// Killed or exited after we stopped reading.
		return nil
	}
	return err
}
