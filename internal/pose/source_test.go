package pose

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestUnmarshalSample(t *testing.T) {
	t.Run("null and trailing entries are undetected", func(t *testing.T) {
		data := `{"timestamp_ms": 1500, "landmarks": [{"x":0.5,"y":0.1,"z":-0.2,"visibility":0.9}, null, {"x":0.1,"y":0.2}]}`

		s, err := UnmarshalSample([]byte(data))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !s.Timestamp.Equal(time.UnixMilli(1500)) {
			t.Errorf("expected timestamp 1500ms, got %v", s.Timestamp)
		}
		if j, ok := s.Joint(Nose); !ok || j.Visibility != 0.9 || j.Z != -0.2 {
			t.Errorf("unexpected nose joint %+v (present %v)", j, ok)
		}
		if _, ok := s.Joint(LeftEyeInner); ok {
			t.Error("null landmark should be undetected")
		}
		if j, ok := s.Joint(LeftEye); !ok || j.Visibility != 1 {
			t.Errorf("landmark without visibility should default to 1, got %+v", j)
		}
		if _, ok := s.Joint(RightFootIndex); ok {
			t.Error("landmarks past the end of the list should be undetected")
		}
	})

	t.Run("too many landmarks is rejected", func(t *testing.T) {
		entries := make([]string, NumLandmarks+1)
		for i := range entries {
			entries[i] = `{"x":0,"y":0}`
		}
		data := `{"landmarks":[` + strings.Join(entries, ",") + `]}`

		if _, err := UnmarshalSample([]byte(data)); err == nil {
			t.Error("expected error for 34 landmarks")
		}
	})

	t.Run("malformed json", func(t *testing.T) {
		if _, err := UnmarshalSample([]byte(`{"landmarks":`)); err == nil {
			t.Error("expected parse error")
		}
	})
}

func TestMarshalSample_KeepsMissingJoints(t *testing.T) {
	in := NewFixture().Without(RightKnee).At(time.UnixMilli(42000))
	in.World = []Joint{{X: 0.1, Y: -0.5, Z: 0.02, Visibility: 0.8, Present: true}}

	data, err := MarshalSample(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	out, err := UnmarshalSample(data)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if _, ok := out.Joint(RightKnee); ok {
		t.Error("right knee should stay undetected")
	}
	if out.Points[LeftKnee] != in.Points[LeftKnee] {
		t.Errorf("expected %+v, got %+v", in.Points[LeftKnee], out.Points[LeftKnee])
	}
	if len(out.World) != 1 || out.World[0] != in.World[0] {
		t.Errorf("world landmarks not preserved: %+v", out.World)
	}
	if !out.Timestamp.Equal(in.Timestamp) {
		t.Errorf("expected %v, got %v", in.Timestamp, out.Timestamp)
	}
}

func writeSamples(t *testing.T, samples ...Sample) string {
	t.Helper()

	var b strings.Builder
	for i, s := range samples {
		data, err := MarshalSample(s)
		if err != nil {
			t.Fatalf("marshal sample %d: %v", i, err)
		}
		b.Write(data)
		b.WriteString("\n\n")
	}

	path := filepath.Join(t.TempDir(), "samples.jsonl")
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		t.Fatalf("write samples: %v", err)
	}
	return path
}

func TestDecoder(t *testing.T) {
	start := time.UnixMilli(1_700_000_000_000)
	path := writeSamples(t,
		NewFixture().At(start),
		NewFixture().WithKneeAngle(100).At(start.Add(time.Second)),
	)

	d, err := OpenFile(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer d.Close()

	ctx := context.Background()
	first, err := d.Next(ctx)
	if err != nil {
		t.Fatalf("first sample: %v", err)
	}
	second, err := d.Next(ctx)
	if err != nil {
		t.Fatalf("second sample: %v", err)
	}
	if !second.Timestamp.After(first.Timestamp) {
		t.Error("expected samples in file order")
	}
	if _, err := d.Next(ctx); !errors.Is(err, io.EOF) {
		t.Errorf("expected io.EOF, got %v", err)
	}
}

func TestDecoder_ReportsLine(t *testing.T) {
	d := NewDecoder(strings.NewReader("{\"landmarks\":[]}\nnot json\n"))

	if _, err := d.Next(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err := d.Next(context.Background())
	if err == nil || !strings.Contains(err.Error(), "line 2") {
		t.Errorf("expected error mentioning line 2, got %v", err)
	}
}

func TestDecoder_Canceled(t *testing.T) {
	d := NewDecoder(strings.NewReader("{\"landmarks\":[]}\n"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := d.Next(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestCommandSource(t *testing.T) {
	if _, err := exec.LookPath("cat"); err != nil {
		t.Skip("cat not available")
	}
	defer goleak.VerifyNone(t)

	path := writeSamples(t, NewFixture(), NewFixture().WithElbowAngle(90))

	src, err := NewCommandSource("cat", path)
	if err != nil {
		t.Fatalf("new source: %v", err)
	}

	var n int
	for {
		_, err := src.Next(context.Background())
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		n++
	}
	if n != 2 {
		t.Errorf("expected 2 samples, got %d", n)
	}

	if err := src.Close(); err != nil {
		t.Errorf("close: %v", err)
	}
	// Closing twice is a no-op.
	if err := src.Close(); err != nil {
		t.Errorf("second close: %v", err)
	}
	if _, err := src.Next(context.Background()); err == nil {
		t.Error("expected error reading a closed source")
	}
}

func TestNewCommandSource_NotFound(t *testing.T) {
	if _, err := NewCommandSource("repcount-no-such-estimator"); err == nil {
		t.Error("expected error for missing estimator")
	}
}

func TestMockSource(t *testing.T) {
	t.Run("replays then EOF", func(t *testing.T) {
		m := NewMockSource(NewFixture(), NewFixture())
		for i := 0; i < 2; i++ {
			if _, err := m.Next(context.Background()); err != nil {
				t.Fatalf("sample %d: %v", i, err)
			}
		}
		if _, err := m.Next(context.Background()); !errors.Is(err, io.EOF) {
			t.Errorf("expected io.EOF, got %v", err)
		}
	})

	t.Run("returns configured error", func(t *testing.T) {
		m := NewMockSource()
		expected := errors.New("estimator crashed")
		m.SetError(expected)
		if _, err := m.Next(context.Background()); err != expected {
			t.Errorf("expected %v, got %v", expected, err)
		}
	})

	t.Run("implements Source interface", func(t *testing.T) {
		var _ Source = (*MockSource)(nil)
		var _ Source = (*Decoder)(nil)
		var _ Source = (*CommandSource)(nil)
	})
}
