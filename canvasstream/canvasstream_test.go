package canvasstream

import (
	"testing"

	"github.com/fullbleed/fullbleed/numeric"
)

func TestSaveRestoreBalance(t *testing.T) {
	s := New()
	s.Save()
	s.FillRect(numeric.Rect{W: numeric.FromPoints(10), H: numeric.FromPoints(10)})
	s.Restore()
	if !s.Balanced() {
		t.Fatalf("expected balanced stream, depth=%d", s.Depth())
	}
	if len(s.Commands) != 3 {
		t.Fatalf("expected 3 commands, got %d", len(s.Commands))
	}
}

func TestRestoreWithoutSavePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on unmatched Restore")
		}
	}()
	New().Restore()
}

func TestTextBracketing(t *testing.T) {
	s := New()
	s.BeginText()
	s.SetFont("F1", numeric.FromPoints(12))
	s.ShowText("hello", 0, 0)
	s.EndText()
	if len(s.Commands) != 4 {
		t.Fatalf("expected 4 commands, got %d", len(s.Commands))
	}
	if s.Commands[0].Op != OpBeginText || s.Commands[3].Op != OpEndText {
		t.Fatalf("expected text bracketing ops at ends")
	}
}
