package stats

import "testing"

func TestFormatTableAlignsColumns(t *testing.T) {
	headers := []string{"Level", "Accuracy", "d'"}
	rows := [][]string{
		{"dual-2", "97.5%", "3.10"},
		{"position-1", "8.0%", "-0.40"},
	}
	rightAlign := map[int]bool{1: true, 2: true}

	lines := formatTable(headers, rows, rightAlign)
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if lines[0] != "Level      Accuracy    d'" {
		t.Fatalf("unexpected header line: %q", lines[0])
	}
	if lines[1] != "dual-2        97.5%  3.10" {
		t.Fatalf("unexpected row line: %q", lines[1])
	}
	if lines[2] != "position-1     8.0% -0.40" {
		t.Fatalf("unexpected row line: %q", lines[2])
	}
}

func TestFormatTableWideRunes(t *testing.T) {
	lines := formatTable([]string{"Name", "N"}, [][]string{{"位置", "1"}, {"ab", "2"}}, nil)
	if lines[1] != "位置 1" {
		t.Fatalf("unexpected wide row: %q", lines[1])
	}
	if lines[2] != "ab   2" {
		t.Fatalf("unexpected narrow row: %q", lines[2])
	}
}
