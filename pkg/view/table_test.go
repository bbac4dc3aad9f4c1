package view

import (
	"bytes"
	"reflect"
	"strings"
	"testing"
)

func TestCapWidths_NoConstraint(t *testing.T) {
	widths := []int{5, 20, 10}
	headers := []string{"COL1", "COL2", "COL3"}
	got := capWidths(widths, headers, 80, 0)
	if !reflect.DeepEqual(got, widths) {
		t.Errorf("expected no change: got %v, want %v", got, widths)
	}
}

func TestCapWidths_ReducesWidest(t *testing.T) {
	widths := []int{5, 60, 10}
	headers := []string{"NODE", "NAMESPACE", "STATUS"}
	got := capWidths(widths, headers, 78, 0)
	total := 0
	for _, w := range got {
		total += w
	}
	total += 2 * (len(got) - 1)
	if total > 78 {
		t.Errorf("total %d still exceeds 78; widths=%v", total, got)
	}
	if got[0] != widths[0] {
		t.Errorf("column 0 should be unchanged: got %d, want %d", got[0], widths[0])
	}
	if got[2] != widths[2] {
		t.Errorf("column 2 should be unchanged: got %d, want %d", got[2], widths[2])
	}
}

func TestCapWidths_RespectsHeaderMinimum(t *testing.T) {
	widths := []int{4, 60}
	headers := []string{"NUM", "A-VERY-LONG-HEADER-NAME"}
	got := capWidths(widths, headers, 30, 2)
	if got[1] < visualLen("A-VERY-LONG-HEADER-NAME") {
		t.Errorf("column 1 reduced below header minimum: got %d", got[1])
	}
}

func TestCapWidths_CannotReduceFurther(t *testing.T) {
	widths := []int{3, 8}
	headers := []string{"NUM", "STATUS"}
	got := capWidths(widths, headers, 5, 0)
	if got[0] < visualLen("NUM") {
		t.Errorf("column 0 below header minimum: %d", got[0])
	}
	if got[1] < visualLen("STATUS") {
		t.Errorf("column 1 below header minimum: %d", got[1])
	}
}

func TestWrapCell_FitsUnchanged(t *testing.T) {
	got := wrapCell("hello", 10)
	if !reflect.DeepEqual(got, []string{"hello"}) {
		t.Errorf("got %v, want [hello]", got)
	}
}

func TestWrapCell_WordWrap(t *testing.T) {
	got := wrapCell("hello world foo", 11)
	want := []string{"hello world", "foo"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestWrapCell_HardBreakLongWord(t *testing.T) {
	got := wrapCell("abcdefghij", 4)
	want := []string{"abcd", "efgh", "ij"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestWrapCell_ANSIPreservedWhenFits(t *testing.T) {
	colored := "\x1b[32mPASS\x1b[0m"
	got := wrapCell(colored, 10)
	if !reflect.DeepEqual(got, []string{colored}) {
		t.Errorf("ANSI string should be returned unchanged when it fits: got %v", got)
	}
}

func TestWrapCell_EmptyString(t *testing.T) {
	got := wrapCell("", 10)
	if !reflect.DeepEqual(got, []string{""}) {
		t.Errorf("got %v, want [\"\"]", got)
	}
}

func TestTable_EmptyProducesNoOutput(t *testing.T) {
	var buf bytes.Buffer
	tbl := NewTable("NODE", "STATUS").WithWriter(&buf)
	// Flush with no rows prints nothing, not even the header.
	tbl.Flush()
	if buf.Len() != 0 {
		t.Errorf("empty table wrote %q, want no output", buf.String())
	}
}

func TestTable_RowAccumulates(t *testing.T) {
	tbl := NewTable("NODE", "STATUS")
	tbl.Row("127.0.0.1:3000", "online")
	if len(tbl.rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(tbl.rows))
	}
}

func TestTable_WithWriterRedirectsOutput(t *testing.T) {
	var buf bytes.Buffer
	tbl := NewTable("NODE", "STATUS").WithWriter(&buf)
	tbl.Row("127.0.0.1:3000", "online")
	tbl.Flush()

	out := buf.String()
	if !strings.Contains(out, "NODE") || !strings.Contains(out, "127.0.0.1:3000") {
		t.Errorf("output %q missing expected header/row content", out)
	}
}

func TestTable_WithWriterReturnsSameTable(t *testing.T) {
	var buf bytes.Buffer
	tbl := NewTable("NODE")
	if got := tbl.WithWriter(&buf); got != tbl {
		t.Error("WithWriter should return the same *Table for chaining")
	}
}
