package server

import (
	"bufio"
	"strings"
	"testing"
)

func TestWriteSSE(t *testing.T) {
	var sb strings.Builder
	w := bufio.NewWriter(&sb)

	if err := writeSSE(w, sseEvent{Type: "delta", Text: "hello"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := writeSSE(w, sseEvent{Type: "done"}); err != nil {
		t.Fatalf("write: %v", err)
	}

	got := sb.String()
	if !strings.Contains(got, `data: {"type":"delta","text":"hello"}`+"\n\n") {
		t.Fatalf("unexpected delta frame: %q", got)
	}
	if !strings.HasSuffix(got, `data: {"type":"done"}`+"\n\n") {
		t.Fatalf("unexpected done frame: %q", got)
	}
}
