package workspace

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/twpayne/go-vfs/vfst"
)

func TestWorkspace(t *testing.T) {
	files := map[string]interface{}{
		"/ws/taskdef.json": `{"family": "myapp"}`,
	}
	fs, clean, err := vfst.NewTestFS(files)
	if err != nil {
		t.Fatal(err)
	}
	defer clean()

	ws := New("/ws", fs)

	bs, err := ws.ReadFile("taskdef.json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(bs) != `{"family": "myapp"}` {
		t.Errorf("unexpected content: %s", bs)
	}

	if err := ws.WriteFile("out/summary.yaml", []byte("ok\n")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bs, err = ws.ReadFile(filepath.Join("/ws", "out", "summary.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(bs) != "ok\n" {
		t.Errorf("unexpected content: %s", bs)
	}

	if !ws.Exists("taskdef.json") || ws.Exists("missing.json") {
		t.Errorf("unexpected Exists result")
	}

	_, err = ws.ReadFile("missing.json")
	var werr *Error
	if !errors.As(err, &werr) {
		t.Fatalf("unexpected error: %v", err)
	}
	if werr.Path != filepath.Join("/ws", "missing.json") || !os.IsNotExist(werr.Err) {
		t.Errorf("unexpected error detail: %+v", werr)
	}
}

func TestWorkspace_Unbound(t *testing.T) {
	var ws *Workspace

	_, err := ws.ReadFile("taskdef.json")
	if !errors.Is(err, ErrNoWorkspace) {
		t.Fatalf("unexpected error: %v", err)
	}

	err = (&Workspace{}).WriteFile("summary.yaml", nil)
	if !errors.Is(err, ErrNoWorkspace) {
		t.Fatalf("unexpected error: %v", err)
	}
}
