package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/flaneur2020/pngme/pngme"
	pngerrors "github.com/flaneur2020/pngme/pngme/errors"
	"github.com/flaneur2020/pngme/pngme/logger"
	"github.com/flaneur2020/pngme/pngme/storage"
)

func testPngBytes(t *testing.T) []byte {
	t.Helper()
	var chunks []*pngme.Chunk
	for _, c := range []struct{ chunkType, data string }{
		{"IHDR", "\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00"},
		{"IDAT", "\x78\x9c\x63\xf8\x0f\x00\x01\x01\x01\x00"},
		{"IEND", ""},
	} {
		ct, err := pngme.ParseChunkType(c.chunkType)
		if err != nil {
			t.Fatalf("ParseChunkType(%q) error = %v", c.chunkType, err)
		}
		chunks = append(chunks, pngme.NewChunk(ct, []byte(c.data)))
	}
	return pngme.NewPng(chunks).Bytes()
}

func runCLI(t *testing.T, store storage.Storage, args ...string) (string, error) {
	t.Helper()

	prevLevel := logger.GetLogLevel()
	defer logger.SetLogLevel(prevLevel)

	a := &app{storage: store}
	cmd := a.rootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCLI_EncodeDecode(t *testing.T) {
	store := storage.NewMockStorage()
	store.AddFile("in.png", testPngBytes(t))

	if _, err := runCLI(t, store, "encode", "in.png", "ruSt", "This is a secret message!"); err != nil {
		t.Fatalf("encode error = %v", err)
	}

	out, err := runCLI(t, store, "decode", "in.png", "ruSt")
	if err != nil {
		t.Fatalf("decode error = %v", err)
	}
	if strings.TrimSpace(out) != "This is a secret message!" {
		t.Errorf("decode output = %q", out)
	}
}

func TestCLI_EncodeToOutputFile(t *testing.T) {
	store := storage.NewMockStorage()
	original := testPngBytes(t)
	store.AddFile("in.png", original)

	if _, err := runCLI(t, store, "encode", "in.png", "ruSt", "hidden", "out.png"); err != nil {
		t.Fatalf("encode error = %v", err)
	}

	in, err := store.ReadFile(context.Background(), "in.png", nil)
	if err != nil {
		t.Fatalf("ReadFile(in.png) error = %v", err)
	}
	if !bytes.Equal(in.Data, original) {
		t.Error("encode with an output path modified the input file")
	}

	if out, err := runCLI(t, store, "decode", "out.png", "ruSt"); err != nil || strings.TrimSpace(out) != "hidden" {
		t.Errorf("decode out.png = %q, %v", out, err)
	}
}

func TestCLI_Remove(t *testing.T) {
	store := storage.NewMockStorage()
	store.AddFile("in.png", testPngBytes(t))

	for _, msg := range []string{"one", "two"} {
		if _, err := runCLI(t, store, "encode", "in.png", "ruSt", msg); err != nil {
			t.Fatalf("encode %q error = %v", msg, err)
		}
	}

	out, err := runCLI(t, store, "remove", "in.png", "ruSt")
	if err != nil {
		t.Fatalf("remove error = %v", err)
	}
	if !strings.Contains(out, "Removed 1 chunk(s)") {
		t.Errorf("remove output = %q", out)
	}

	if out, _ := runCLI(t, store, "decode", "in.png", "ruSt"); strings.TrimSpace(out) != "two" {
		t.Errorf("decode after remove = %q, want two", out)
	}

	if _, err := runCLI(t, store, "encode", "in.png", "ruSt", "three"); err != nil {
		t.Fatalf("encode error = %v", err)
	}
	out, err = runCLI(t, store, "remove", "--all", "-o", "clean.png", "in.png", "ruSt")
	if err != nil {
		t.Fatalf("remove --all error = %v", err)
	}
	if !strings.Contains(out, "Removed 2 chunk(s)") {
		t.Errorf("remove --all output = %q", out)
	}

	_, err = runCLI(t, store, "decode", "clean.png", "ruSt")
	if !errors.Is(err, pngerrors.ErrChunkNotFound) {
		t.Errorf("decode clean.png error = %v, want CHUNK_NOT_FOUND", err)
	}
}

func TestCLI_Print(t *testing.T) {
	store := storage.NewMockStorage()
	store.AddFile("in.png", testPngBytes(t))

	if _, err := runCLI(t, store, "encode", "in.png", "ruSt", "This is a secret message!"); err != nil {
		t.Fatalf("encode error = %v", err)
	}

	out, err := runCLI(t, store, "print", "in.png")
	if err != nil {
		t.Fatalf("print error = %v", err)
	}

	for _, want := range []string{"4 chunks", "sha256:", "IHDR", "IDAT", "IEND"} {
		if !strings.Contains(out, want) {
			t.Errorf("print output missing %q:\n%s", want, out)
		}
	}

	var ruStLine string
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, "ruSt") {
			ruStLine = line
		}
	}
	fields := strings.Fields(ruStLine)
	if len(fields) < 3 || fields[2] != "25" {
		t.Errorf("ruSt line = %q, want length 25", ruStLine)
	}
}

func TestCLI_Errors(t *testing.T) {
	store := storage.NewMockStorage()
	store.AddFile("in.png", testPngBytes(t))
	store.AddFile("bad.png", []byte("not a png"))

	tests := []struct {
		name string
		args []string
		want *pngerrors.PngError
	}{
		{"invalid type length", []string{"encode", "in.png", "ruStt", "x"}, pngerrors.ErrInvalidTypeLength},
		{"reserved bit", []string{"encode", "in.png", "Rust", "x"}, pngerrors.ErrInvalidChunkType},
		{"bad signature", []string{"print", "bad.png"}, pngerrors.ErrInvalidSignature},
		{"missing chunk", []string{"remove", "in.png", "ruSt"}, pngerrors.ErrChunkNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCLI(t, store, tt.args...)
			if !errors.Is(err, tt.want) {
				t.Fatalf("error = %v, want %s", err, tt.want.Code)
			}
		})
	}
}

func TestCLI_InvalidLogLevel(t *testing.T) {
	store := storage.NewMockStorage()
	store.AddFile("in.png", testPngBytes(t))

	if _, err := runCLI(t, store, "--log-level", "loud", "print", "in.png"); err == nil {
		t.Fatal("expected an error for an unknown log level")
	}
}

func TestCLI_ArgCount(t *testing.T) {
	store := storage.NewMockStorage()
	if _, err := runCLI(t, store, "decode", "in.png"); err == nil {
		t.Fatal("decode with one argument should fail")
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"crc mismatch", pngerrors.ErrCrcMismatch.WithDetail("chunkType", "IHDR"), exitMalformedFile},
		{"bad signature", pngerrors.ErrInvalidSignature, exitMalformedFile},
		{"invalid utf8", pngerrors.ErrInvalidUtf8, exitMalformedFile},
		{"type length", pngerrors.ErrInvalidTypeLength, exitBadChunkType},
		{"reserved bit", pngerrors.ErrInvalidChunkType.WithCause(errors.New("reserved bit")), exitBadChunkType},
		{"not found", pngerrors.ErrChunkNotFound.WithDetail("chunkType", "ruSt"), exitChunkNotFound},
		{"wrapped not found", fmt.Errorf("decode: %w", pngerrors.ErrChunkNotFound), exitChunkNotFound},
		{"io error", fmt.Errorf("failed to open file: %w", os.ErrNotExist), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCode(tt.err); got != tt.want {
				t.Errorf("exitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestCLI_ExitCodeFromCommand(t *testing.T) {
	store := storage.NewMockStorage()
	store.AddFile("in.png", testPngBytes(t))

	_, err := runCLI(t, store, "decode", "in.png", "ruSt")
	if got := exitCode(err); got != exitChunkNotFound {
		t.Errorf("exitCode(%v) = %d, want %d", err, got, exitChunkNotFound)
	}

	_, err = runCLI(t, store, "decode", "missing.png", "ruSt")
	if got := exitCode(err); got != 1 {
		t.Errorf("exitCode(%v) = %d, want 1", err, got)
	}
}
