package roster

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/unicode"

	"git.home.luguber.info/inful/namepick/internal/foundation"
)

// utf8BOM is prepended when a repaired file is rewritten, so editors that
// wrote the file in a legacy encoding keep reading it correctly afterwards.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// decodeCandidate is one encoding tried during repair, in priority order.
type decodeCandidate struct {
	name string
	enc  encoding.Encoding
}

// decodeCandidates lists the legacy encodings roster files show up in.
// UTF-16 variants are tried before the Chinese codepages because UTF-16 bytes
// frequently decode as garbage-but-valid GB18030.
var decodeCandidates = []decodeCandidate{
	{"utf-16", unicode.UTF16(unicode.LittleEndian, unicode.UseBOM)},
	{"utf-16le", unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)},
	{"utf-16be", unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)},
	{"gb18030", simplifiedchinese.GB18030},
	{"gbk", simplifiedchinese.GBK},
}

// DecodeText converts raw roster file bytes to a UTF-8 string.
//
// Strict UTF-8 (with or without BOM) is accepted as-is. Otherwise each legacy
// candidate is tried in order and the first decode that yields clean text
// wins. The returned name identifies the source encoding ("utf-8" when no
// conversion was needed).
func DecodeText(data []byte) (string, string, error) {
	trimmed := bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(trimmed) {
		return string(trimmed), "utf-8", nil
	}

	for _, candidate := range decodeCandidates {
		decoded, err := candidate.enc.NewDecoder().Bytes(data)
		if err != nil {
			continue
		}
		text := string(bytes.TrimPrefix(decoded, utf8BOM))
		// The x/text decoders substitute U+FFFD instead of failing; treat any
		// replacement rune as a failed candidate.
		if strings.ContainsRune(text, utf8.RuneError) {
			continue
		}
		return text, candidate.name, nil
	}

	return "", "", foundation.DecodeError("roster file is not valid in any supported encoding").
		WithComponent("roster").
		WithOperation("decode").
		Build()
}

// ReadLines reads a roster file, repairing its encoding when necessary.
//
// When the file is not valid UTF-8 it is decoded via DecodeText, the original
// bytes are backed up next to the config data, and the file is rewritten as
// UTF-8 with BOM so subsequent loads take the fast path.
func ReadLines(path, backupDir string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, foundation.PersistenceError("read roster file").
			WithComponent("roster").
			WithCause(err).
			WithContext(foundation.Fields{"path": path}).
			Build()
	}

	text, encodingName, err := DecodeText(data)
	if err != nil {
		return nil, err
	}

	if encodingName != "utf-8" {
		if err := rewriteAsUTF8(path, backupDir, data, text); err != nil {
			return nil, err
		}
		slog.Info("Repaired roster file encoding",
			"path", path, "source_encoding", encodingName)
	}

	return splitLines(text), nil
}

// rewriteAsUTF8 backs up the original bytes and replaces the file with a
// UTF-8 (BOM) rendition of the decoded text.
func rewriteAsUTF8(path, backupDir string, original []byte, text string) error {
	if backupDir != "" {
		if err := os.MkdirAll(backupDir, 0o755); err != nil {
			return foundation.PersistenceError("create encoding backup directory").
				WithComponent("roster").
				WithCause(err).
				Build()
		}
		stamp := time.Now().Format("20060102_150405")
		backupPath := filepath.Join(backupDir,
			fmt.Sprintf("%s_%s.bak", filepath.Base(path), stamp))
		if err := os.WriteFile(backupPath, original, 0o644); err != nil {
			return foundation.PersistenceError("write encoding backup").
				WithComponent("roster").
				WithCause(err).
				WithContext(foundation.Fields{"backup_path": backupPath}).
				Build()
		}
	}

	out := append(append([]byte{}, utf8BOM...), []byte(text)...)
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return foundation.PersistenceError("rewrite roster file as utf-8").
			WithComponent("roster").
			WithCause(err).
			WithContext(foundation.Fields{"path": path}).
			Build()
	}
	return nil
}

// splitLines splits on \n and drops a trailing \r from each line so CRLF
// files parse identically to LF files.
func splitLines(text string) []string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	return lines
}
