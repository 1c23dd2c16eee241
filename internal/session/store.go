// Package session persists finished conversations as JSONL transcripts.
//
// File format:
//
//	Line 1:  {"_type":"metadata","summary":{…}}
//	Line 2+: one JSON turn object per line, in conversation order
//
// Transcripts are written once, when a session terminates.
package session

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/contactdesk/contactdesk/internal/agent"
	"github.com/contactdesk/contactdesk/internal/schema"
	"github.com/contactdesk/contactdesk/pkg/logger"
)

const metadataType = "metadata"

var ErrMalformedTranscript = errors.New("malformed transcript")

// Store writes transcripts under one directory. It implements
// agent.TranscriptSink and is safe for concurrent sessions since every
// session writes its own file.
type Store struct {
	dir string
	log *logger.Logger
}

var _ agent.TranscriptSink = (*Store)(nil)

// NewStore creates dir if necessary. A leading "~" expands to the home
// directory.
func NewStore(dir string, l *logger.Logger) (*Store, error) {
	dir = expandHome(dir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create transcripts dir: %w", err)
	}
	if l == nil {
		l = logger.Get()
	}
	return &Store{dir: dir, log: l.Named("transcripts")}, nil
}

func (s *Store) Dir() string { return s.dir }

type metadataLine struct {
	Type    string        `json:"_type"`
	Summary agent.Summary `json:"summary"`
}

// SaveTranscript writes history and summary to <start>_<session id>.jsonl.
// The file is written to a temporary name first and renamed into place.
func (s *Store) SaveTranscript(history schema.Messages, summary agent.Summary) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(metadataLine{Type: metadataType, Summary: summary}); err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	for _, msg := range history.Messages {
		if err := enc.Encode(messageToWire(msg)); err != nil {
			return fmt.Errorf("encode turn: %w", err)
		}
	}

	path := s.path(summary)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("write transcript %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename transcript %s: %w", path, err)
	}
	s.log.Debugw("Transcript saved", "path", path, "turns", history.Len())
	return nil
}

// Entry describes one stored transcript.
type Entry struct {
	Path    string
	Summary agent.Summary
}

// List returns stored transcripts newest first. Files whose first line is
// not a metadata record are skipped.
func (s *Store) List() ([]Entry, error) {
	paths, err := filepath.Glob(filepath.Join(s.dir, "*.jsonl"))
	if err != nil {
		return nil, err
	}
	out := make([]Entry, 0, len(paths))
	for _, path := range paths {
		summary, err := readSummary(path)
		if err != nil {
			s.log.Warnw("Skipping transcript", "path", path, "err", err)
			continue
		}
		out = append(out, Entry{Path: path, Summary: summary})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Summary.StartTime.After(out[j].Summary.StartTime)
	})
	return out, nil
}

// Load reads a transcript back.
func (s *Store) Load(path string) (schema.Messages, agent.Summary, error) {
	f, err := os.Open(path)
	if err != nil {
		return schema.Messages{}, agent.Summary{}, err
	}
	defer f.Close()

	var (
		summary  agent.Summary
		history  = schema.NewMessages()
		seenMeta bool
	)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 1<<20), 1<<20) // 1 MB per line
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		if !seenMeta {
			var meta metadataLine
			if err := json.Unmarshal(line, &meta); err != nil || meta.Type != metadataType {
				return schema.Messages{}, agent.Summary{}, fmt.Errorf("%w: %s: first line is not metadata", ErrMalformedTranscript, path)
			}
			summary, seenMeta = meta.Summary, true
			continue
		}
		var w wireMessage
		if err := json.Unmarshal(line, &w); err != nil {
			s.log.Warnw("Skipping malformed transcript line", "path", path, "err", err)
			continue
		}
		history.Messages = append(history.Messages, wireToMessage(w))
	}
	if err := scanner.Err(); err != nil {
		return schema.Messages{}, agent.Summary{}, fmt.Errorf("read transcript %s: %w", path, err)
	}
	if !seenMeta {
		return schema.Messages{}, agent.Summary{}, fmt.Errorf("%w: %s: empty file", ErrMalformedTranscript, path)
	}
	return history, summary, nil
}

func readSummary(path string) (agent.Summary, error) {
	f, err := os.Open(path)
	if err != nil {
		return agent.Summary{}, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 1<<20), 1<<20)
	if !scanner.Scan() {
		return agent.Summary{}, fmt.Errorf("%w: empty file", ErrMalformedTranscript)
	}
	var meta metadataLine
	if err := json.Unmarshal(scanner.Bytes(), &meta); err != nil || meta.Type != metadataType {
		return agent.Summary{}, fmt.Errorf("%w: first line is not metadata", ErrMalformedTranscript)
	}
	return meta.Summary, nil
}

func (s *Store) path(summary agent.Summary) string {
	name := summary.StartTime.UTC().Format("20060102T150405") + "_" + safeFilename(summary.SessionID)
	return filepath.Join(s.dir, name+".jsonl")
}

// safeFilename replaces filesystem-unsafe characters with underscores.
func safeFilename(name string) string {
	const unsafe = `<>:"/\|?*`
	var b strings.Builder
	for _, r := range name {
		if strings.ContainsRune(unsafe, r) {
			b.WriteByte('_')
		} else {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
