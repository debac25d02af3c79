package querylog

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/xxxsen/docqa/internal/model"
)

const fieldSep = '|'

type fileConfig struct {
	Path string `json:"path"`
}

// fileStore keeps one `query|response` record per physical line. Line breaks
// and backslashes inside a field are escaped, and fields holding the separator
// or a quote are CSV-quoted.
type fileStore struct {
	path string
	mu   sync.Mutex
}

func NewFileStore(path string) Store {
	return &fileStore{path: path}
}

func (s *fileStore) Type() string {
	return "file"
}

func (s *fileStore) Append(ctx context.Context, query, response string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create log dir: %w", err)
		}
	}
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open query log: %w", err)
	}
	defer f.Close()
	w := csv.NewWriter(f)
	w.Comma = fieldSep
	if err := w.Write([]string{escapeField(query), escapeField(response)}); err != nil {
		return fmt.Errorf("write query log: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("write query log: %w", err)
	}
	return nil
}

func (s *fileStore) List(ctx context.Context) ([]model.QueryLogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []model.QueryLogEntry{}, nil
		}
		return nil, fmt.Errorf("open query log: %w", err)
	}
	defer f.Close()
	return parseLog(f)
}

func (s *fileStore) Close() error {
	return nil
}

// parseLog reads one record per line. A line the CSV reader rejects is taken
// raw and split on the first separator.
func parseLog(r io.Reader) ([]model.QueryLogEntry, error) {
	br := bufio.NewReader(r)
	entries := make([]model.QueryLogEntry, 0)
	for {
		line, err := br.ReadString('\n')
		if err != nil && err != io.EOF {
			return nil, fmt.Errorf("read query log: %w", err)
		}
		if rec, ok := parseLine(line); ok {
			entries = append(entries, rec)
		}
		if err == io.EOF {
			return entries, nil
		}
	}
}

func parseLine(line string) (model.QueryLogEntry, bool) {
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return model.QueryLogEntry{}, false
	}
	cr := csv.NewReader(strings.NewReader(line))
	cr.Comma = fieldSep
	cr.FieldsPerRecord = -1
	if fields, err := cr.Read(); err == nil && len(fields) == 2 {
		return model.QueryLogEntry{Query: unescapeField(fields[0]), Response: unescapeField(fields[1])}, true
	}
	query, response, _ := strings.Cut(line, string(fieldSep))
	return model.QueryLogEntry{Query: query, Response: response}, true
}

var fieldEscaper = strings.NewReplacer(`\`, `\\`, "\n", `\n`, "\r", `\r`)

func escapeField(s string) string {
	return fieldEscaper.Replace(s)
}

// unescapeField reverses escapeField. Unknown escapes are kept as written.
func unescapeField(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var sb strings.Builder
	sb.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 >= len(s) {
			sb.WriteByte(c)
			continue
		}
		switch s[i+1] {
		case '\\':
			sb.WriteByte('\\')
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		default:
			sb.WriteByte(c)
			continue
		}
		i++
	}
	return sb.String()
}

func createFileStore(args interface{}) (Store, error) {
	cfg := &fileConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, fmt.Errorf("query log path is required")
	}
	return NewFileStore(cfg.Path), nil
}

func init() {
	Register("file", createFileStore)
}
