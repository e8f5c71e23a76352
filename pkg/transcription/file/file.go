// Package file implements a transcription.Recognizer that replays a JSONL
// transcript, one {"speaker_id","text","type"} object per line. In follow
// mode it keeps tailing the file for appended lines.
package file

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/papercomputeco/advisor/pkg/logger"
	"github.com/papercomputeco/advisor/pkg/transcription"
)

// Line is the JSONL record format.
type Line struct {
	SpeakerID string `json:"speaker_id"`
	Text      string `json:"text"`
	Type      string `json:"type,omitempty"`
}

type Config struct {
	Path string

	// Follow keeps reading appended lines until the context ends or Stop
	// is called.
	Follow bool

	// Delay is slept before each event to mimic a live call.
	Delay time.Duration

	Logger *slog.Logger
}

// Recognizer replays a transcript file.
type Recognizer struct {
	config Config
	logger *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(c Config) *Recognizer {
	l := c.Logger
	if l == nil {
		l = logger.Nop()
	}
	return &Recognizer{config: c, logger: l}
}

// Start opens the file and replays it in the background.
func (r *Recognizer) Start(ctx context.Context, h transcription.Handlers) error {
	f, err := os.Open(r.config.Path)
	if err != nil {
		return fmt.Errorf("opening transcript: %w", err)
	}

	var watcher *fsnotify.Watcher
	if r.config.Follow {
		watcher, err = fsnotify.NewWatcher()
		if err != nil {
			f.Close()
			return fmt.Errorf("creating transcript watcher: %w", err)
		}
		if err := watcher.Add(filepath.Dir(r.config.Path)); err != nil {
			watcher.Close()
			f.Close()
			return fmt.Errorf("watching transcript dir: %w", err)
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	r.mu.Lock()
	r.cancel = cancel
	r.mu.Unlock()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer f.Close()
		if watcher != nil {
			defer watcher.Close()
		}

		if h.SessionStarted != nil {
			h.SessionStarted()
		}
		if err := r.replay(ctx, f, watcher, h); err != nil {
			if h.Canceled != nil {
				h.Canceled(err)
			}
			return
		}
		if h.SessionStopped != nil {
			h.SessionStopped()
		}
	}()
	return nil
}

// Stop ends the replay and waits for it. The session still reports
// SessionStopped.
func (r *Recognizer) Stop() error {
	r.mu.Lock()
	cancel := r.cancel
	r.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	r.wg.Wait()
	return nil
}

func (r *Recognizer) replay(ctx context.Context, f *os.File, watcher *fsnotify.Watcher, h transcription.Handlers) error {
	reader := bufio.NewReader(f)
	lineNo := 0
	var partial []byte

	readAvailable := func() error {
		for {
			chunk, err := reader.ReadBytes('\n')
			partial = append(partial, chunk...)
			if err != nil {
				if errors.Is(err, io.EOF) {
					return nil
				}
				return fmt.Errorf("reading transcript: %w", err)
			}

			line := partial
			partial = nil
			lineNo++
			if err := r.emit(ctx, line, lineNo, h); err != nil {
				return err
			}
		}
	}

	if err := readAvailable(); err != nil {
		return err
	}

	if watcher == nil {
		// A last line without a newline still counts.
		if len(bytes.TrimSpace(partial)) > 0 {
			lineNo++
			return r.emit(ctx, partial, lineNo, h)
		}
		return nil
	}

	target := filepath.Clean(r.config.Path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if err := readAvailable(); err != nil {
				return err
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("transcript watcher error: %w", err)
		}
	}
}

func (r *Recognizer) emit(ctx context.Context, raw []byte, lineNo int, h transcription.Handlers) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil
	}

	var l Line
	if err := json.Unmarshal(raw, &l); err != nil {
		r.logger.Warn("skipping malformed transcript line", "line", lineNo, "error", err)
		return nil
	}
	typ, err := transcription.ParseEventType(l.Type)
	if err != nil {
		r.logger.Warn("skipping transcript line", "line", lineNo, "error", err)
		return nil
	}

	if r.config.Delay > 0 {
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(r.config.Delay):
		}
	}
	if ctx.Err() != nil {
		return nil
	}

	e := transcription.Event{Text: l.Text, SpeakerID: l.SpeakerID, Type: typ, At: time.Now()}
	switch typ {
	case transcription.Interim:
		if h.Transcribing != nil {
			h.Transcribing(e)
		}
	default:
		if h.Transcribed != nil {
			h.Transcribed(e)
		}
	}
	return nil
}
