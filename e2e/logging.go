//go:build e2e

package e2e

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/testcontainers/testcontainers-go"
)

var ansiRegex = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

func StripAnsi(s string) string {
	return ansiRegex.ReplaceAllString(s, "")
}

type LogSource string

const (
	// SourceStdout carries the command prompt output
	SourceStdout LogSource = "stdout"
	// SourceStderr carries the simulation log
	SourceStderr LogSource = "stderr"
)

type LogSubscription struct {
	Run     string
	Source  LogSource
	Pattern string
	Regex   *regexp.Regexp
	MatchCh chan struct{}
}

func (s *LogSubscription) matches(content string) bool {
	if s.Regex != nil {
		return s.Regex.MatchString(content)
	}
	return strings.Contains(content, s.Pattern)
}

// LogManager collects the output of every simulation run and notifies subscribers when a
// pattern shows up. Output received before subscribing is matched as well.
type LogManager struct {
	mu          sync.Mutex
	subscribers []*LogSubscription
	history     map[string]map[LogSource]*strings.Builder
}

func NewLogManager() *LogManager {
	return &LogManager{
		subscribers: make([]*LogSubscription, 0),
		history:     make(map[string]map[LogSource]*strings.Builder),
	}
}

func (m *LogManager) buffer(run string, source LogSource) *strings.Builder {
	if _, ok := m.history[run]; !ok {
		m.history[run] = make(map[LogSource]*strings.Builder)
	}
	if _, ok := m.history[run][source]; !ok {
		m.history[run][source] = &strings.Builder{}
	}
	return m.history[run][source]
}

func (m *LogManager) Accept(run string, source LogSource, content string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b := m.buffer(run, source)
	b.WriteString(content)
	full := b.String()

	for _, sub := range m.subscribers {
		if sub.Run != run || sub.Source != source {
			continue
		}
		if sub.matches(full) {
			select {
			case sub.MatchCh <- struct{}{}:
			default:
			}
		}
	}
}

func (m *LogManager) Subscribe(run string, source LogSource, pattern string, isRegex bool) (*LogSubscription, error) {
	sub := &LogSubscription{
		Run:     run,
		Source:  source,
		MatchCh: make(chan struct{}, 1),
	}
	if isRegex {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, err
		}
		sub.Regex = re
	} else {
		sub.Pattern = pattern
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscribers = append(m.subscribers, sub)
	if sub.matches(m.buffer(run, source).String()) {
		sub.MatchCh <- struct{}{}
	}
	return sub, nil
}

func (m *LogManager) Unsubscribe(sub *LogSubscription) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, s := range m.subscribers {
		if s == sub {
			m.subscribers = append(m.subscribers[:i], m.subscribers[i+1:]...)
			break
		}
	}
}

// Output returns everything run has written to source so far
func (m *LogManager) Output(run string, source LogSource) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.buffer(run, source).String()
}

type UnifiedLogConsumer struct {
	Run     string
	Manager *LogManager
}

func (c *UnifiedLogConsumer) Accept(l testcontainers.Log) {
	source := SourceStdout
	if l.LogType == testcontainers.StderrLog {
		source = SourceStderr
	}
	content := StripAnsi(string(l.Content))
	fmt.Printf("[%s:%s] %s", c.Run, source, content)
	c.Manager.Accept(c.Run, source, content)
}
