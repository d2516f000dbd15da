package recognition

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/daryltucker/ocr-runner/internal/config"
	"github.com/daryltucker/ocr-runner/internal/model"
)

// Recognizer extracts text from one prepared image.
// Implementations must be safe for concurrent use.
type Recognizer interface {
	Name() string
	Recognize(ctx context.Context, filename string, p model.Payload) (string, error)
}

// Factory builds a Recognizer from the run configuration.
type Factory func(cfg *config.Config) (Recognizer, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

func init() {
	Register("openai", func(cfg *config.Config) (Recognizer, error) {
		return NewClient(cfg), nil
	})
}

// Register makes an engine available under name. Later calls replace earlier ones.
func Register(name string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[name] = f
}

// Engines lists the registered engine names.
func Engines() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(factories))
	for n := range factories {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// New builds the engine named by cfg.Engine.
func New(cfg *config.Config) (Recognizer, error) {
	mu.RLock()
	f, ok := factories[cfg.Engine]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown engine %q (available: %s)", cfg.Engine, strings.Join(Engines(), ", "))
	}
	return f(cfg)
}

var cleaner = strings.NewReplacer("*", "", "#", "", " ", "")

// Clean removes every '*', '#' and ASCII space from s.
func Clean(s string) string {
	return cleaner.Replace(s)
}
