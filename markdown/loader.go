package markdown

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	ErrModuleInit = errors.New("markdown renderer failed to initialize")
	ErrNotReady   = errors.New("markdown renderer is not ready")
)

// InitFunc builds the renderer. It runs at most once per Loader.
type InitFunc func(ctx context.Context) (*Renderer, error)

// Loader initialises a Renderer in the background. Navigation never waits
// on it; previews wait on Ready. A failed initialisation is not retried.
type Loader struct {
	Logger *logrus.Logger

	init     InitFunc
	once     sync.Once
	ready    chan struct{}
	renderer *Renderer
	err      error
}

func NewLoader(logger *logrus.Logger, init InitFunc) *Loader {
	if logger == nil {
		logger = logrus.New()
		logger.SetLevel(logrus.InfoLevel)
	}
	if init == nil {
		init = DefaultInit
	}
	return &Loader{
		Logger: logger,
		init:   init,
		ready:  make(chan struct{}),
	}
}

// DefaultInit builds the standard renderer and checks it with a smoke render.
func DefaultInit(ctx context.Context) (*Renderer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r := NewRenderer()
	if _, err := r.Render("# ok", "owner", "repo"); err != nil {
		return nil, err
	}
	return r, nil
}

// Start kicks off initialisation. Later calls are no-ops.
func (l *Loader) Start(ctx context.Context) {
	l.once.Do(func() {
		go func() {
			defer close(l.ready)
			r, err := l.init(ctx)
			if err != nil {
				l.err = fmt.Errorf("%w: %v", ErrModuleInit, err)
				l.Logger.WithError(err).Error("failed to init markdown renderer")
				return
			}
			l.renderer = r
			l.Logger.Debug("markdown renderer loaded")
		}()
	})
}

// Ready is closed once initialisation has finished, successfully or not.
func (l *Loader) Ready() <-chan struct{} {
	return l.ready
}

// Wait blocks until the loader is ready or ctx is done.
func (l *Loader) Wait(ctx context.Context) error {
	select {
	case <-l.ready:
		return l.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Render is the preview entry point. It fails with ErrNotReady before
// Ready is closed and with ErrModuleInit after a failed load.
func (l *Loader) Render(src, owner, repository string) (string, error) {
	select {
	case <-l.ready:
	default:
		return "", ErrNotReady
	}
	if l.err != nil {
		return "", l.err
	}
	return l.renderer.Render(src, owner, repository)
}
