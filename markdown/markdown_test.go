package markdown

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderCanonicalizesImageLinks(t *testing.T) {
	r := NewRenderer()

	tests := []struct {
		name string
		src  string
	}{
		{"absolute path", `<img src="/docs/assets/img.png" alt="image" />`},
		{"dot relative", `<img src="./docs/assets/img.png" alt="image" />`},
		{"bare relative", `<img src="docs/assets/img.png" alt="image" />`},
		{"markdown image", `![image](docs/assets/img.png)`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := r.Render(tt.src, "oknozor", "gill")
			require.NoError(t, err)
			assert.Contains(t, out, `src="/oknozor/gill/docs/assets/img.png"`)
			assert.Contains(t, out, `alt="image"`)
		})
	}
}

func TestRenderKeepsAbsoluteImages(t *testing.T) {
	out, err := NewRenderer().Render("![logo](https://example.com/logo.png)", "octo", "widgets")
	require.NoError(t, err)
	assert.Contains(t, out, `src="https://example.com/logo.png"`)
}

func TestRenderSanitizes(t *testing.T) {
	out, err := NewRenderer().Render("# Title\n\n<script>alert(1)</script>\n\nhello *world*", "octo", "widgets")
	require.NoError(t, err)
	assert.NotContains(t, out, "<script")
	assert.Contains(t, out, "<em>world</em>")
	assert.Contains(t, out, "Title</h1>")
}

func TestRenderCodeLanguageClass(t *testing.T) {
	out, err := NewRenderer().Render("```go\nfmt.Println(1)\n```", "octo", "widgets")
	require.NoError(t, err)
	assert.Contains(t, out, `class="language-go"`)
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestLoaderNotReadyBeforeStart(t *testing.T) {
	l := NewLoader(quietLogger(), nil)
	_, err := l.Render("x", "o", "r")
	assert.ErrorIs(t, err, ErrNotReady)
}

func TestLoaderRendersAfterReady(t *testing.T) {
	l := NewLoader(quietLogger(), nil)
	l.Start(context.Background())

	select {
	case <-l.Ready():
	case <-time.After(5 * time.Second):
		t.Fatal("loader never became ready")
	}

	out, err := l.Render("![a](a.png)", "octo", "widgets")
	require.NoError(t, err)
	assert.Contains(t, out, `src="/octo/widgets/a.png"`)
}

func TestLoaderInitRunsOnce(t *testing.T) {
	calls := 0
	l := NewLoader(quietLogger(), func(ctx context.Context) (*Renderer, error) {
		calls++
		return NewRenderer(), nil
	})

	l.Start(context.Background())
	l.Start(context.Background())
	require.NoError(t, l.Wait(context.Background()))
	l.Start(context.Background())

	assert.Equal(t, 1, calls)
}

func TestLoaderFailureIsTerminal(t *testing.T) {
	calls := 0
	boom := errors.New("wasm blew up")
	l := NewLoader(quietLogger(), func(ctx context.Context) (*Renderer, error) {
		calls++
		return nil, boom
	})
	l.Start(context.Background())

	err := l.Wait(context.Background())
	assert.ErrorIs(t, err, ErrModuleInit)

	_, err = l.Render("x", "o", "r")
	assert.ErrorIs(t, err, ErrModuleInit)

	l.Start(context.Background())
	_, err = l.Render("x", "o", "r")
	assert.ErrorIs(t, err, ErrModuleInit)
	assert.Equal(t, 1, calls)
}

func TestLoaderWaitHonoursContext(t *testing.T) {
	block := make(chan struct{})
	defer close(block)
	l := NewLoader(quietLogger(), func(ctx context.Context) (*Renderer, error) {
		<-block
		return NewRenderer(), nil
	})
	l.Start(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, l.Wait(ctx), context.DeadlineExceeded)
}
