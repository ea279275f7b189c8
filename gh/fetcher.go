package gh

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"repo-nav/helpers"
	"repo-nav/model"
)

// isLfsResponse checks if the HTTP response potentially contains a Git LFS response.
// It peeks at the response body without consuming it, resetting it for subsequent reads.
func isLfsResponse(res *http.Response) bool {
	contentLength, err := strconv.Atoi(res.Header.Get("Content-Length"))
	if err != nil || contentLength < 128 || contentLength > 140 {
		return false
	}

	// Peek at the beginning of the response
	bufr := make([]byte, 40)
	n, err := io.ReadFull(res.Body, bufr)
	if err != nil && err != io.ErrUnexpectedEOF {
		return false
	}

	restOfBody, err := io.ReadAll(res.Body)
	if err != nil {
		return false
	}

	isLfs := strings.HasPrefix(string(bufr[:n]), "version https://git-lfs.github.com/spec/v1")

	// Reset the body for the caller to read
	res.Body.Close()
	fullBody := append(bufr[:n], restOfBody...)
	res.Body = io.NopCloser(bytes.NewReader(fullBody))

	return isLfs
}

// rawFileURL is where the raw bytes of the blob d points at are served.
func rawFileURL(baseURL string, d model.PathDescriptor) string {
	return fmt.Sprintf("%s/%s/%s", baseURL, helpers.JoinSegments(d.Owner, d.Repository, d.Branch), helpers.JoinSegments(d.Path...))
}

// FetchRaw downloads the file a blob descriptor points at, following Git
// LFS pointers to the media host.
func (c *Client) FetchRaw(ctx context.Context, d model.PathDescriptor) ([]byte, error) {
	if d.Mode != model.ModeBlob || len(d.Path) == 0 {
		return nil, fmt.Errorf("%s/%s: raw content needs a file path", d.Owner, d.Repository)
	}
	filePath := strings.Join(d.Path, "/")

	resp, err := c.get(ctx, rawFileURL(c.rawBaseURL, d))
	if err != nil {
		return nil, fmt.Errorf("HTTP error for %s: %w", filePath, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %s for %s", resp.Status, filePath)
	}

	if isLfsResponse(resp) {
		c.logger.WithField("path", filePath).Debug("following LFS pointer")
		lfsResp, err := c.get(ctx, rawFileURL(c.mediaBaseURL, d))
		if err != nil {
			return nil, fmt.Errorf("HTTP error for LFS %s: %w", filePath, err)
		}
		defer lfsResp.Body.Close()
		if lfsResp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("HTTP %s for LFS %s", lfsResp.Status, filePath)
		}
		resp = lfsResp
	}

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response body for %s: %w", filePath, err)
	}
	return content, nil
}

func (c *Client) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request for %s: %w", url, err)
	}
	return c.httpClient.Do(req)
}
