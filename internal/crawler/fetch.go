package crawler

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/crypto/sha3"

	"github.com/nao1215/cachewarmer/internal/model"
)

// acceptHeader asks for HTML first, the same way a browser would.
const acceptHeader = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"

// fetch performs one GET request and reads the body up to maxBodySize.
// Failures are recorded in the result, never returned.
func (s *Spider) fetch(ctx context.Context, rawURL string) model.FetchResult {
	res := model.FetchResult{URL: rawURL, FetchedAt: time.Now()}

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			res.SetError(fmt.Errorf("rate limiter: %w", err))
			return res
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		res.SetError(fmt.Errorf("failed to create request: %w", err))
		return res
	}
	req.Header.Set("Accept", acceptHeader)

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		res.Elapsed = time.Since(start)
		res.SetError(err)
		return res
	}
	defer resp.Body.Close()

	res.StatusCode = resp.StatusCode
	res.CacheStatus = CacheStatusFromHeader(resp.Header)

	body, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBodySize))
	res.Elapsed = time.Since(start)
	if err != nil {
		res.SetError(fmt.Errorf("failed to read body: %w", err))
		return res
	}

	res.BodySize = int64(len(body))
	if len(body) > 0 {
		res.Digest = Digest(body)
	}
	if resp.StatusCode == http.StatusOK {
		res.Body = body
	}

	s.logger.Debug("fetched", "url", rawURL, "status", res.StatusCode, "elapsed_ms", res.ElapsedMillis(), "bytes", res.BodySize, "cache", res.CacheStatus.String())

	return res
}

// Digest returns the hex SHA3-256 of body.
func Digest(body []byte) string {
	sum := sha3.Sum256(body)
	return hex.EncodeToString(sum[:])
}
