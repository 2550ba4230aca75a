package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// WatchEvents connects to a running taproot server's /events stream and
// hands every event payload to handle. It returns when the context is
// canceled or the server closes the stream.
func WatchEvents(ctx context.Context, baseURL string, handle func(event, data string)) error {
	url := strings.TrimRight(baseURL, "/") + "/events"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned %s", resp.Status)
	}

	scanner := bufio.NewScanner(resp.Body)
	var event string
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			handle(event, strings.TrimPrefix(line, "data: "))
			event = ""
		}
	}
	if err := scanner.Err(); err != nil && ctx.Err() == nil && err != io.EOF {
		return fmt.Errorf("stream error: %w", err)
	}
	return nil
}
