package builtin

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/hupe1980/agentkit/tool"
)

const (
	// DefaultMaxLength bounds the characters of a web_fetch body.
	DefaultMaxLength = 5000
	// maxBodyBytes caps how much of a response is read at all.
	maxBodyBytes = 10 << 20
)

type webFetchArgs struct {
	URL       string `json:"url" description:"The URL to fetch"`
	Method    string `json:"method" description:"HTTP method (GET, POST, etc.). Default: GET" default:"GET"`
	MaxLength int    `json:"max_length" description:"Maximum characters of the body to return (default: 5000)" default:"5000"`
}

func newWebFetch(o Options) *tool.Definition {
	client := o.HTTPClient

	return tool.NewTyped(NameWebFetch,
		"Fetch a URL and return the response body. Useful for calling APIs or reading web pages.",
		func(ctx context.Context, args webFetchArgs) (any, error) {
			method := strings.ToUpper(args.Method)
			if method == "" {
				method = http.MethodGet
			}
			maxLength := args.MaxLength
			if maxLength <= 0 {
				maxLength = DefaultMaxLength
			}

			req, err := http.NewRequestWithContext(ctx, method, args.URL, nil)
			if err != nil {
				return fmt.Sprintf("Error fetching %s: %v", args.URL, err), nil
			}

			resp, err := client.Do(req)
			if err != nil {
				return fmt.Sprintf("Error fetching %s: %v", args.URL, err), nil
			}
			defer resp.Body.Close()

			body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
			if err != nil {
				return fmt.Sprintf("Error fetching %s: %v", args.URL, err), nil
			}

			o.Logger.Debug("builtin.web_fetch", "url", args.URL, "method", method, "status", resp.StatusCode, "bytes", len(body))

			return fmt.Sprintf("Status: %d\n\n%s", resp.StatusCode, truncateChars(string(body), maxLength)), nil
		})
}

// truncateChars keeps the first n characters and notes the original length.
func truncateChars(text string, n int) string {
	total := utf8.RuneCountInString(text)
	if total <= n {
		return text
	}
	runes := []rune(text)
	return string(runes[:n]) + fmt.Sprintf("\n... (truncated, %d total chars)", total)
}
