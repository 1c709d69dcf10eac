package loader

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"react-rag-agent/internal/errors"
	"react-rag-agent/internal/models"

	"github.com/PuerkitoBio/goquery"
)

// WebPageProcessor fetches a URL and extracts the main textual content.
type WebPageProcessor struct {
	client *http.Client
}

func NewWebPageProcessor(client *http.Client) *WebPageProcessor {
	if client == nil {
		client = http.DefaultClient
	}
	return &WebPageProcessor{client: client}
}

func (w *WebPageProcessor) Process(ctx context.Context, source string) ([]*models.DocumentRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, errors.NewValidation("invalid URL: " + source)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return nil, errors.NewUpstream("failed to fetch "+source, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.NewUpstream(fmt.Sprintf("fetching %s returned status %d", source, resp.StatusCode), nil)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, errors.NewUpstream("failed to parse "+source, err)
	}

	var parts []string
	doc.Find("p, h1, h2, h3, h4, h5, h6, li").Each(func(_ int, sel *goquery.Selection) {
		if text := strings.TrimSpace(sel.Text()); text != "" {
			parts = append(parts, text)
		}
	})

	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		title = source
	}

	record := models.NewDocumentRecord(source, strings.Join(parts, "\n"), map[string]string{
		"url":   source,
		"type":  "webpage",
		"title": title,
	})
	return []*models.DocumentRecord{record}, nil
}
