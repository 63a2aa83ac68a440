package chart

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/mechaitanya/MarketPulse/services/marketdata"
)

// GraphSource provides the price series behind the weekly chart.
type GraphSource interface {
	ListWeekGraphPoints(instrumentID int) ([]marketdata.WeekGraphPoint, error)
}

// Service renders rich tweet graphics: it plots the instrument's week price
// series, substitutes the plot into the HTML template, converts the HTML to
// an image through the external renderer, and writes the result under the
// server file path.
type Service struct {
	source         GraphSource
	renderURL      string
	serverFilePath string
	client         *http.Client
}

// NewService creates a new chart service
func NewService(source GraphSource, renderURL, serverFilePath string) *Service {
	return &Service{
		source:         source,
		renderURL:      renderURL,
		serverFilePath: serverFilePath,
		client:         &http.Client{Timeout: 60 * time.Second},
	}
}

var graphImagePlaceholder = regexp.MustCompile(`(?i)\{graphimagepath\}`)

// RenderGraphic produces the image for a rich tweet and returns its path.
func (s *Service) RenderGraphic(instrumentID int, htmlTemplate, fileStem, extension, ticker string) (string, error) {
	if ticker == "" {
		ticker = "test"
	}

	dir := filepath.Join(s.serverFilePath, ticker)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create image directory: %w", err)
	}

	plotPath, err := s.generatePlot(instrumentID, fileStem, dir)
	if err != nil {
		// A missing plot degrades the graphic, it does not abort the tweet.
		log.Printf("Week plot generation failed for instrument %d: %v", instrumentID, err)
	} else {
		htmlTemplate = graphImagePlaceholder.ReplaceAllString(htmlTemplate, plotPath)
	}

	imageBytes, err := s.convertHTML(htmlTemplate)
	if err != nil {
		return "", err
	}

	imagePath := filepath.Join(dir, fileStem+extension)
	if err := os.WriteFile(imagePath, imageBytes, 0o644); err != nil {
		return "", fmt.Errorf("failed to write graphic: %w", err)
	}
	return imagePath, nil
}

// generatePlot writes the week price series as an SVG line chart and
// returns its path.
func (s *Service) generatePlot(instrumentID int, fileStem, dir string) (string, error) {
	points, err := s.source.ListWeekGraphPoints(instrumentID)
	if err != nil {
		return "", err
	}
	if len(points) == 0 {
		return "", fmt.Errorf("no week graph data for instrument %d", instrumentID)
	}

	prices := make([]float64, len(points))
	minP, maxP := points[0].Price.InexactFloat64(), points[0].Price.InexactFloat64()
	for i, p := range points {
		v := p.Price.InexactFloat64()
		prices[i] = v
		if v < minP {
			minP = v
		}
		if v > maxP {
			maxP = v
		}
	}
	if maxP == minP {
		maxP = minP + 1
	}

	const width, height, pad = 365.0, 201.0, 10.0
	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f">`, width, height)
	b.WriteString(`<polyline fill="none" stroke="#1f77b4" stroke-width="1.5" points="`)
	for i, v := range prices {
		x := pad + (width-2*pad)*float64(i)/float64(max(len(prices)-1, 1))
		y := height - pad - (height-2*pad)*(v-minP)/(maxP-minP)
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%.1f,%.1f", x, y)
	}
	b.WriteString(`"/></svg>`)

	plotPath := filepath.Join(dir, fileStem+".svg")
	if err := os.WriteFile(plotPath, []byte(b.String()), 0o644); err != nil {
		return "", err
	}
	return plotPath, nil
}

// convertHTML posts the HTML to the external renderer and returns the image
func (s *Service) convertHTML(html string) ([]byte, error) {
	if s.renderURL == "" {
		return nil, fmt.Errorf("HTML_RENDER_URL not configured")
	}

	resp, err := s.client.Post(s.renderURL, "text/html", bytes.NewReader([]byte(html)))
	if err != nil {
		return nil, fmt.Errorf("HTML renderer request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("HTML renderer returned status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
