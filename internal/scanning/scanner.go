package scanning

import (
	"context"
	"fmt"

	"github.com/Abby263/grocery-tracking-agent/internal/llm"
)

// receiptMarkdownPrompt asks the vision model to transcribe a receipt into a
// markdown document the downstream agents can interpret.
const receiptMarkdownPrompt = `Analyze this receipt image and extract the following information in markdown format:
- Store name and date
- List of items with:
  * Item name
  * Quantity
  * Price
  * Category (Groceries/Produce/Dairy/etc.)

Format the output as a proper markdown document. Read every line of the
receipt carefully; use the printed item names even when abbreviated, and keep
prices exactly as shown. Do not invent items that are not on the receipt.
Return only the markdown document, without code fences.`

// Scanner defines the interface for receipt ingestion operations
type Scanner interface {
	// ScanReceipt analyzes a receipt image/PDF and returns it as markdown
	ScanReceipt(ctx context.Context, imageData []byte, contentType string) (string, error)
	// Close closes the scanner and releases resources
	Close() error
}

// VisionScanner implements Scanner on top of a vision-capable llm.Provider
type VisionScanner struct {
	provider llm.Provider
}

// NewVisionScanner creates a Scanner backed by the given provider
func NewVisionScanner(provider llm.Provider) *VisionScanner {
	return &VisionScanner{provider: provider}
}

// ScanReceipt converts the receipt file to an enhanced PNG and asks the
// vision model to transcribe it as markdown.
func (s *VisionScanner) ScanReceipt(ctx context.Context, imageData []byte, contentType string) (string, error) {
	finalImageData, err := prepareImageData(imageData, contentType)
	if err != nil {
		return "", err
	}

	// prepareImageData always yields PNG, so the format suffix is fixed.
	resp, err := s.provider.Generate(ctx, llm.Request{
		Prompt: receiptMarkdownPrompt,
		Images: []llm.Image{{Format: "png", Data: finalImageData}},
	})
	if err != nil {
		return "", fmt.Errorf("scanning receipt: %w", err)
	}

	markdown := llm.StripFences(resp.Text)
	if markdown == "" {
		return "", fmt.Errorf("empty response from vision model")
	}

	return markdown, nil
}

// Close closes the underlying provider
func (s *VisionScanner) Close() error {
	return s.provider.Close()
}
