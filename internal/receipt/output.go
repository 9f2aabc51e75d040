package receipt

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Output hands a rendered document to a print or save facility.
type Output interface {
	Write(ctx context.Context, doc Document) error
}

// FileOutput saves receipts into a directory, one file per sale.
type FileOutput struct {
	Dir string
}

// NewFileOutput creates a FileOutput writing into dir.
func NewFileOutput(dir string) *FileOutput {
	return &FileOutput{Dir: dir}
}

// Write saves doc as Dir/doc.Filename.
func (o *FileOutput) Write(ctx context.Context, doc Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(o.Dir, 0o755); err != nil {
		return fmt.Errorf("create receipt dir: %w", err)
	}
	path := filepath.Join(o.Dir, filepath.Base(doc.Filename))
	if err := os.WriteFile(path, []byte(doc.Text()), 0o644); err != nil {
		return fmt.Errorf("write receipt: %w", err)
	}
	return nil
}
