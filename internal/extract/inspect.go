package extract

import (
	"bytes"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// pdfInfo carries structural facts gathered before text extraction.
type pdfInfo struct {
	pages      int
	imagePages map[int]bool
}

// inspect validates the byte stream as a PDF and records which pages carry
// image XObjects. Pages that have images but yield no text are reported as
// image-only, the usual signature of a scanned document.
func inspect(data []byte) (*pdfInfo, error) {
	conf := model.NewDefaultConfiguration()
	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), conf)
	if err != nil {
		return nil, err
	}

	info := &pdfInfo{pages: ctx.PageCount, imagePages: make(map[int]bool)}
	if ctx.Optimize != nil {
		for pageNr := 1; pageNr <= ctx.PageCount; pageNr++ {
			if len(pdfcpu.ImageObjNrs(ctx, pageNr)) > 0 {
				info.imagePages[pageNr] = true
			}
		}
	}
	return info, nil
}
