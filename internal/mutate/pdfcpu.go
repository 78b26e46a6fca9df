package mutate

import (
	"errors"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// pageDict walks the page tree to the pageNr'th leaf. Intermediate nodes
// carry Kids; leaves do not.
func pageDict(ctx *model.Context, pageNr int) (types.Dict, error) {
	root, err := ctx.Catalog()
	if err != nil {
		return nil, err
	}
	obj, found := root.Find("Pages")
	if !found {
		return nil, errors.New("catalog has no Pages entry")
	}
	node, err := ctx.DereferenceDict(obj)
	if err != nil {
		return nil, err
	}

	count := 0
	var walk func(d types.Dict) (types.Dict, error)
	walk = func(d types.Dict) (types.Dict, error) {
		kidsObj, found := d.Find("Kids")
		if !found {
			count++
			if count == pageNr {
				return d, nil
			}
			return nil, nil
		}
		o, err := ctx.Dereference(kidsObj)
		if err != nil {
			return nil, err
		}
		kids, ok := o.(types.Array)
		if !ok {
			return nil, errors.New("malformed Kids array")
		}
		for _, k := range kids {
			kd, err := ctx.DereferenceDict(k)
			if err != nil {
				return nil, err
			}
			pd, err := walk(kd)
			if err != nil || pd != nil {
				return pd, err
			}
		}
		return nil, nil
	}

	pd, err := walk(node)
	if err != nil {
		return nil, err
	}
	if pd == nil {
		return nil, fmt.Errorf("page %d not in page tree", pageNr)
	}
	return pd, nil
}

// contentRefs resolves a page's Contents entry to the stream objects behind
// it, single stream or array.
func contentRefs(ctx *model.Context, pageNr int) ([]types.IndirectRef, error) {
	pd, err := pageDict(ctx, pageNr)
	if err != nil {
		return nil, err
	}
	obj, found := pd.Find("Contents")
	if !found {
		return nil, nil
	}
	if ir, ok := obj.(types.IndirectRef); ok {
		o, err := ctx.Dereference(ir)
		if err != nil {
			return nil, err
		}
		if arr, ok := o.(types.Array); ok {
			return refsOf(arr)
		}
		return []types.IndirectRef{ir}, nil
	}
	if arr, ok := obj.(types.Array); ok {
		return refsOf(arr)
	}
	return nil, errors.New("unsupported Contents entry")
}

func refsOf(arr types.Array) ([]types.IndirectRef, error) {
	refs := make([]types.IndirectRef, 0, len(arr))
	for _, o := range arr {
		ir, ok := o.(types.IndirectRef)
		if !ok {
			return nil, errors.New("Contents array holds a non-reference")
		}
		refs = append(refs, ir)
	}
	return refs, nil
}

// loadStream fetches and decodes one content stream object.
func loadStream(ctx *model.Context, ref types.IndirectRef) (*types.StreamDict, error) {
	objNr := ref.ObjectNumber.Value()
	entry, ok := ctx.Table[objNr]
	if !ok || entry == nil {
		return nil, fmt.Errorf("content object %d missing", objNr)
	}
	sd, ok := entry.Object.(types.StreamDict)
	if !ok {
		return nil, fmt.Errorf("content object %d is not a stream", objNr)
	}
	if err := sd.Decode(); err != nil {
		return nil, fmt.Errorf("decode content stream %d: %w", objNr, err)
	}
	return &sd, nil
}

// storeStream writes rewritten content back into the xref entry,
// uncompressed. Dropping the filter keeps the write independent of whatever
// encoding the stream arrived with.
func storeStream(ctx *model.Context, ref types.IndirectRef, sd *types.StreamDict, content []byte) {
	sd.Content = content
	sd.Raw = content
	sd.FilterPipeline = nil
	sd.Dict.Delete("Filter")
	sd.Dict.Delete("DecodeParms")
	l := int64(len(content))
	sd.StreamLength = &l
	sd.StreamLengthObjNr = nil
	sd.Dict.Update("Length", types.Integer(len(content)))
	ctx.Table[ref.ObjectNumber.Value()].Object = *sd
}
