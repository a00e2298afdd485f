package pdfword

import (
	"context"
	"os"
	"strings"
)

// Storage resolves input references to local files and delivers outputs.
type Storage interface {
	Fetch(ctx context.Context, ref string) (path string, cleanup func(), err error)
	Publish(ctx context.Context, src, ref string) (string, error)
}

// ConvertRef is Convert for references that may be remote (http(s):// or
// s3://). The input is fetched to a temp file and a remote output is
// written locally first and then published. With a nil store it behaves
// like Convert.
func (c *Converter) ConvertRef(ctx context.Context, store Storage, input, output string) (*Result, error) {
	if store == nil {
		return c.Convert(ctx, input, output)
	}

	local, cleanup, err := store.Fetch(ctx, input)
	if err != nil {
		return nil, fatal(StageFetch, err)
	}
	defer cleanup()

	target := output
	remote := isRemoteRef(output)
	if remote {
		tmp, err := os.CreateTemp(c.Assembler.Layout.TempDir, "pdfword-out-*.docx")
		if err != nil {
			return nil, fatal(StageSave, &SaveError{Path: output, Err: err})
		}
		target = tmp.Name()
		tmp.Close()
		defer os.Remove(target)
	}

	res, err := c.Convert(ctx, local, target)
	if err != nil {
		return nil, err
	}
	res.Input = input
	if !remote {
		return res, nil
	}

	published, err := store.Publish(ctx, target, output)
	if err != nil {
		return nil, fatal(StagePublish, err)
	}
	res.Output = published
	return res, nil
}

func isRemoteRef(ref string) bool {
	return strings.HasPrefix(ref, "s3://") || strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}
