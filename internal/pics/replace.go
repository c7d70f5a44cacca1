package pics

import (
	"fmt"
	"os"
)

// processReplace re-encodes src in its own format and replaces it only when the result is
// strictly smaller.
func (d *batchDriver) processReplace(src SourceAsset, agg *Aggregator) FileReport {
	report := FileReport{Source: src, State: StateProcessing}
	fail := func(err error) FileReport {
		agg.RecordFailure()
		report.State = StateFailed
		report.Err = err
		return report
	}

	profile, err := d.registry.Get(d.opts.ReplaceProfile)
	if err != nil {
		return fail(err)
	}
	opts, ok := profile.Options(src.Format)
	if !ok {
		return fail(newCodecError(EncodeError, src.Path, fmt.Errorf("profile %s has no %s options", profile.Name, src.Format)))
	}

	img, err := d.codec.Decode(src.Path)
	if err != nil {
		return fail(err)
	}
	tmpPath, size, err := d.codec.EncodeTemp(img, src.Format, opts, profile.Resize, src.Path)
	if err != nil {
		return fail(err)
	}

	if size >= src.Size {
		removeTemp(tmpPath)
		agg.Record(src.Size, src.Size)
		report.State = StateDiscarded
		report.KeptSize = src.Size
		return report
	}

	if err := keepMode(tmpPath, src.Path); err != nil {
		removeTemp(tmpPath)
		return fail(newCodecError(FilesystemError, src.Path, err))
	}
	if err := os.Rename(tmpPath, src.Path); err != nil {
		removeTemp(tmpPath)
		return fail(newCodecError(FilesystemError, src.Path, fmt.Errorf("failed to replace original: %w", err)))
	}
	agg.Record(src.Size, size)
	report.State = StateCommitted
	report.KeptSize = size
	return report
}

// keepMode gives the replacement file the permission bits of the original.
func keepMode(tmpPath, original string) error {
	info, err := os.Stat(original)
	if err != nil {
		return fmt.Errorf("failed to stat original: %w", err)
	}
	if err := os.Chmod(tmpPath, info.Mode().Perm()); err != nil {
		return fmt.Errorf("failed to copy permissions: %w", err)
	}
	return nil
}
