package pics

import (
	"image"

	"github.com/acm19/webpics/internal/logger"
)

// processResponsive writes every planned derivative of src. Specs are independent: a failed
// spec is recorded and the rest still run. The source is never modified.
func (d *batchDriver) processResponsive(src SourceAsset, agg *Aggregator) FileReport {
	report := FileReport{Source: src, State: StateProcessing}

	specs, err := d.planner.Plan(src)
	if err != nil {
		agg.RecordFailure()
		report.State = StateFailed
		report.Err = err
		return report
	}

	img, err := d.codec.Decode(src.Path)
	if err != nil {
		agg.RecordFailure()
		report.State = StateFailed
		report.Err = err
		for _, spec := range specs {
			report.Results = append(report.Results, DerivativeResult{Spec: spec, Err: err})
		}
		return report
	}

	ultra := specs[len(specs)-1]
	for _, spec := range specs[:len(specs)-1] {
		report.Results = append(report.Results, d.executeSpec(img, spec))
	}
	ultraResult := d.executeSpec(img, ultra)
	report.Results = append(report.Results, ultraResult)

	for _, res := range report.Results {
		if res.Err != nil && report.Err == nil {
			report.Err = res.Err
		}
	}

	if ultraResult.Err == nil {
		agg.Record(src.Size, ultraResult.Size)
		report.KeptSize = ultraResult.Size
	}
	if report.Err != nil {
		if ultraResult.Err == nil {
			// the summary still counts the ultra size; the failure is tracked separately
			logger.Warn("Some derivatives failed", "file", src.Name, "failed", len(report.Failures()))
		}
		agg.RecordFailure()
		report.State = StateFailed
		return report
	}
	report.State = StateCommitted
	return report
}

// executeSpec encodes one derivative.
func (d *batchDriver) executeSpec(img image.Image, spec DerivativeSpec) DerivativeResult {
	opts := spec.Options()
	size, err := d.codec.Encode(img, spec.Format, opts, spec.Profile.Resize, spec.OutputPath)
	if err != nil {
		logger.Error("Failed to write derivative", "file", spec.Source.Name, "output", spec.OutputPath, "error", err)
		return DerivativeResult{Spec: spec, Err: err}
	}
	logger.Debug("Wrote derivative", "output", spec.OutputPath, "profile", spec.Profile.Name, "format", spec.Format.String(), "bytes", size)
	return DerivativeResult{Spec: spec, Size: size}
}
