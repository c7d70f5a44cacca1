package pics

import (
	"fmt"
	"path/filepath"
	"strings"
)

// plannedOutput is one entry of the responsive derivative set.
type plannedOutput struct {
	profile string
	format  Format
	suffix  string
}

// responsiveSet is the ordered derivative set of a source. The ultra entry stays last: it is the
// comparison derivative recorded against the original.
var responsiveSet = []plannedOutput{
	{profile: ProfileWeb, format: FormatJPEG, suffix: "web"},
	{profile: ProfileWeb, format: FormatWebP, suffix: "web"},
	{profile: ProfileWeb, format: FormatAVIF, suffix: "web"},
	{profile: ProfileThumbnail, format: FormatWebP, suffix: "thumb"},
	{profile: ProfileMedium, format: FormatWebP, suffix: "medium"},
	{profile: ProfileUltra, format: FormatJPEG, suffix: "ultra"},
}

// Planner determines the derivatives produced for a source.
type Planner interface {
	// Plan returns the ordered derivative specs of a source. The last spec is the ultra
	// comparison derivative.
	Plan(src SourceAsset) ([]DerivativeSpec, error)
	// IsDerivativeName reports whether a file name follows the derivative naming convention.
	IsDerivativeName(name string) bool
}

type planner struct {
	registry ProfileRegistry
	outDir   string
}

// NewPlanner creates a Planner writing into outputDirName under each source's directory.
func NewPlanner(registry ProfileRegistry, outputDirName string) Planner {
	return &planner{registry: registry, outDir: outputDirName}
}

// Plan returns the ordered derivative specs of a source.
func (p *planner) Plan(src SourceAsset) ([]DerivativeSpec, error) {
	dir := filepath.Join(filepath.Dir(src.Path), p.outDir)
	base := src.Base()

	specs := make([]DerivativeSpec, 0, len(responsiveSet))
	seen := make(map[string]bool, len(responsiveSet))
	for _, out := range responsiveSet {
		profile, err := p.registry.Get(out.profile)
		if err != nil {
			return nil, err
		}
		if _, ok := profile.Options(out.format); !ok {
			return nil, fmt.Errorf("profile %s has no %s options", profile.Name, out.format)
		}
		name := fmt.Sprintf("%s_%s%s", base, out.suffix, out.format.Extension())
		if seen[name] {
			return nil, fmt.Errorf("derivative name collision: %s", name)
		}
		seen[name] = true
		specs = append(specs, DerivativeSpec{
			Source:     src,
			Profile:    profile,
			Format:     out.format,
			Suffix:     out.suffix,
			OutputPath: filepath.Join(dir, name),
		})
	}
	return specs, nil
}

// IsDerivativeName reports whether a file name follows the derivative naming convention: a
// derivative suffix at the end of the stem, or, with the default output directory, any name
// containing "compressed". A custom output directory name is not matched as a substring, so
// output_dir "web" does not exclude cobweb.jpg.
func (p *planner) IsDerivativeName(name string) bool {
	lower := strings.ToLower(name)
	if strings.EqualFold(p.outDir, DefaultOutputDirName) && strings.Contains(lower, DefaultOutputDirName) {
		return true
	}
	stem := strings.TrimSuffix(lower, extOf(lower))
	for _, out := range responsiveSet {
		if strings.HasSuffix(stem, "_"+out.suffix) {
			return true
		}
	}
	return false
}
