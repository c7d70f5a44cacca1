package pics

import (
	"fmt"
	"maps"
	"slices"
)

// Profile names known to the registry.
const (
	ProfileWeb       = "web"
	ProfileThumbnail = "thumbnail"
	ProfileMedium    = "medium"
	ProfileUltra     = "ultra"
	ProfileOriginal  = "original"
)

// ProfileRegistry resolves encoding profiles by name.
type ProfileRegistry interface {
	// Get returns a copy of the named profile.
	Get(name string) (EncodingProfile, error)
	// Names returns the registered profile names in sorted order.
	Names() []string
}

type profileRegistry struct {
	profiles map[string]EncodingProfile
}

// NewProfileRegistry creates the registry of built-in profiles. It cannot be mutated.
func NewProfileRegistry() ProfileRegistry {
	profiles := []EncodingProfile{
		{
			Name: ProfileWeb,
			Formats: map[Format]EncodeOptions{
				FormatJPEG: {Quality: 65, Progressive: true},
				FormatPNG:  {Quality: 70, Palette: true, Effort: 9, CompressionLevel: 9},
				FormatWebP: {Quality: 60, Effort: 4},
				FormatAVIF: {Quality: 50, Effort: 4},
			},
		},
		{
			Name:   ProfileThumbnail,
			Resize: &Resize{Width: 400, Height: 300, Fit: FitCover},
			Formats: map[Format]EncodeOptions{
				FormatJPEG: {Quality: 70, Progressive: true},
				FormatWebP: {Quality: 65, Effort: 4},
			},
		},
		{
			Name:   ProfileMedium,
			Resize: &Resize{Width: 800, Height: 600, Fit: FitCover},
			Formats: map[Format]EncodeOptions{
				FormatJPEG: {Quality: 75, Progressive: true},
				FormatWebP: {Quality: 70, Effort: 4},
			},
		},
		{
			Name: ProfileUltra,
			Formats: map[Format]EncodeOptions{
				FormatJPEG: {Quality: 50, Progressive: true},
			},
		},
		{
			Name: ProfileOriginal,
			Formats: map[Format]EncodeOptions{
				FormatJPEG: {Quality: 80, Progressive: true},
				FormatPNG:  {Quality: 80, Palette: true, CompressionLevel: 9},
			},
		},
	}

	r := &profileRegistry{profiles: make(map[string]EncodingProfile, len(profiles))}
	for _, p := range profiles {
		if len(p.Formats) == 0 {
			panic(fmt.Sprintf("profile %s defines no output format", p.Name))
		}
		r.profiles[p.Name] = p
	}
	return r
}

// Get returns a copy of the named profile.
func (r *profileRegistry) Get(name string) (EncodingProfile, error) {
	p, ok := r.profiles[name]
	if !ok {
		return EncodingProfile{}, fmt.Errorf("unknown profile: %q", name)
	}
	out := EncodingProfile{Name: p.Name, Formats: maps.Clone(p.Formats)}
	if p.Resize != nil {
		resize := *p.Resize
		out.Resize = &resize
	}
	return out, nil
}

// Names returns the registered profile names in sorted order.
func (r *profileRegistry) Names() []string {
	return slices.Sorted(maps.Keys(r.profiles))
}
