// Package state persists the application's runtime state as a JSON mapping
// with default-merge on load, content-hash write deduplication, a monotonic
// revision counter and atomic temp-file+rename writes.
//
// The Store is an explicit object constructed once at startup and passed to
// its consumers; there is no package-level cache.
package state

// Mapping is the persisted key/value state. Values are JSON-representable;
// keys the core does not interpret (window geometry and other UI blobs) are
// carried through saves untouched.
type Mapping map[string]any

// Persisted keys. The names match the on-disk format of earlier releases, so
// existing config files keep loading.
const (
	KeyRevision            = "_revision"
	KeyPickedCount         = "picked_count"
	KeyNoDuplicate         = "no_duplicate"
	KeyGenderFilter        = "gender_filter"
	KeySavedAvailableNames = "saved_available_names"
	KeyIsSave              = "is_save"
	KeyPickAgain           = "pick_again"
	KeyPickBalanced        = "pick_balanced"
	KeyReciteMode          = "recite_mode"
	KeyAnimation           = "animation"
	KeyAnimationTime       = "animation_time"
	KeySpeakName           = "speak_name"
	KeySpeakSpeed          = "speak_speed"
	KeyAutoStart           = "auto_start"
	KeyShowFloating        = "show_floating"
	KeyFloatingAutostick   = "floating_autostick"
	KeyDoubleFloating      = "double_floating_window"
	KeyFloatingWidth       = "floating_x_size"
	KeyFloatingHeight      = "floating_y_size"
	KeyFloatingImage       = "floating_image"
	KeyFloatingMode        = "floating_mode"
	KeyWindowGeometry      = "window_geometry_qt"
)

// Defaults returns the fixed default mapping merged under loaded state.
func Defaults() Mapping {
	return Mapping{
		KeyRevision:            0,
		KeyPickedCount:         0,
		KeyNoDuplicate:         0,
		KeyGenderFilter:        "unknown",
		KeySavedAvailableNames: []any{},
		KeyIsSave:              false,
		KeyPickAgain:           true,
		KeyPickBalanced:        false,
		KeyReciteMode:          false,
		KeyAnimation:           true,
		KeyAnimationTime:       0.8,
		KeySpeakName:           true,
		KeySpeakSpeed:          170,
		KeyAutoStart:           false,
		KeyShowFloating:        true,
		KeyFloatingAutostick:   false,
		KeyDoubleFloating:      false,
		KeyFloatingWidth:       100,
		KeyFloatingHeight:      100,
		KeyFloatingImage:       nil,
		KeyWindowGeometry:      nil,
	}
}
