package capture

// DowngradeSlowFilters sets the processing filters that may lower the frame
// rate to OFF, or to FAST when OFF is not available. Filters whose available
// modes the device does not declare are left alone.
//
// Hot pixel correction and edge enhancement are only changed when the device
// lists both the available-modes characteristic and the per-request mode key.
// A missing characteristics or request key list counts as not listed.
func DowngradeSlowFilters(props *Properties, req *Request) {
	if props == nil || req == nil {
		return
	}
	downgradeFilter(props.AvailableNoiseReductionModes, &req.NoiseReductionMode)
	downgradeFilter(props.AvailableAberrationModes, &req.AberrationMode)

	hotPixelModes := contains(props.CharacteristicsKeys, KeyAvailableHotPixelModes)
	edgeModes := contains(props.CharacteristicsKeys, KeyAvailableEdgeModes)
	hotPixelMode := contains(props.RequestKeys, KeyHotPixelMode)
	edgeMode := contains(props.RequestKeys, KeyEdgeMode)

	if hotPixelModes && hotPixelMode {
		downgradeFilter(props.AvailableHotPixelModes, &req.HotPixelMode)
	}
	if edgeModes && edgeMode {
		downgradeFilter(props.AvailableEdgeModes, &req.EdgeMode)
	}
}

func downgradeFilter(available []int, mode **int) {
	if available == nil {
		return
	}
	if contains(available, ModeOff) {
		*mode = ptr(ModeOff)
	} else if contains(available, ModeFast) {
		*mode = ptr(ModeFast)
	}
}
