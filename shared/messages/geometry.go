package messages

// Per-field deltas published by the command host. Each is an independent
// replication event; observers apply them in arrival order.

// ScreenToEyeUpdate carries the eye-to-screen distance.
type ScreenToEyeUpdate struct {
	Value float32
}

// ScreenHeightUpdate carries the physical viewport height.
type ScreenHeightUpdate struct {
	Value float32
}

// ScreenAspectUpdate carries the width/height ratio.
type ScreenAspectUpdate struct {
	Value float32
}

// BGColorUpdate carries the RGBA background color.
type BGColorUpdate struct {
	Color [4]float32
}

// MapColorUpdate toggles the color-mapping lookup table.
type MapColorUpdate struct {
	Enabled bool
}

// GeometrySnapshot carries every field at once for observers that join late.
type GeometrySnapshot struct {
	ScreenToEye  float32
	ScreenHeight float32
	ScreenAspect float32
	BGColor      [4]float32
	MapColor     bool
}
