// Package device checks whether a camera and a microphone are reachable so
// the startup log records what calls will be able to use. Nothing is gated
// on the result.
package device

import (
	"path/filepath"
	"sort"

	"go.uber.org/zap"
)

type Kind string

const (
	Camera     Kind = "camera"
	Microphone Kind = "microphone"
)

// Status is the probe result for one kind of device.
type Status struct {
	Kind    Kind
	Granted bool
	Devices []string
}

// patterns lists the device nodes for each kind, relative to the probe
// root. ALSA capture nodes end in "c".
var patterns = map[Kind][]string{
	Camera:     {"dev/video*"},
	Microphone: {"dev/snd/pcmC*D*c"},
}

// Probe looks for device nodes under root ("/" on a live system).
func Probe(root string) []Status {
	kinds := []Kind{Camera, Microphone}
	out := make([]Status, 0, len(kinds))
	for _, k := range kinds {
		st := Status{Kind: k}
		for _, p := range patterns[k] {
			matches, err := filepath.Glob(filepath.Join(root, p))
			if err != nil {
				continue
			}
			st.Devices = append(st.Devices, matches...)
		}
		sort.Strings(st.Devices)
		st.Granted = len(st.Devices) > 0
		out = append(out, st)
	}
	return out
}

// RequestPermissions probes the live system and logs each result.
func RequestPermissions(logger *zap.Logger) []Status {
	statuses := Probe("/")
	logger = logger.Named("device")
	for _, st := range statuses {
		if st.Granted {
			logger.Info("Device available", zap.String("kind", string(st.Kind)), zap.Strings("devices", st.Devices))
		} else {
			logger.Warn("Device not available", zap.String("kind", string(st.Kind)))
		}
	}
	return statuses
}
