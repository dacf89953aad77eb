package camera

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/cctv-aware/exposure/internal/geo"
)

// LoadOptions controls how a camera database CSV is interpreted.
type LoadOptions struct {
	// RadiusOverrideM, when positive, replaces every camera's own radius.
	// Mirrors the command line radius override.
	RadiusOverrideM float64
	// DefaultRadiusM is used for records without a radius column or value.
	// Zero means DefaultCameraRadiusM.
	DefaultRadiusM float64
}

// DefaultCameraRadiusM is the assumed field-of-view radius for camera records
// that do not carry one.
const DefaultCameraRadiusM = 10.0

// Camera type values understood by the loader. A "round" camera sees in every
// direction and maps to a 360 degree aperture; a "directed" camera needs a
// direction and an angle of view.
const (
	TypeRound    = "round"
	TypeDirected = "directed"
)

// LoadCSV reads a camera database file. See LoadReader for the format.
func LoadCSV(path string, opts LoadOptions) (*Set, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open camera file: %w", err)
	}
	defer f.Close()

	set, err := LoadReader(f, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return set, nil
}

// LoadReader parses camera records from CSV with a header row. Recognised
// columns (case-insensitive, spaces and underscores interchangeable):
// latitude, longitude, camera type, direction, angle of view, radius, id.
// Any other non-empty column is preserved uninterpreted in Camera.Meta.
// A radius of "unlimited" or -1 maps to the unlimited range sentinel.
func LoadReader(r io.Reader, opts LoadOptions) (*Set, error) {
	defaultRadius := opts.DefaultRadiusM
	if defaultRadius == 0 {
		defaultRadius = DefaultCameraRadiusM
	}

	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read camera header: %w", err)
	}
	cols := make([]string, len(header))
	for i, h := range header {
		cols[i] = normalizeHeader(h)
	}

	var cams []Camera
	for row := 0; ; row++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("camera record %d: %w", row, err)
		}

		fields := make(map[string]string, len(record))
		meta := make(map[string]string)
		for i, v := range record {
			if i >= len(cols) || v == "" {
				continue
			}
			switch cols[i] {
			case "latitude", "longitude", "camera_type", "direction", "angle_of_view", "radius", "id":
				fields[cols[i]] = v
			default:
				meta[cols[i]] = v
			}
		}

		cam, err := cameraFromFields(row, fields, meta, defaultRadius, opts.RadiusOverrideM)
		if err != nil {
			return nil, err
		}
		cams = append(cams, cam)
	}

	return NewSet(cams)
}

func cameraFromFields(row int, fields, meta map[string]string, defaultRadius, overrideRadius float64) (Camera, error) {
	id := fields["id"]
	if id == "" {
		id = strconv.Itoa(row)
	}

	lat, err := parseFloatField(fields, "latitude")
	if err != nil {
		return Camera{}, fmt.Errorf("camera record %d (%s): %w", row, id, err)
	}
	lon, err := parseFloatField(fields, "longitude")
	if err != nil {
		return Camera{}, fmt.Errorf("camera record %d (%s): %w", row, id, err)
	}

	radius := defaultRadius
	if v, ok := fields["radius"]; ok {
		radius, err = parseRadius(v)
		if err != nil {
			return Camera{}, fmt.Errorf("camera record %d (%s): %w", row, id, err)
		}
	}
	if overrideRadius > 0 {
		radius = overrideRadius
	}

	cam := Camera{
		ID:          id,
		Pos:         geo.Point{Lat: lat, Lon: lon},
		ApertureDeg: 360,
		RangeM:      radius,
	}
	if len(meta) > 0 {
		cam.Meta = meta
	}

	camType := strings.ToLower(fields["camera_type"])
	if camType == "" {
		camType = TypeRound
	}
	switch camType {
	case TypeRound:
		// aperture stays 360, bearing irrelevant
	case TypeDirected:
		if v, ok := fields["angle_of_view"]; ok {
			aperture, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return Camera{}, fmt.Errorf("camera record %d (%s): bad angle of view %q", row, id, v)
			}
			cam.ApertureDeg = aperture
		}
		if cam.ApertureDeg < 360 {
			v, ok := fields["direction"]
			if !ok {
				return Camera{}, fmt.Errorf("%w: camera record %d (%s): directed camera without direction", ErrInvalidGeometry, row, id)
			}
			bearing, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return Camera{}, fmt.Errorf("camera record %d (%s): bad direction %q", row, id, v)
			}
			cam.BearingDeg = bearing
		}
	default:
		return Camera{}, fmt.Errorf("%w: camera record %d (%s): unknown camera type %q", ErrInvalidGeometry, row, id, camType)
	}

	if err := cam.Validate(); err != nil {
		return Camera{}, err
	}
	return cam, nil
}

func parseFloatField(fields map[string]string, name string) (float64, error) {
	v, ok := fields[name]
	if !ok {
		return 0, fmt.Errorf("missing %s", name)
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("bad %s %q", name, v)
	}
	return f, nil
}

func parseRadius(v string) (float64, error) {
	if strings.EqualFold(v, "unlimited") {
		return UnlimitedRange(), nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("bad radius %q", v)
	}
	if f == -1 {
		return UnlimitedRange(), nil
	}
	return f, nil
}

func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	return strings.ReplaceAll(h, " ", "_")
}
