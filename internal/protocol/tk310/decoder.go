package tk310

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"fieldtrack/internal/core/model"
)

// Decoder parses TK310 family payloads. One payload may carry a batch of
// newline-delimited records:
//
//	*TK310,<imei>,<yymmddHHMMSS>,<lat ddmm.mmmm>,<N|S>,<lon dddmm.mmmm>,
//	<E|W>,<speed>,<heading>,<status>,<altitude>,<seq>#
//
// Timestamps arrive in UTC and are converted to the configured farm
// timezone. A bad record is collected as an InvalidRecord and never aborts
// the batch; device-reported order is preserved.
type Decoder struct {
	loc *time.Location
}

func NewDecoder(loc *time.Location) *Decoder {
	if loc == nil {
		loc = time.UTC
	}
	return &Decoder{loc: loc}
}

// Decode splits the payload into records and parses each one. Valid points
// come back in device order; rejected records come back with their reason.
func (d *Decoder) Decode(data []byte) ([]model.GpsPoint, []*model.InvalidRecord, error) {
	if len(data) < minLength {
		return nil, nil, ErrPacketTooShort
	}
	if !strings.HasPrefix(string(data), Signature) {
		return nil, nil, ErrInvalidHeader
	}

	var points []model.GpsPoint
	var invalid []*model.InvalidRecord

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		point, err := d.DecodeRecord(line)
		if err != nil {
			invalid = append(invalid, model.NewInvalidRecord(line, err.Error(), ProtocolName))
			continue
		}
		points = append(points, *point)
	}
	return points, invalid, nil
}

// DecodeRecord parses a single record line.
func (d *Decoder) DecodeRecord(line string) (*model.GpsPoint, error) {
	if !strings.HasPrefix(line, Signature) {
		return nil, ErrInvalidHeader
	}
	if !strings.HasSuffix(line, "#") {
		return nil, ErrMissingTerminator
	}

	parts := strings.Split(strings.TrimSuffix(line, "#"), ",")
	if len(parts) != fieldCount {
		return nil, fmt.Errorf("%w: got %d fields, want %d", ErrInvalidFieldCount, len(parts), fieldCount)
	}

	imei := parts[fieldIMEI]
	if len(imei) != imeiLength || !isDigits(imei) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidIMEI, imei)
	}

	ts, err := time.ParseInLocation("060102150405", parts[fieldTimestamp], time.UTC)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTimestamp, parts[fieldTimestamp])
	}

	lat, err := parseCoordinate(parts[fieldLatitude])
	if err != nil {
		return nil, err
	}
	switch parts[fieldLatHemisphere] {
	case "N":
	case "S":
		lat = -lat
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidHemisphere, parts[fieldLatHemisphere])
	}
	if lat < -90 || lat > 90 {
		return nil, fmt.Errorf("%w: latitude %v out of range", ErrInvalidCoordinate, lat)
	}

	lon, err := parseCoordinate(parts[fieldLongitude])
	if err != nil {
		return nil, err
	}
	switch parts[fieldLonHemisphere] {
	case "E":
	case "W":
		lon = -lon
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidHemisphere, parts[fieldLonHemisphere])
	}
	if lon < -180 || lon > 180 {
		return nil, fmt.Errorf("%w: longitude %v out of range", ErrInvalidCoordinate, lon)
	}

	speed, err := strconv.ParseFloat(parts[fieldSpeed], 64)
	if err != nil || speed < 0 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSpeed, parts[fieldSpeed])
	}

	heading, err := strconv.ParseFloat(parts[fieldHeading], 64)
	if err != nil || heading < 0 || heading >= 360 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidHeading, parts[fieldHeading])
	}

	status, err := strconv.Atoi(parts[fieldStatus])
	if err != nil || (status != model.StatusOff && status != model.StatusOn) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, parts[fieldStatus])
	}

	altitude, err := strconv.ParseFloat(parts[fieldAltitude], 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAltitude, parts[fieldAltitude])
	}

	return &model.GpsPoint{
		Latitude:  lat,
		Longitude: lon,
		Altitude:  altitude,
		Speed:     speed,
		Heading:   heading,
		Status:    status,
		Timestamp: ts.In(d.loc),
		DeviceID:  imei,
		Protocol:  ProtocolName,
	}, nil
}

// parseCoordinate converts NMEA ddmm.mmmm encoding to decimal degrees,
// rounded to 6 places.
func parseCoordinate(coord string) (float64, error) {
	value, err := strconv.ParseFloat(coord, 64)
	if err != nil || value < 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidCoordinate, coord)
	}

	degrees := math.Floor(value / 100)
	decimal := degrees + (value-degrees*100)/60
	return math.Round(decimal*1e6) / 1e6, nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}
