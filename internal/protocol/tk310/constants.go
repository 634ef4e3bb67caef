package tk310

import "errors"

// Signature is the payload prefix marking a TK310 family record.
const Signature = "*TK310"

const (
	// ProtocolName tags points produced by this decoder.
	ProtocolName = "tk310"

	fieldCount = 12
	imeiLength = 15
	minLength  = 40
)

// Field positions within one comma-delimited record.
const (
	fieldMarker = iota
	fieldIMEI
	fieldTimestamp
	fieldLatitude
	fieldLatHemisphere
	fieldLongitude
	fieldLonHemisphere
	fieldSpeed
	fieldHeading
	fieldStatus
	fieldAltitude
	fieldSequence
)

// TK310 decode failure classes.
var (
	ErrPacketTooShort     = errors.New("data too short for TK310 protocol")
	ErrInvalidHeader      = errors.New("invalid TK310 protocol header")
	ErrInvalidFieldCount  = errors.New("invalid TK310 field count")
	ErrInvalidIMEI        = errors.New("invalid IMEI")
	ErrInvalidTimestamp   = errors.New("invalid timestamp")
	ErrInvalidCoordinate  = errors.New("invalid coordinate")
	ErrInvalidHemisphere  = errors.New("invalid hemisphere flag")
	ErrInvalidSpeed       = errors.New("invalid speed")
	ErrInvalidHeading     = errors.New("invalid heading")
	ErrInvalidStatus      = errors.New("invalid status flag")
	ErrInvalidAltitude    = errors.New("invalid altitude")
	ErrMissingTerminator  = errors.New("missing record terminator")
)
