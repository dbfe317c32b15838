// Package solar computes per-location sunrise and sunset times using the
// NOAA solar position algorithm, with an elevation-dependent atmospheric
// refraction correction for terrain-aware results.
//
// The package is pure math: no I/O, no shared mutable state. A Calculator
// holds only an immutable timezone offset, so a single instance is safe to
// share across any number of goroutines without locking.
package solar

import "math"

// NoEvent is the sentinel returned when the requested event does not occur
// on that date at that location (polar day or polar night). The value is
// shared with the raster nodata sentinel so masked pixels and eventless
// pixels are indistinguishable downstream.
const NoEvent = -9999.0

// Internal hour-angle codes, collapsed to NoEvent in event times.
const (
	haNeverRises = -1.0
	haNeverSets  = -2.0
)

// Calculator computes sunrise and sunset times for a fixed timezone offset.
type Calculator struct {
	tzOffset float64 // hours east of UTC
}

// NewCalculator creates a calculator producing local times at the given
// timezone offset in hours east of UTC (e.g. 1.0 for CET).
func NewCalculator(tzOffsetHours float64) *Calculator {
	return &Calculator{tzOffset: tzOffsetHours}
}

// TimezoneOffset returns the configured offset in hours east of UTC.
func (c *Calculator) TimezoneOffset() float64 {
	return c.tzOffset
}

// Sunrise returns the local sunrise time as a decimal hour in [0,24) for
// the given position, elevation in meters, and Gregorian calendar date.
// Returns NoEvent when the sun never rises (or never sets) that day.
func (c *Calculator) Sunrise(lat, lon, elevation float64, year, month, day int) float64 {
	return c.eventTime(lat, lon, elevation, year, month, day, true)
}

// Sunset returns the local sunset time as a decimal hour in [0,24).
// Returns NoEvent when the sun never sets (or never rises) that day.
func (c *Calculator) Sunset(lat, lon, elevation float64, year, month, day int) float64 {
	return c.eventTime(lat, lon, elevation, year, month, day, false)
}

// eventTime is the single evaluation path behind Sunrise and Sunset.
func (c *Calculator) eventTime(lat, lon, elevation float64, year, month, day int, sunrise bool) float64 {
	jd := julianDay(year, month, day)
	t := julianCenturies(jd)

	eqTime := equationOfTime(t)
	decl := sunDeclination(t)

	ha := hourAngleRiseSet(lat, decl, elevation)
	if ha < 0 {
		// haNeverRises / haNeverSets: both collapse to the public sentinel.
		return NoEvent
	}

	// Solar noon in UTC hours, then offset rise/set by the hour angle
	// (1 degree of hour angle = 4 minutes of time).
	solarNoon := (720.0 - 4.0*lon - eqTime) / 60.0

	var timeUTC float64
	if sunrise {
		timeUTC = solarNoon - ha*4.0/60.0
	} else {
		timeUTC = solarNoon + ha*4.0/60.0
	}

	localTime := timeUTC + c.tzOffset
	for localTime < 0 {
		localTime += 24.0
	}
	for localTime >= 24.0 {
		localTime -= 24.0
	}
	return localTime
}

// =============================================================================
// NOAA Ephemeris Chain
// =============================================================================
//
// Each quantity below feeds the next: mean longitude -> anomaly ->
// eccentricity -> equation of center -> true/apparent longitude ->
// obliquity -> declination and equation of time. All angles are in degrees
// and all arithmetic is double precision regardless of input/output width.

// julianDay converts a Gregorian calendar date to the Julian Day Number
// at 00:00 UT. January and February count as months 13 and 14 of the
// previous year.
func julianDay(year, month, day int) float64 {
	if month <= 2 {
		year--
		month += 12
	}
	a := year / 100
	b := 2 - a + a/4
	return math.Floor(365.25*float64(year+4716)) +
		math.Floor(30.6001*float64(month+1)) +
		float64(day) + float64(b) - 1524.5
}

// julianCenturies converts a Julian Day to centuries since epoch J2000.0.
func julianCenturies(jd float64) float64 {
	return (jd - 2451545.0) / 36525.0
}

// geomMeanLongSun returns the geometric mean longitude of the sun in
// degrees, normalized to [0,360).
func geomMeanLongSun(t float64) float64 {
	l0 := 280.46646 + t*(36000.76983+t*0.0003032)
	for l0 > 360.0 {
		l0 -= 360.0
	}
	for l0 < 0 {
		l0 += 360.0
	}
	return l0
}

// geomMeanAnomalySun returns the geometric mean anomaly of the sun in
// degrees (not normalized; consumers only take its sine/cosine).
func geomMeanAnomalySun(t float64) float64 {
	return 357.52911 + t*(35999.05029-0.0001537*t)
}

// eccentricityEarthOrbit returns the unitless eccentricity of Earth's orbit.
func eccentricityEarthOrbit(t float64) float64 {
	return 0.016708634 - t*(0.000042037+0.0000001267*t)
}

// sunEqOfCenter returns the equation-of-center correction in degrees.
func sunEqOfCenter(t float64) float64 {
	mrad := deg2rad(geomMeanAnomalySun(t))
	sinm := math.Sin(mrad)
	sin2m := math.Sin(2 * mrad)
	sin3m := math.Sin(3 * mrad)
	return sinm*(1.914602-t*(0.004817+0.000014*t)) +
		sin2m*(0.019993-0.000101*t) +
		sin3m*0.000289
}

// sunTrueLong returns the true longitude of the sun in degrees.
func sunTrueLong(t float64) float64 {
	return geomMeanLongSun(t) + sunEqOfCenter(t)
}

// sunApparentLong returns the apparent (nutation-corrected) longitude of
// the sun in degrees.
func sunApparentLong(t float64) float64 {
	omega := 125.04 - 1934.136*t
	return sunTrueLong(t) - 0.00569 - 0.00478*math.Sin(deg2rad(omega))
}

// meanObliquityOfEcliptic returns the mean obliquity in degrees.
func meanObliquityOfEcliptic(t float64) float64 {
	seconds := 21.448 - t*(46.815+t*(0.00059-t*0.001813))
	return 23.0 + (26.0+seconds/60.0)/60.0
}

// obliquityCorrection returns the nutation-corrected obliquity in degrees.
func obliquityCorrection(t float64) float64 {
	omega := 125.04 - 1934.136*t
	return meanObliquityOfEcliptic(t) + 0.00256*math.Cos(deg2rad(omega))
}

// sunDeclination returns the solar declination in degrees.
func sunDeclination(t float64) float64 {
	eps := obliquityCorrection(t)
	lambda := sunApparentLong(t)
	sint := math.Sin(deg2rad(eps)) * math.Sin(deg2rad(lambda))
	return rad2deg(math.Asin(sint))
}

// equationOfTime returns the equation of time in minutes: the difference
// between true solar time and mean solar time, as a truncated series in
// y = tan^2(obliquity/2), the orbital eccentricity, and multiples of the
// mean longitude and anomaly.
func equationOfTime(t float64) float64 {
	epsilon := obliquityCorrection(t)
	l0 := geomMeanLongSun(t)
	e := eccentricityEarthOrbit(t)
	m := geomMeanAnomalySun(t)

	y := math.Tan(deg2rad(epsilon) / 2.0)
	y *= y

	sin2l0 := math.Sin(2.0 * deg2rad(l0))
	sinm := math.Sin(deg2rad(m))
	cos2l0 := math.Cos(2.0 * deg2rad(l0))
	sin4l0 := math.Sin(4.0 * deg2rad(l0))
	sin2m := math.Sin(2.0 * deg2rad(m))

	etime := y*sin2l0 - 2.0*e*sinm + 4.0*e*y*sinm*cos2l0 -
		0.5*y*y*sin4l0 - 1.25*e*e*sin2m
	return rad2deg(etime) * 4.0
}

// hourAngleRiseSet returns the hour angle of sunrise/sunset in degrees for
// the given latitude, solar declination, and site elevation in meters.
// The standard solar depression angle of 0.833 degrees is widened by an
// empirical elevation term (the horizon dips as the observer climbs).
// Returns haNeverRises or haNeverSets when no event occurs.
func hourAngleRiseSet(lat, solarDec, elevation float64) float64 {
	if elevation < 0 {
		// Below-sea-level cells must not NaN the refraction term.
		elevation = 0
	}
	zenith := 90.0 + 0.833 - 2.076*math.Sqrt(elevation)/60.0

	latRad := deg2rad(lat)
	sdRad := deg2rad(solarDec)

	haArg := math.Cos(deg2rad(zenith))/(math.Cos(latRad)*math.Cos(sdRad)) -
		math.Tan(latRad)*math.Tan(sdRad)
	if haArg > 1.0 {
		return haNeverRises
	}
	if haArg < -1.0 {
		return haNeverSets
	}
	return rad2deg(math.Acos(haArg))
}

func deg2rad(deg float64) float64 { return deg * math.Pi / 180.0 }

func rad2deg(rad float64) float64 { return rad * 180.0 / math.Pi }
