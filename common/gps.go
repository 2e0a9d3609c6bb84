package common

// Decimal-degree precision, https://en.wikipedia.org/wiki/Decimal_degrees
// 5 places resolves individual trees and houses (~1.1m at the equator),
// which is as fine as consumer GPS hardware is honest about.

const (
	// GPSPrecision3 is the precision for neighborhood, street
	GPSPrecision3 = 3
	// GPSPrecision4 is the precision for individual street, large buildings
	GPSPrecision4 = 4
	// GPSPrecision5 is the precision for individual trees, houses
	GPSPrecision5 = 5
)
