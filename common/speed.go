package common

// KmhPerMps converts meters/second to kilometers/hour.
const KmhPerMps = 3.6

// Reference speeds in km/h, for sanity checks and test fixtures.

const SpeedOfWalkingSlowKmh = 1.8
const SpeedOfWalkingMeanKmh = 4.3

const SpeedOfCyclingMeanKmh = 19.3

const SpeedOfDrivingCityKmh = 50.0
const SpeedOfDrivingHighwayKmh = 91.0
