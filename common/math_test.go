package common

import "testing"

func TestDecimalToFixed(t *testing.T) {
	cases := []struct {
		num       float64
		precision int
		want      float64
	}{
		{33.333333, 2, 33.33},
		{66.666666, 2, 66.67},
		{-1.006, 2, -1.01},
		{0.125, 2, 0.13},
		{9.7, 0, 10},
		{46.948051, GPSPrecision5, 46.94805},
	}
	for _, c := range cases {
		if got := DecimalToFixed(c.num, c.precision); got != c.want {
			t.Errorf("DecimalToFixed(%v, %d) = %v, want %v", c.num, c.precision, got, c.want)
		}
	}
}
