// Package simulate generates synthetic integer step series for tests and benchmarks
package simulate

import (
	"math"
	"math/rand/v2"

	"github.com/aouyang1/go-windowcast/table"

	"gonum.org/v1/gonum/floats"
)

type Series []float64

func (s Series) Add(src Series) Series {
	floats.Add(s, src)
	return s
}

// SetConst overwrites steps in [start, end) with val
func (s Series) SetConst(val float64, start, end int) Series {
	for i := max(start, 0); i < end && i < len(s); i++ {
		s[i] = val
	}
	return s
}

// Round rounds every value half up so the series can be written as an integer table row
func (s Series) Round() Series {
	for i, v := range s {
		s[i] = float64(table.Round(v))
	}
	return s
}

// Clip raises every value below lo to lo
func (s Series) Clip(lo float64) Series {
	for i, v := range s {
		if v < lo {
			s[i] = lo
		}
	}
	return s
}

// Keyed returns a table series whose key slot, step 0, holds key
func (s Series) Keyed(key int64) table.Series {
	values := make([]float64, len(s))
	copy(values, s)
	if len(values) > 0 {
		values[0] = float64(key)
	}
	return table.Series{Key: key, Values: values}
}

func GenerateConstY(n int, val float64) Series {
	y := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		y = append(y, val)
	}
	return Series(y)
}

// GenerateRampY is start + slope*i
func GenerateRampY(n int, start, slope float64) Series {
	y := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		y = append(y, start+slope*float64(i))
	}
	return Series(y)
}

func GenerateWaveY(n int, amp, period, order, offset float64) Series {
	y := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		val := amp * math.Sin(2.0*math.Pi*order/period*(float64(i)+offset))
		y = append(y, val)
	}
	return Series(y)
}

func GenerateNoise(n int, rng *rand.Rand, noiseScale float64) Series {
	y := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		y = append(y, rng.NormFloat64()*noiseScale)
	}
	return Series(y)
}

// GenerateChange is zero before chpt and bias + slope*(i-chpt) from chpt onwards
func GenerateChange(n, chpt int, bias, slope float64) Series {
	y := make([]float64, n)
	for i := max(chpt, 0); i < n; i++ {
		y[i] = bias + slope*float64(i-chpt)
	}
	return Series(y)
}

// Products builds n weekly-seasonal demand like series of the given length keyed 1..n.
// Output is deterministic for a seed.
func Products(n, length int, seed uint64) []table.Series {
	rng := rand.New(rand.NewPCG(seed, seed))

	res := make([]table.Series, 0, n)
	for p := 0; p < n; p++ {
		level := 20 + 80*rng.Float64()
		s := GenerateConstY(length, level).
			Add(GenerateRampY(length, 0, rng.Float64()*0.2-0.1)).
			Add(GenerateWaveY(length, level*0.2, 7, 1, rng.Float64()*7)).
			Add(GenerateNoise(length, rng, level*0.05)).
			Clip(0).
			Round()
		res = append(res, s.Keyed(int64(p+1)))
	}
	return res
}
