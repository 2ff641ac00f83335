package experiment

import "math"

// ChiSquare2x2 runs a chi-square independence test with Yates continuity
// correction on the 2x2 table [[a, b], [c, d]]. Returns the statistic and
// its p-value at one degree of freedom.
func ChiSquare2x2(a, b, c, d float64) (stat, p float64) {
	n := a + b + c + d
	if n == 0 {
		return 0, 1
	}
	row1 := a + b
	row2 := c + d
	col1 := a + c
	col2 := b + d
	if row1 == 0 || row2 == 0 || col1 == 0 || col2 == 0 {
		return 0, 1
	}

	diff := math.Abs(a*d-b*c) - n/2
	if diff < 0 {
		diff = 0
	}
	stat = n * diff * diff / (row1 * row2 * col1 * col2)
	return stat, chiSquarePValue1(stat)
}

// chiSquarePValue1 is the survival function of chi-square at one degree of
// freedom.
func chiSquarePValue1(x float64) float64 {
	if x <= 0 {
		return 1
	}
	return math.Erfc(math.Sqrt(x / 2))
}

// TwoSampleTTest runs a pooled-variance independent two-sample t-test and
// returns the statistic with its two-sided p-value.
func TwoSampleTTest(xs, ys []float64) (stat, p float64) {
	n1 := float64(len(xs))
	n2 := float64(len(ys))
	if n1 < 2 || n2 < 2 {
		return 0, 1
	}

	m1 := mean(xs)
	m2 := mean(ys)
	v1 := variance(xs, m1)
	v2 := variance(ys, m2)

	df := n1 + n2 - 2
	pooled := ((n1-1)*v1 + (n2-1)*v2) / df
	if pooled == 0 {
		if m1 == m2 {
			return 0, 1
		}
		return math.Inf(sign(m1 - m2)), 0
	}

	stat = (m1 - m2) / math.Sqrt(pooled*(1/n1+1/n2))
	p = regularizedIncompleteBeta(df/2, 0.5, df/(df+stat*stat))
	return stat, p
}

func sign(x float64) int {
	if x < 0 {
		return -1
	}
	return 1
}

func mean(xs []float64) float64 {
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func variance(xs []float64, m float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		d := x - m
		sum += d * d
	}
	return sum / float64(len(xs)-1)
}

// regularizedIncompleteBeta computes I_x(a, b) by continued fraction.
func regularizedIncompleteBeta(a, b, x float64) float64 {
	if x <= 0 {
		return 0
	}
	if x >= 1 {
		return 1
	}

	lgA, _ := math.Lgamma(a)
	lgB, _ := math.Lgamma(b)
	lgAB, _ := math.Lgamma(a + b)
	front := math.Exp(lgAB - lgA - lgB + a*math.Log(x) + b*math.Log(1-x))

	if x < (a+1)/(a+b+2) {
		return front * betaContinuedFraction(a, b, x) / a
	}
	return 1 - front*betaContinuedFraction(b, a, 1-x)/b
}

// betaContinuedFraction evaluates the incomplete beta continued fraction
// with the modified Lentz method.
func betaContinuedFraction(a, b, x float64) float64 {
	const (
		maxIterations = 200
		epsilon       = 3e-14
		tiny          = 1e-30
	)

	qab := a + b
	qap := a + 1
	qam := a - 1

	c := 1.0
	d := 1 - qab*x/qap
	if math.Abs(d) < tiny {
		d = tiny
	}
	d = 1 / d
	h := d

	for m := 1; m <= maxIterations; m++ {
		fm := float64(m)
		m2 := 2 * fm

		num := fm * (b - fm) * x / ((qam + m2) * (a + m2))
		d = 1 + num*d
		if math.Abs(d) < tiny {
			d = tiny
		}
		c = 1 + num/c
		if math.Abs(c) < tiny {
			c = tiny
		}
		d = 1 / d
		h *= d * c

		num = -(a + fm) * (qab + fm) * x / ((a + m2) * (qap + m2))
		d = 1 + num*d
		if math.Abs(d) < tiny {
			d = tiny
		}
		c = 1 + num/c
		if math.Abs(c) < tiny {
			c = tiny
		}
		d = 1 / d
		delta := d * c
		h *= delta

		if math.Abs(delta-1) < epsilon {
			break
		}
	}
	return h
}
