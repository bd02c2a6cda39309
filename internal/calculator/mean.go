package calculator

import "errors"

// CalculateMean returns the arithmetic mean of prices.
func CalculateMean(prices []int) (float64, error) {
	if len(prices) == 0 {
		return 0, errors.New("no prices provided")
	}
	sum := 0
	for _, p := range prices {
		sum += p
	}
	return float64(sum) / float64(len(prices)), nil
}

// CalculateAverage returns the mean truncated toward zero.
func CalculateAverage(prices []int) (int, error) {
	mean, err := CalculateMean(prices)
	if err != nil {
		return 0, err
	}
	return int(mean), nil
}
