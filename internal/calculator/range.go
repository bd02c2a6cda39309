package calculator

import "errors"

// CalculateRange scans prices and returns the lowest and highest value.
func CalculateRange(prices []int) (low, high int, err error) {
	if len(prices) == 0 {
		return 0, 0, errors.New("no prices provided")
	}
	low, high = prices[0], prices[0]
	for _, p := range prices[1:] {
		if p < low {
			low = p
		}
		if p > high {
			high = p
		}
	}
	return low, high, nil
}
