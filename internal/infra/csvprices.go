package infra

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
)

// Exported price dumps use a comma as the decimal separator and always
// carry exactly two decimals.
var priceToken = regexp.MustCompile(`\d+,\d\d`)

// LoadPricesCSV extracts every price token from the file, in file order.
// Lines may carry any number of tokens; everything around them is ignored.
func LoadPricesCSV(path string) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open price file: %w", err)
	}
	defer f.Close()

	var prices []float64

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		for _, token := range priceToken.FindAllString(scanner.Text(), -1) {
			v, err := strconv.ParseFloat(strings.Replace(token, ",", ".", 1), 64)
			if err != nil {
				return nil, fmt.Errorf("parse price %q: %w", token, err)
			}
			prices = append(prices, v)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read price file: %w", err)
	}

	if len(prices) == 0 {
		return nil, fmt.Errorf("no prices found in %s", path)
	}
	return prices, nil
}
